// Package ocr talks to the external text-recognition service.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/echefulouis/drug-verification-system/internal/config"
)

// Line is one recognized text line with its recognition confidence (0-100).
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Client calls the recognition service over HTTP. The service reads the image
// straight from blob storage, so requests carry only the object key.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.OCRConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// DetectText submits the stored image for recognition and returns the
// recognized lines in reading order.
func (c *Client) DetectText(ctx context.Context, imageKey string) ([]Line, error) {
	body, err := json.Marshal(map[string]string{"imageKey": imageKey})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/detect-text", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detect text: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("ocr service returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var out struct {
		Lines []Line `json:"lines"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Lines, nil
}
