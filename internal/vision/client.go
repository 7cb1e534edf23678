// Package vision extracts a product name from a packaging photo using a
// vision-capable chat model. It is the fallback when recognition finds no
// registration number.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/echefulouis/drug-verification-system/internal/config"
)

const namePrompt = "Extract only the drug name from this pharmaceutical product. " +
	"Return just the name, nothing else. Keep hyphens if present."

// Client implements product naming against an OpenAI-compatible
// chat-completions endpoint.
type Client struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client
}

// NewClient builds a client from configuration.
func NewClient(cfg config.VisionConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// DescribeProduct sends the image (plus any recognized text as context) and
// returns the bare product name: first response line, quotes and surrounding
// whitespace stripped.
func (c *Client) DescribeProduct(ctx context.Context, image []byte, textContext string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("vision client misconfigured")
	}

	prompt := namePrompt
	if textContext != "" {
		prompt = fmt.Sprintf("%s Text recognized on the packaging: %s", namePrompt, textContext)
	}

	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	body, err := json.Marshal(map[string]any{
		"model":      c.model,
		"max_tokens": 50,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
					{"type": "text", "text": prompt},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal vision payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("describe product: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("vision error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("vision response has no choices")
	}

	return CleanName(out.Choices[0].Message.Content), nil
}

// CleanName reduces a model response to the bare product name: surrounding
// whitespace and quotes trimmed, first line only.
func CleanName(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.Trim(name, `"'`)
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}
