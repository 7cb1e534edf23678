package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/echefulouis/drug-verification-system/internal/config"
)

func TestDetectText(t *testing.T) {
	var gotPath, gotKey, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			ImageKey string `json:"imageKey"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotKey = body.ImageKey

		resp := map[string]any{
			"lines": []map[string]any{
				{"text": "PARACETAMOL 500MG", "confidence": 98.1},
				{"text": "A4-101466", "confidence": 91.2},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(config.OCRConfig{
		Endpoint: srv.URL,
		APIKey:   "ocr-key",
		Timeout:  5 * time.Second,
	})

	lines, err := client.DetectText(context.Background(), "images/2024_abc.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/detect-text" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "images/2024_abc.jpg" {
		t.Fatalf("unexpected image key %q", gotKey)
	}
	if gotAuth != "Bearer ocr-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1].Text != "A4-101466" || lines[1].Confidence != 91.2 {
		t.Fatalf("unexpected line %+v", lines[1])
	}
}

func TestDetectTextServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad image", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(config.OCRConfig{Endpoint: srv.URL})
	if _, err := client.DetectText(context.Background(), "images/x.jpg"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
