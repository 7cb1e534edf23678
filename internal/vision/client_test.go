package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/echefulouis/drug-verification-system/internal/config"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "multiline_truncated_to_first_line",
			raw:  "Lisinopril 10mg Tablets\nTrust me",
			want: "Lisinopril 10mg Tablets",
		},
		{
			name: "quotes_and_whitespace_trimmed",
			raw:  `  "Paracetamol"  `,
			want: "Paracetamol",
		},
		{
			name: "single_quotes",
			raw:  "'Coartem'",
			want: "Coartem",
		},
		{
			name: "empty",
			raw:  "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanName(tt.raw); got != tt.want {
				t.Errorf("CleanName(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDescribeProduct(t *testing.T) {
	var gotAuth string
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "  Amoxil\nIt is an antibiotic."}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(config.VisionConfig{
		Endpoint: srv.URL,
		Model:    "gpt-4o-mini",
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
	})

	name, err := client.DescribeProduct(context.Background(), []byte("jpeg"), "some packaging text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Amoxil" {
		t.Fatalf("expected Amoxil, got %q", name)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotModel != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", gotModel)
	}
}

func TestDescribeProductMisconfigured(t *testing.T) {
	client := NewClient(config.VisionConfig{})
	if _, err := client.DescribeProduct(context.Background(), []byte("jpeg"), ""); err == nil {
		t.Fatal("expected error for missing configuration")
	}
}

func TestDescribeProductServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(config.VisionConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"})
	if _, err := client.DescribeProduct(context.Background(), []byte("jpeg"), ""); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
