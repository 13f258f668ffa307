package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAI_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"command\":\"ls\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", srv.Client(), srv.URL+"/v1/")
	text, err := c.Complete(context.Background(), Request{
		Model:       "gpt-4.1-mini",
		Context:     Context{WorkingDir: "/tmp", OS: "Linux"},
		Text:        "list files",
		MaxTokens:   500,
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("Complete() = %v", err)
	}
	if text != `{"command":"ls"}` {
		t.Errorf("text = %q", text)
	}

	if got.Model != "gpt-4.1-mini" || got.MaxTokens != 500 || got.Temperature != 0.3 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != SystemPrompt {
		t.Fatalf("messages = %+v", got.Messages)
	}
	want := "Current directory: /tmp\nOperating System: Linux\nlist files"
	if got.Messages[1].Content != want {
		t.Errorf("user message = %q, want %q", got.Messages[1].Content, want)
	}
}

func TestOpenAI_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "no choices", status: 200, body: `{"choices":[]}`, wantErr: ErrNoResult},
		{name: "empty content", status: 200, body: `{"choices":[{"message":{"content":"  "}}]}`, wantErr: ErrNoResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOpenAI("k", srv.Client(), srv.URL).Complete(context.Background(), Request{Text: "x"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Complete() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpenAI_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, strings.Repeat("x", 2000), http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewOpenAI("k", srv.Client(), srv.URL).Complete(context.Background(), Request{Text: "x"})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Complete() = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", se.StatusCode)
	}
	if len(se.Body) > maxErrorBody {
		t.Errorf("Body length = %d, want <= %d", len(se.Body), maxErrorBody)
	}
	if !IsRetryable(err) {
		t.Error("503 should be retryable")
	}
}

func TestOpenAI_RequestValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := NewOpenAI("", nil, "").Complete(ctx, Request{Text: "x"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("missing key: %v, want ErrMissingAPIKey", err)
	}
	if _, err := NewOpenAI("k", nil, "").Complete(ctx, Request{Text: "  "}); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("blank prompt: %v, want ErrEmptyPrompt", err)
	}
}

func TestOpenAI_HonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewOpenAI("k", srv.Client(), srv.URL).Complete(ctx, Request{Text: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Complete() = %v, want context.Canceled", err)
	}
}
