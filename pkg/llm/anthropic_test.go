package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const anthropicMessageJSON = `{
	"id": "msg_1",
	"type": "message",
	"role": "assistant",
	"model": "claude-3-5-haiku-latest",
	"content": [{"type": "text", "text": "88"}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 10, "output_tokens": 1}
}`

func TestAnthropic_SendPrompt(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "sk-ant-test" {
			t.Errorf("expected x-api-key header, got %q", got)
		}
		if r.Header.Get("Anthropic-Version") == "" {
			t.Error("expected anthropic-version header")
		}

		body := decodeBody(t, r)
		if body["model"] != "claude-3-5-haiku-latest" {
			t.Errorf("expected default model, got %v", body["model"])
		}
		if body["max_tokens"] != float64(20) || body["temperature"] != 0.1 {
			t.Errorf("unexpected sampling controls: %v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(anthropicMessageJSON))
	}))
	defer ts.Close()

	p, err := NewAnthropicProvider(Config{APIKey: "sk-ant-test", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := p.SendPrompt(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "88" {
		t.Errorf("expected 88, got %q", got)
	}
}

func TestAnthropic_SendPrompt_NoTextBlock(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`))
	}))
	defer ts.Close()

	p, _ := NewAnthropicProvider(Config{APIKey: "sk-ant-test", BaseURL: ts.URL})
	if _, err := p.SendPrompt(context.Background(), "prompt"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestAnthropic_SendPrompt_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"model not found"}}`))
	}))
	defer ts.Close()

	p, _ := NewAnthropicProvider(Config{APIKey: "sk-ant-test", BaseURL: ts.URL})
	_, err := p.SendPrompt(context.Background(), "prompt")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Provider != Anthropic {
		t.Errorf("unexpected error fields: %+v", apiErr)
	}
	if !strings.Contains(apiErr.Body, "model not found") {
		t.Errorf("expected body text, got %q", apiErr.Body)
	}
}

func TestAnthropic_ValidateCredentials(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "accepted", status: http.StatusOK, want: true},
		{name: "rejected", status: http.StatusUnauthorized, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body := decodeBody(t, r)
				if body["max_tokens"] != float64(1) {
					t.Errorf("expected a one token check, got %v", body["max_tokens"])
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				if tt.status == http.StatusOK {
					_, _ = w.Write([]byte(anthropicMessageJSON))
				} else {
					_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
				}
			}))
			defer ts.Close()

			p, _ := NewAnthropicProvider(Config{APIKey: "sk-ant-test", BaseURL: ts.URL})
			if got := p.ValidateCredentials(context.Background()); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
