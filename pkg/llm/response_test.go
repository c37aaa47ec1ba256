package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// --- Malformed 2xx Responses ---

func newProviderFor(t *testing.T, name, baseURL string) Provider {
	t.Helper()
	p, err := NewProvider(name, Config{APIKey: "sk-test-0123456789abcdef", BaseURL: baseURL})
	if err != nil {
		t.Fatalf("create %s provider: %v", name, err)
	}
	return p
}

func TestSendPrompt_BadSuccessBodies(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "null body", body: "null", wantErr: ErrEmptyResponse},
		{name: "empty object", body: "{}", wantErr: ErrEmptyResponse},
		{name: "invalid json", body: "{not json", wantErr: ErrMalformedResponse},
	}

	for _, provider := range []string{OpenRouter, OpenAI, Anthropic} {
		for _, tt := range tests {
			t.Run(provider+"/"+tt.name, func(t *testing.T) {
				ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					_, _ = w.Write([]byte(tt.body))
				}))
				defer ts.Close()

				got, err := newProviderFor(t, provider, ts.URL).SendPrompt(context.Background(), "prompt")
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if got != "" {
					t.Errorf("expected no text, got %q", got)
				}
			})
		}
	}
}

// --- Credential Checks ---

func TestAnthropic_ValidateCredentials_UsesDefaultModel(t *testing.T) {
	var gotModel any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotModel = decodeBody(t, r)["model"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(anthropicMessageJSON))
	}))
	defer ts.Close()

	p, _ := NewAnthropicProvider(Config{APIKey: "sk-ant-test", BaseURL: ts.URL, Model: "claude-typo"})
	if !p.ValidateCredentials(context.Background()) {
		t.Error("expected the key to be accepted")
	}
	if gotModel != DefaultModel(Anthropic) {
		t.Errorf("expected ping against %q, got %v", DefaultModel(Anthropic), gotModel)
	}
	if p.Model() != "claude-typo" {
		t.Errorf("expected configured model kept for prompts, got %q", p.Model())
	}
}

func TestOpenRouter_NoClientTimeout(t *testing.T) {
	p, err := NewOpenRouterProvider(Config{APIKey: "sk-or-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.httpClient.Timeout != 0 {
		t.Errorf("expected calls bounded by context only, got client timeout %v", p.httpClient.Timeout)
	}
}
