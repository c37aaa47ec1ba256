package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// reasoningPrefixes identifies model families that reject temperature and
// max_tokens in favour of max_completion_tokens.
var reasoningPrefixes = []string{"gpt-5", "o1", "o3", "o4"}

// IsReasoningModel reports whether model belongs to a reasoning-era family.
func IsReasoningModel(model string) bool {
	m := strings.ToLower(model)
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	for _, prefix := range reasoningPrefixes {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

// OpenAIProvider implements Provider for direct OpenAI API access.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.retries()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  cfg.modelOr(OpenAI),
	}, nil
}

// SendPrompt sends a chat completion request.
func (p *OpenAIProvider) SendPrompt(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}

	var opts []option.RequestOption
	if IsReasoningModel(p.model) {
		params.MaxCompletionTokens = openai.Int(MaxTokens)
		opts = append(opts,
			option.WithJSONSet("reasoning_effort", "minimal"),
			option.WithJSONSet("verbosity", "low"),
		)
	} else {
		params.MaxTokens = openai.Int(MaxTokens)
		params.Temperature = openai.Float(Temperature)
	}

	return completeChat(ctx, &p.client, OpenAI, params, opts...)
}

// ValidateCredentials lists models, which costs nothing.
func (p *OpenAIProvider) ValidateCredentials(ctx context.Context) bool {
	_, err := p.client.Models.List(ctx)
	return err == nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return OpenAI
}

// Model returns the configured model name.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// completeChat runs a chat completion and returns the first choice's text.
func completeChat(ctx context.Context, client *openai.Client, provider string, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (string, error) {
	resp, err := client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return "", fromOpenAIError(provider, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%s: %w: null body", provider, ErrEmptyResponse)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w: no choices", provider, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

var _ Provider = (*OpenAIProvider)(nil)
