package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Compile-time interface check.
var _ Client = (*AnthropicProvider)(nil)

const (
	anthropicAPIURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// AnthropicProvider implements Client using the Anthropic Messages API.
type AnthropicProvider struct {
	cfg    ProviderConfig
	url    string
	client *http.Client
}

// NewAnthropicProvider creates an AnthropicProvider whose HTTP client times
// out after cfg.Timeout.
func NewAnthropicProvider(cfg ProviderConfig) *AnthropicProvider {
	url := cfg.BaseURL
	if url == "" {
		url = anthropicAPIURL
	}
	return &AnthropicProvider{
		cfg:    cfg,
		url:    url,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// anthropicRequest is the request body for the Anthropic Messages API.
type anthropicRequest struct {
	Model         string    `json:"model"`
	MaxTokens     int       `json:"max_tokens"`
	System        string    `json:"system,omitempty"`
	Messages      []Message `json:"messages"`
	Temperature   float64   `json:"temperature"`
	TopP          *float64  `json:"top_p,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

// anthropicResponse is the response body from the Anthropic Messages API.
type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate implements Client. System messages are hoisted into the
// top-level system field; the API only accepts user and assistant turns.
func (p *AnthropicProvider) Generate(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	g := p.cfg.resolve(opts)

	var (
		system []string
		turns  []Message
	)
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}

	reqBody := anthropicRequest{
		Model:         p.cfg.Model,
		MaxTokens:     g.maxTokens,
		System:        strings.Join(system, "\n\n"),
		Messages:      turns,
		Temperature:   g.temperature,
		TopP:          g.topP,
		StopSequences: g.stop,
	}

	slog.Debug("calling Anthropic API", "model", p.cfg.Model, "messages", len(turns))

	var apiResp anthropicResponse
	headers := map[string]string{
		"x-api-key":         p.cfg.APIKey,
		"anthropic-version": anthropicVersion,
	}
	if err := postJSON(ctx, p.client, p.url, headers, reqBody, g.extra, &apiResp); err != nil {
		return nil, fmt.Errorf("anthropic generate: %w", err)
	}

	var text strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("anthropic generate: %w", errors.New("empty response: no content blocks returned"))
	}

	return &Response{
		Content: text.String(),
		Usage: Usage{
			PromptTokens:     apiResp.Usage.InputTokens,
			CompletionTokens: apiResp.Usage.OutputTokens,
			TotalTokens:      apiResp.Usage.InputTokens + apiResp.Usage.OutputTokens,
		},
		Model:        apiResp.Model,
		FinishReason: apiResp.StopReason,
	}, nil
}
