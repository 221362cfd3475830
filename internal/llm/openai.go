package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Compile-time interface check.
var _ Client = (*OpenAIProvider)(nil)

const openaiAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIProvider implements Client using the OpenAI Chat Completions API.
type OpenAIProvider struct {
	cfg    ProviderConfig
	url    string
	client *http.Client
}

// NewOpenAIProvider creates an OpenAIProvider whose HTTP client times out
// after cfg.Timeout.
func NewOpenAIProvider(cfg ProviderConfig) *OpenAIProvider {
	url := cfg.BaseURL
	if url == "" {
		url = openaiAPIURL
	}
	return &OpenAIProvider{
		cfg:    cfg,
		url:    url,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// openaiRequest is the request body for the OpenAI Chat Completions API.
type openaiRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	TopP        *float64  `json:"top_p,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
}

// openaiResponse is the response body from the OpenAI Chat Completions API.
type openaiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate implements Client.
func (p *OpenAIProvider) Generate(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	g := p.cfg.resolve(opts)
	reqBody := openaiRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		TopP:        g.topP,
		Stop:        g.stop,
	}

	slog.Debug("calling OpenAI API", "model", p.cfg.Model, "messages", len(messages))

	var apiResp openaiResponse
	headers := map[string]string{"Authorization": "Bearer " + p.cfg.APIKey}
	if err := postJSON(ctx, p.client, p.url, headers, reqBody, g.extra, &apiResp); err != nil {
		return nil, fmt.Errorf("openai generate: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("openai generate: %w", errors.New("empty response: no choices returned"))
	}

	choice := apiResp.Choices[0]
	return &Response{
		Content: choice.Message.Content,
		Usage: Usage{
			PromptTokens:     apiResp.Usage.PromptTokens,
			CompletionTokens: apiResp.Usage.CompletionTokens,
			TotalTokens:      apiResp.Usage.TotalTokens,
		},
		Model:        apiResp.Model,
		FinishReason: choice.FinishReason,
	}, nil
}
