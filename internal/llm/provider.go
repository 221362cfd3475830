// Package llm talks to hosted large language models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("llm client not configured")

// Client is the interface that all LLM providers must implement.
type Client interface {
	// Generate sends the conversation to the model and returns its reply.
	Generate(ctx context.Context, messages []Message, opts Options) (*Response, error)
}

// APIError is a non-success reply from a provider API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// NewClient creates the appropriate provider based on config. When
// MaxRetries is positive the provider is wrapped in a RetryClient.
func NewClient(cfg ProviderConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider %q: %w", cfg.Provider, ErrNotConfigured)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	var (
		client Client
		err    error
	)
	switch cfg.Provider {
	case "openai":
		client = NewOpenAIProvider(cfg)
	case "anthropic":
		client = NewAnthropicProvider(cfg)
	case "gemini":
		client, err = NewGeminiProvider(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}

	if cfg.MaxRetries > 0 {
		client = NewRetryClient(client, cfg.MaxRetries)
	}
	return client, nil
}

// postJSON marshals body, applies extra fields that the typed request did
// not set, posts it and decodes a successful reply into out. errorMessage
// pulls a provider error message out of a failed reply body.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any, extra map[string]any, out any) error {
	payload, err := mergeExtra(body, extra)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

func mergeExtra(body any, extra map[string]any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	if len(extra) == 0 {
		return payload, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("merging extra options: %w", err)
	}
	for k, v := range extra {
		if _, set := fields[k]; !set {
			fields[k] = v
		}
	}
	payload, err = json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return payload, nil
}

// errorMessage extracts {"error":{"message":...}} from an error body, falling
// back to the raw body.
func errorMessage(body []byte) string {
	var parsed struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	msg := string(bytes.TrimSpace(body))
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
