package llm

import (
	"time"

	"github.com/hoanghai1803/aitracker/internal/config"
)

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are per-call generation settings. Zero values fall back to the
// provider defaults from config. Extra carries provider-specific request
// fields; it never overrides a field set through the typed options.
type Options struct {
	Temperature *float64
	MaxTokens   int
	TopP        *float64
	Stop        []string
	Extra       map[string]any
}

// Float returns a pointer to v, for use in Options.
func Float(v float64) *float64 { return &v }

// Usage reports token accounting for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the normalized result of a generation call.
type Response struct {
	Content      string `json:"content"`
	Usage        Usage  `json:"usage"`
	Model        string `json:"model"`
	FinishReason string `json:"finish_reason"`
}

// ProviderConfig holds the configuration needed to create an LLM client.
type ProviderConfig struct {
	Provider    string // "openai" | "anthropic" | "gemini"
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	Timeout     time.Duration

	// BaseURL overrides the provider endpoint. Empty selects the public API.
	BaseURL string
}

// ConfigFromSettings maps the [llm] config section onto a ProviderConfig.
func ConfigFromSettings(c config.LLMConfig) ProviderConfig {
	return ProviderConfig{
		Provider:    c.Provider,
		APIKey:      c.APIKey,
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		MaxRetries:  c.MaxRetries,
		Timeout:     c.RequestTimeout(),
	}
}

// generation is Options with the provider defaults applied.
type generation struct {
	temperature float64
	maxTokens   int
	topP        *float64
	stop        []string
	extra       map[string]any
}

func (c ProviderConfig) resolve(opts Options) generation {
	g := generation{
		temperature: c.Temperature,
		maxTokens:   c.MaxTokens,
		topP:        opts.TopP,
		stop:        opts.Stop,
		extra:       opts.Extra,
	}
	if opts.Temperature != nil {
		g.temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		g.maxTokens = opts.MaxTokens
	}
	if g.maxTokens <= 0 {
		g.maxTokens = 2000
	}
	return g
}
