package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// Compile-time interface check.
var _ Client = (*GeminiProvider)(nil)

// GeminiProvider implements Client using the Google GenAI SDK.
type GeminiProvider struct {
	cfg    ProviderConfig
	client *genai.Client
}

// NewGeminiProvider creates a GeminiProvider backed by the Gemini API.
func NewGeminiProvider(ctx context.Context, cfg ProviderConfig) (*GeminiProvider, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiProvider{cfg: cfg, client: client}, nil
}

// Generate implements Client. Extra options have no typed counterpart in
// the SDK and are ignored.
func (p *GeminiProvider) Generate(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	g := p.cfg.resolve(opts)
	if len(g.extra) > 0 {
		slog.Debug("ignoring extra generation options for gemini", "count", len(g.extra))
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(g.temperature)),
		MaxOutputTokens: int32(g.maxTokens),
		StopSequences:   g.stop,
	}
	if g.topP != nil {
		genCfg.TopP = genai.Ptr(float32(*g.topP))
	}
	if len(system) > 0 {
		genCfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	slog.Debug("calling Gemini API", "model", p.cfg.Model, "messages", len(contents))

	result, err := p.client.Models.GenerateContent(ctx, p.cfg.Model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", translateGenAIError(err))
	}
	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("gemini generate: %w", errors.New("empty response: no candidates returned"))
	}

	resp := &Response{
		Content:      result.Text(),
		Model:        result.ModelVersion,
		FinishReason: string(result.Candidates[0].FinishReason),
	}
	if resp.Model == "" {
		resp.Model = p.cfg.Model
	}
	if u := result.UsageMetadata; u != nil {
		resp.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return resp, nil
}

// translateGenAIError maps SDK API errors onto APIError so retry
// classification works the same for every provider.
func translateGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &APIError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return err
}
