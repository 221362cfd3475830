package research

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hoanghai1803/aitracker/internal/agent"
	"github.com/hoanghai1803/aitracker/internal/models"
	"github.com/hoanghai1803/aitracker/internal/search"
)

// WebSearchName is the registered name of the web search tool.
const WebSearchName = "web_search"

const defaultNumResults = 5

// WebSearchOutput is the Output of a successful web_search call.
type WebSearchOutput struct {
	Query       string                `json:"query"`
	Results     []models.SearchResult `json:"results"`
	ResultCount int                   `json:"result_count"`
}

// WebSearchTool exposes a search.Searcher as an agent tool.
type WebSearchTool struct {
	searcher search.Searcher
}

// NewWebSearchTool creates a web search tool backed by searcher.
func NewWebSearchTool(searcher search.Searcher) *WebSearchTool {
	return &WebSearchTool{searcher: searcher}
}

func (t *WebSearchTool) Name() string { return WebSearchName }

func (t *WebSearchTool) Description() string {
	return "Search the web for information on a given topic"
}

func (t *WebSearchTool) Parameters() []agent.ToolParameter {
	return []agent.ToolParameter{
		{Name: "query", Kind: agent.KindString, Description: "The search query", Required: true},
		{Name: "num_results", Kind: agent.KindInteger, Description: "Number of search results to return (default: 5)", Default: defaultNumResults},
		{Name: "domain", Kind: agent.KindString, Description: "Optional domain to restrict the search to"},
	}
}

// Execute runs the search. Searcher failures are reported as a failed
// result rather than an error.
func (t *WebSearchTool) Execute(ctx context.Context, params map[string]any) (agent.ToolResult, error) {
	query, ok := params["query"].(string)
	if !ok {
		return agent.ToolResult{}, fmt.Errorf("parameter query must be a string, got %T", params["query"])
	}
	numResults, err := intParam(params["num_results"])
	if err != nil {
		return agent.ToolResult{}, err
	}
	domain, _ := params["domain"].(string)

	slog.Info("performing web search", "query", query, "domain", domain, "num_results", numResults)

	results, err := t.searcher.Search(ctx, query, domain, numResults)
	if err != nil {
		slog.Error("web search failed", "query", query, "error", err)
		return agent.Failed(fmt.Sprintf("Error performing web search: %v", err)), nil
	}
	if len(results) > numResults {
		results = results[:numResults]
	}
	if results == nil {
		results = []models.SearchResult{}
	}

	return agent.Succeeded(WebSearchOutput{
		Query:       query,
		Results:     results,
		ResultCount: len(results),
	}), nil
}

// intParam accepts the integer shapes a caller or a JSON decoder produces.
func intParam(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("parameter num_results must be a whole number, got %v", n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("parameter num_results must be an integer, got %T", v)
}
