// Package research implements the research agent, which searches a fixed set
// of sites for a topic and asks an LLM to analyze what it found.
package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hoanghai1803/aitracker/internal/agent"
	"github.com/hoanghai1803/aitracker/internal/config"
	"github.com/hoanghai1803/aitracker/internal/llm"
	"github.com/hoanghai1803/aitracker/internal/metrics"
	"github.com/hoanghai1803/aitracker/internal/models"
	"github.com/hoanghai1803/aitracker/internal/search"
)

const (
	// AgentName is the name the research agent registers under.
	AgentName = "AI Research Agent"

	// DefaultMaxResults caps the results of a research run when the caller
	// does not choose a limit.
	DefaultMaxResults = 5

	querySuffix       = " AI software engineering automation"
	perDomainResults  = 3
	analysisMaxTokens = 1000
	analysisTemp      = 0.7
)

// ErrMalformedOutput is returned when the search tool reports success with an
// output the agent cannot read.
var ErrMalformedOutput = errors.New("malformed search tool output")

var keyPointPattern = regexp.MustCompile(`(?:\d+\.\s*|•\s*)([^\n]+)`)

// Agent is a research agent. It embeds agent.Agent for tools, memory and
// state.
type Agent struct {
	*agent.Agent

	domains    []string
	maxResults int
	now        func() time.Time
	newID      func() string
}

// New creates a research agent with a registered web_search tool. client may
// be nil, in which case analysis of non-empty results reports an error.
func New(client llm.Client, searcher search.Searcher, memory *agent.Memory, cfg config.ResearchConfig) (*Agent, error) {
	base := agent.New(AgentName, agentRole, client, memory)
	if err := base.AddTool(NewWebSearchTool(searcher)); err != nil {
		return nil, fmt.Errorf("registering web search tool: %w", err)
	}

	domains := cfg.Domains
	if len(domains) == 0 {
		domains = config.DefaultDomains
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	slog.Info("initialized research agent", "name", AgentName, "domains", len(domains))
	return &Agent{
		Agent:      base,
		domains:    domains,
		maxResults: maxResults,
		now:        time.Now,
		newID:      newResearchID,
	}, nil
}

func newResearchID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Domains returns the sites searched by every research run.
func (a *Agent) Domains() []string { return a.domains }

// ResearchTopic searches every configured domain for topic, falls back to an
// unscoped search when nothing is found, and analyzes up to maxResults unique
// results. A non-positive maxResults selects the configured default.
//
// Errors are returned only for failures outside the analysis step, such as
// context cancellation. They leave the agent in StateError.
func (a *Agent) ResearchTopic(ctx context.Context, topic string, maxResults int) (*models.ResearchResult, error) {
	if maxResults <= 0 {
		maxResults = a.maxResults
	}
	id := a.newID()
	logger := slog.With("research_id", id, "topic", topic)

	a.SetState(agent.StateThinking)
	logger.Info("starting research")

	results, err := a.gather(ctx, topic+querySuffix, maxResults)
	if err != nil {
		a.SetState(agent.StateError)
		metrics.ObserveResearch(false)
		logger.Error("research failed", "error", err)
		return nil, fmt.Errorf("researching %q: %w", topic, err)
	}

	analysis := a.analyze(ctx, topic, results)

	result := &models.ResearchResult{
		ID:              id,
		Topic:           topic,
		SearchDate:      a.now().UTC(),
		SourcesSearched: len(a.domains) + 1,
		ResultsFound:    len(results),
		Results:         results,
		Analysis:        analysis,
	}

	a.Observe("research", "Completed research on "+topic, map[string]any{
		"research_id":     id,
		"topic":           topic,
		"results_summary": analysis.Summary,
	})

	a.SetState(agent.StateIdle)
	metrics.ObserveResearch(true)
	logger.Info("research complete", "results", len(results))
	return result, nil
}

// gather runs the per-domain searches, the fallback search, and the URL
// dedupe. Per-domain results are accumulated uncapped before the dedupe.
func (a *Agent) gather(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	var all []models.SearchResult
	for _, domain := range a.domains {
		found, err := a.search(ctx, "site:"+domain+" "+query, perDomainResults)
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}

	if len(all) == 0 {
		found, err := a.search(ctx, query, maxResults*2)
		if err != nil {
			return nil, err
		}
		all = found
	}

	return dedupe(all, maxResults), nil
}

// search runs one web_search action. A failed action yields no results; a
// canceled context or an unreadable output is an error.
func (a *Agent) search(ctx context.Context, query string, numResults int) ([]models.SearchResult, error) {
	res := a.Act(ctx, WebSearchName, map[string]any{
		"query":       query,
		"num_results": numResults,
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, nil
	}

	out, ok := res.Output.(WebSearchOutput)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrMalformedOutput, res.Output)
	}
	return out.Results, nil
}

// dedupe keeps the first result per URL, drops results without a URL, and
// stops at limit.
func dedupe(results []models.SearchResult, limit int) []models.SearchResult {
	unique := make([]models.SearchResult, 0, min(len(results), limit))
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		if len(unique) >= limit {
			break
		}
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		unique = append(unique, r)
	}
	return unique
}

// analyze asks the LLM for a digest of results. LLM failures are reported
// inside the returned Analysis.
func (a *Agent) analyze(ctx context.Context, topic string, results []models.SearchResult) *models.Analysis {
	if len(results) == 0 {
		return &models.Analysis{Summary: "No relevant information found.", KeyPoints: []string{}}
	}

	system, prompt := AnalysisPrompt(topic, results)
	text, err := a.GenerateText(ctx, prompt, system, llm.Options{
		Temperature: llm.Float(analysisTemp),
		MaxTokens:   analysisMaxTokens,
	})
	if err != nil {
		slog.Error("failed to analyze research results", "topic", topic, "error", err)
		return &models.Analysis{
			Summary:   "Error analyzing search results.",
			KeyPoints: []string{"Analysis failed due to an error."},
			Error:     err.Error(),
		}
	}

	keyPoints := extractKeyPoints(text)
	if len(keyPoints) == 0 {
		keyPoints = []string{"No specific key points extracted."}
	}
	analyzed := a.now().UTC()
	return &models.Analysis{
		Summary:      text,
		KeyPoints:    keyPoints,
		AnalysisDate: &analyzed,
	}
}

// extractKeyPoints pulls numbered or bulleted lines out of an analysis.
func extractKeyPoints(text string) []string {
	if !strings.Contains(strings.ToLower(text), "key points") && !strings.Contains(text, "1.") {
		return nil
	}
	var points []string
	for _, m := range keyPointPattern.FindAllStringSubmatch(text, -1) {
		if p := strings.TrimSpace(m[1]); p != "" {
			points = append(points, p)
		}
	}
	return points
}

// LatestDevelopments researches what changed in the last days days.
func (a *Agent) LatestDevelopments(ctx context.Context, days int) (*models.ResearchResult, error) {
	topic := fmt.Sprintf("latest developments in AI for software engineering automation last %d days", days)
	return a.ResearchTopic(ctx, topic, a.maxResults)
}

// CompareTools researches how the named tools compare. With no names it
// returns a result carrying only an error message.
func (a *Agent) CompareTools(ctx context.Context, names []string) (*models.ResearchResult, error) {
	if len(names) == 0 {
		return &models.ResearchResult{Error: "No tools provided for comparison"}, nil
	}
	topic := fmt.Sprintf("compare %s for software engineering automation", strings.Join(names, " vs "))
	return a.ResearchTopic(ctx, topic, a.maxResults)
}

// ResearchTrends researches emerging trends.
func (a *Agent) ResearchTrends(ctx context.Context) (*models.ResearchResult, error) {
	return a.ResearchTopic(ctx, "emerging trends in AI for software engineering automation", a.maxResults)
}
