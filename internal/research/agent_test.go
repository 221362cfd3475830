package research

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoanghai1803/aitracker/internal/agent"
	"github.com/hoanghai1803/aitracker/internal/config"
	"github.com/hoanghai1803/aitracker/internal/llm"
	"github.com/hoanghai1803/aitracker/internal/models"
)

const testQuery = "AI testing" + querySuffix

type cannedLLM struct {
	reply string
	err   error
	calls int
	last  []llm.Message
	opts  llm.Options
}

func (c *cannedLLM) Generate(_ context.Context, messages []llm.Message, opts llm.Options) (*llm.Response, error) {
	c.calls++
	c.last = messages
	c.opts = opts
	if c.err != nil {
		return nil, c.err
	}
	return &llm.Response{Content: c.reply}, nil
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestAgent(t *testing.T, client llm.Client, searcher *fakeSearcher, domains ...string) *Agent {
	t.Helper()
	if len(domains) == 0 {
		domains = []string{"github.com", "medium.com"}
	}
	a, err := New(client, searcher, agent.NewMemory(10), config.ResearchConfig{MaxResults: 5, Domains: domains})
	require.NoError(t, err)
	a.now = func() time.Time { return fixedNow }
	a.newID = func() string { return "test-id" }
	return a
}

func TestResearchTopic(t *testing.T) {
	dup := models.SearchResult{Title: "dup", URL: "https://github.example/0"}
	searcher := &fakeSearcher{results: map[string][]models.SearchResult{
		"site:github.com " + testQuery: hits("github", 3),
		"site:medium.com " + testQuery: append([]models.SearchResult{dup, {Title: "no url"}}, hits("medium", 2)...),
	}}
	client := &cannedLLM{reply: "Summary text.\n\nKey points:\n1. Agents write tests\n2. Reviews matter\n• Bullet point"}
	a := newTestAgent(t, client, searcher)

	got, err := a.ResearchTopic(context.Background(), "AI testing", 4)
	require.NoError(t, err)

	assert.Equal(t, "test-id", got.ID)
	assert.Equal(t, "AI testing", got.Topic)
	assert.Equal(t, fixedNow, got.SearchDate)
	assert.Equal(t, 3, got.SourcesSearched)
	assert.Equal(t, 4, got.ResultsFound)

	var urls []string
	for _, r := range got.Results {
		urls = append(urls, r.URL)
	}
	assert.Equal(t, []string{
		"https://github.example/0",
		"https://github.example/1",
		"https://github.example/2",
		"https://medium.example/0",
	}, urls)

	require.NotNil(t, got.Analysis)
	assert.Equal(t, client.reply, got.Analysis.Summary)
	assert.Equal(t, []string{"Agents write tests", "Reviews matter", "Bullet point"}, got.Analysis.KeyPoints)
	require.NotNil(t, got.Analysis.AnalysisDate)
	assert.Empty(t, got.Analysis.Error)

	assert.Equal(t, 1, client.calls)
	require.Len(t, client.last, 2)
	assert.Equal(t, llm.RoleSystem, client.last[0].Role)
	assert.Contains(t, client.last[1].Content, "'AI testing'")
	assert.Contains(t, client.last[1].Content, "Source: github 0 (https://github.example/0)")
	require.NotNil(t, client.opts.Temperature)
	assert.InDelta(t, 0.7, *client.opts.Temperature, 1e-9)
	assert.Equal(t, 1000, client.opts.MaxTokens)

	require.Len(t, searcher.calls, 2, "no fallback search when domains return results")
	for _, c := range searcher.calls {
		assert.Equal(t, perDomainResults, c.limit)
	}
	assert.Equal(t, agent.StateIdle, a.State())
}

func TestResearchTopic_Observation(t *testing.T) {
	searcher := &fakeSearcher{}
	a := newTestAgent(t, &cannedLLM{}, searcher)

	_, err := a.ResearchTopic(context.Background(), "AI testing", 0)
	require.NoError(t, err)

	items := a.Memory().Retrieve("", -1)
	var research []agent.MemoryItem
	for _, it := range items {
		if it.Metadata["source"] == "research" {
			research = append(research, it)
		}
	}
	require.Len(t, research, 1)
	assert.Equal(t, "Completed research on AI testing", research[0].Content)
	assert.Equal(t, "test-id", research[0].Metadata["research_id"])
	assert.Equal(t, "No relevant information found.", research[0].Metadata["results_summary"])
}

func TestResearchTopic_FallbackSearch(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.SearchResult{
		testQuery: hits("general", 20),
	}}
	a := newTestAgent(t, &cannedLLM{reply: "plain prose with no list"}, searcher)

	got, err := a.ResearchTopic(context.Background(), "AI testing", 3)
	require.NoError(t, err)

	require.Len(t, searcher.calls, 3)
	fallback := searcher.calls[2]
	assert.Equal(t, testQuery, fallback.query)
	assert.Equal(t, 6, fallback.limit)

	assert.Equal(t, 3, got.ResultsFound)
	assert.Equal(t, []string{"No specific key points extracted."}, got.Analysis.KeyPoints)
}

func TestResearchTopic_EmptyResultsSkipLLM(t *testing.T) {
	client := &cannedLLM{reply: "unused"}
	a := newTestAgent(t, client, &fakeSearcher{})

	got, err := a.ResearchTopic(context.Background(), "AI testing", 5)
	require.NoError(t, err)

	assert.Zero(t, client.calls)
	assert.Equal(t, 0, got.ResultsFound)
	assert.Empty(t, got.Results)
	assert.Equal(t, &models.Analysis{Summary: "No relevant information found.", KeyPoints: []string{}}, got.Analysis)

	body, err := json.Marshal(got)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &fields))
	assert.JSONEq(t, `[]`, string(fields["results"]))
}

func TestResearchTopic_SearchFailuresAreSoft(t *testing.T) {
	a := newTestAgent(t, &cannedLLM{}, &fakeSearcher{err: errors.New("blocked")})

	got, err := a.ResearchTopic(context.Background(), "AI testing", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ResultsFound)
	assert.Equal(t, agent.StateIdle, a.State())
}

func TestResearchTopic_LLMError(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.SearchResult{
		"site:github.com " + testQuery: hits("github", 1),
	}}
	a := newTestAgent(t, &cannedLLM{err: errors.New("quota exceeded")}, searcher)

	got, err := a.ResearchTopic(context.Background(), "AI testing", 5)
	require.NoError(t, err)
	assert.Equal(t, "Error analyzing search results.", got.Analysis.Summary)
	assert.Equal(t, []string{"Analysis failed due to an error."}, got.Analysis.KeyPoints)
	assert.Contains(t, got.Analysis.Error, "quota exceeded")
	assert.Nil(t, got.Analysis.AnalysisDate)
}

func TestResearchTopic_NoLLM(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.SearchResult{
		"site:github.com " + testQuery: hits("github", 1),
	}}
	a := newTestAgent(t, nil, searcher)

	got, err := a.ResearchTopic(context.Background(), "AI testing", 5)
	require.NoError(t, err)
	assert.Contains(t, got.Analysis.Error, llm.ErrNotConfigured.Error())
}

func TestResearchTopic_CanceledSetsErrorState(t *testing.T) {
	a := newTestAgent(t, &cannedLLM{}, &fakeSearcher{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := a.ResearchTopic(ctx, "AI testing", 5)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
	assert.Equal(t, agent.StateError, a.State())
}

func TestResearchTopic_DefaultDomains(t *testing.T) {
	a, err := New(nil, &fakeSearcher{}, nil, config.ResearchConfig{})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultDomains, a.Domains())
	assert.Equal(t, DefaultMaxResults, a.maxResults)

	got, err := a.ResearchTopic(context.Background(), "x", 0)
	require.NoError(t, err)
	assert.Equal(t, len(config.DefaultDomains)+1, got.SourcesSearched)
}

func TestWrappers(t *testing.T) {
	t.Run("compare with no tools", func(t *testing.T) {
		searcher := &fakeSearcher{}
		a := newTestAgent(t, &cannedLLM{}, searcher)

		got, err := a.CompareTools(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, &models.ResearchResult{Error: "No tools provided for comparison"}, got)
		assert.Empty(t, searcher.calls)
	})

	tests := []struct {
		name  string
		run   func(a *Agent) (*models.ResearchResult, error)
		topic string
	}{
		{
			name:  "compare",
			run:   func(a *Agent) (*models.ResearchResult, error) { return a.CompareTools(context.Background(), []string{"Copilot", "Cursor"}) },
			topic: "compare Copilot vs Cursor for software engineering automation",
		},
		{
			name:  "latest",
			run:   func(a *Agent) (*models.ResearchResult, error) { return a.LatestDevelopments(context.Background(), 14) },
			topic: "latest developments in AI for software engineering automation last 14 days",
		},
		{
			name:  "trends",
			run:   func(a *Agent) (*models.ResearchResult, error) { return a.ResearchTrends(context.Background()) },
			topic: "emerging trends in AI for software engineering automation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			a := newTestAgent(t, &cannedLLM{}, searcher, "github.com")

			got, err := tt.run(a)
			require.NoError(t, err)
			assert.Equal(t, tt.topic, got.Topic)
			require.NotEmpty(t, searcher.calls)
			assert.Equal(t, "site:github.com "+tt.topic+querySuffix, searcher.calls[0].query)
		})
	}
}

func TestDedupe(t *testing.T) {
	in := []models.SearchResult{
		{URL: "a", Title: "first"},
		{URL: ""},
		{URL: "a", Title: "second"},
		{URL: "b"},
		{URL: "c"},
	}
	got := dedupe(in, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, "b", got[1].URL)

	assert.NotNil(t, dedupe(nil, 5))
}

func TestExtractKeyPoints(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "numbered", text: "Intro\n1. First\n2.Second\n", want: []string{"First", "Second"}},
		{name: "bullets need trigger", text: "• one\n• two", want: nil},
		{name: "bullets with key points header", text: "Key Points:\n• one\n• two", want: []string{"one", "two"}},
		{name: "no list", text: "just prose", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractKeyPoints(tt.text))
		})
	}
}
