package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/hoanghai1803/aitracker/internal/agent"
	"github.com/hoanghai1803/aitracker/internal/models"
	"github.com/hoanghai1803/aitracker/internal/scraper"
)

// fakeScrapeService serves canned articles per source.
type fakeScrapeService struct {
	bySource  map[string][]models.ScrapedArticle
	order     []string
	err       error
	lastQuery string
}

func (f *fakeScrapeService) ScrapeAll(_ context.Context, query string) ([]models.ScrapedArticle, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	all := []models.ScrapedArticle{}
	for _, name := range f.order {
		all = append(all, f.bySource[name]...)
	}
	return all, nil
}

func (f *fakeScrapeService) ScrapeSingle(_ context.Context, source, query string) ([]models.ScrapedArticle, error) {
	f.lastQuery = query
	articles, ok := f.bySource[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scraper.ErrUnknownSource, source)
	}
	if f.err != nil {
		return nil, f.err
	}
	return articles, nil
}

func (f *fakeScrapeService) Sources() []string { return f.order }

// fakeResearcher records calls and returns a canned result.
type fakeResearcher struct {
	hasLLM  bool
	result  *models.ResearchResult
	err     error
	calls   []string
	topic   string
	max     int
	days    int
	names   []string
	schemas []agent.Schema
}

func (f *fakeResearcher) respond(call string) (*models.ResearchResult, error) {
	f.calls = append(f.calls, call)
	return f.result, f.err
}

func (f *fakeResearcher) ResearchTopic(_ context.Context, topic string, maxResults int) (*models.ResearchResult, error) {
	f.topic, f.max = topic, maxResults
	return f.respond("topic")
}

func (f *fakeResearcher) LatestDevelopments(_ context.Context, days int) (*models.ResearchResult, error) {
	f.days = days
	return f.respond("latest")
}

func (f *fakeResearcher) CompareTools(_ context.Context, names []string) (*models.ResearchResult, error) {
	f.names = names
	if len(names) == 0 {
		f.calls = append(f.calls, "compare")
		return &models.ResearchResult{Error: "No tools provided for comparison"}, nil
	}
	return f.respond("compare")
}

func (f *fakeResearcher) ResearchTrends(context.Context) (*models.ResearchResult, error) {
	return f.respond("trends")
}

func (f *fakeResearcher) HasLLM() bool { return f.hasLLM }

func (f *fakeResearcher) Tools() []agent.Schema { return f.schemas }

var errBoom = errors.New("boom")
