package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hoanghai1803/aitracker/internal/metrics"
	"github.com/hoanghai1803/aitracker/internal/models"
)

const maxConcurrentScrapers = 4

var (
	// ErrUnknownSource is returned when a scraper name is not registered.
	ErrUnknownSource = errors.New("unknown source")

	// ErrDuplicateSource is returned when registering a name twice.
	ErrDuplicateSource = errors.New("duplicate source")
)

// Manager fans a scrape out over every registered scraper and merges the
// results newest first.
type Manager struct {
	scrapers []Scraper
	byName   map[string]Scraper
}

// NewManager creates a Manager with the given scrapers registered in order.
func NewManager(scrapers ...Scraper) (*Manager, error) {
	m := &Manager{byName: make(map[string]Scraper)}
	for _, s := range scrapers {
		if err := m.Register(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Register adds a scraper. Names must be unique.
func (m *Manager) Register(s Scraper) error {
	name := s.Name()
	if _, ok := m.byName[name]; ok {
		return fmt.Errorf("registering scraper %q: %w", name, ErrDuplicateSource)
	}
	m.byName[name] = s
	m.scrapers = append(m.scrapers, s)
	return nil
}

// Sources returns the registered scraper names in registration order.
func (m *Manager) Sources() []string {
	names := make([]string, 0, len(m.scrapers))
	for _, s := range m.scrapers {
		names = append(names, s.Name())
	}
	return names
}

// ScrapeAll runs every scraper and returns the merged articles sorted by
// published date, newest first. Articles with equal dates keep registration
// order. A failing scraper is logged and skipped.
func (m *Manager) ScrapeAll(ctx context.Context, query string) ([]models.ScrapedArticle, error) {
	// One slot per scraper keeps the merge independent of completion order.
	results := make([][]models.ScrapedArticle, len(m.scrapers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScrapers)

	for i, s := range m.scrapers {
		g.Go(func() error {
			articles, err := runScraper(gctx, s, query)
			if err != nil {
				slog.Error("failed to run scraper", "source", s.Name(), "error", err)
				metrics.ObserveScraperError(s.Name())
				return nil
			}
			results[i] = articles
			metrics.ObserveArticles(s.Name(), len(articles))
			slog.Info("scraper finished", "source", s.Name(), "articles", len(articles))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scraping sources: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scraping sources: %w", err)
	}

	articles := []models.ScrapedArticle{}
	for _, r := range results {
		articles = append(articles, r...)
	}
	slices.SortStableFunc(articles, func(a, b models.ScrapedArticle) int {
		return b.PublishedDate.Compare(a.PublishedDate)
	})
	return articles, nil
}

// ScrapeSingle runs the named scraper and returns its articles unsorted.
func (m *Manager) ScrapeSingle(ctx context.Context, name, query string) ([]models.ScrapedArticle, error) {
	s, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("scraper %q: %w", name, ErrUnknownSource)
	}

	articles, err := runScraper(ctx, s, query)
	if err != nil {
		metrics.ObserveScraperError(name)
		return nil, fmt.Errorf("running scraper %q: %w", name, err)
	}
	metrics.ObserveArticles(name, len(articles))
	if articles == nil {
		articles = []models.ScrapedArticle{}
	}
	return articles, nil
}

// runScraper calls s.Scrape and turns a panic into an error.
func runScraper(ctx context.Context, s Scraper, query string) (articles []models.ScrapedArticle, err error) {
	defer func() {
		if r := recover(); r != nil {
			articles = nil
			err = fmt.Errorf("scraper panicked: %v", r)
		}
	}()
	return s.Scrape(ctx, query)
}
