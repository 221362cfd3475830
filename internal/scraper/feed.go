package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hoanghai1803/aitracker/internal/config"
	"github.com/hoanghai1803/aitracker/internal/models"
)

// TechNewsName is the registered name of the default tech news scraper.
const TechNewsName = "tech_news"

// Scraper produces articles from one logical source.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, query string) ([]models.ScrapedArticle, error)
}

// FeedConfig describes an RSS/Atom backed scraper.
type FeedConfig struct {
	Name       string
	Feeds      []string
	MaxEntries int
	RateLimit  time.Duration
}

// FeedScraper walks a static list of feeds and turns relevant entries into
// tagged articles.
type FeedScraper struct {
	name       string
	feeds      []string
	maxEntries int
	fetcher    *Fetcher
	extractor  Extractor
	now        func() time.Time
}

// NewFeedScraper creates a FeedScraper with its own rate-limited Fetcher.
func NewFeedScraper(cfg FeedConfig, extractor Extractor) *FeedScraper {
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10
	}
	return &FeedScraper{
		name:       cfg.Name,
		feeds:      append([]string(nil), cfg.Feeds...),
		maxEntries: maxEntries,
		fetcher:    NewFetcher(cfg.RateLimit),
		extractor:  extractor,
		now:        time.Now,
	}
}

// NewTechNewsScraper creates the default tech news scraper from config.
func NewTechNewsScraper(cfg config.ScraperConfig) *FeedScraper {
	return NewFeedScraper(FeedConfig{
		Name:       TechNewsName,
		Feeds:      cfg.Feeds,
		MaxEntries: cfg.MaxEntriesPerFeed,
		RateLimit:  cfg.RateLimit(),
	}, NewArticleExtractor())
}

// Name returns the scraper's registered name.
func (s *FeedScraper) Name() string { return s.name }

// Scrape processes every configured feed in order. Failures of a single feed
// or entry are logged and skipped. The returned articles are unsorted. The
// only error is a canceled context.
func (s *FeedScraper) Scrape(ctx context.Context, query string) ([]models.ScrapedArticle, error) {
	var articles []models.ScrapedArticle

	for _, feedURL := range s.feeds {
		if err := ctx.Err(); err != nil {
			return articles, fmt.Errorf("scraping %s: %w", s.name, err)
		}

		feed, err := s.fetchFeed(ctx, feedURL)
		if err != nil {
			slog.Error("failed to process feed", "scraper", s.name, "feed", feedURL, "error", err)
			continue
		}

		items := feed.Items
		if len(items) > s.maxEntries {
			items = items[:s.maxEntries]
		}

		for _, item := range items {
			article, ok := s.processEntry(ctx, item, query)
			if ok {
				articles = append(articles, article)
			}
		}

		slog.Info("processed feed", "scraper", s.name, "feed", feedURL, "entries", len(items))
	}

	return articles, nil
}

func (s *FeedScraper) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	resp := s.fetcher.Fetch(ctx, feedURL, FetchOptions{})
	if resp == nil {
		return nil, fmt.Errorf("fetching feed %q: no response", feedURL)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", feedURL, err)
	}
	return feed, nil
}

// processEntry builds an article from a single feed item. It reports false
// when the item is skipped, either because it is irrelevant or because the
// article could not be extracted.
func (s *FeedScraper) processEntry(ctx context.Context, item *gofeed.Item, query string) (models.ScrapedArticle, bool) {
	if item == nil || item.Link == "" {
		return models.ScrapedArticle{}, false
	}

	description := stripHTML(item.Description)
	if !IsRelevant(item.Title, description) {
		return models.ScrapedArticle{}, false
	}
	if !MatchesQuery(item.Title+" "+description, query) {
		return models.ScrapedArticle{}, false
	}

	extracted, err := s.extractor.Extract(ctx, item.Link)
	if err != nil {
		slog.Error("failed to process entry", "scraper", s.name, "url", item.Link, "error", err)
		return models.ScrapedArticle{}, false
	}

	title := firstNonEmpty(extracted.Title, strings.TrimSpace(item.Title), "No title")
	summary := firstNonEmpty(extracted.Excerpt, description)

	authors := extracted.Authors
	if len(authors) == 0 {
		authors = feedAuthors(item)
	}
	keywords := extracted.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	return models.ScrapedArticle{
		Title:         title,
		URL:           item.Link,
		Content:       extracted.Text,
		PublishedDate: s.publishedDate(item, extracted),
		Source:        s.name,
		Authors:       authors,
		Keywords:      keywords,
		Summary:       summary,
		AIRelated:     true,
		Technologies:  ExtractTechnologies(extracted.Text),
		JobImpact:     AnalyzeJobImpact(extracted.Text),
	}, true
}

// publishedDate prefers the feed's timestamps, then the page metadata, then
// the current time.
func (s *FeedScraper) publishedDate(item *gofeed.Item, extracted *ExtractedArticle) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	case extracted.PublishedAt != nil:
		return extracted.PublishedAt.UTC()
	default:
		return s.now().UTC()
	}
}

func feedAuthors(item *gofeed.Item) []string {
	authors := []string{}
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			authors = append(authors, strings.TrimSpace(a.Name))
		}
	}
	return authors
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
