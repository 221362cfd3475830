// Package search runs web searches for the research agent.
package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hoanghai1803/aitracker/internal/models"
	"github.com/hoanghai1803/aitracker/internal/scraper"
)

// DefaultEndpoint is DuckDuckGo's JavaScript-free results page.
const DefaultEndpoint = "https://html.duckduckgo.com/html/"

// ErrNoResponse is returned when the search page could not be fetched.
var ErrNoResponse = errors.New("search endpoint returned no response")

// Searcher runs a web search. A non-empty domain restricts results to that
// site. At most limit results are returned.
type Searcher interface {
	Search(ctx context.Context, query, domain string, limit int) ([]models.SearchResult, error)
}

// DuckDuckGo scrapes the DuckDuckGo HTML endpoint through a rate-limited
// fetcher.
type DuckDuckGo struct {
	endpoint string
	fetcher  *scraper.Fetcher
}

// NewDuckDuckGo creates a DuckDuckGo searcher. An empty endpoint selects
// DefaultEndpoint.
func NewDuckDuckGo(endpoint string, fetcher *scraper.Fetcher) *DuckDuckGo {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &DuckDuckGo{endpoint: endpoint, fetcher: fetcher}
}

// Search implements Searcher.
func (d *DuckDuckGo) Search(ctx context.Context, query, domain string, limit int) ([]models.SearchResult, error) {
	q := strings.TrimSpace(query)
	if domain != "" {
		q = "site:" + domain + " " + q
	}
	if q == "" {
		return nil, errors.New("empty search query")
	}

	resp := d.fetcher.Fetch(ctx, d.endpoint, scraper.FetchOptions{
		Params: url.Values{"q": {q}},
	})
	if resp == nil {
		return nil, fmt.Errorf("searching %q: %w", q, ErrNoResponse)
	}

	results, err := parseResults(resp.Body, limit)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", q, err)
	}
	return results, nil
}

// parseResults extracts organic results from a DuckDuckGo HTML page. Ads
// are skipped.
func parseResults(body []byte, limit int) ([]models.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}

	results := []models.SearchResult{}
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if limit > 0 && len(results) >= limit {
			return false
		}
		if s.HasClass("result--ad") {
			return true
		}

		link := s.Find("a.result__a").First()
		href, _ := link.Attr("href")
		target := resolveLink(href)
		title := strings.TrimSpace(link.Text())
		if target == "" || title == "" {
			return true
		}

		results = append(results, models.SearchResult{
			Title:   title,
			URL:     target,
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
			Source:  hostOf(target),
		})
		return true
	})
	return results, nil
}

// resolveLink unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveLink(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
