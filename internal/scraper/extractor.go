package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	maxWords     = 5000
	maxPageBytes = 10 << 20
)

// ExtractedArticle is the main content of a downloaded web page.
type ExtractedArticle struct {
	Title       string
	Text        string
	Excerpt     string
	Authors     []string
	Keywords    []string
	PublishedAt *time.Time
}

// Extractor downloads a page and extracts its main article content.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (*ExtractedArticle, error)
}

// ArticleExtractor is the readability-backed Extractor. It does not share
// the scraper's rate limit.
type ArticleExtractor struct {
	client *http.Client
}

// NewArticleExtractor creates an ArticleExtractor with a 30-second timeout.
func NewArticleExtractor() *ArticleExtractor {
	return &ArticleExtractor{
		client: &http.Client{Timeout: httpTimeout},
	}
}

// browserHeaders sets browser-like request headers so sites that check Accept
// or User-Agent don't reject the request with 406.
func browserHeaders(r *http.Request) {
	r.Header.Set("Accept", acceptHeader)
	r.Header.Set("Accept-Language", acceptLanguage)
	r.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
}

// Extract fetches pageURL and returns its readable text (truncated to 5000
// words), title, excerpt, byline authors and meta keywords.
func (e *ArticleExtractor) Extract(ctx context.Context, pageURL string) (*ExtractedArticle, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing article url %q: %w", pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %q: %w", pageURL, err)
	}
	browserHeaders(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetching %q: HTTP %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body from %q: %w", pageURL, err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return nil, fmt.Errorf("readability extraction: %w", err)
	}

	out := &ExtractedArticle{
		Title:       strings.TrimSpace(article.Title),
		Text:        truncateWords(article.TextContent, maxWords),
		Excerpt:     strings.TrimSpace(article.Excerpt),
		Authors:     splitByline(article.Byline),
		PublishedAt: article.PublishedTime,
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	out.Keywords = metaKeywords(doc)

	return out, nil
}

var bylineSeparator = regexp.MustCompile(`(?i)\s*,\s*|\s+and\s+|\s*&\s*`)

// splitByline turns "By Jane Doe and John Roe" into its individual names.
func splitByline(byline string) []string {
	byline = strings.TrimSpace(byline)
	if len(byline) >= 3 && strings.EqualFold(byline[:3], "by ") {
		byline = byline[3:]
	}
	var authors []string
	for _, name := range bylineSeparator.Split(byline, -1) {
		if name = strings.TrimSpace(name); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// metaKeywords collects keywords from the keywords, news_keywords and
// article:tag meta tags, deduplicated case-insensitively in document order.
func metaKeywords(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var keywords []string
	add := func(k string) {
		k = strings.TrimSpace(k)
		if k == "" || seen[strings.ToLower(k)] {
			return
		}
		seen[strings.ToLower(k)] = true
		keywords = append(keywords, k)
	}

	doc.Find(`meta[name="keywords"], meta[name="news_keywords"]`).Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		for _, k := range strings.Split(content, ",") {
			add(k)
		}
	})
	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		add(content)
	})
	return keywords
}

// truncateWords returns the first maxWords whitespace-delimited words from s.
// If s contains fewer than maxWords words, it is returned unchanged.
func truncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ")
}
