package models

import "time"

// ScrapedArticle is a single news item produced by a feed scraper. It is
// built once per processed feed entry and treated as read-only afterwards.
type ScrapedArticle struct {
	Title         string              `json:"title"`
	URL           string              `json:"url"`
	Content       string              `json:"content"`
	PublishedDate time.Time           `json:"published_date"`
	Source        string              `json:"source"`
	Authors       []string            `json:"authors"`
	Keywords      []string            `json:"keywords"`
	Summary       string              `json:"summary,omitempty"`
	AIRelated     bool                `json:"ai_related"`
	Technologies  []string            `json:"technologies"`
	JobImpact     map[string][]string `json:"job_impact"`
}

// SearchResult is one hit returned by the web-search collaborator.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source,omitempty"`
}
