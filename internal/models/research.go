package models

import "time"

// Analysis is the LLM-produced digest of a set of search results.
type Analysis struct {
	Summary      string     `json:"summary"`
	KeyPoints    []string   `json:"key_points"`
	AnalysisDate *time.Time `json:"analysis_date,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// ResearchResult is the outcome of a single research run. When Error is set
// the run was rejected before any searching happened and the remaining
// fields are zero.
type ResearchResult struct {
	ID              string         `json:"id,omitempty"`
	Topic           string         `json:"topic,omitempty"`
	SearchDate      time.Time      `json:"search_date,omitzero"`
	SourcesSearched int            `json:"sources_searched,omitempty"`
	ResultsFound    int            `json:"results_found"`
	Results         []SearchResult `json:"results,omitzero"`
	Analysis        *Analysis      `json:"analysis,omitempty"`
	Error           string         `json:"error,omitempty"`
}
