package scraper

import (
	"html"
	"regexp"
	"strings"
)

// relevanceKeywords gate which feed entries are processed at all.
var relevanceKeywords = []string{"ai", "artificial intelligence", "automation", "ml", "machine learning"}

// techVocabulary is scanned in order; matches keep the vocabulary casing.
var techVocabulary = []string{
	"AI", "ML", "machine learning", "deep learning", "LLM", "GPT", "Copilot",
	"GitHub", "CI/CD", "Docker", "Kubernetes", "automation", "testing",
	"deployment", "infrastructure as code", "Terraform", "Ansible", "Jenkins",
}

// jobImpactCategory pairs an impact category with the phrases that signal it.
type jobImpactCategory struct {
	name     string
	keywords []string
}

var jobImpactCategories = []jobImpactCategory{
	{name: "junior", keywords: []string{"junior", "entry-level", "early career", "new grad"}},
	{name: "mid", keywords: []string{"mid-level", "experienced", "senior"}},
	{name: "task", keywords: []string{"task automation", "code generation", "testing automation"}},
	{name: "role", keywords: []string{"role elimination", "job replacement", "reduce hiring"}},
}

// IsRelevant reports whether the lowercase "title summary" text contains one
// of the relevance keywords. Matching is by substring, so "ai" also matches
// inside longer words.
func IsRelevant(title, summary string) bool {
	text := strings.ToLower(title + " " + summary)
	for _, kw := range relevanceKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// MatchesQuery reports whether text contains at least one whitespace
// separated term of query. A blank query matches everything.
func MatchesQuery(text, query string) bool {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return true
	}
	text = strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// ExtractTechnologies returns every vocabulary term found in text,
// case-insensitively, in vocabulary order.
func ExtractTechnologies(text string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, tech := range techVocabulary {
		if strings.Contains(lower, strings.ToLower(tech)) {
			found = append(found, tech)
		}
	}
	return found
}

// AnalyzeJobImpact maps each impact category to the keywords found in text.
// Categories without a match are omitted.
func AnalyzeJobImpact(text string) map[string][]string {
	lower := strings.ToLower(text)
	impact := make(map[string][]string)
	for _, cat := range jobImpactCategories {
		var found []string
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				found = append(found, kw)
			}
		}
		if len(found) > 0 {
			impact[cat.name] = found
		}
	}
	return impact
}

var htmlTagPattern = regexp.MustCompile("<[^>]*>")

// stripHTML removes HTML tags from s and unescapes HTML entities.
func stripHTML(s string) string {
	clean := htmlTagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(html.UnescapeString(clean))
}
