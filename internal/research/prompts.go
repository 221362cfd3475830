package research

import (
	"fmt"
	"strings"

	"github.com/hoanghai1803/aitracker/internal/models"
)

const agentRole = `You are an AI research assistant specialized in finding and analyzing the latest news about AI in software engineering automation. Your goal is to provide comprehensive, accurate, and up-to-date information about AI tools, frameworks, and methodologies that are transforming software engineering practices.`

const analystSystemPrompt = `You are an expert AI research analyst. Your task is to analyze search results about AI in software engineering automation and extract key insights, trends, and important information. Be concise but thorough in your analysis.`

// AnalysisPrompt builds the system and user prompts for analyzing a set of
// search results about topic.
func AnalysisPrompt(topic string, results []models.SearchResult) (systemPrompt string, userPrompt string) {
	sources := make([]string, 0, len(results))
	for _, r := range results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		snippet := r.Snippet
		if snippet == "" {
			snippet = "No snippet available"
		}
		sources = append(sources, fmt.Sprintf("Source: %s (%s)\nSnippet: %s", title, r.URL, snippet))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Please analyze the following search results about '%s' in the context of AI in software engineering automation. Provide:\n\n", topic)
	b.WriteString("1. A 2-3 paragraph summary of the current state of this topic\n")
	b.WriteString("2. 3-5 key points or trends\n")
	b.WriteString("3. Any notable tools, frameworks, or companies mentioned\n")
	b.WriteString("4. Potential implications for software engineering\n\n")
	b.WriteString("Search Results:\n")
	b.WriteString(strings.Join(sources, "\n\n"))

	return analystSystemPrompt, b.String()
}
