package handlers

import "net/http"

var endpoints = map[string]string{
	"/scrape":           "Scrape every registered source (optional ?query=)",
	"/scrape/{source}":  "Scrape a single source by name (optional ?query=)",
	"/sources":          "List registered scraper sources",
	"/research":         "Research a topic (?topic=, optional ?max_results=)",
	"/research/latest":  "Latest developments (optional ?days=)",
	"/research/trends":  "Emerging trends",
	"/research/compare": "Compare tools (?tool=a&tool=b)",
	"/agent/tools":      "Tools registered on the research agent",
	"/metrics":          "Prometheus metrics",
}

// Index handles GET /. It describes the available endpoints.
func Index() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":   "AI Tracker API",
			"endpoints": endpoints,
		})
	}
}
