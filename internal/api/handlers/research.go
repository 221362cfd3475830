package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hoanghai1803/aitracker/internal/agent"
	"github.com/hoanghai1803/aitracker/internal/models"
)

const defaultDays = 7

// Researcher runs research tasks and exposes its tools.
type Researcher interface {
	ResearchTopic(ctx context.Context, topic string, maxResults int) (*models.ResearchResult, error)
	LatestDevelopments(ctx context.Context, days int) (*models.ResearchResult, error)
	CompareTools(ctx context.Context, names []string) (*models.ResearchResult, error)
	ResearchTrends(ctx context.Context) (*models.ResearchResult, error)
	HasLLM() bool
	Tools() []agent.Schema
}

// requireLLM writes 503 and returns false when no LLM is configured.
func requireLLM(w http.ResponseWriter, res Researcher) bool {
	if res.HasLLM() {
		return true
	}
	writeError(w, http.StatusServiceUnavailable, "LLM not configured. Set LLM_API_KEY or api_key in the config file.")
	return false
}

// writeResearch writes a research outcome, mapping errors to 500.
func writeResearch(w http.ResponseWriter, result *models.ResearchResult, err error) {
	if err != nil {
		slog.Error("research failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ResearchTopic handles GET /research?topic=&max_results=.
func ResearchTopic(res Researcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := r.URL.Query().Get("topic")
		if topic == "" {
			writeError(w, http.StatusBadRequest, "topic is required")
			return
		}
		maxResults, err := queryInt(r, "max_results", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !requireLLM(w, res) {
			return
		}

		result, err := res.ResearchTopic(r.Context(), topic, maxResults)
		writeResearch(w, result, err)
	}
}

// LatestDevelopments handles GET /research/latest?days=.
func LatestDevelopments(res Researcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := queryInt(r, "days", defaultDays)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !requireLLM(w, res) {
			return
		}

		result, err := res.LatestDevelopments(r.Context(), days)
		writeResearch(w, result, err)
	}
}

// ResearchTrends handles GET /research/trends.
func ResearchTrends(res Researcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireLLM(w, res) {
			return
		}
		result, err := res.ResearchTrends(r.Context())
		writeResearch(w, result, err)
	}
}

// CompareTools handles GET /research/compare?tool=a&tool=b.
func CompareTools(res Researcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := r.URL.Query()["tool"]
		if len(names) > 0 && !requireLLM(w, res) {
			return
		}

		result, err := res.CompareTools(r.Context(), names)
		if err == nil && result.Error != "" {
			writeError(w, http.StatusBadRequest, result.Error)
			return
		}
		writeResearch(w, result, err)
	}
}

// GetTools handles GET /agent/tools. It lists the research agent's tool
// schemas.
func GetTools(res Researcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, res.Tools())
	}
}
