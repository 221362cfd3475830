package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/aitracker/internal/models"
	"github.com/hoanghai1803/aitracker/internal/scraper"
)

// ScrapeService aggregates articles from registered scrapers.
type ScrapeService interface {
	ScrapeAll(ctx context.Context, query string) ([]models.ScrapedArticle, error)
	ScrapeSingle(ctx context.Context, source, query string) ([]models.ScrapedArticle, error)
	Sources() []string
}

// ScrapeAll handles GET /scrape. It runs every scraper and returns the
// merged articles, newest first.
func ScrapeAll(svc ScrapeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")

		articles, err := svc.ScrapeAll(r.Context(), query)
		if err != nil {
			slog.Error("failed to scrape sources", "query", query, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, articles)
	}
}

// ScrapeSource handles GET /scrape/{source}. Unknown sources yield 404.
func ScrapeSource(svc ScrapeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := chi.URLParam(r, "source")
		query := r.URL.Query().Get("query")

		articles, err := svc.ScrapeSingle(r.Context(), source, query)
		if err != nil {
			if errors.Is(err, scraper.ErrUnknownSource) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			slog.Error("failed to scrape source", "source", source, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, articles)
	}
}

// GetSources handles GET /sources. It lists registered scraper names.
func GetSources(svc ScrapeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"sources": svc.Sources()})
	}
}
