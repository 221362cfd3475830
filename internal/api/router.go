// Package api serves the tracker's HTTP interface.
package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/aitracker/internal/api/handlers"
	"github.com/hoanghai1803/aitracker/internal/metrics"
)

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(scrapers handlers.ScrapeService, researcher handlers.Researcher) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)
	r.Use(metrics.Middleware)

	r.Get("/", handlers.Index())

	r.Get("/sources", handlers.GetSources(scrapers))
	r.Get("/scrape", handlers.ScrapeAll(scrapers))
	r.Get("/scrape/{source}", handlers.ScrapeSource(scrapers))

	r.Route("/research", func(rr chi.Router) {
		rr.Get("/", handlers.ResearchTopic(researcher))
		rr.Get("/latest", handlers.LatestDevelopments(researcher))
		rr.Get("/trends", handlers.ResearchTrends(researcher))
		rr.Get("/compare", handlers.CompareTools(researcher))
	})

	r.Get("/agent/tools", handlers.GetTools(researcher))
	r.Handle("/metrics", metrics.Handler())

	return r
}
