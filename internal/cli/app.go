package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hoanghai1803/aitracker/internal/agent"
	"github.com/hoanghai1803/aitracker/internal/api/handlers"
	"github.com/hoanghai1803/aitracker/internal/config"
	"github.com/hoanghai1803/aitracker/internal/llm"
	"github.com/hoanghai1803/aitracker/internal/metrics"
	"github.com/hoanghai1803/aitracker/internal/research"
	"github.com/hoanghai1803/aitracker/internal/scraper"
	"github.com/hoanghai1803/aitracker/internal/search"
)

// App holds the services shared by every command. It is built once per
// invocation and passed down through the command context.
type App struct {
	Config     *config.Config
	Scrapers   handlers.ScrapeService
	Researcher handlers.Researcher
}

type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. Tests replace it to inject fakes.
var newApp = buildApp

// buildApp wires the scrapers, the LLM client and the research agent from
// cfg. A missing API key leaves the agent without an LLM.
func buildApp(cfg *config.Config) (*App, error) {
	metrics.Init()

	manager, err := scraper.NewManager(scraper.NewTechNewsScraper(cfg.Scraper))
	if err != nil {
		return nil, fmt.Errorf("registering scrapers: %w", err)
	}

	var client llm.Client
	c, err := llm.NewClient(llm.ConfigFromSettings(cfg.LLM))
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		slog.Warn("no LLM API key configured, research analysis will be disabled", "provider", cfg.LLM.Provider)
	case err != nil:
		return nil, fmt.Errorf("creating LLM client: %w", err)
	default:
		client = c
		slog.Info("LLM provider configured", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	}

	searcher := search.NewDuckDuckGo(search.DefaultEndpoint, scraper.NewFetcher(cfg.Scraper.RateLimit()))
	researcher, err := research.New(client, searcher, agent.NewMemory(cfg.Memory.MaxShortTerm), cfg.Research)
	if err != nil {
		return nil, fmt.Errorf("creating research agent: %w", err)
	}

	return &App{Config: cfg, Scrapers: manager, Researcher: researcher}, nil
}

func appFrom(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey).(*App)
	if !ok || app == nil {
		return nil, errors.New("application services not initialized")
	}
	return app, nil
}
