package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Server   ServerConfig   `toml:"server"`
	Scraper  ScraperConfig  `toml:"scraper"`
	Research ResearchConfig `toml:"research"`
	Memory   MemoryConfig   `toml:"memory"`
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	Provider              string  `toml:"provider"`
	APIKey                string  `toml:"api_key"`
	Model                 string  `toml:"model"`
	Temperature           float64 `toml:"temperature"`
	MaxTokens             int     `toml:"max_tokens"`
	MaxRetries            int     `toml:"max_retries"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
}

// RequestTimeout returns the per-call LLM timeout as a duration.
func (c LLMConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `toml:"port"`
}

// ScraperConfig holds RSS scraping settings.
type ScraperConfig struct {
	RateLimitSeconds  float64  `toml:"rate_limit_seconds"`
	MaxEntriesPerFeed int      `toml:"max_entries_per_feed"`
	Feeds             []string `toml:"feeds"`
}

// RateLimit returns the minimum interval between requests of one scraper.
func (c ScraperConfig) RateLimit() time.Duration {
	return time.Duration(c.RateLimitSeconds * float64(time.Second))
}

// ResearchConfig holds research agent settings.
type ResearchConfig struct {
	MaxResults int      `toml:"max_results"`
	Domains    []string `toml:"domains"`
}

// MemoryConfig holds agent memory settings.
type MemoryConfig struct {
	MaxShortTerm int `toml:"max_short_term"`
}

// DefaultFeeds are the tech news feeds scraped when none are configured.
var DefaultFeeds = []string{
	"https://techcrunch.com/feed/",
	"https://www.theverge.com/rss/index.xml",
	"https://feeds.feedburner.com/TechCrunch/",
	"https://www.wired.com/feed/rss",
}

// DefaultDomains are the sites the research agent scopes its searches to.
var DefaultDomains = []string{
	"github.com",
	"techcrunch.com",
	"venturebeat.com",
	"towardsdatascience.com",
	"medium.com",
	"reddit.com/r/MachineLearning",
	"news.ycombinator.com",
}

var validProviders = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-haiku-4-5",
	"gemini":    "gemini-2.5-flash",
}

const defaultConfigContent = `[llm]
provider = "openai"               # "openai", "anthropic" or "gemini"
api_key = ""                      # Your API key (or set LLM_API_KEY env var)
model = "gpt-4o-mini"
temperature = 0.7
max_tokens = 2000
max_retries = 3
request_timeout_seconds = 30

[server]
port = 8000

[scraper]
rate_limit_seconds = 2.0
max_entries_per_feed = 10
feeds = [
  "https://techcrunch.com/feed/",
  "https://www.theverge.com/rss/index.xml",
  "https://feeds.feedburner.com/TechCrunch/",
  "https://www.wired.com/feed/rss",
]

[research]
max_results = 5

[memory]
max_short_term = 100
`

// Load reads and parses the TOML config from the given path. If the file does
// not exist, it creates a default config file at that path. Environment
// variables override values from the file with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Explicit zeros like "port = 0" must fail instead of being replaced
	// by defaults below.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg, md)
	applyKeyOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("scraper", "max_entries_per_feed") && cfg.Scraper.MaxEntriesPerFeed < 1 {
		return fmt.Errorf("invalid scraper.max_entries_per_feed %d: must be >= 1", cfg.Scraper.MaxEntriesPerFeed)
	}
	if md.IsDefined("research", "max_results") && cfg.Research.MaxResults < 1 {
		return fmt.Errorf("invalid research.max_results %d: must be >= 1", cfg.Research.MaxResults)
	}
	if md.IsDefined("memory", "max_short_term") && cfg.Memory.MaxShortTerm < 1 {
		return fmt.Errorf("invalid memory.max_short_term %d: must be >= 1", cfg.Memory.MaxShortTerm)
	}
	if md.IsDefined("llm", "max_tokens") && cfg.LLM.MaxTokens < 1 {
		return fmt.Errorf("invalid llm.max_tokens %d: must be >= 1", cfg.LLM.MaxTokens)
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields.
func applyDefaults(cfg *Config, md toml.MetaData) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = validProviders[cfg.LLM.Provider]
	}
	// temperature = 0 is a legitimate setting.
	if !md.IsDefined("llm", "temperature") {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2000
	}
	if !md.IsDefined("llm", "max_retries") {
		cfg.LLM.MaxRetries = 3
	}
	if cfg.LLM.RequestTimeoutSeconds == 0 {
		cfg.LLM.RequestTimeoutSeconds = 30
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if !md.IsDefined("scraper", "rate_limit_seconds") {
		cfg.Scraper.RateLimitSeconds = 2.0
	}
	if cfg.Scraper.MaxEntriesPerFeed == 0 {
		cfg.Scraper.MaxEntriesPerFeed = 10
	}
	if len(cfg.Scraper.Feeds) == 0 {
		cfg.Scraper.Feeds = append([]string(nil), DefaultFeeds...)
	}
	if cfg.Research.MaxResults == 0 {
		cfg.Research.MaxResults = 5
	}
	if len(cfg.Research.Domains) == 0 {
		cfg.Research.Domains = append([]string(nil), DefaultDomains...)
	}
	if cfg.Memory.MaxShortTerm == 0 {
		cfg.Memory.MaxShortTerm = 100
	}
}

// applyEnvOverrides applies provider and model overrides. They run before
// defaults so the default model follows an overridden provider.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		if v != cfg.LLM.Provider {
			// A model configured for another provider would not be valid.
			cfg.LLM.Model = ""
		}
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
}

// applyKeyOverrides applies API key overrides from the environment.
//
// Priority for llm.api_key:
//  1. LLM_API_KEY (generic, highest)
//  2. OPENAI_API_KEY / ANTHROPIC_API_KEY / GEMINI_API_KEY for the active provider
func applyKeyOverrides(cfg *Config) {
	var providerVar string
	switch cfg.LLM.Provider {
	case "openai":
		providerVar = "OPENAI_API_KEY"
	case "anthropic":
		providerVar = "ANTHROPIC_API_KEY"
	case "gemini":
		providerVar = "GEMINI_API_KEY"
	}
	if providerVar != "" {
		if v := os.Getenv(providerVar); v != "" {
			cfg.LLM.APIKey = v
		}
	}

	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	if _, ok := validProviders[cfg.LLM.Provider]; !ok {
		return fmt.Errorf("invalid llm.provider %q: must be \"openai\", \"anthropic\" or \"gemini\"", cfg.LLM.Provider)
	}

	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("invalid llm.temperature %v: must be between 0 and 2", cfg.LLM.Temperature)
	}

	if cfg.LLM.MaxRetries < 0 {
		return fmt.Errorf("invalid llm.max_retries %d: must be >= 0", cfg.LLM.MaxRetries)
	}

	if cfg.LLM.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("invalid llm.request_timeout_seconds %d: must be >= 1", cfg.LLM.RequestTimeoutSeconds)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	if cfg.Scraper.RateLimitSeconds < 0 {
		return fmt.Errorf("invalid scraper.rate_limit_seconds %v: must be >= 0", cfg.Scraper.RateLimitSeconds)
	}

	if cfg.LLM.APIKey == "" {
		slog.Warn("llm.api_key is empty: set it in the config file or via LLM_API_KEY environment variable")
	}

	return nil
}
