// Package metrics exposes Prometheus collectors for the tracker.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchFailuresTotal         *prometheus.CounterVec
	articlesScrapedTotal       *prometheus.CounterVec
	scraperErrorsTotal         *prometheus.CounterVec
	toolCallsTotal             *prometheus.CounterVec
	researchTotal              *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aitracker_fetch_failures_total",
				Help: "Total number of failed rate-limited fetches, labeled by site.",
			},
			[]string{"site"},
		)

		articlesScrapedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aitracker_articles_scraped_total",
				Help: "Total number of articles produced by scrapers, labeled by source.",
			},
			[]string{"source"},
		)

		scraperErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aitracker_scraper_errors_total",
				Help: "Total number of scraper runs that failed, labeled by source.",
			},
			[]string{"source"},
		)

		toolCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aitracker_tool_calls_total",
				Help: "Total number of agent tool invocations, labeled by tool and outcome.",
			},
			[]string{"tool", "outcome"},
		)

		researchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aitracker_research_total",
				Help: "Total number of research requests, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aitracker_http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aitracker_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetchFailure counts a fetch that was skipped.
func ObserveFetchFailure(rawURL string) {
	Init()
	fetchFailuresTotal.WithLabelValues(SanitizeSite(rawURL)).Inc()
}

// ObserveArticles adds n scraped articles for source.
func ObserveArticles(source string, n int) {
	Init()
	if n > 0 {
		articlesScrapedTotal.WithLabelValues(source).Add(float64(n))
	}
}

// ObserveScraperError counts a failed scraper run.
func ObserveScraperError(source string) {
	Init()
	scraperErrorsTotal.WithLabelValues(source).Inc()
}

// ObserveToolCall counts an agent action. outcome is "success" or "failure".
func ObserveToolCall(tool string, success bool) {
	Init()
	toolCallsTotal.WithLabelValues(tool, outcome(success)).Inc()
}

// ObserveResearch counts a finished research request.
func ObserveResearch(success bool) {
	Init()
	researchTotal.WithLabelValues(outcome(success)).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		ObserveHTTPRequest(r.Method, routePattern, ww.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
