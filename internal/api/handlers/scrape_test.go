package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/aitracker/internal/models"
)

func newScrapeService() *fakeScrapeService {
	published := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &fakeScrapeService{
		order: []string{"tech_news"},
		bySource: map[string][]models.ScrapedArticle{
			"tech_news": {{Title: "AI agents", URL: "https://example.com/a", PublishedDate: published, Source: "tech_news"}},
		},
	}
}

func withSource(r *http.Request, source string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("source", source)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body["detail"]
}

func TestScrapeAll(t *testing.T) {
	svc := newScrapeService()
	r := httptest.NewRequest(http.MethodGet, "/scrape?query=copilot", nil)
	w := httptest.NewRecorder()

	ScrapeAll(svc).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}
	if svc.lastQuery != "copilot" {
		t.Errorf("query = %q, want %q", svc.lastQuery, "copilot")
	}

	var articles []models.ScrapedArticle
	if err := json.NewDecoder(w.Body).Decode(&articles); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(articles) != 1 || articles[0].URL != "https://example.com/a" {
		t.Errorf("got %+v, want the single tech_news article", articles)
	}
}

func TestScrapeAll_Error(t *testing.T) {
	svc := newScrapeService()
	svc.err = errBoom
	w := httptest.NewRecorder()

	ScrapeAll(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scrape", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got := decodeDetail(t, w); got != "boom" {
		t.Errorf("detail = %q, want %q", got, "boom")
	}
}

func TestScrapeSource(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		err        error
		wantStatus int
	}{
		{name: "known source", source: "tech_news", wantStatus: http.StatusOK},
		{name: "unknown source", source: "nope", wantStatus: http.StatusNotFound},
		{name: "scraper failure", source: "tech_news", err: errBoom, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newScrapeService()
			svc.err = tt.err
			r := withSource(httptest.NewRequest(http.MethodGet, "/scrape/"+tt.source, nil), tt.source)
			w := httptest.NewRecorder()

			ScrapeSource(svc).ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d; body: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK && decodeDetail(t, w) == "" {
				t.Error("error response has empty detail")
			}
		})
	}
}

func TestGetSources(t *testing.T) {
	w := httptest.NewRecorder()
	GetSources(newScrapeService()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sources", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}
	var body struct {
		Sources []string `json:"sources"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body.Sources) != 1 || body.Sources[0] != "tech_news" {
		t.Errorf("sources = %v, want [tech_news]", body.Sources)
	}
}

func TestIndex(t *testing.T) {
	w := httptest.NewRecorder()
	Index().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body struct {
		Message   string            `json:"message"`
		Endpoints map[string]string `json:"endpoints"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Message == "" {
		t.Error("message is empty")
	}
	if _, ok := body.Endpoints["/scrape/{source}"]; !ok {
		t.Errorf("endpoints missing /scrape/{source}: %v", body.Endpoints)
	}
}
