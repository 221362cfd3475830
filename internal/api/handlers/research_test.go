package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/hoanghai1803/aitracker/internal/agent"
	"github.com/hoanghai1803/aitracker/internal/models"
)

func TestResearchHandlers(t *testing.T) {
	tests := []struct {
		name       string
		handler    func(Researcher) http.HandlerFunc
		target     string
		hasLLM     bool
		err        error
		wantStatus int
		wantCall   string
	}{
		{name: "topic", handler: ResearchTopic, target: "/research?topic=agents&max_results=3", hasLLM: true, wantStatus: http.StatusOK, wantCall: "topic"},
		{name: "topic missing", handler: ResearchTopic, target: "/research", hasLLM: true, wantStatus: http.StatusBadRequest},
		{name: "topic bad max", handler: ResearchTopic, target: "/research?topic=a&max_results=x", hasLLM: true, wantStatus: http.StatusBadRequest},
		{name: "topic no llm", handler: ResearchTopic, target: "/research?topic=agents", wantStatus: http.StatusServiceUnavailable},
		{name: "topic error", handler: ResearchTopic, target: "/research?topic=agents", hasLLM: true, err: errBoom, wantStatus: http.StatusInternalServerError, wantCall: "topic"},
		{name: "latest", handler: LatestDevelopments, target: "/research/latest?days=14", hasLLM: true, wantStatus: http.StatusOK, wantCall: "latest"},
		{name: "latest bad days", handler: LatestDevelopments, target: "/research/latest?days=-1", hasLLM: true, wantStatus: http.StatusBadRequest},
		{name: "trends", handler: ResearchTrends, target: "/research/trends", hasLLM: true, wantStatus: http.StatusOK, wantCall: "trends"},
		{name: "trends no llm", handler: ResearchTrends, target: "/research/trends", wantStatus: http.StatusServiceUnavailable},
		{name: "compare", handler: CompareTools, target: "/research/compare?tool=Copilot&tool=Cursor", hasLLM: true, wantStatus: http.StatusOK, wantCall: "compare"},
		{name: "compare without tools", handler: CompareTools, target: "/research/compare", wantStatus: http.StatusBadRequest, wantCall: "compare"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &fakeResearcher{
				hasLLM: tt.hasLLM,
				result: &models.ResearchResult{ID: "id-1", Topic: "agents"},
				err:    tt.err,
			}
			w := httptest.NewRecorder()
			tt.handler(res).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d; body: %s", w.Code, tt.wantStatus, w.Body.String())
			}

			var wantCalls []string
			if tt.wantCall != "" {
				wantCalls = []string{tt.wantCall}
			}
			if !slices.Equal(res.calls, wantCalls) {
				t.Errorf("calls = %v, want %v", res.calls, wantCalls)
			}

			if tt.wantStatus == http.StatusOK {
				var got models.ResearchResult
				if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
					t.Fatalf("decoding response: %v", err)
				}
				if got.ID != "id-1" {
					t.Errorf("ID = %q, want %q", got.ID, "id-1")
				}
			} else if decodeDetail(t, w) == "" {
				t.Error("error response has empty detail")
			}
		})
	}
}

func TestResearchHandlers_Parameters(t *testing.T) {
	res := &fakeResearcher{hasLLM: true, result: &models.ResearchResult{}}

	ResearchTopic(res).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/research?topic=AI+testing&max_results=3", nil))
	if res.topic != "AI testing" || res.max != 3 {
		t.Errorf("ResearchTopic got (%q, %d), want (%q, 3)", res.topic, res.max, "AI testing")
	}

	ResearchTopic(res).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/research?topic=x", nil))
	if res.max != 0 {
		t.Errorf("default max_results = %d, want 0 (agent default)", res.max)
	}

	LatestDevelopments(res).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/research/latest", nil))
	if res.days != defaultDays {
		t.Errorf("default days = %d, want %d", res.days, defaultDays)
	}

	CompareTools(res).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/research/compare?tool=a&tool=b", nil))
	if !slices.Equal(res.names, []string{"a", "b"}) {
		t.Errorf("CompareTools names = %v, want [a b]", res.names)
	}
}

func TestCompareTools_DetailFromResult(t *testing.T) {
	w := httptest.NewRecorder()
	CompareTools(&fakeResearcher{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/research/compare", nil))

	if got := decodeDetail(t, w); got != "No tools provided for comparison" {
		t.Errorf("detail = %q, want %q", got, "No tools provided for comparison")
	}
}

func TestGetTools(t *testing.T) {
	res := &fakeResearcher{schemas: []agent.Schema{{
		Name:        "web_search",
		Description: "Search the web",
		Parameters:  []agent.ToolParameter{{Name: "query", Kind: agent.KindString, Required: true}},
	}}}
	w := httptest.NewRecorder()
	GetTools(res).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/agent/tools", nil))

	var got []struct {
		Name       string `json:"name"`
		Parameters []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"parameters"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got) != 1 || got[0].Name != "web_search" {
		t.Fatalf("tools = %+v, want web_search", got)
	}
	if got[0].Parameters[0].Type != "string" {
		t.Errorf("parameter type = %q, want %q", got[0].Parameters[0].Type, "string")
	}
}
