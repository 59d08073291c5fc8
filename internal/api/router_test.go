package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mindforge-ai/conscience/internal/conscience"
	"github.com/mindforge-ai/conscience/internal/memory"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	index, err := memory.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { _ = index.Close() })

	app, err := NewApp(context.Background(), index, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want ok", resp["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)

	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, field := range []string{"uptime_seconds", "request_count", "error_count", "goroutines", "memory"} {
		if _, ok := resp[field]; !ok {
			t.Errorf("metrics response missing %q", field)
		}
	}
}

func TestEvaluateThroughRouter(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader(`{"action": "always tell the truth"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Score  float64 `json:"score"`
		Action string  `json:"action"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Score != conscience.TruthWeight {
		t.Errorf("score = %v, want %v", resp.Score, conscience.TruthWeight)
	}
	if resp.Action != "always tell the truth" {
		t.Errorf("action = %q", resp.Action)
	}
}

func TestRulesThroughRouter(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/rules", strings.NewReader(`{"name": "fairness", "description": "Treat everyone with fairness", "weight": 4}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	app.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/rules", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var rules []struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Weight      float64 `json:"weight"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &rules); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
}

func TestMemoryLifecycleThroughRouter(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/memories", strings.NewReader(`{"layer": "episodic", "content": "walked along the harbor at dusk"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("store: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	app.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/memories/search?layer=episodic&q=harbor", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var search struct {
		Records []struct {
			Content string `json:"content"`
			Layer   string `json:"layer"`
		} `json:"records"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &search); err != nil {
		t.Fatalf("decode search response: %v", err)
	}
	if search.Count != 1 || len(search.Records) != 1 || search.Records[0].Content != "walked along the harbor at dusk" {
		t.Fatalf("unexpected search results: %+v", search)
	}

	rr = httptest.NewRecorder()
	app.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/memories/stats", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", rr.Code)
	}

	var stats struct {
		Layers map[string]int64 `json:"layers"`
		Total  int64            `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats response: %v", err)
	}
	if stats.Total != 1 || stats.Layers["episodic"] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRequestIDOnResponses(t *testing.T) {
	app := newTestApp(t)

	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header on response")
	}
}

func TestAuthRequiredWhenKeyConfigured(t *testing.T) {
	t.Setenv("API_KEY", "test-key-123")
	app := newTestApp(t)

	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/rules", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("without key: expected 401, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/rules", nil)
	req.Header.Set("Authorization", "Bearer test-key-123")
	rr = httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("with key: expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	app.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("health should stay open, got %d", rr.Code)
	}
}
