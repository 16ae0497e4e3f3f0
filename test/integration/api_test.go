package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/sleigh-balancer/internal/application"
	"github.com/eugenenazirov/sleigh-balancer/internal/config"
)

func newRootHandler(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Config{
		Port:          ":0",
		Weights:       []int{1, 2, 3, 4, 5, 7, 8, 9, 10, 11},
		MaxItems:      64,
		SearchTimeout: 5 * time.Second,
		CacheSize:     32,
		WriteTimeout:  30 * time.Second,
	}
	app, err := application.New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("application.New: %v", err)
	}
	return app.Server().Handler
}

func performRequest(t *testing.T, handler http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

type balanceResult struct {
	Compartments int    `json:"compartments"`
	Entanglement uint64 `json:"entanglement"`
	Cached       bool   `json:"cached"`
	Groups       []struct {
		Compartment string `json:"compartment"`
		Items       []int  `json:"items"`
	} `json:"groups"`
}

func TestIntegrationFlow(t *testing.T) {
	handler := newRootHandler(t)
	jsonHeaders := map[string]string{"Content-Type": "application/json"}

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	body, _ := json.Marshal(map[string]any{})
	rec = performRequest(t, handler, http.MethodPost, "/api/balance", body, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from balance, got %d", rec.Code)
	}

	var both struct {
		Results []struct {
			Compartments int            `json:"compartments"`
			Result       *balanceResult `json:"result"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&both); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(both.Results) != 2 {
		t.Fatalf("expected two results, got %d", len(both.Results))
	}
	if r := both.Results[0].Result; r == nil || r.Entanglement != 99 {
		t.Fatalf("unexpected three-way result %+v", both.Results[0])
	}
	if r := both.Results[1].Result; r == nil || r.Entanglement != 44 {
		t.Fatalf("unexpected four-way result %+v", both.Results[1])
	}

	// The same manifest in another order is served from the cache.
	body, _ = json.Marshal(map[string]any{
		"weights":      []int{11, 10, 9, 8, 7, 5, 4, 3, 2, 1},
		"compartments": 3,
	})
	rec = performRequest(t, handler, http.MethodPost, "/api/balance", body, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from balance, got %d", rec.Code)
	}
	var single balanceResult
	if err := json.NewDecoder(rec.Body).Decode(&single); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !single.Cached || single.Entanglement != 99 {
		t.Fatalf("expected cached three-way result, got %+v", single)
	}

	payload, _ := json.Marshal(map[string]any{"weights": []int{5, 3, 2, 1, 5}})
	rec = performRequest(t, handler, http.MethodPut, "/api/weights", payload, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from weights update, got %d", rec.Code)
	}

	// A total of 16 gives a four-way target of 4, lighter than the heaviest item.
	body, _ = json.Marshal(map[string]any{"compartments": 4})
	rec = performRequest(t, handler, http.MethodPost, "/api/balance", body, jsonHeaders)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an unbalanceable manifest, got %d", rec.Code)
	}

	rec = performRequest(t, handler, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
	metrics := rec.Body.String()
	for _, want := range []string{
		`balancer_cache_lookups_total{result="hit"} 1`,
		`balancer_searches_total{mode="four",outcome="solved"} 1`,
		`balancer_searches_total{mode="four",outcome="rejected"} 1`,
	} {
		if !strings.Contains(metrics, want) {
			t.Fatalf("expected metrics to contain %s", want)
		}
	}
}
