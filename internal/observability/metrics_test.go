package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/equip-manager/equip-console/internal/backend"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordRefdata("hit")

	body := scrape(t, metrics)
	if !strings.Contains(body, `equip_console_refdata_lookups_total{result="hit"} 1`) {
		t.Fatalf("expected refdata counter, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsBody := scrape(t, metrics)
	if !strings.Contains(metricsBody, "http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestBackendObserverLabelsOutcome(t *testing.T) {
	metrics := NewMetrics()
	ctx := context.Background()

	ok := backend.RequestInfo{Method: http.MethodGet, Endpoint: "/api/equipamentos/SN123", Elapsed: 20 * time.Millisecond}
	metrics.RequestStarted(ctx, ok)
	metrics.RequestFinished(ctx, ok)

	failed := backend.RequestInfo{Method: http.MethodDelete, Endpoint: "/api/equipamentos/SN123", Err: &backend.APIError{Status: 409}}
	metrics.RequestStarted(ctx, failed)
	metrics.RequestFinished(ctx, failed)

	body := scrape(t, metrics)
	assert.Contains(t, body, `equip_console_backend_requests_total{endpoint="/api/equipamentos/{id}",method="GET",outcome="ok"} 1`)
	assert.Contains(t, body, `equip_console_backend_requests_total{endpoint="/api/equipamentos/{id}",method="DELETE",outcome="409"} 1`)
	assert.Contains(t, body, "equip_console_backend_requests_in_flight 0")
}

func TestEndpointLabel(t *testing.T) {
	cases := map[string]string{
		"/api/equipamentos":                      "/api/equipamentos",
		"/api/equipamentos/ABC-1":                "/api/equipamentos/{id}",
		"/api/dashboard/resumo":                  "/api/dashboard/resumo",
		"/api/configuracoes/todas":               "/api/configuracoes/todas",
		"/api/configuracoes/polos/4":             "/api/configuracoes/polos/{id}",
		"/api/pontos-medicao/alertas-calibracao": "/api/pontos-medicao/alertas-calibracao",
		"/api/certificados/equipamento/SN123":    "/api/certificados/equipamento/{serial}",
		"/api/importacao/exportar-equipamentos":  "/api/importacao/exportar-equipamentos",
	}
	for in, want := range cases {
		assert.Equal(t, want, EndpointLabel(in), in)
	}
}

func TestLiveConnectionsGauge(t *testing.T) {
	metrics := NewMetrics()
	metrics.LiveOpened("equipamentos")
	metrics.LiveOpened("equipamentos")
	metrics.LiveClosed("equipamentos")

	assert.Contains(t, scrape(t, metrics), `equip_console_live_connections{section="equipamentos"} 1`)
}
