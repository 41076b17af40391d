// Package observability exposes the console's Prometheus metrics: HTTP
// requests, backend calls, configuration cache results and live connections.
package observability

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/equip-manager/equip-console/internal/backend"
)

const namespace = "equip_console"

// Metrics collects Prometheus metrics for the console.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	backendTotal    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	backendInflight prometheus.Gauge
	refdataTotal    *prometheus.CounterVec
	liveConnections *prometheus.GaugeVec
}

// NewMetrics initialises the registry and the console metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		backendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend API calls by method, endpoint and outcome.",
		}, []string{"method", "endpoint", "outcome"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend API call duration by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		backendInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_requests_in_flight",
			Help:      "Backend API calls currently running.",
		}),
		refdataTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refdata_lookups_total",
			Help:      "Configuration cache lookups by result.",
		}, []string{"result"}),
		liveConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_connections",
			Help:      "Open live list connections by section.",
		}, []string{"section"}),
	}
	registry.MustRegister(
		m.requestsTotal, m.requestDuration,
		m.backendTotal, m.backendDuration, m.backendInflight,
		m.refdataTotal, m.liveConnections,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for custom metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// RequestStarted implements backend.Observer.
func (m *Metrics) RequestStarted(context.Context, backend.RequestInfo) {
	m.backendInflight.Inc()
}

// RequestFinished implements backend.Observer.
func (m *Metrics) RequestFinished(_ context.Context, info backend.RequestInfo) {
	m.backendInflight.Dec()
	endpoint := EndpointLabel(info.Endpoint)
	m.backendTotal.WithLabelValues(info.Method, endpoint, outcome(info)).Inc()
	m.backendDuration.WithLabelValues(info.Method, endpoint).Observe(info.Elapsed.Seconds())
}

// EndpointLabel replaces record ids in a backend path so labels stay bounded.
func EndpointLabel(endpoint string) string {
	parts := strings.Split(strings.Trim(endpoint, "/"), "/")
	if len(parts) <= 2 {
		return "/" + strings.Join(parts, "/")
	}
	switch parts[1] {
	case "dashboard", "importacao":
		return "/" + strings.Join(parts[:3], "/")
	case "configuracoes":
		if len(parts) == 3 {
			return "/" + strings.Join(parts, "/")
		}
		return "/" + strings.Join(parts[:3], "/") + "/{id}"
	case "pontos-medicao":
		if parts[2] == "alertas-calibracao" {
			return "/" + strings.Join(parts[:3], "/")
		}
	case "certificados":
		if parts[2] == "equipamento" {
			return "/" + strings.Join(parts[:3], "/") + "/{serial}"
		}
	}
	return "/" + parts[0] + "/" + parts[1] + "/{id}"
}

func outcome(info backend.RequestInfo) string {
	if info.Err == nil {
		return "ok"
	}
	if errors.Is(info.Err, context.Canceled) {
		return "canceled"
	}
	var apiErr *backend.APIError
	if errors.As(info.Err, &apiErr) {
		return strconv.Itoa(apiErr.Status)
	}
	return "transport"
}

// RecordRefdata counts one configuration cache lookup.
func (m *Metrics) RecordRefdata(result string) {
	m.refdataTotal.WithLabelValues(result).Inc()
}

// LiveOpened counts an open live connection.
func (m *Metrics) LiveOpened(section string) {
	m.liveConnections.WithLabelValues(section).Inc()
}

// LiveClosed releases a live connection.
func (m *Metrics) LiveClosed(section string) {
	m.liveConnections.WithLabelValues(section).Dec()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack keeps websocket upgrades working behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("observability: response writer cannot hijack")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
