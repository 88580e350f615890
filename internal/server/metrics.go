// Package server — metrics.go registers all Prometheus metrics for the HTTP
// server and exposes helpers used by handlers and middleware.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// loginsTotal counts login attempts, partitioned by outcome:
	// "ok", "unauthorized", or "error".
	loginsTotal *prometheus.CounterVec

	// turnsTotal counts completed conversation turns, partitioned by
	// outcome: "ok" or "error".
	turnsTotal *prometheus.CounterVec

	// turnDurationSeconds records the wall-clock duration of each turn,
	// covering retrieval, model calls, and tool execution.
	turnDurationSeconds *prometheus.HistogramVec

	// toolCallsTotal counts tool dispatches observed in completed turns.
	toolCallsTotal *prometheus.CounterVec

	// sessionsActive is the number of live sessions in the registry.
	sessionsActive prometheus.Gauge

	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, path, and status code.
	httpRequestsTotal *prometheus.CounterVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics. promauto.With(reg) is used so that each call
// registers into the provided registry rather than the global default —
// this keeps unit tests hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		loginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hive_agent",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Total number of login attempts, partitioned by outcome.",
		}, []string{"outcome"}),

		turnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hive_agent",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total number of conversation turns completed, partitioned by outcome.",
		}, []string{"outcome"}),

		turnDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hive_agent",
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "Wall-clock duration of conversation turns, including retrieval, model calls, and tool execution.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),

		toolCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hive_agent",
			Subsystem: "chat",
			Name:      "tool_calls_total",
			Help:      "Total number of tool dispatches observed in completed turns.",
		}, []string{"tool"}),

		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hive_agent",
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Number of live sessions in the registry.",
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hive_agent",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, path, and status code.",
		}, []string{"method", "path", "code"}),
	}
}
