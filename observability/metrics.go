package observability

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type engineMetrics struct {
	events     *prometheus.CounterVec
	feeRevenue *prometheus.GaugeVec
}

type rpcMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	engineMetricsOnce sync.Once
	engineRegistry    *engineMetrics

	rpcMetricsOnce sync.Once
	rpcRegistry    *rpcMetrics
)

// Engine returns the lazily-initialised metrics registry tracking engine
// events and escrow revenue.
func Engine() *engineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &engineMetrics{
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stay",
				Subsystem: "engine",
				Name:      "events_total",
				Help:      "Count of engine events segmented by module and action.",
			}, []string{"module", "action"}),
			feeRevenue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "stay",
				Subsystem: "engine",
				Name:      "platform_revenue",
				Help:      "Accumulated platform revenue per denom in base units.",
			}, []string{"denom"}),
		}
		prometheus.MustRegister(engineRegistry.events, engineRegistry.feeRevenue)
	})
	return engineRegistry
}

// RecordEvent increments the event counter. Event types follow the
// "module.subject.action" convention; the module label is the first segment.
func (m *engineMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	module := "unknown"
	action := strings.TrimSpace(eventType)
	if idx := strings.IndexByte(action, '.'); idx > 0 {
		module = action[:idx]
		action = action[idx+1:]
	}
	if action == "" {
		action = "unknown"
	}
	m.events.WithLabelValues(module, action).Inc()
}

// RecordRevenue adjusts the platform revenue gauge for a denom by delta base
// units. Fee credits pass a positive delta, withdrawals a negative one.
func (m *engineMetrics) RecordRevenue(denom string, delta float64) {
	if m == nil {
		return
	}
	if denom = strings.TrimSpace(denom); denom == "" {
		denom = "unknown"
	}
	m.feeRevenue.WithLabelValues(denom).Add(delta)
}

// RPC returns the metrics registry used to record JSON-RPC activity.
func RPC() *rpcMetrics {
	rpcMetricsOnce.Do(func() {
		rpcRegistry = &rpcMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stay",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stay",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by method and code.",
			}, []string{"method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "stay",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(rpcRegistry.requests, rpcRegistry.errors, rpcRegistry.latency)
	})
	return rpcRegistry
}

// Observe records the outcome of one JSON-RPC request.
func (m *rpcMetrics) Observe(method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if code != 0 {
		outcome = "error"
		m.errors.WithLabelValues(method, fmt.Sprintf("%d", code)).Inc()
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}
