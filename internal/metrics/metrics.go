// Package metrics exposes Prometheus instrumentation for the chat server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry. All methods are
// safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	vendorCalls     *prometheus.CounterVec
	vendorLatency   *prometheus.HistogramVec
	appendConflicts prometheus.Counter
	maskedFailures  prometheus.Counter
	rateLimited     prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		vendorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "miniplex",
			Name:      "vendor_calls_total",
			Help:      "Search and generation vendor calls by outcome.",
		}, []string{"vendor", "outcome"}),
		vendorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "miniplex",
			Name:      "vendor_call_seconds",
			Help:      "Latency of vendor calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"vendor"}),
		appendConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "miniplex",
			Name:      "append_conflicts_total",
			Help:      "Sequence number collisions retried while appending messages.",
		}),
		maskedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "miniplex",
			Name:      "chat_masked_failures_total",
			Help:      "Chat requests answered with the apology text.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "miniplex",
			Name:      "chat_rate_limited_total",
			Help:      "Chat requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.vendorCalls,
		m.vendorLatency,
		m.appendConflicts,
		m.maskedFailures,
		m.rateLimited,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveVendor records one vendor call that started at start.
func (m *Metrics) ObserveVendor(vendor string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.vendorCalls.WithLabelValues(vendor, outcome).Inc()
	m.vendorLatency.WithLabelValues(vendor).Observe(time.Since(start).Seconds())
}

// AppendConflict counts a retried sequence collision.
func (m *Metrics) AppendConflict() {
	if m == nil {
		return
	}
	m.appendConflicts.Inc()
}

// MaskedFailure counts a chat answer replaced by the apology text.
func (m *Metrics) MaskedFailure() {
	if m == nil {
		return
	}
	m.maskedFailures.Inc()
}

// RateLimited counts a rejected chat request.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
