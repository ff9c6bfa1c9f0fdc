package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "escrow"

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	escrowMetricsOnce sync.Once
	escrowRegistry    *EscrowMetrics

	runtimeMetricsOnce sync.Once
	runtimeRegistry    *RuntimeMetrics
)

// ModuleMetrics returns the lazily-initialised registry recording JSON-RPC
// method activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by method and error code.",
			}, []string{"method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of requests rejected by the rate limiter or authentication.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a JSON-RPC call. code is zero on success.
func (m *moduleMetrics) Observe(method string, code int, duration time.Duration) {
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

// RecordThrottle increments the throttle counter. Reasons should be stable
// strings such as "rate_limit" or "unauthorized".
func (m *moduleMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(reason).Inc()
}

// EscrowMetrics tracks escrow instructions and the value they route.
type EscrowMetrics struct {
	instructions *prometheus.CounterVec
	lamports     *prometheus.CounterVec
}

// Escrow returns the escrow program metrics registry.
func Escrow() *EscrowMetrics {
	escrowMetricsOnce.Do(func() {
		escrowRegistry = &EscrowMetrics{
			instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "program",
				Name:      "instructions_total",
				Help:      "Escrow instructions processed segmented by kind and outcome code.",
			}, []string{"kind", "outcome"}),
			lamports: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "program",
				Name:      "settled_lamports_total",
				Help:      "Lamports routed by settlements segmented by destination (tax, royalty, proceeds, listing_fee).",
			}, []string{"destination"}),
		}
		prometheus.MustRegister(escrowRegistry.instructions, escrowRegistry.lamports)
	})
	return escrowRegistry
}

// ObserveInstruction counts one processed instruction. outcome is "ok" or
// the stable error label.
func (m *EscrowMetrics) ObserveInstruction(kind, outcome string) {
	if m == nil {
		return
	}
	m.instructions.WithLabelValues(kind, outcome).Inc()
}

// AddLamports accumulates value routed to destination.
func (m *EscrowMetrics) AddLamports(destination string, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.lamports.WithLabelValues(destination).Add(float64(amount))
}

// RuntimeMetrics tracks transaction execution.
type RuntimeMetrics struct {
	transactions *prometheus.CounterVec
	latency      prometheus.Histogram
	slot         prometheus.Gauge
}

// Runtime returns the transaction runtime metrics registry.
func Runtime() *RuntimeMetrics {
	runtimeMetricsOnce.Do(func() {
		runtimeRegistry = &RuntimeMetrics{
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "runtime",
				Name:      "transactions_total",
				Help:      "Executed transactions segmented by status.",
			}, []string{"status"}),
			latency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "runtime",
				Name:      "execution_duration_seconds",
				Help:      "Wall-clock time spent executing and committing one transaction.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			}),
			slot: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "runtime",
				Name:      "slot",
				Help:      "Slot of the last committed transaction.",
			}),
		}
		prometheus.MustRegister(runtimeRegistry.transactions, runtimeRegistry.latency, runtimeRegistry.slot)
	})
	return runtimeRegistry
}

// ObserveTransaction records one executed transaction.
func (m *RuntimeMetrics) ObserveTransaction(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(status).Inc()
	m.latency.Observe(duration.Seconds())
}

// SetSlot publishes the committed slot.
func (m *RuntimeMetrics) SetSlot(slot uint64) {
	if m == nil {
		return
	}
	m.slot.Set(float64(slot))
}
