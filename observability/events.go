package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EventMetrics counts committed ledger events.
type EventMetrics struct {
	committed *prometheus.CounterVec
	lastSlot  *prometheus.GaugeVec
}

var (
	eventsOnce sync.Once
	eventsReg  *EventMetrics
)

// Events returns the lazily registered event counters.
func Events() *EventMetrics {
	eventsOnce.Do(func() {
		eventsReg = &EventMetrics{
			committed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "committed_total",
				Help:      "Committed events by emitting program family and action.",
			}, []string{"family", "action"}),
			lastSlot: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "last_slot",
				Help:      "Slot of the most recent event per family.",
			}, []string{"family"}),
		}
		prometheus.MustRegister(eventsReg.committed, eventsReg.lastSlot)
	})
	return eventsReg
}

// RecordEvent counts one event such as "escrow.settled" committed at slot.
func (m *EventMetrics) RecordEvent(kind string, slot uint64) {
	if m == nil {
		return
	}
	family, action := splitEventType(kind)
	m.committed.WithLabelValues(family, action).Inc()
	m.lastSlot.WithLabelValues(family).Set(float64(slot))
}

func splitEventType(kind string) (string, string) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		return "unknown", "unknown"
	}
	family, action, ok := strings.Cut(kind, ".")
	if !ok || action == "" {
		return family, "unknown"
	}
	return family, action
}
