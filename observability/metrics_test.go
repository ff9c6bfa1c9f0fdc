package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSplitEventType(t *testing.T) {
	cases := map[string][2]string{
		"escrow.settled":  {"escrow", "settled"},
		" Escrow.Closed ": {"escrow", "closed"},
		"token":           {"token", "unknown"},
		"token.":          {"token", "unknown"},
		"":                {"unknown", "unknown"},
	}
	for in, want := range cases {
		family, action := splitEventType(in)
		require.Equal(t, want[0], family, in)
		require.Equal(t, want[1], action, in)
	}
}

func TestRecordEvent(t *testing.T) {
	m := Events()
	counter := m.committed.WithLabelValues("escrow", "initialized")
	before := testutil.ToFloat64(counter)

	m.RecordEvent("escrow.initialized", 7)
	m.RecordEvent("escrow.initialized", 9)

	require.Equal(t, before+2, testutil.ToFloat64(counter))
	require.Equal(t, float64(9), testutil.ToFloat64(m.lastSlot.WithLabelValues("escrow")))

	var nilMetrics *EventMetrics
	nilMetrics.RecordEvent("escrow.settled", 1)
}

func TestEscrowLamportsSkipZero(t *testing.T) {
	m := Escrow()
	counter := m.lamports.WithLabelValues("royalty")
	before := testutil.ToFloat64(counter)
	m.AddLamports("royalty", 0)
	m.AddLamports("royalty", 50)
	require.Equal(t, before+50, testutil.ToFloat64(counter))
}

func TestModuleMetricsObserve(t *testing.T) {
	m := ModuleMetrics()
	failures := m.errors.WithLabelValues("getEscrow", "-32004")
	before := testutil.ToFloat64(failures)
	m.Observe("getEscrow", -32004, time.Millisecond)
	m.Observe("getEscrow", 0, time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(failures))
	require.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("getEscrow", "success")))
}
