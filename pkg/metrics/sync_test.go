package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, vec *prometheus.GaugeVec, label string) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := vec.WithLabelValues(label).Write(m); err != nil {
		t.Fatalf("reading gauge: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestSubscriptionGaugeReturnsToZero(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.SubscriptionOpened("containers")
	m.SubscriptionOpened("containers")
	m.SubscriptionClosed("containers")
	m.SubscriptionClosed("containers")

	if got := gaugeValue(t, m.subscriptions, "containers"); got != 0 {
		t.Fatalf("expected gauge back at zero, got %v", got)
	}
}

func TestNormalizeLabel(t *testing.T) {
	t.Parallel()

	if normalizeLabel("  Moved To Tray ") != "moved_to_tray" {
		t.Fatal("unexpected normalization")
	}
	if normalizeLabel("") != "unknown" {
		t.Fatal("expected unknown for empty label")
	}
}

func TestNilReceiversAreSafe(t *testing.T) {
	t.Parallel()

	var m *SyncMetrics
	m.SubscriptionOpened("x")
	m.SnapshotRebuilt("x")
	m.RollbackApplied()

	var d *DomainMetrics
	d.Placement("placed")
	d.TradeEvent("created")
}
