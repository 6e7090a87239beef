package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics tracks the live-subscription fan-out. The subscription gauge
// is the leak detector: it must return to zero when every campaign watcher
// is torn down.
type SyncMetrics struct {
	subscriptions *prometheus.GaugeVec
	snapshots     *prometheus.CounterVec
	rollbacks     prometheus.Counter
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	subscriptions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sync_active_subscriptions",
		Help: "Active change-bus subscriptions by scope.",
	}, []string{"scope"})
	snapshots := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_snapshots_total",
		Help: "Snapshots rebuilt from change events by scope.",
	}, []string{"scope"})
	rollbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_optimistic_rollbacks_total",
		Help: "Optimistic mutations reverted after a failed remote write.",
	})
	reg.MustRegister(subscriptions, snapshots, rollbacks)
	return &SyncMetrics{
		subscriptions: subscriptions,
		snapshots:     snapshots,
		rollbacks:     rollbacks,
	}
}

// SubscriptionOpened increments the gauge for the named scope.
func (m *SyncMetrics) SubscriptionOpened(scope string) {
	if m == nil || m.subscriptions == nil {
		return
	}
	m.subscriptions.WithLabelValues(normalizeLabel(scope)).Inc()
}

// SubscriptionClosed decrements the gauge for the named scope.
func (m *SyncMetrics) SubscriptionClosed(scope string) {
	if m == nil || m.subscriptions == nil {
		return
	}
	m.subscriptions.WithLabelValues(normalizeLabel(scope)).Dec()
}

// SnapshotRebuilt counts a snapshot rebuild for the named scope.
func (m *SyncMetrics) SnapshotRebuilt(scope string) {
	if m == nil || m.snapshots == nil {
		return
	}
	m.snapshots.WithLabelValues(normalizeLabel(scope)).Inc()
}

// RollbackApplied counts an optimistic-state revert.
func (m *SyncMetrics) RollbackApplied() {
	if m == nil || m.rollbacks == nil {
		return
	}
	m.rollbacks.Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return strings.ReplaceAll(trimmed, " ", "_")
}
