package metrics

import "github.com/prometheus/client_golang/prometheus"

// DomainMetrics counts inventory and trade outcomes.
type DomainMetrics struct {
	placements *prometheus.CounterVec
	trades     *prometheus.CounterVec
}

// NewDomainMetrics registers the domain counters on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_placements_total",
		Help: "Placement operations by outcome.",
	}, []string{"outcome"})
	trades := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trades_total",
		Help: "Trade lifecycle events.",
	}, []string{"event"})
	reg.MustRegister(placements, trades)
	return &DomainMetrics{placements: placements, trades: trades}
}

// Placement counts a placement operation by its outcome tag.
func (m *DomainMetrics) Placement(outcome string) {
	if m == nil || m.placements == nil {
		return
	}
	m.placements.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// TradeEvent counts a trade lifecycle event (created, activated, finalized,
// cancelled, finalize_failed).
func (m *DomainMetrics) TradeEvent(event string) {
	if m == nil || m.trades == nil {
		return
	}
	m.trades.WithLabelValues(normalizeLabel(event)).Inc()
}
