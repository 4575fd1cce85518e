package inventory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts allocation attempts by outcome. Methods are nil-safe so
// tests can pass a nil receiver.
type Metrics struct {
	Allocations *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Allocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_allocations_total",
			Help: "Allocation attempts by outcome",
		}, []string{"outcome"}), // ok, validation, incompatible, wrong_total, insufficient, exhausted
	}
}

func (m *Metrics) IncrementAllocation(outcome string) {
	if m != nil {
		m.Allocations.WithLabelValues(outcome).Inc()
	}
}
