package request

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the acceptance lifecycle. Methods are
// nil-safe so tests can pass a nil receiver.
type Metrics struct {
	Accepts *prometheus.CounterVec
	Cancels *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Accepts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_acceptances_total",
			Help: "Accept attempts by outcome",
		}, []string{"outcome"}), // outcome: ok, conflict, not_found, incompatible
		Cancels: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_acceptance_cancels_total",
			Help: "Donor cancel attempts by outcome",
		}, []string{"outcome"}), // outcome: ok, window_expired, not_found
	}
}

func (m *Metrics) IncrementAccept(outcome string) {
	if m != nil {
		m.Accepts.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementCancel(outcome string) {
	if m != nil {
		m.Cancels.WithLabelValues(outcome).Inc()
	}
}
