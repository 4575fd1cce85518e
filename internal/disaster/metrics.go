package disaster

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts disaster mode toggles. Methods are nil-safe so tests can
// pass a nil receiver.
type Metrics struct {
	Toggles *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Toggles: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_disaster_mode_toggles_total",
			Help: "Disaster mode state changes by region and resulting state",
		}, []string{"region", "active"}),
	}
}

func (m *Metrics) IncrementToggle(region string, active bool) {
	if m != nil {
		m.Toggles.WithLabelValues(region, strconv.FormatBool(active)).Inc()
	}
}
