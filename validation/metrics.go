package validation

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	tierMemo  = "memo"
	tierStore = "store"
	tierProbe = "probe"
)

// Metrics counts the tier hits and the probe outcomes of a validator.
type Metrics struct {
	Lookups     *prometheus.CounterVec
	Probes      *prometheus.CounterVec
	StoreErrors prometheus.Counter
}

// NewMetrics creates the validator counters and registers them with reg
// when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "avatar",
			Subsystem: "validation",
			Name:      "lookups_total",
			Help:      "Validation lookups by the tier that answered them.",
		}, []string{"tier"}),
		Probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "avatar",
			Subsystem: "validation",
			Name:      "probes_total",
			Help:      "Remote probes by outcome.",
		}, []string{"status"}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "avatar",
			Subsystem: "validation",
			Name:      "store_errors_total",
			Help:      "Durable tier failures treated as cache misses.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Lookups, m.Probes, m.StoreErrors)
	}
	return m
}

func (m *Metrics) lookup(tier string) {
	if m != nil {
		m.Lookups.WithLabelValues(tier).Inc()
	}
}

func (m *Metrics) probe(s Status) {
	if m != nil {
		m.Probes.WithLabelValues(s.String()).Inc()
	}
}

func (m *Metrics) storeError() {
	if m != nil {
		m.StoreErrors.Inc()
	}
}
