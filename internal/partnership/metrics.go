package partnership

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the partnership collectors. A nil *Metrics records nothing.
type Metrics struct {
	operations    *prometheus.CounterVec
	relinkRetries prometheus.Counter
	partialLinks  prometheus.Counter
	repairs       *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lovekeeper",
			Subsystem: "partnership",
			Name:      "operations_total",
			Help:      "Partnership operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		relinkRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lovekeeper",
			Subsystem: "partnership",
			Name:      "relink_retries_total",
			Help:      "Retried profile link or unlink writes.",
		}),
		partialLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lovekeeper",
			Subsystem: "partnership",
			Name:      "partial_links_total",
			Help:      "Operations that left partner profiles out of sync.",
		}),
		repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lovekeeper",
			Subsystem: "partnership",
			Name:      "repairs_total",
			Help:      "Profile links fixed by the reconciler.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(m.operations, m.relinkRetries, m.partialLinks, m.repairs)
	return m
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome(err)).Inc()
	if err != nil && outcome(err) == "partial_link" {
		m.partialLinks.Inc()
	}
}

func (m *Metrics) retried() {
	if m == nil {
		return
	}
	m.relinkRetries.Inc()
}

func (m *Metrics) repaired(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.repairs.WithLabelValues(kind, result).Inc()
}
