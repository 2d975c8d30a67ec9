package cart

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Operations *prometheus.CounterVec
	Malformed  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cart_operations_total",
				Help: "Cart operations by kind and result",
			},
			[]string{"op", "result"},
		),
		Malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cart_state_malformed_total",
			Help: "Cart cookies that failed to decode and were treated as empty",
		}),
	}
	reg.MustRegister(m.Operations, m.Malformed)
	return m
}

func (m *Metrics) observe(op, result string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) malformed() {
	if m == nil {
		return
	}
	m.Malformed.Inc()
}
