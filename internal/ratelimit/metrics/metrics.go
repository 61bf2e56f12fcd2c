package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Rate limit decisions by scope and result (allowed, limited, error)
	Decisions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Decisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "sparkfish_ratelimit_decisions_total",
			Help: "Rate limit decisions by scope and result",
		}, []string{"scope", "result"}),
	}
}

func (m *Metrics) IncrementDecision(scope, result string) {
	if m != nil {
		m.Decisions.WithLabelValues(scope, result).Inc()
	}
}
