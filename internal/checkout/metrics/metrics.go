package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Checkout attempts by result (redirect, already_enrolled, cohort_full,
	// bypassed, not_found, processor_error)
	Attempts *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Attempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "sparkfish_checkout_attempts_total",
			Help: "Checkout attempts by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementAttempt(result string) {
	if m != nil {
		m.Attempts.WithLabelValues(result).Inc()
	}
}
