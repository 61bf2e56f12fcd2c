package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts delivery attempts per template.
type Metrics struct {
	Sent   *prometheus.CounterVec
	Failed *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Sent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkfish_notifications_sent_total",
			Help: "Notifications handed to the mail provider, by category",
		}, []string{"category"}),
		Failed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkfish_notifications_failed_total",
			Help: "Notifications that could not be delivered, by category",
		}, []string{"category"}),
	}
}

func (m *Metrics) IncrementSent(category string) {
	if m != nil {
		m.Sent.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) IncrementFailed(category string) {
	if m != nil {
		m.Failed.WithLabelValues(category).Inc()
	}
}
