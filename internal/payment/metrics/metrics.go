package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Webhook deliveries by event type and result (fulfilled, duplicate, ignored,
	// invalid_signature, bad_metadata, fulfill_failed)
	WebhookEvents *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		WebhookEvents: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "sparkfish_payment_webhook_events_total",
			Help: "Payment webhook deliveries by event type and result",
		}, []string{"type", "result"}),
	}
}

func (m *Metrics) IncrementWebhook(eventType, result string) {
	if m != nil {
		m.WebhookEvents.WithLabelValues(eventType, result).Inc()
	}
}
