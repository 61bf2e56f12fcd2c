package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for enrollment fulfillment.
type Metrics struct {
	// Fulfillment results: created, already_fulfilled, cohort_full, cohort_inactive, not_found, error
	Fulfillments *prometheus.CounterVec

	// Seats taken by successful fulfillment, by path (paid, bypass)
	SeatsClaimed *prometheus.CounterVec

	FulfillLatency prometheus.Histogram

	StatusChanges *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Fulfillments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkfish_enrollment_fulfillments_total",
			Help: "Fulfillment attempts by result",
		}, []string{"result"}),
		SeatsClaimed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkfish_enrollment_seats_claimed_total",
			Help: "Seats claimed by new enrollments, by payment path",
		}, []string{"path"}),
		FulfillLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sparkfish_enrollment_fulfill_duration_seconds",
			Help:    "Duration of the atomic seat claim and enrollment insert",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		StatusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkfish_enrollment_status_changes_total",
			Help: "Enrollment status transitions by target status",
		}, []string{"status"}),
	}
}

func (m *Metrics) IncrementFulfillment(result string) {
	if m != nil {
		m.Fulfillments.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncrementSeatClaimed(bypass bool) {
	if m == nil {
		return
	}
	path := "paid"
	if bypass {
		path = "bypass"
	}
	m.SeatsClaimed.WithLabelValues(path).Inc()
}

func (m *Metrics) ObserveFulfillLatency(d time.Duration) {
	if m != nil {
		m.FulfillLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementStatusChange(status string) {
	if m != nil {
		m.StatusChanges.WithLabelValues(status).Inc()
	}
}
