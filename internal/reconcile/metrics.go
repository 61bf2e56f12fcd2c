package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Sessions handled by the last pass, by result (already, repaired, failed, skipped, unpaid)
	Sessions *prometheus.CounterVec
	LastRun  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkfish_reconcile_sessions_total",
			Help: "Completed checkout sessions seen by reconciliation, by result",
		}, []string{"result"}),
		LastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "sparkfish_reconcile_last_run_timestamp_seconds",
			Help: "Unix time of the last completed reconciliation pass",
		}),
	}
}

func (m *Metrics) observe(r *Report) {
	if m == nil {
		return
	}
	m.Sessions.WithLabelValues("already").Add(float64(r.Already))
	m.Sessions.WithLabelValues("repaired").Add(float64(r.Repaired))
	m.Sessions.WithLabelValues("failed").Add(float64(len(r.Failed)))
	m.Sessions.WithLabelValues("skipped").Add(float64(r.Skipped))
	m.Sessions.WithLabelValues("unpaid").Add(float64(r.Unpaid))
	m.LastRun.SetToCurrentTime()
}
