package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Issued *prometheus.CounterVec

	// Uploads that failed; the certificate is still issued without an artifact.
	ArtifactFailures prometheus.Counter

	CodeCollisions prometheus.Counter

	// Verification lookups by result (found, not_found)
	Verifications *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Issued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkfish_certificates_issued_total",
			Help: "Certificates issued, by whether the PDF artifact was stored",
		}, []string{"artifact"}),
		ArtifactFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "sparkfish_certificate_artifact_failures_total",
			Help: "Certificate PDFs that could not be rendered or uploaded",
		}),
		CodeCollisions: f.NewCounter(prometheus.CounterOpts{
			Name: "sparkfish_certificate_code_collisions_total",
			Help: "Generated verification codes that were already taken",
		}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkfish_certificate_verifications_total",
			Help: "Public verification lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementIssued(withArtifact bool) {
	if m == nil {
		return
	}
	label := "missing"
	if withArtifact {
		label = "stored"
	}
	m.Issued.WithLabelValues(label).Inc()
}

func (m *Metrics) IncrementArtifactFailure() {
	if m != nil {
		m.ArtifactFailures.Inc()
	}
}

func (m *Metrics) IncrementCodeCollision() {
	if m != nil {
		m.CodeCollisions.Inc()
	}
}

func (m *Metrics) IncrementVerification(found bool) {
	if m == nil {
		return
	}
	if found {
		m.Verifications.WithLabelValues("found").Inc()
		return
	}
	m.Verifications.WithLabelValues("not_found").Inc()
}
