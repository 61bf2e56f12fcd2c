// Package payment defines the processor port shared by checkout, the
// webhook and reconciliation.
package payment

import (
	"context"
	"errors"
	"time"

	id "sparkfish/pkg/domain"
)

// Metadata keys stamped on every checkout session. Fulfillment reads them
// back from the webhook and from reconciliation.
const (
	MetadataCohortID  = "cohort_id"
	MetadataLearnerID = "learner_id"
)

// ErrNotConfigured is returned by Unconfigured.
var ErrNotConfigured = errors.New("payment processor not configured")

// CheckoutRequest describes one hosted checkout for one seat.
type CheckoutRequest struct {
	LearnerID     id.LearnerID
	CohortID      id.CohortID
	PriceID       string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Session is a created checkout session.
type Session struct {
	ID  string
	URL string
}

// CompletedSession is a finished checkout as reported by the processor.
// LearnerID and CohortID are raw metadata and may be empty or malformed.
type CompletedSession struct {
	ID        string
	LearnerID string
	CohortID  string
	Paid      bool
	CreatedAt time.Time
}

// Correlation parses the learner and cohort metadata. Missing or malformed
// values are rejected rather than guessed.
func (s CompletedSession) Correlation() (id.LearnerID, id.CohortID, bool) {
	if s.ID == "" || s.LearnerID == "" || s.CohortID == "" {
		return id.LearnerID{}, id.CohortID{}, false
	}
	learnerID, err := id.ParseLearnerID(s.LearnerID)
	if err != nil {
		return id.LearnerID{}, id.CohortID{}, false
	}
	cohortID, err := id.ParseCohortID(s.CohortID)
	if err != nil {
		return id.LearnerID{}, id.CohortID{}, false
	}
	return learnerID, cohortID, true
}

type Processor interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	ListCompletedSessions(ctx context.Context, since time.Time) ([]CompletedSession, error)
}

// Unconfigured stands in when no processor key is set. Paid checkouts fail
// as unavailable; bypass enrollments still work.
type Unconfigured struct{}

func (Unconfigured) CreateCheckoutSession(context.Context, CheckoutRequest) (*Session, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) ListCompletedSessions(context.Context, time.Time) ([]CompletedSession, error) {
	return nil, ErrNotConfigured
}
