package models

import (
	"time"

	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s. Only active
// enrollments move, and only forward.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusActive && (next == StatusCompleted || next == StatusCancelled)
}

// Enrollment links a learner to a cohort. At most one exists per
// (learner, cohort) pair.
type Enrollment struct {
	ID         id.EnrollmentID `json:"id"`
	LearnerID  id.LearnerID    `json:"learner_id"`
	CohortID   id.CohortID     `json:"cohort_id"`
	TrackID    *id.TrackID     `json:"track_id,omitempty"`
	Status     Status          `json:"status"`
	PaymentRef *string         `json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
}

// New builds an active enrollment. A nil payment reference marks the bypass
// path for programs without a payment plan.
func New(learnerID id.LearnerID, cohortID id.CohortID, paymentRef *string, trackID *id.TrackID, now time.Time) (*Enrollment, error) {
	if learnerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "learner is required")
	}
	if cohortID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "cohort is required")
	}
	if paymentRef != nil && *paymentRef == "" {
		paymentRef = nil
	}
	return &Enrollment{
		ID:         id.NewEnrollmentID(),
		LearnerID:  learnerID,
		CohortID:   cohortID,
		TrackID:    trackID,
		Status:     StatusActive,
		PaymentRef: paymentRef,
		CreatedAt:  now,
	}, nil
}

// Bypassed reports whether the enrollment was created without a payment.
func (e *Enrollment) Bypassed() bool {
	return e.PaymentRef == nil
}

// Outcome distinguishes a fresh enrollment from a repeated fulfillment of the
// same (learner, cohort) pair. Neither is an error.
type Outcome string

const (
	OutcomeCreated          Outcome = "created"
	OutcomeAlreadyFulfilled Outcome = "already_fulfilled"
)

type FulfillRequest struct {
	LearnerID  id.LearnerID
	CohortID   id.CohortID
	PaymentRef *string
	TrackID    *id.TrackID
}

type FulfillResult struct {
	Enrollment *Enrollment `json:"enrollment"`
	Outcome    Outcome     `json:"outcome"`
}

// ListFilter narrows the admin enrollment listing. Zero values match all.
type ListFilter struct {
	CohortID *id.CohortID
	Status   Status
	Limit    int
}
