package store

import (
	"context"
	"sort"
	"sync"

	"sparkfish/internal/enrollment/models"
	id "sparkfish/pkg/domain"
	"sparkfish/pkg/platform/sentinel"
)

// SeatClaimer atomically takes one seat in a cohort, returning
// sentinel.ErrNotFound, ErrUnavailable (inactive) or ErrExhausted (full).
type SeatClaimer interface {
	ClaimSeat(ctx context.Context, cohortID id.CohortID) error
}

type pairKey struct {
	learner id.LearnerID
	cohort  id.CohortID
}

// InMemory stores enrollments for dev and tests. One mutex covers the
// duplicate check, the seat claim and the insert.
type InMemory struct {
	mu          sync.Mutex
	seats       SeatClaimer
	enrollments map[id.EnrollmentID]models.Enrollment
	byPair      map[pairKey]id.EnrollmentID
	byPayment   map[string]id.EnrollmentID
}

func NewInMemory(seats SeatClaimer) *InMemory {
	return &InMemory{
		seats:       seats,
		enrollments: make(map[id.EnrollmentID]models.Enrollment),
		byPair:      make(map[pairKey]id.EnrollmentID),
		byPayment:   make(map[string]id.EnrollmentID),
	}
}

func (s *InMemory) ClaimSeatAndEnroll(ctx context.Context, e *models.Enrollment) (*models.Enrollment, models.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{learner: e.LearnerID, cohort: e.CohortID}
	if existingID, ok := s.byPair[key]; ok {
		existing := s.enrollments[existingID]
		return &existing, models.OutcomeAlreadyFulfilled, nil
	}
	if e.PaymentRef != nil {
		if _, ok := s.byPayment[*e.PaymentRef]; ok {
			return nil, "", sentinel.ErrConflict
		}
	}
	if err := s.seats.ClaimSeat(ctx, e.CohortID); err != nil {
		return nil, "", err
	}

	s.enrollments[e.ID] = *e
	s.byPair[key] = e.ID
	if e.PaymentRef != nil {
		s.byPayment[*e.PaymentRef] = e.ID
	}
	created := *e
	return &created, models.OutcomeCreated, nil
}

func (s *InMemory) FindByID(_ context.Context, enrollmentID id.EnrollmentID) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[enrollmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &e, nil
}

func (s *InMemory) FindByLearnerAndCohort(_ context.Context, learnerID id.LearnerID, cohortID id.CohortID) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enrollmentID, ok := s.byPair[pairKey{learner: learnerID, cohort: cohortID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	e := s.enrollments[enrollmentID]
	return &e, nil
}

func (s *InMemory) FindByPaymentRefs(_ context.Context, refs []string) (map[string]*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*models.Enrollment, len(refs))
	for _, ref := range refs {
		if enrollmentID, ok := s.byPayment[ref]; ok {
			e := s.enrollments[enrollmentID]
			out[ref] = &e
		}
	}
	return out, nil
}

func (s *InMemory) ListForLearner(_ context.Context, learnerID id.LearnerID) ([]*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Enrollment
	for _, e := range s.enrollments {
		if e.LearnerID == learnerID {
			out = append(out, &e)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Enrollment
	for _, e := range s.enrollments {
		if filter.CohortID != nil && e.CohortID != *filter.CohortID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, &e)
	}
	sortNewestFirst(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// UpdateStatus moves an enrollment from one status to another, failing with
// sentinel.ErrInvalidState when it is no longer in from.
func (s *InMemory) UpdateStatus(_ context.Context, enrollmentID id.EnrollmentID, from, to models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[enrollmentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.Status != from {
		return sentinel.ErrInvalidState
	}
	e.Status = to
	s.enrollments[enrollmentID] = e
	return nil
}

func (s *InMemory) AssignTrack(_ context.Context, enrollmentID id.EnrollmentID, trackID *id.TrackID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[enrollmentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	e.TrackID = trackID
	s.enrollments[enrollmentID] = e
	return nil
}

func sortNewestFirst(out []*models.Enrollment) {
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
}
