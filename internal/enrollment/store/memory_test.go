package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	catalogModels "sparkfish/internal/catalog/models"
	catalogStore "sparkfish/internal/catalog/store"
	"sparkfish/internal/enrollment/models"
	id "sparkfish/pkg/domain"
	"sparkfish/pkg/platform/sentinel"
)

type EnrollmentStoreSuite struct {
	suite.Suite
	ctx    context.Context
	ledger *catalogStore.InMemory
	store  *InMemory
}

func TestEnrollmentStoreSuite(t *testing.T) {
	suite.Run(t, new(EnrollmentStoreSuite))
}

func (s *EnrollmentStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = catalogStore.NewInMemory()
	s.store = NewInMemory(s.ledger)
}

func (s *EnrollmentStoreSuite) seedCohort(limit int) id.CohortID {
	p := &catalogModels.Program{ID: id.NewProgramID(), Slug: "p-" + id.NewProgramID().String()[:8], Title: "P", Type: catalogModels.ProgramTypeLongTerm, Active: true}
	s.Require().NoError(s.ledger.CreateProgram(s.ctx, p))
	c, err := catalogModels.NewCohort(id.NewCohortID(), p.ID, "C", time.Now(), limit)
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.CreateCohort(s.ctx, c))
	return c.ID
}

func (s *EnrollmentStoreSuite) newEnrollment(cohortID id.CohortID, paymentRef *string) *models.Enrollment {
	e, err := models.New(id.NewLearnerID(), cohortID, paymentRef, nil, time.Now())
	s.Require().NoError(err)
	return e
}

func (s *EnrollmentStoreSuite) TestClaimSeatAndEnroll() {
	s.Run("duplicate pair returns the existing enrollment", func() {
		cohortID := s.seedCohort(5)
		e := s.newEnrollment(cohortID, nil)
		_, outcome, err := s.store.ClaimSeatAndEnroll(s.ctx, e)
		s.Require().NoError(err)
		s.Equal(models.OutcomeCreated, outcome)

		again := *e
		again.ID = id.NewEnrollmentID()
		got, outcome, err := s.store.ClaimSeatAndEnroll(s.ctx, &again)
		s.Require().NoError(err)
		s.Equal(models.OutcomeAlreadyFulfilled, outcome)
		s.Equal(e.ID, got.ID)

		c, err := s.ledger.FindCohortByID(s.ctx, cohortID)
		s.Require().NoError(err)
		s.Equal(1, c.SeatsTaken)
	})

	s.Run("full cohort stores nothing", func() {
		cohortID := s.seedCohort(1)
		_, _, err := s.store.ClaimSeatAndEnroll(s.ctx, s.newEnrollment(cohortID, nil))
		s.Require().NoError(err)

		late := s.newEnrollment(cohortID, nil)
		_, _, err = s.store.ClaimSeatAndEnroll(s.ctx, late)
		s.ErrorIs(err, sentinel.ErrExhausted)
		_, err = s.store.FindByID(s.ctx, late.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("payment reference reused by another pair", func() {
		cohortID := s.seedCohort(5)
		paymentRef := "cs_shared"
		_, _, err := s.store.ClaimSeatAndEnroll(s.ctx, s.newEnrollment(cohortID, &paymentRef))
		s.Require().NoError(err)

		_, _, err = s.store.ClaimSeatAndEnroll(s.ctx, s.newEnrollment(cohortID, &paymentRef))
		s.ErrorIs(err, sentinel.ErrConflict)
		c, err := s.ledger.FindCohortByID(s.ctx, cohortID)
		s.Require().NoError(err)
		s.Equal(1, c.SeatsTaken)
	})
}

func (s *EnrollmentStoreSuite) TestUpdateStatus() {
	cohortID := s.seedCohort(5)
	e := s.newEnrollment(cohortID, nil)
	_, _, err := s.store.ClaimSeatAndEnroll(s.ctx, e)
	s.Require().NoError(err)

	s.Require().NoError(s.store.UpdateStatus(s.ctx, e.ID, models.StatusActive, models.StatusCompleted))
	s.ErrorIs(s.store.UpdateStatus(s.ctx, e.ID, models.StatusActive, models.StatusCancelled), sentinel.ErrInvalidState)
	s.ErrorIs(s.store.UpdateStatus(s.ctx, id.NewEnrollmentID(), models.StatusActive, models.StatusCancelled), sentinel.ErrNotFound)
}

func (s *EnrollmentStoreSuite) TestListFilters() {
	first, second := s.seedCohort(5), s.seedCohort(5)
	for _, cohortID := range []id.CohortID{first, first, second} {
		_, _, err := s.store.ClaimSeatAndEnroll(s.ctx, s.newEnrollment(cohortID, nil))
		s.Require().NoError(err)
	}

	list, err := s.store.List(s.ctx, models.ListFilter{CohortID: &first})
	s.Require().NoError(err)
	s.Len(list, 2)

	list, err = s.store.List(s.ctx, models.ListFilter{Limit: 1})
	s.Require().NoError(err)
	s.Len(list, 1)
}
