package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sparkfish/internal/catalog/models"
	id "sparkfish/pkg/domain"
	"sparkfish/pkg/platform/sentinel"
)

type CatalogStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestCatalogStoreSuite(t *testing.T) {
	suite.Run(t, new(CatalogStoreSuite))
}

func (s *CatalogStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *CatalogStoreSuite) seedCohort(limit int) *models.Cohort {
	p := &models.Program{ID: id.NewProgramID(), Slug: "p-" + id.NewProgramID().String()[:8], Title: "P", Type: models.ProgramTypeShortIntensive, Active: true}
	s.Require().NoError(s.store.CreateProgram(s.ctx, p))
	c, err := models.NewCohort(id.NewCohortID(), p.ID, "C", time.Now(), limit)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateCohort(s.ctx, c))
	return c
}

func (s *CatalogStoreSuite) TestClaimSeat() {
	s.Run("stops at the limit", func() {
		c := s.seedCohort(2)
		s.Require().NoError(s.store.ClaimSeat(s.ctx, c.ID))
		s.Require().NoError(s.store.ClaimSeat(s.ctx, c.ID))
		s.ErrorIs(s.store.ClaimSeat(s.ctx, c.ID), sentinel.ErrExhausted)

		got, err := s.store.FindCohortByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(2, got.SeatsTaken)
	})

	s.Run("inactive cohort is unavailable", func() {
		c := s.seedCohort(2)
		c.Active = false
		s.Require().NoError(s.store.UpdateCohort(s.ctx, c))
		s.ErrorIs(s.store.ClaimSeat(s.ctx, c.ID), sentinel.ErrUnavailable)
	})

	s.Run("unknown cohort", func() {
		s.ErrorIs(s.store.ClaimSeat(s.ctx, id.NewCohortID()), sentinel.ErrNotFound)
	})

	s.Run("concurrent claims never exceed the limit", func() {
		const limit, goroutines = 5, 40
		c := s.seedCohort(limit)

		var wg sync.WaitGroup
		var claimed atomic.Int32
		for range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.store.ClaimSeat(s.ctx, c.ID) == nil {
					claimed.Add(1)
				}
			}()
		}
		wg.Wait()

		s.Equal(int32(limit), claimed.Load())
		got, err := s.store.FindCohortByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(limit, got.SeatsTaken)
	})
}

func (s *CatalogStoreSuite) TestUpdateCohortKeepsSeatsTaken() {
	c := s.seedCohort(3)
	s.Require().NoError(s.store.ClaimSeat(s.ctx, c.ID))

	stale := *c
	stale.SeatsTaken = 0
	stale.Title = "Renamed"
	s.Require().NoError(s.store.UpdateCohort(s.ctx, &stale))

	got, err := s.store.FindCohortByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", got.Title)
	s.Equal(1, got.SeatsTaken)
}

func (s *CatalogStoreSuite) TestProgramSlugUniqueness() {
	p1 := &models.Program{ID: id.NewProgramID(), Slug: "same", Title: "A", Type: models.ProgramTypeLongTerm}
	p2 := &models.Program{ID: id.NewProgramID(), Slug: "same", Title: "B", Type: models.ProgramTypeLongTerm}
	s.Require().NoError(s.store.CreateProgram(s.ctx, p1))
	s.ErrorIs(s.store.CreateProgram(s.ctx, p2), sentinel.ErrAlreadyUsed)
}
