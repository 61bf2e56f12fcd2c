package store

import (
	"context"
	"sort"
	"sync"

	"sparkfish/internal/catalog/models"
	id "sparkfish/pkg/domain"
	"sparkfish/pkg/platform/sentinel"
)

// InMemory is the catalog for dev and tests. It also serves as the seat
// ledger for the in-memory enrollment store via ClaimSeat.
type InMemory struct {
	mu       sync.RWMutex
	programs map[id.ProgramID]models.Program
	cohorts  map[id.CohortID]models.Cohort
	tracks   map[id.TrackID]models.Track
}

func NewInMemory() *InMemory {
	return &InMemory{
		programs: make(map[id.ProgramID]models.Program),
		cohorts:  make(map[id.CohortID]models.Cohort),
		tracks:   make(map[id.TrackID]models.Track),
	}
}

func (s *InMemory) CreateProgram(_ context.Context, p *models.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.programs {
		if existing.Slug == p.Slug {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.programs[p.ID] = clonedProgram(p)
	return nil
}

func (s *InMemory) UpdateProgram(_ context.Context, p *models.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programs[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, existing := range s.programs {
		if existing.ID != p.ID && existing.Slug == p.Slug {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.programs[p.ID] = clonedProgram(p)
	return nil
}

func (s *InMemory) FindProgramByID(_ context.Context, programID id.ProgramID) (*models.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.programs[programID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemory) FindProgramBySlug(_ context.Context, slug string) (*models.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.programs {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListPrograms(_ context.Context, activeOnly bool) ([]*models.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Program, 0, len(s.programs))
	for _, p := range s.programs {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *InMemory) ProgramHasCohorts(_ context.Context, programID id.ProgramID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cohorts {
		if c.ProgramID == programID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) CreateCohort(_ context.Context, c *models.Cohort) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programs[c.ProgramID]; !ok {
		return sentinel.ErrNotFound
	}
	s.cohorts[c.ID] = *c
	return nil
}

// UpdateCohort rejects a seat limit below the seats already taken.
func (s *InMemory) UpdateCohort(_ context.Context, c *models.Cohort) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cohorts[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.SeatLimit < current.SeatsTaken {
		return sentinel.ErrConflict
	}
	updated := *c
	updated.SeatsTaken = current.SeatsTaken
	s.cohorts[c.ID] = updated
	return nil
}

func (s *InMemory) FindCohortByID(_ context.Context, cohortID id.CohortID) (*models.Cohort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cohorts[cohortID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *InMemory) ListCohorts(_ context.Context, programID *id.ProgramID) ([]*models.Cohort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Cohort, 0)
	for _, c := range s.cohorts {
		if programID != nil && c.ProgramID != *programID {
			continue
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// ClaimSeat increments seats_taken when the cohort is active and below its
// limit. It is the compare-and-swap the in-memory enrollment store builds on.
func (s *InMemory) ClaimSeat(_ context.Context, cohortID id.CohortID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cohorts[cohortID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !c.Active {
		return sentinel.ErrUnavailable
	}
	if c.SeatsTaken >= c.SeatLimit {
		return sentinel.ErrExhausted
	}
	c.SeatsTaken++
	s.cohorts[cohortID] = c
	return nil
}

func (s *InMemory) CreateTrack(_ context.Context, t *models.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tracks {
		if existing.Slug == t.Slug {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.tracks[t.ID] = *t
	return nil
}

func (s *InMemory) FindTrackByID(_ context.Context, trackID id.TrackID) (*models.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tracks[trackID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}

func (s *InMemory) ListTracks(_ context.Context) ([]*models.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func clonedProgram(p *models.Program) models.Program {
	cp := *p
	if p.PaymentPlanID != nil {
		v := *p.PaymentPlanID
		cp.PaymentPlanID = &v
	}
	return cp
}
