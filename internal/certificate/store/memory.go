package store

import (
	"context"
	"sync"

	"sparkfish/internal/certificate/models"
	id "sparkfish/pkg/domain"
	"sparkfish/pkg/platform/sentinel"
)

// InMemory mirrors the unique constraints of the certificates table.
type InMemory struct {
	mu           sync.RWMutex
	byCode       map[string]models.Certificate
	byEnrollment map[id.EnrollmentID]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		byCode:       make(map[string]models.Certificate),
		byEnrollment: make(map[id.EnrollmentID]string),
	}
}

// Create returns sentinel.ErrConflict when the enrollment already has a
// certificate and sentinel.ErrAlreadyUsed when the code is taken.
func (s *InMemory) Create(_ context.Context, c *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEnrollment[c.EnrollmentID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byCode[c.Code]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.byCode[c.Code] = clone(c)
	s.byEnrollment[c.EnrollmentID] = c.Code
	return nil
}

func (s *InMemory) FindByCode(_ context.Context, code string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := clone(&c)
	return &out, nil
}

func (s *InMemory) FindByEnrollment(_ context.Context, enrollmentID id.EnrollmentID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.byEnrollment[enrollmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := s.byCode[code]
	out := clone(&c)
	return &out, nil
}

func (s *InMemory) FindByEnrollments(_ context.Context, enrollmentIDs []id.EnrollmentID) (map[id.EnrollmentID]*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.EnrollmentID]*models.Certificate, len(enrollmentIDs))
	for _, enrollmentID := range enrollmentIDs {
		code, ok := s.byEnrollment[enrollmentID]
		if !ok {
			continue
		}
		c := s.byCode[code]
		stored := clone(&c)
		out[enrollmentID] = &stored
	}
	return out, nil
}

// SetArtifactIfMissing records url only while no artifact is stored.
// Returns sentinel.ErrInvalidState when one already is.
func (s *InMemory) SetArtifactIfMissing(_ context.Context, code, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byCode[code]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.HasArtifact() {
		return sentinel.ErrInvalidState
	}
	c.ArtifactURL = &url
	s.byCode[code] = c
	return nil
}

func clone(c *models.Certificate) models.Certificate {
	out := *c
	if c.ArtifactURL != nil {
		url := *c.ArtifactURL
		out.ArtifactURL = &url
	}
	return out
}
