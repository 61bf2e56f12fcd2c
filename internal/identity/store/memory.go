package store

import (
	"context"
	"sync"

	"sparkfish/internal/identity/models"
	id "sparkfish/pkg/domain"
	"sparkfish/pkg/platform/sentinel"
)

// InMemory backs both profiles and the identity directory for dev and tests.
type InMemory struct {
	mu         sync.RWMutex
	profiles   map[id.LearnerID]models.Profile
	identities map[id.LearnerID]models.Identity
}

func NewInMemory() *InMemory {
	return &InMemory{
		profiles:   make(map[id.LearnerID]models.Profile),
		identities: make(map[id.LearnerID]models.Identity),
	}
}

func (s *InMemory) SaveIdentity(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[identity.ID] = *identity
	return nil
}

func (s *InMemory) FindIdentity(_ context.Context, learnerID id.LearnerID) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[learnerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &identity, nil
}

func (s *InMemory) SaveProfile(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = *profile
	return nil
}

func (s *InMemory) FindProfile(_ context.Context, learnerID id.LearnerID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[learnerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &profile, nil
}
