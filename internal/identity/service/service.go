package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"sparkfish/internal/identity/models"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/sentinel"
)

type ProfileStore interface {
	FindProfile(ctx context.Context, learnerID id.LearnerID) (*models.Profile, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
}

type IdentityStore interface {
	FindIdentity(ctx context.Context, learnerID id.LearnerID) (*models.Identity, error)
}

// Service answers who a learner is, whether they are an admin, and where to
// reach them.
type Service struct {
	profiles   ProfileStore
	identities IdentityStore
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(profiles ProfileStore, identities IdentityStore, opts ...Option) *Service {
	s := &Service{profiles: profiles, identities: identities, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Profile loads a learner's profile.
func (s *Service) Profile(ctx context.Context, learnerID id.LearnerID) (*models.Profile, error) {
	profile, err := s.profiles.FindProfile(ctx, learnerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return profile, nil
}

// UpdateProfile changes the learner-editable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, learnerID id.LearnerID, name, organization string) (*models.Profile, error) {
	profile, err := s.Profile(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	profile.Name = name
	profile.Organization = strings.TrimSpace(organization)
	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}
	return profile, nil
}

// RequireAdmin returns Unauthorized without a learner and Forbidden for
// learners without the admin flag.
func (s *Service) RequireAdmin(ctx context.Context, learnerID id.LearnerID) error {
	if learnerID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "sign in required")
	}
	profile, err := s.profiles.FindProfile(ctx, learnerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeForbidden, "admin access required")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	if !profile.IsAdmin {
		return dErrors.New(dErrors.CodeForbidden, "admin access required")
	}
	return nil
}

// ResolveEmail returns the auth provider's current address for a learner.
// The profile copy is deliberately ignored; it can be stale or empty.
func (s *Service) ResolveEmail(ctx context.Context, learnerID id.LearnerID) (string, error) {
	identity, err := s.identities.FindIdentity(ctx, learnerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "learner identity not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve learner email")
	}
	email := strings.TrimSpace(identity.Email)
	if email == "" {
		return "", dErrors.New(dErrors.CodeNotFound, "learner has no email address")
	}
	return email, nil
}

// Recipient resolves the display name and authoritative email in one call,
// as every notification needs both.
func (s *Service) Recipient(ctx context.Context, learnerID id.LearnerID) (name, email string, err error) {
	email, err = s.ResolveEmail(ctx, learnerID)
	if err != nil {
		return "", "", err
	}
	profile, err := s.profiles.FindProfile(ctx, learnerID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return profile.DisplayName(), email, nil
}
