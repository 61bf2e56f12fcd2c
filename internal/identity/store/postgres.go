package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sparkfish/internal/identity/models"
	id "sparkfish/pkg/domain"
	"sparkfish/pkg/platform/sentinel"
)

// PostgresStore reads profiles and the auth provider's identity table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveIdentity(ctx context.Context, identity *models.Identity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_identities (id, email, created_at)
		VALUES ($1, $2, COALESCE($3, NOW()))
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email
	`, uuid.UUID(identity.ID), identity.Email, nullTime(identity.CreatedAt))
	if err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindIdentity(ctx context.Context, learnerID id.LearnerID) (*models.Identity, error) {
	var (
		raw      uuid.UUID
		identity models.Identity
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, created_at FROM auth_identities WHERE id = $1
	`, uuid.UUID(learnerID)).Scan(&raw, &identity.Email, &identity.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	identity.ID = id.LearnerID(raw)
	return &identity, nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, profile *models.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, email, organization, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			organization = EXCLUDED.organization,
			is_admin = EXCLUDED.is_admin
	`, uuid.UUID(profile.ID), profile.Name, profile.Email, profile.Organization, profile.IsAdmin, nullTime(profile.CreatedAt))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindProfile(ctx context.Context, learnerID id.LearnerID) (*models.Profile, error) {
	var (
		raw     uuid.UUID
		profile models.Profile
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, organization, is_admin, created_at
		FROM profiles WHERE id = $1
	`, uuid.UUID(learnerID)).Scan(&raw, &profile.Name, &profile.Email, &profile.Organization, &profile.IsAdmin, &profile.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	profile.ID = id.LearnerID(raw)
	return &profile, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
