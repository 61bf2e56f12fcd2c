package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sparkfish/internal/certificate/models"
	"sparkfish/internal/platform/postgres"
	id "sparkfish/pkg/domain"
	"sparkfish/pkg/platform/sentinel"
	"sparkfish/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const certificateColumns = `id, enrollment_id, code, artifact_url, completion_date, issued_at`

func (s *PostgresStore) Create(ctx context.Context, c *models.Certificate) error {
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO certificates (`+certificateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(c.ID), uuid.UUID(c.EnrollmentID), c.Code, c.ArtifactURL, c.CompletionDate, c.IssuedAt)
	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err, "certificates_enrollment_key"):
			return sentinel.ErrConflict
		case postgres.IsUniqueViolation(err, "certificates_code_key"):
			return sentinel.ErrAlreadyUsed
		case postgres.IsForeignKeyViolation(err):
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.Certificate, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE code = $1`, code)
	return scanCertificate(row)
}

func (s *PostgresStore) FindByEnrollment(ctx context.Context, enrollmentID id.EnrollmentID) (*models.Certificate, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE enrollment_id = $1`, uuid.UUID(enrollmentID))
	return scanCertificate(row)
}

func (s *PostgresStore) FindByEnrollments(ctx context.Context, enrollmentIDs []id.EnrollmentID) (map[id.EnrollmentID]*models.Certificate, error) {
	out := make(map[id.EnrollmentID]*models.Certificate, len(enrollmentIDs))
	if len(enrollmentIDs) == 0 {
		return out, nil
	}
	ids := make([]string, len(enrollmentIDs))
	for i, enrollmentID := range enrollmentIDs {
		ids[i] = enrollmentID.String()
	}
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE enrollment_id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find certificates by enrollment: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out[c.EnrollmentID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificates: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SetArtifactIfMissing(ctx context.Context, code, url string) error {
	res, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`UPDATE certificates SET artifact_url = $2 WHERE code = $1 AND artifact_url IS NULL`, code, url)
	if err != nil {
		return fmt.Errorf("set certificate artifact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set certificate artifact rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.FindByCode(ctx, code); err != nil {
		return err
	}
	return sentinel.ErrInvalidState
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row scanner) (*models.Certificate, error) {
	var (
		c           models.Certificate
		certificate uuid.UUID
		enrollment  uuid.UUID
		artifact    sql.NullString
	)
	err := row.Scan(&certificate, &enrollment, &c.Code, &artifact, &c.CompletionDate, &c.IssuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan certificate: %w", err)
	}
	c.ID = id.CertificateID(certificate)
	c.EnrollmentID = id.EnrollmentID(enrollment)
	if artifact.Valid {
		url := artifact.String
		c.ArtifactURL = &url
	}
	return &c, nil
}
