package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"sparkfish/internal/catalog/models"
	"sparkfish/internal/platform/postgres"
	id "sparkfish/pkg/domain"
	"sparkfish/pkg/platform/sentinel"
	"sparkfish/pkg/platform/tx"
)

// PostgresStore persists the catalog. Seat claims live in the enrollment
// store's transaction; this store never increments seats_taken.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const programColumns = `id, slug, title, description, type, active, payment_plan_id, created_at`

func (s *PostgresStore) CreateProgram(ctx context.Context, p *models.Program) error {
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO programs (id, slug, title, description, type, active, payment_plan_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(p.ID), p.Slug, p.Title, p.Description, string(p.Type), p.Active, p.PaymentPlanID, p.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "programs_slug_key") {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProgram(ctx context.Context, p *models.Program) error {
	res, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE programs
		SET slug = $2, title = $3, description = $4, type = $5, active = $6, payment_plan_id = $7
		WHERE id = $1
	`, uuid.UUID(p.ID), p.Slug, p.Title, p.Description, string(p.Type), p.Active, p.PaymentPlanID)
	if err != nil {
		if postgres.IsUniqueViolation(err, "programs_slug_key") {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update program: %w", err)
	}
	return requireRow(res, "update program")
}

func (s *PostgresStore) FindProgramByID(ctx context.Context, programID id.ProgramID) (*models.Program, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+programColumns+` FROM programs WHERE id = $1`, uuid.UUID(programID))
	return scanProgram(row)
}

func (s *PostgresStore) FindProgramBySlug(ctx context.Context, slug string) (*models.Program, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+programColumns+` FROM programs WHERE slug = $1`, slug)
	return scanProgram(row)
}

func (s *PostgresStore) ListPrograms(ctx context.Context, activeOnly bool) ([]*models.Program, error) {
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+programColumns+` FROM programs WHERE ($1 = FALSE OR active) ORDER BY title`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	var out []*models.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ProgramHasCohorts(ctx context.Context, programID id.ProgramID) (bool, error) {
	var exists bool
	err := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cohorts WHERE program_id = $1)`, uuid.UUID(programID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("program has cohorts: %w", err)
	}
	return exists, nil
}

const cohortColumns = `id, program_id, title, start_date, schedule_text, seat_limit, seats_taken, meeting_url, active, created_at`

func (s *PostgresStore) CreateCohort(ctx context.Context, c *models.Cohort) error {
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO cohorts (id, program_id, title, start_date, schedule_text, seat_limit, seats_taken, meeting_url, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, uuid.UUID(c.ID), uuid.UUID(c.ProgramID), c.Title, c.StartDate, c.ScheduleText, c.SeatLimit, c.SeatsTaken, c.MeetingURL, c.Active, c.CreatedAt)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("create cohort: %w", err)
	}
	return nil
}

// UpdateCohort never touches seats_taken and refuses a limit below it.
func (s *PostgresStore) UpdateCohort(ctx context.Context, c *models.Cohort) error {
	res, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE cohorts
		SET title = $2, start_date = $3, schedule_text = $4, seat_limit = $5, meeting_url = $6, active = $7
		WHERE id = $1 AND seats_taken <= $5
	`, uuid.UUID(c.ID), c.Title, c.StartDate, c.ScheduleText, c.SeatLimit, c.MeetingURL, c.Active)
	if err != nil {
		return fmt.Errorf("update cohort: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update cohort rows affected: %w", err)
	}
	if n == 0 {
		if _, err := s.FindCohortByID(ctx, c.ID); err != nil {
			return err
		}
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) FindCohortByID(ctx context.Context, cohortID id.CohortID) (*models.Cohort, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+cohortColumns+` FROM cohorts WHERE id = $1`, uuid.UUID(cohortID))
	return scanCohort(row)
}

func (s *PostgresStore) ListCohorts(ctx context.Context, programID *id.ProgramID) ([]*models.Cohort, error) {
	var filter any
	if programID != nil {
		filter = uuid.UUID(*programID)
	}
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+cohortColumns+` FROM cohorts WHERE ($1::uuid IS NULL OR program_id = $1) ORDER BY start_date`, filter)
	if err != nil {
		return nil, fmt.Errorf("list cohorts: %w", err)
	}
	defer rows.Close()

	var out []*models.Cohort
	for rows.Next() {
		c, err := scanCohort(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cohorts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CreateTrack(ctx context.Context, t *models.Track) error {
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`INSERT INTO tracks (id, slug, title, description) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(t.ID), t.Slug, t.Title, t.Description)
	if err != nil {
		if postgres.IsUniqueViolation(err, "tracks_slug_key") {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create track: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindTrackByID(ctx context.Context, trackID id.TrackID) (*models.Track, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, slug, title, description FROM tracks WHERE id = $1`, uuid.UUID(trackID))
	return scanTrack(row)
}

func (s *PostgresStore) ListTracks(ctx context.Context) ([]*models.Track, error) {
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		`SELECT id, slug, title, description FROM tracks ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var out []*models.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProgram(row scanner) (*models.Program, error) {
	var (
		p      models.Program
		raw    uuid.UUID
		typ    string
		planID sql.NullString
	)
	if err := row.Scan(&raw, &p.Slug, &p.Title, &p.Description, &typ, &p.Active, &planID, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan program: %w", err)
	}
	p.ID = id.ProgramID(raw)
	p.Type = models.ProgramType(typ)
	if planID.Valid {
		p.PaymentPlanID = &planID.String
	}
	return &p, nil
}

func scanCohort(row scanner) (*models.Cohort, error) {
	var (
		c            models.Cohort
		raw, program uuid.UUID
	)
	if err := row.Scan(&raw, &program, &c.Title, &c.StartDate, &c.ScheduleText, &c.SeatLimit, &c.SeatsTaken, &c.MeetingURL, &c.Active, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan cohort: %w", err)
	}
	c.ID = id.CohortID(raw)
	c.ProgramID = id.ProgramID(program)
	return &c, nil
}

func scanTrack(row scanner) (*models.Track, error) {
	var (
		t   models.Track
		raw uuid.UUID
	)
	if err := row.Scan(&raw, &t.Slug, &t.Title, &t.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan track: %w", err)
	}
	t.ID = id.TrackID(raw)
	return &t, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
