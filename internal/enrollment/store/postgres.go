package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sparkfish/internal/enrollment/models"
	"sparkfish/internal/platform/postgres"
	id "sparkfish/pkg/domain"
	"sparkfish/pkg/platform/sentinel"
	"sparkfish/pkg/platform/tx"
)

// ErrLearnerUnknown is returned when the learner has no profile row.
var ErrLearnerUnknown = errors.New("learner profile not found")

type PostgresStore struct {
	db     *sql.DB
	runner *postgres.TxRunner
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, runner: postgres.NewTxRunner(db, 0)}
}

const enrollmentColumns = `id, learner_id, cohort_id, track_id, status, payment_ref, created_at`

// ClaimSeatAndEnroll locks the cohort row, short-circuits on an existing
// enrollment, then takes a seat with a guarded increment and inserts the
// enrollment. All of it commits or none of it does.
func (s *PostgresStore) ClaimSeatAndEnroll(ctx context.Context, e *models.Enrollment) (*models.Enrollment, models.Outcome, error) {
	var (
		result  *models.Enrollment
		outcome models.Outcome
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		exec := tx.ExecutorFrom(ctx, s.db)

		var active bool
		err := exec.QueryRowContext(ctx,
			`SELECT active FROM cohorts WHERE id = $1 FOR UPDATE`, uuid.UUID(e.CohortID)).Scan(&active)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock cohort: %w", err)
		}

		existing, err := s.FindByLearnerAndCohort(ctx, e.LearnerID, e.CohortID)
		switch {
		case err == nil:
			result, outcome = existing, models.OutcomeAlreadyFulfilled
			return nil
		case !errors.Is(err, sentinel.ErrNotFound):
			return err
		}

		res, err := exec.ExecContext(ctx, `
			UPDATE cohorts SET seats_taken = seats_taken + 1
			WHERE id = $1 AND active AND seats_taken < seat_limit
		`, uuid.UUID(e.CohortID))
		if err != nil {
			return fmt.Errorf("claim seat: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("claim seat rows affected: %w", err)
		}
		if n == 0 {
			if !active {
				return sentinel.ErrUnavailable
			}
			return sentinel.ErrExhausted
		}

		_, err = exec.ExecContext(ctx, `
			INSERT INTO enrollments (`+enrollmentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.UUID(e.ID), uuid.UUID(e.LearnerID), uuid.UUID(e.CohortID), trackArg(e.TrackID),
			string(e.Status), e.PaymentRef, e.CreatedAt)
		if err != nil {
			switch {
			case postgres.IsUniqueViolation(err, "enrollments_payment_ref_key"):
				return sentinel.ErrConflict
			case postgres.IsForeignKeyViolation(err):
				return ErrLearnerUnknown
			}
			return fmt.Errorf("insert enrollment: %w", err)
		}
		created := *e
		result, outcome = &created, models.OutcomeCreated
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return result, outcome, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, enrollmentID id.EnrollmentID) (*models.Enrollment, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, uuid.UUID(enrollmentID))
	return scanEnrollment(row)
}

func (s *PostgresStore) FindByLearnerAndCohort(ctx context.Context, learnerID id.LearnerID, cohortID id.CohortID) (*models.Enrollment, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE learner_id = $1 AND cohort_id = $2`,
		uuid.UUID(learnerID), uuid.UUID(cohortID))
	return scanEnrollment(row)
}

// FindByPaymentRefs returns the enrollments recorded against any of refs,
// keyed by reference.
func (s *PostgresStore) FindByPaymentRefs(ctx context.Context, refs []string) (map[string]*models.Enrollment, error) {
	out := make(map[string]*models.Enrollment, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE payment_ref = ANY($1)`, pq.Array(refs))
	if err != nil {
		return nil, fmt.Errorf("find enrollments by payment ref: %w", err)
	}
	defer rows.Close()
	list, err := collect(rows)
	if err != nil {
		return nil, err
	}
	for _, e := range list {
		out[*e.PaymentRef] = e
	}
	return out, nil
}

func (s *PostgresStore) ListForLearner(ctx context.Context, learnerID id.LearnerID) ([]*models.Enrollment, error) {
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE learner_id = $1 ORDER BY created_at DESC`,
		uuid.UUID(learnerID))
	if err != nil {
		return nil, fmt.Errorf("list learner enrollments: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Enrollment, error) {
	var (
		where []string
		args  []any
	)
	if filter.CohortID != nil {
		args = append(args, uuid.UUID(*filter.CohortID))
		where = append(where, fmt.Sprintf("cohort_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, enrollmentID id.EnrollmentID, from, to models.Status) error {
	exec := tx.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx,
		`UPDATE enrollments SET status = $3 WHERE id = $1 AND status = $2`,
		uuid.UUID(enrollmentID), string(from), string(to))
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update enrollment status rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.FindByID(ctx, enrollmentID); err != nil {
		return err
	}
	return sentinel.ErrInvalidState
}

func (s *PostgresStore) AssignTrack(ctx context.Context, enrollmentID id.EnrollmentID, trackID *id.TrackID) error {
	res, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`UPDATE enrollments SET track_id = $2 WHERE id = $1`, uuid.UUID(enrollmentID), trackArg(trackID))
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("assign track: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign track rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func trackArg(trackID *id.TrackID) any {
	if trackID == nil {
		return nil
	}
	return uuid.UUID(*trackID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEnrollment(row scanner) (*models.Enrollment, error) {
	var (
		e          models.Enrollment
		enrollment uuid.UUID
		learner    uuid.UUID
		cohort     uuid.UUID
		track      uuid.NullUUID
		status     string
		paymentRef sql.NullString
	)
	err := row.Scan(&enrollment, &learner, &cohort, &track, &status, &paymentRef, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan enrollment: %w", err)
	}
	e.ID = id.EnrollmentID(enrollment)
	e.LearnerID = id.LearnerID(learner)
	e.CohortID = id.CohortID(cohort)
	if track.Valid {
		t := id.TrackID(track.UUID)
		e.TrackID = &t
	}
	e.Status = models.Status(status)
	if paymentRef.Valid {
		ref := paymentRef.String
		e.PaymentRef = &ref
	}
	return &e, nil
}

func collect(rows *sql.Rows) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}
	return out, nil
}
