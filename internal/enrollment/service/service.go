package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	catalogModels "sparkfish/internal/catalog/models"
	"sparkfish/internal/enrollment/metrics"
	"sparkfish/internal/enrollment/models"
	"sparkfish/internal/enrollment/store"
	"sparkfish/internal/events"
	"sparkfish/internal/notification"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/sentinel"
	"sparkfish/pkg/requestcontext"
)

var tracer = otel.Tracer("sparkfish/enrollment")

type Store interface {
	ClaimSeatAndEnroll(ctx context.Context, e *models.Enrollment) (*models.Enrollment, models.Outcome, error)
	FindByID(ctx context.Context, enrollmentID id.EnrollmentID) (*models.Enrollment, error)
	FindByLearnerAndCohort(ctx context.Context, learnerID id.LearnerID, cohortID id.CohortID) (*models.Enrollment, error)
	FindByPaymentRefs(ctx context.Context, refs []string) (map[string]*models.Enrollment, error)
	ListForLearner(ctx context.Context, learnerID id.LearnerID) ([]*models.Enrollment, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Enrollment, error)
	UpdateStatus(ctx context.Context, enrollmentID id.EnrollmentID, from, to models.Status) error
	AssignTrack(ctx context.Context, enrollmentID id.EnrollmentID, trackID *id.TrackID) error
}

// Catalog resolves the cohort and program named by an enrollment.
type Catalog interface {
	CohortWithProgram(ctx context.Context, cohortID id.CohortID) (*catalogModels.Cohort, *catalogModels.Program, error)
	GetTrack(ctx context.Context, trackID id.TrackID) (*catalogModels.Track, error)
}

// Directory resolves a learner's display name and authoritative email at
// the moment of use.
type Directory interface {
	Recipient(ctx context.Context, learnerID id.LearnerID) (name, email string, err error)
}

type Notifier interface {
	RegistrationConfirmed(ctx context.Context, n notification.RegistrationNotice)
}

// Service turns confirmed payments (or bypass checkouts) into enrollments,
// exactly once per (learner, cohort).
type Service struct {
	store     Store
	catalog   Catalog
	directory Directory
	notifier  Notifier
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(store Store, catalog Catalog, directory Directory, opts ...Option) *Service {
	s := &Service{
		store:     store,
		catalog:   catalog,
		directory: directory,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fulfill records the enrollment and takes a seat in one atomic step. A
// repeated call for the same pair returns OutcomeAlreadyFulfilled with the
// existing enrollment. Notification and event publishing happen after commit
// and never fail the call.
func (s *Service) Fulfill(ctx context.Context, req models.FulfillRequest) (*models.FulfillResult, error) {
	ctx, span := tracer.Start(ctx, "enrollment.Fulfill")
	defer span.End()
	span.SetAttributes(
		attribute.String("cohort_id", req.CohortID.String()),
		attribute.Bool("bypass", req.PaymentRef == nil),
	)

	e, err := models.New(req.LearnerID, req.CohortID, req.PaymentRef, req.TrackID, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}

	start := time.Now()
	enrollment, outcome, err := s.store.ClaimSeatAndEnroll(ctx, e)
	s.metrics.ObserveFulfillLatency(time.Since(start))
	if err != nil {
		domainErr := s.translateClaimError(err)
		s.metrics.IncrementFulfillment(fulfillResultLabel(domainErr))
		span.SetStatus(codes.Error, string(dErrors.CodeOf(domainErr)))
		if dErrors.CodeOf(domainErr) == dErrors.CodeInternal {
			s.logger.ErrorContext(ctx, "fulfillment failed",
				"learner_id", req.LearnerID,
				"cohort_id", req.CohortID,
				"error", err,
			)
		}
		return nil, domainErr
	}

	s.metrics.IncrementFulfillment(string(outcome))
	span.SetAttributes(attribute.String("outcome", string(outcome)))
	result := &models.FulfillResult{Enrollment: enrollment, Outcome: outcome}
	if outcome == models.OutcomeAlreadyFulfilled {
		s.logger.InfoContext(ctx, "fulfillment already applied",
			"enrollment_id", enrollment.ID,
			"cohort_id", enrollment.CohortID,
		)
		return result, nil
	}

	s.metrics.IncrementSeatClaimed(enrollment.Bypassed())
	s.logger.InfoContext(ctx, "enrollment created",
		"enrollment_id", enrollment.ID,
		"learner_id", enrollment.LearnerID,
		"cohort_id", enrollment.CohortID,
		"bypass", enrollment.Bypassed(),
	)
	s.afterCreate(ctx, enrollment)
	return result, nil
}

func (s *Service) translateClaimError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrExhausted):
		return dErrors.Conflict(dErrors.ReasonCohortFull, "this cohort is full")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Conflict(dErrors.ReasonCohortInactive, "this cohort is not open for enrollment")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "cohort not found")
	case errors.Is(err, store.ErrLearnerUnknown):
		return dErrors.New(dErrors.CodeNotFound, "learner profile not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Conflict(dErrors.ReasonInvalidState, "payment reference already used by another enrollment")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to fulfill enrollment")
}

func fulfillResultLabel(err error) string {
	switch dErrors.ReasonOf(err) {
	case dErrors.ReasonCohortFull:
		return "cohort_full"
	case dErrors.ReasonCohortInactive:
		return "cohort_inactive"
	}
	if dErrors.CodeOf(err) == dErrors.CodeNotFound {
		return "not_found"
	}
	return "error"
}

// afterCreate resolves the recipient at use time and hands the notice off.
// Failures here are logged only; the enrollment has already committed.
func (s *Service) afterCreate(ctx context.Context, e *models.Enrollment) {
	s.publish(ctx, events.TypeEnrollmentCreated, e)

	if s.notifier == nil {
		return
	}
	cohort, program, err := s.catalog.CohortWithProgram(ctx, e.CohortID)
	if err != nil {
		s.logger.WarnContext(ctx, "registration notice skipped, catalog lookup failed",
			"enrollment_id", e.ID, "error", err)
		return
	}
	name, address, err := s.directory.Recipient(ctx, e.LearnerID)
	if err != nil {
		s.logger.WarnContext(ctx, "registration notice skipped, recipient unresolved",
			"enrollment_id", e.ID, "error", err)
		return
	}
	s.notifier.RegistrationConfirmed(ctx, notification.RegistrationNotice{
		LearnerName:  name,
		Email:        address,
		ProgramTitle: program.Title,
		CohortTitle:  cohort.Title,
		MeetingURL:   cohort.MeetingURL,
	})
}

type enrollmentEvent struct {
	EnrollmentID id.EnrollmentID `json:"enrollment_id"`
	LearnerID    id.LearnerID    `json:"learner_id"`
	CohortID     id.CohortID     `json:"cohort_id"`
	Status       models.Status   `json:"status"`
	Bypass       bool            `json:"bypass"`
}

func (s *Service) publish(ctx context.Context, t events.Type, e *models.Enrollment) {
	if s.publisher == nil {
		return
	}
	event, err := events.New(t, e.ID.String(), enrollmentEvent{
		EnrollmentID: e.ID,
		LearnerID:    e.LearnerID,
		CohortID:     e.CohortID,
		Status:       e.Status,
		Bypass:       e.Bypassed(),
	}, requestcontext.Now(ctx))
	if err != nil {
		s.logger.WarnContext(ctx, "event not built", "type", t, "error", err)
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "event publish failed", "type", t, "enrollment_id", e.ID, "error", err)
	}
}

// Get returns one enrollment.
func (s *Service) Get(ctx context.Context, enrollmentID id.EnrollmentID) (*models.Enrollment, error) {
	e, err := s.store.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "enrollment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load enrollment")
	}
	return e, nil
}

// IsEnrolled reports whether the learner already holds an enrollment in the
// cohort, whatever its status.
func (s *Service) IsEnrolled(ctx context.Context, learnerID id.LearnerID, cohortID id.CohortID) (bool, error) {
	_, err := s.store.FindByLearnerAndCohort(ctx, learnerID, cohortID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return false, nil
	}
	return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check enrollment")
}

// FindByPaymentRefs returns enrollments keyed by payment reference for the
// refs that have one.
func (s *Service) FindByPaymentRefs(ctx context.Context, refs []string) (map[string]*models.Enrollment, error) {
	found, err := s.store.FindByPaymentRefs(ctx, refs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up payment references")
	}
	return found, nil
}

func (s *Service) ListForLearner(ctx context.Context, learnerID id.LearnerID) ([]*models.Enrollment, error) {
	list, err := s.store.ListForLearner(ctx, learnerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list enrollments")
	}
	return list, nil
}

func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.Enrollment, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be active, completed or cancelled")
	}
	list, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list enrollments")
	}
	return list, nil
}

// Cancel moves an active enrollment to cancelled. Seats are not released.
func (s *Service) Cancel(ctx context.Context, enrollmentID id.EnrollmentID) (*models.Enrollment, error) {
	return s.transition(ctx, enrollmentID, models.StatusCancelled, events.TypeEnrollmentCancelled)
}

// Complete moves an active enrollment to completed.
func (s *Service) Complete(ctx context.Context, enrollmentID id.EnrollmentID) (*models.Enrollment, error) {
	return s.transition(ctx, enrollmentID, models.StatusCompleted, events.TypeEnrollmentCompleted)
}

// MarkCompleted completes the enrollment if it is active and leaves it alone
// if it is already completed. Joins a transaction carried by ctx.
func (s *Service) MarkCompleted(ctx context.Context, e *models.Enrollment) error {
	if e.Status == models.StatusCompleted {
		return nil
	}
	if !e.Status.CanTransitionTo(models.StatusCompleted) {
		return dErrors.Conflict(dErrors.ReasonInvalidState, "only active enrollments can be completed")
	}
	if err := s.store.UpdateStatus(ctx, e.ID, e.Status, models.StatusCompleted); err != nil {
		return s.translateStatusError(err)
	}
	e.Status = models.StatusCompleted
	s.metrics.IncrementStatusChange(string(models.StatusCompleted))
	return nil
}

func (s *Service) transition(ctx context.Context, enrollmentID id.EnrollmentID, to models.Status, eventType events.Type) (*models.Enrollment, error) {
	e, err := s.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if !e.Status.CanTransitionTo(to) {
		return nil, dErrors.Conflict(dErrors.ReasonInvalidState, "enrollment is "+string(e.Status)+" and cannot become "+string(to))
	}
	if err := s.store.UpdateStatus(ctx, e.ID, e.Status, to); err != nil {
		return nil, s.translateStatusError(err)
	}
	e.Status = to
	s.metrics.IncrementStatusChange(string(to))
	s.logger.InfoContext(ctx, "enrollment status changed", "enrollment_id", e.ID, "status", to)
	s.publish(ctx, eventType, e)
	return e, nil
}

func (s *Service) translateStatusError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "enrollment not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Conflict(dErrors.ReasonInvalidState, "enrollment status changed concurrently")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update enrollment")
}

// AssignTrack sets or clears the track lens of an enrollment.
func (s *Service) AssignTrack(ctx context.Context, enrollmentID id.EnrollmentID, trackID *id.TrackID) (*models.Enrollment, error) {
	if trackID != nil {
		if _, err := s.catalog.GetTrack(ctx, *trackID); err != nil {
			return nil, err
		}
	}
	if err := s.store.AssignTrack(ctx, enrollmentID, trackID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "enrollment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign track")
	}
	return s.Get(ctx, enrollmentID)
}
