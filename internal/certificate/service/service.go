package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	catalogModels "sparkfish/internal/catalog/models"
	"sparkfish/internal/certificate/metrics"
	"sparkfish/internal/certificate/models"
	"sparkfish/internal/certificate/render"
	enrollmentModels "sparkfish/internal/enrollment/models"
	"sparkfish/internal/events"
	identityModels "sparkfish/internal/identity/models"
	"sparkfish/internal/notification"
	"sparkfish/internal/storage"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/email"
	"sparkfish/pkg/platform/sentinel"
	"sparkfish/pkg/platform/tx"
	"sparkfish/pkg/requestcontext"
)

var tracer = otel.Tracer("sparkfish/certificate")

const (
	maxCodeAttempts = 5
	artifactType    = "application/pdf"
)

type Store interface {
	Create(ctx context.Context, c *models.Certificate) error
	FindByCode(ctx context.Context, code string) (*models.Certificate, error)
	FindByEnrollment(ctx context.Context, enrollmentID id.EnrollmentID) (*models.Certificate, error)
	FindByEnrollments(ctx context.Context, enrollmentIDs []id.EnrollmentID) (map[id.EnrollmentID]*models.Certificate, error)
	SetArtifactIfMissing(ctx context.Context, code, url string) error
}

type Authorizer interface {
	RequireAdmin(ctx context.Context, learnerID id.LearnerID) error
}

type Enrollments interface {
	Get(ctx context.Context, enrollmentID id.EnrollmentID) (*enrollmentModels.Enrollment, error)
	MarkCompleted(ctx context.Context, e *enrollmentModels.Enrollment) error
}

type Catalog interface {
	CohortWithProgram(ctx context.Context, cohortID id.CohortID) (*catalogModels.Cohort, *catalogModels.Program, error)
	GetTrack(ctx context.Context, trackID id.TrackID) (*catalogModels.Track, error)
}

// Learners supplies the printed name and the notification address.
type Learners interface {
	Profile(ctx context.Context, learnerID id.LearnerID) (*identityModels.Profile, error)
	Recipient(ctx context.Context, learnerID id.LearnerID) (name, email string, err error)
}

type Renderer interface {
	Render(doc render.Document) ([]byte, error)
}

type Notifier interface {
	CertificateReady(ctx context.Context, n notification.CertificateNotice)
}

type Service struct {
	store       Store
	authorizer  Authorizer
	enrollments Enrollments
	catalog     Catalog
	learners    Learners
	renderer    Renderer
	objects     storage.ObjectStore
	runner      tx.Runner
	notifier    Notifier
	publisher   events.Publisher
	metrics     *metrics.Metrics
	random      io.Reader
	logger      *slog.Logger
}

// Deps groups the collaborators every certificate operation needs.
type Deps struct {
	Store       Store
	Authorizer  Authorizer
	Enrollments Enrollments
	Catalog     Catalog
	Learners    Learners
	Renderer    Renderer
	Objects     storage.ObjectStore
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

// WithTxRunner makes completion and insert commit together.
func WithTxRunner(r tx.Runner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithRandom replaces crypto/rand as the code source. Tests only.
func WithRandom(r io.Reader) Option {
	return func(s *Service) {
		s.random = r
	}
}

func New(deps Deps, opts ...Option) *Service {
	s := &Service{
		store:       deps.Store,
		authorizer:  deps.Authorizer,
		enrollments: deps.Enrollments,
		catalog:     deps.Catalog,
		learners:    deps.Learners,
		renderer:    deps.Renderer,
		objects:     deps.Objects,
		runner:      tx.NoopRunner{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// subject is what a certificate says about its enrollment.
type subject struct {
	enrollment   *enrollmentModels.Enrollment
	name         string
	organization string
	program      *catalogModels.Program
	trackTitle   string
}

func (s *Service) describe(ctx context.Context, e *enrollmentModels.Enrollment) (*subject, error) {
	_, program, err := s.catalog.CohortWithProgram(ctx, e.CohortID)
	if err != nil {
		return nil, err
	}
	sub := &subject{enrollment: e, program: program, name: email.DefaultGreeting}
	if e.TrackID != nil {
		track, err := s.catalog.GetTrack(ctx, *e.TrackID)
		switch {
		case err == nil:
			sub.trackTitle = track.Title
		case !dErrors.HasCode(err, dErrors.CodeNotFound):
			return nil, err
		}
	}
	profile, err := s.learners.Profile(ctx, e.LearnerID)
	switch {
	case err == nil:
		sub.name = profile.DisplayName()
		sub.organization = profile.Organization
	case !dErrors.HasCode(err, dErrors.CodeNotFound):
		return nil, err
	}
	return sub, nil
}

// Issue completes the enrollment and records a certificate with a fresh
// verification code. A failed PDF upload leaves the certificate without an
// artifact; BackfillArtifact can supply one later.
func (s *Service) Issue(ctx context.Context, actor id.LearnerID, enrollmentID id.EnrollmentID) (*models.IssueResult, error) {
	ctx, span := tracer.Start(ctx, "certificate.Issue")
	defer span.End()
	span.SetAttributes(attribute.String("enrollment_id", enrollmentID.String()))

	if err := s.authorizer.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	e, err := s.enrollments.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if e.Status == enrollmentModels.StatusCancelled {
		return nil, dErrors.Conflict(dErrors.ReasonInvalidState, "cancelled enrollments cannot receive a certificate")
	}
	if err := s.ensureNotIssued(ctx, enrollmentID); err != nil {
		return nil, err
	}
	sub, err := s.describe(ctx, e)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx).UTC()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.freeCode(ctx)
		if err != nil {
			return nil, err
		}
		if code == "" {
			continue
		}

		artifact := s.storeArtifact(ctx, sub, code, now)
		cert := &models.Certificate{
			ID:             id.NewCertificateID(),
			EnrollmentID:   e.ID,
			Code:           code,
			ArtifactURL:    artifact,
			CompletionDate: now.Truncate(24 * time.Hour),
			IssuedAt:       now,
		}
		// MarkCompleted updates its argument; a rolled back attempt must not
		// leak that into the next one.
		pending := *e
		err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.enrollments.MarkCompleted(ctx, &pending); err != nil {
				return err
			}
			return s.store.Create(ctx, cert)
		})
		switch {
		case err == nil:
			e.Status = pending.Status
			s.metrics.IncrementIssued(cert.HasArtifact())
			s.logger.InfoContext(ctx, "certificate issued",
				"enrollment_id", e.ID,
				"code", code,
				"artifact", cert.HasArtifact(),
				"actor", actor,
			)
			s.afterIssue(ctx, sub, cert)
			return &models.IssueResult{Code: code, ArtifactURL: artifact}, nil
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			s.metrics.IncrementCodeCollision()
			continue
		case errors.Is(err, sentinel.ErrConflict):
			return nil, alreadyIssued()
		}
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record certificate")
	}
	return nil, dErrors.New(dErrors.CodeInternal, "could not allocate a unique certificate code")
}

func alreadyIssued() error {
	return dErrors.Conflict(dErrors.ReasonAlreadyIssued, "certificate already exists for this enrollment")
}

func (s *Service) ensureNotIssued(ctx context.Context, enrollmentID id.EnrollmentID) error {
	_, err := s.store.FindByEnrollment(ctx, enrollmentID)
	switch {
	case err == nil:
		return alreadyIssued()
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing certificate")
}

// freeCode returns a code not yet in use, or "" when the draw collided.
func (s *Service) freeCode(ctx context.Context) (string, error) {
	code, err := models.NewCode(s.random)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate certificate code")
	}
	_, err = s.store.FindByCode(ctx, code)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return code, nil
	case err == nil:
		s.metrics.IncrementCodeCollision()
		return "", nil
	}
	return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check certificate code")
}

func artifactKey(code string) string {
	return "certificates/" + code + ".pdf"
}

// storeArtifact renders and uploads the PDF. Failures are logged and counted.
func (s *Service) storeArtifact(ctx context.Context, sub *subject, code string, issuedAt time.Time) *string {
	url, err := s.uploadArtifact(ctx, sub, code, issuedAt)
	if err != nil {
		s.metrics.IncrementArtifactFailure()
		s.logger.WarnContext(ctx, "certificate artifact not stored", "code", code, "error", err)
		return nil
	}
	return &url
}

func (s *Service) uploadArtifact(ctx context.Context, sub *subject, code string, issuedAt time.Time) (string, error) {
	pdf, err := s.renderer.Render(render.Document{
		RecipientName: sub.name,
		ProgramTitle:  sub.program.Title,
		TrackTitle:    sub.trackTitle,
		IssuedAt:      issuedAt,
		Code:          code,
	})
	if err != nil {
		return "", err
	}
	url, err := s.objects.Put(ctx, artifactKey(code), artifactType, pdf)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", artifactKey(code), err)
	}
	return url, nil
}

type certificateEvent struct {
	CertificateID id.CertificateID `json:"certificate_id"`
	EnrollmentID  id.EnrollmentID  `json:"enrollment_id"`
	LearnerID     id.LearnerID     `json:"learner_id"`
	Code          string           `json:"code"`
	HasArtifact   bool             `json:"has_artifact"`
}

func (s *Service) afterIssue(ctx context.Context, sub *subject, cert *models.Certificate) {
	if s.publisher != nil {
		event, err := events.New(events.TypeCertificateIssued, cert.Code, certificateEvent{
			CertificateID: cert.ID,
			EnrollmentID:  cert.EnrollmentID,
			LearnerID:     sub.enrollment.LearnerID,
			Code:          cert.Code,
			HasArtifact:   cert.HasArtifact(),
		}, cert.IssuedAt)
		if err == nil {
			event.RequestID = requestcontext.RequestID(ctx)
			err = s.publisher.Publish(ctx, event)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "event publish failed", "type", events.TypeCertificateIssued, "code", cert.Code, "error", err)
		}
	}

	if s.notifier == nil {
		return
	}
	name, address, err := s.learners.Recipient(ctx, sub.enrollment.LearnerID)
	if err != nil {
		s.logger.WarnContext(ctx, "certificate notice skipped, recipient unresolved",
			"code", cert.Code, "error", err)
		return
	}
	s.notifier.CertificateReady(ctx, notification.CertificateNotice{
		LearnerName:  name,
		Email:        address,
		ProgramTitle: sub.program.Title,
		Code:         cert.Code,
	})
}

// BackfillArtifact renders and stores the PDF for a certificate that has
// none. A certificate that already has one is returned unchanged.
func (s *Service) BackfillArtifact(ctx context.Context, actor id.LearnerID, code string) (*models.IssueResult, error) {
	if err := s.authorizer.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	cert, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if cert.HasArtifact() {
		return &models.IssueResult{Code: cert.Code, ArtifactURL: cert.ArtifactURL}, nil
	}

	e, err := s.enrollments.Get(ctx, cert.EnrollmentID)
	if err != nil {
		return nil, err
	}
	sub, err := s.describe(ctx, e)
	if err != nil {
		return nil, err
	}
	url, err := s.uploadArtifact(ctx, sub, cert.Code, cert.IssuedAt)
	if err != nil {
		s.metrics.IncrementArtifactFailure()
		return nil, dErrors.Wrap(err, dErrors.CodeExternalService, "certificate artifact could not be stored")
	}

	err = s.store.SetArtifactIfMissing(ctx, cert.Code, url)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "certificate artifact backfilled", "code", cert.Code, "actor", actor)
		return &models.IssueResult{Code: cert.Code, ArtifactURL: &url}, nil
	case errors.Is(err, sentinel.ErrInvalidState):
		current, err := s.findByCode(ctx, cert.Code)
		if err != nil {
			return nil, err
		}
		return &models.IssueResult{Code: current.Code, ArtifactURL: current.ArtifactURL}, nil
	}
	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record certificate artifact")
}

func (s *Service) findByCode(ctx context.Context, code string) (*models.Certificate, error) {
	code = models.NormalizeCode(code)
	if !models.IsValidCode(code) {
		return nil, certificateNotFound()
	}
	cert, err := s.store.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, certificateNotFound()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}
	return cert, nil
}

func certificateNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "certificate not found")
}

// Verify returns the public details behind a code. Unknown and malformed
// codes are both NotFound.
func (s *Service) Verify(ctx context.Context, code string) (*models.Verification, error) {
	cert, err := s.findByCode(ctx, code)
	if err != nil {
		s.metrics.IncrementVerification(false)
		return nil, err
	}
	e, err := s.enrollments.Get(ctx, cert.EnrollmentID)
	if err != nil {
		return nil, err
	}
	sub, err := s.describe(ctx, e)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementVerification(true)
	return &models.Verification{
		Code:          cert.Code,
		RecipientName: sub.name,
		Organization:  sub.organization,
		ProgramTitle:  sub.program.Title,
		ProgramType:   sub.program.Type.Label(),
		TrackTitle:    sub.trackTitle,
		IssuedAt:      cert.IssuedAt,
		ArtifactURL:   cert.ArtifactURL,
	}, nil
}

// ForEnrollments returns issued certificates keyed by enrollment.
func (s *Service) ForEnrollments(ctx context.Context, enrollmentIDs []id.EnrollmentID) (map[id.EnrollmentID]*models.Certificate, error) {
	found, err := s.store.FindByEnrollments(ctx, enrollmentIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificates")
	}
	return found, nil
}
