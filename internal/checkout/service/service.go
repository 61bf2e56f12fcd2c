package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	catalogModels "sparkfish/internal/catalog/models"
	"sparkfish/internal/checkout/metrics"
	"sparkfish/internal/checkout/models"
	enrollmentModels "sparkfish/internal/enrollment/models"
	"sparkfish/internal/payment"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
)

var tracer = otel.Tracer("sparkfish/checkout")

type Catalog interface {
	CohortWithProgram(ctx context.Context, cohortID id.CohortID) (*catalogModels.Cohort, *catalogModels.Program, error)
}

type Enrollments interface {
	IsEnrolled(ctx context.Context, learnerID id.LearnerID, cohortID id.CohortID) (bool, error)
	Fulfill(ctx context.Context, req enrollmentModels.FulfillRequest) (*enrollmentModels.FulfillResult, error)
}

// EmailResolver prefills the processor's checkout form.
type EmailResolver interface {
	ResolveEmail(ctx context.Context, learnerID id.LearnerID) (string, error)
}

type Service struct {
	catalog     Catalog
	enrollments Enrollments
	processor   payment.Processor
	emails      EmailResolver
	baseURL     string
	metrics     *metrics.Metrics
	logger      *slog.Logger
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

func WithEmailResolver(r EmailResolver) Option {
	return func(s *Service) {
		s.emails = r
	}
}

func New(catalog Catalog, enrollments Enrollments, processor payment.Processor, baseURL string, opts ...Option) *Service {
	s := &Service{
		catalog:     catalog,
		enrollments: enrollments,
		processor:   processor,
		baseURL:     strings.TrimRight(baseURL, "/"),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SuccessURL is where the processor returns a learner after paying.
func (s *Service) SuccessURL() string {
	return s.baseURL + "/dashboard?success=true"
}

// CancelURL is where the processor returns a learner who backs out.
func (s *Service) CancelURL(cohortID id.CohortID) string {
	return s.baseURL + "/checkout?cohort=" + url.QueryEscape(cohortID.String()) + "&canceled=true"
}

// Initiate validates the cohort and the learner's standing, then either
// starts a hosted checkout or, for programs without a price, enrolls
// directly through fulfillment. Local state only changes in fulfillment.
func (s *Service) Initiate(ctx context.Context, learnerID id.LearnerID, cohortID id.CohortID) (*models.Result, error) {
	ctx, span := tracer.Start(ctx, "checkout.Initiate")
	defer span.End()
	span.SetAttributes(attribute.String("cohort_id", cohortID.String()))

	res, err := s.initiate(ctx, learnerID, cohortID)
	if err != nil {
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		s.metrics.IncrementAttempt(failureLabel(err))
		return nil, err
	}
	span.SetAttributes(attribute.String("result", string(res.Kind)))
	s.metrics.IncrementAttempt(string(res.Kind))
	return res, nil
}

func (s *Service) initiate(ctx context.Context, learnerID id.LearnerID, cohortID id.CohortID) (*models.Result, error) {
	if learnerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "sign in required")
	}
	cohort, program, err := s.catalog.CohortWithProgram(ctx, cohortID)
	if err != nil {
		return nil, err
	}
	if !cohort.Active || !program.Active {
		return nil, dErrors.New(dErrors.CodeNotFound, "cohort is not open for enrollment")
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, learnerID, cohortID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return &models.Result{Kind: models.KindAlreadyEnrolled}, nil
	}
	if !cohort.HasCapacity() {
		return &models.Result{Kind: models.KindCohortFull}, nil
	}

	if !program.RequiresPayment() {
		return s.bypass(ctx, learnerID, cohortID)
	}

	req := payment.CheckoutRequest{
		LearnerID:  learnerID,
		CohortID:   cohortID,
		PriceID:    *program.PaymentPlanID,
		SuccessURL: s.SuccessURL(),
		CancelURL:  s.CancelURL(cohortID),
	}
	if s.emails != nil {
		if address, err := s.emails.ResolveEmail(ctx, learnerID); err == nil {
			req.CustomerEmail = address
		}
	}
	session, err := s.processor.CreateCheckoutSession(ctx, req)
	if err != nil {
		s.logger.ErrorContext(ctx, "checkout session not created",
			"cohort_id", cohortID, "learner_id", learnerID, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeExternalService, "payment processor unavailable")
	}
	if session.URL == "" {
		return nil, dErrors.New(dErrors.CodeExternalService, "payment processor returned no checkout url")
	}
	s.logger.InfoContext(ctx, "checkout session created",
		"cohort_id", cohortID, "learner_id", learnerID, "session_id", session.ID)
	return &models.Result{Kind: models.KindRedirect, RedirectURL: session.URL, SessionID: session.ID}, nil
}

// bypass enrolls through the same idempotent fulfillment as a paid
// checkout, with no payment reference.
func (s *Service) bypass(ctx context.Context, learnerID id.LearnerID, cohortID id.CohortID) (*models.Result, error) {
	s.logger.WarnContext(ctx, "program has no payment plan, enrolling without payment",
		"cohort_id", cohortID, "learner_id", learnerID)
	_, err := s.enrollments.Fulfill(ctx, enrollmentModels.FulfillRequest{LearnerID: learnerID, CohortID: cohortID})
	if err != nil {
		if dErrors.ReasonOf(err) == dErrors.ReasonCohortFull {
			return &models.Result{Kind: models.KindCohortFull}, nil
		}
		return nil, err
	}
	return &models.Result{Kind: models.KindBypassed}, nil
}

func failureLabel(err error) string {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeExternalService:
		return "processor_error"
	}
	return "error"
}
