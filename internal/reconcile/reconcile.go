// Package reconcile repairs paid checkouts whose webhook-driven fulfillment
// never landed. It lists recently completed processor sessions and fulfills
// any that have no enrollment carrying their payment reference.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	enrollmentModels "sparkfish/internal/enrollment/models"
	"sparkfish/internal/payment"
	dErrors "sparkfish/pkg/domain-errors"
)

var tracer = otel.Tracer("sparkfish/reconcile")

// lookupBatch bounds how many payment references go into one existence query.
const lookupBatch = 200

type Processor interface {
	ListCompletedSessions(ctx context.Context, since time.Time) ([]payment.CompletedSession, error)
}

type Enrollments interface {
	FindByPaymentRefs(ctx context.Context, refs []string) (map[string]*enrollmentModels.Enrollment, error)
	Fulfill(ctx context.Context, req enrollmentModels.FulfillRequest) (*enrollmentModels.FulfillResult, error)
}

// Failure is one session that could not be fulfilled.
type Failure struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
	Reason    string `json:"reason,omitempty"`
}

// Report summarises one pass.
type Report struct {
	Since    time.Time `json:"since"`
	Scanned  int       `json:"scanned"`
	Skipped  int       `json:"skipped"`
	Unpaid   int       `json:"unpaid"`
	Already  int       `json:"already"`
	Missing  []string  `json:"missing,omitempty"`
	Repaired int       `json:"repaired"`
	Failed   []Failure `json:"failed,omitempty"`
}

type Reconciler struct {
	processor   Processor
	enrollments Enrollments
	lookback    time.Duration
	concurrency int
	dryRun      bool
	logger      *slog.Logger
	metrics     *Metrics
	now         func() time.Time
}

type Option func(*Reconciler)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithDryRun reports missing enrollments without creating them.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) {
		r.dryRun = dryRun
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

func New(processor Processor, enrollments Enrollments, lookback time.Duration, opts ...Option) *Reconciler {
	r := &Reconciler{
		processor:   processor,
		enrollments: enrollments,
		lookback:    lookback,
		concurrency: 4,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one pass. Individual fulfillment failures are reported, not
// returned; only a failure to list sessions or look up enrollments aborts.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	ctx, span := tracer.Start(ctx, "reconcile.Run")
	defer span.End()

	report := &Report{Since: r.now().Add(-r.lookback)}
	sessions, err := r.processor.ListCompletedSessions(ctx, report.Since)
	if err != nil {
		span.SetStatus(codes.Error, "list sessions")
		return nil, fmt.Errorf("list completed sessions: %w", err)
	}
	report.Scanned = len(sessions)

	candidates := make(map[string]enrollmentModels.FulfillRequest, len(sessions))
	for _, s := range sessions {
		learnerID, cohortID, ok := s.Correlation()
		if !ok {
			report.Skipped++
			r.logger.WarnContext(ctx, "completed session without correlation metadata", "session_id", s.ID)
			continue
		}
		if !s.Paid {
			report.Unpaid++
			continue
		}
		ref := s.ID
		candidates[s.ID] = enrollmentModels.FulfillRequest{LearnerID: learnerID, CohortID: cohortID, PaymentRef: &ref}
	}

	missing, err := r.missing(ctx, candidates)
	if err != nil {
		span.SetStatus(codes.Error, "lookup enrollments")
		return nil, err
	}
	report.Already = len(candidates) - len(missing)
	report.Missing = missing

	if !r.dryRun {
		r.repair(ctx, candidates, missing, report)
	}

	r.metrics.observe(report)
	span.SetAttributes(
		attribute.Int("scanned", report.Scanned),
		attribute.Int("missing", len(report.Missing)),
		attribute.Int("repaired", report.Repaired),
		attribute.Int("failed", len(report.Failed)),
	)
	r.logger.InfoContext(ctx, "reconciliation pass complete",
		"since", report.Since,
		"scanned", report.Scanned,
		"skipped", report.Skipped,
		"unpaid", report.Unpaid,
		"already", report.Already,
		"missing", len(report.Missing),
		"repaired", report.Repaired,
		"failed", len(report.Failed),
		"dry_run", r.dryRun,
	)
	return report, nil
}

// missing returns the sorted session ids with no enrollment.
func (r *Reconciler) missing(ctx context.Context, candidates map[string]enrollmentModels.FulfillRequest) ([]string, error) {
	refs := make([]string, 0, len(candidates))
	for ref := range candidates {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	var out []string
	for start := 0; start < len(refs); start += lookupBatch {
		batch := refs[start:min(start+lookupBatch, len(refs))]
		found, err := r.enrollments.FindByPaymentRefs(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("look up enrollments by payment reference: %w", err)
		}
		for _, ref := range batch {
			if _, ok := found[ref]; !ok {
				out = append(out, ref)
			}
		}
	}
	return out, nil
}

func (r *Reconciler) repair(ctx context.Context, candidates map[string]enrollmentModels.FulfillRequest, missing []string, report *Report) {
	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for _, ref := range missing {
		req := candidates[ref]
		g.Go(func() error {
			res, err := r.enrollments.Fulfill(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.ErrorContext(ctx, "reconciliation could not fulfill paid session, refund or enroll manually",
					"session_id", ref,
					"learner_id", req.LearnerID,
					"cohort_id", req.CohortID,
					"error", err,
				)
				report.Failed = append(report.Failed, Failure{
					SessionID: ref,
					Code:      string(dErrors.CodeOf(err)),
					Reason:    string(dErrors.ReasonOf(err)),
				})
				return nil
			}
			if res.Outcome == enrollmentModels.OutcomeAlreadyFulfilled {
				// The webhook landed between the lookup and now.
				report.Already++
				return nil
			}
			report.Repaired++
			r.logger.InfoContext(ctx, "reconciled missing enrollment",
				"session_id", ref, "enrollment_id", res.Enrollment.ID)
			return nil
		})
	}
	_ = g.Wait()
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].SessionID < report.Failed[j].SessionID })
}
