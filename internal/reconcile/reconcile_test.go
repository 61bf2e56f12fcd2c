package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	enrollmentModels "sparkfish/internal/enrollment/models"
	"sparkfish/internal/payment"
	"sparkfish/internal/platform/logger"
	"sparkfish/internal/reconcile/mocks"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
)

//go:generate mockgen -source=reconcile.go -destination=mocks/mocks.go -package=mocks Processor Enrollments
type ReconcileSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	processor   *mocks.MockProcessor
	enrollments *mocks.MockEnrollments
}

func TestReconcileSuite(t *testing.T) {
	suite.Run(t, new(ReconcileSuite))
}

func (s *ReconcileSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	s.processor = mocks.NewMockProcessor(ctrl)
	s.enrollments = mocks.NewMockEnrollments(ctrl)
}

func (s *ReconcileSuite) reconciler(opts ...Option) *Reconciler {
	opts = append([]Option{WithLogger(logger.Discard()), WithClock(func() time.Time { return s.now })}, opts...)
	return New(s.processor, s.enrollments, 72*time.Hour, opts...)
}

func session(ref string, paid bool) payment.CompletedSession {
	return payment.CompletedSession{
		ID:        ref,
		LearnerID: id.NewLearnerID().String(),
		CohortID:  id.NewCohortID().String(),
		Paid:      paid,
	}
}

func (s *ReconcileSuite) TestRepairsMissingEnrollments() {
	sessions := []payment.CompletedSession{
		session("cs_done", true),
		session("cs_lost", true),
		session("cs_pending", false),
		{ID: "cs_foreign", LearnerID: "not-a-uuid", CohortID: id.NewCohortID().String(), Paid: true},
	}
	s.processor.EXPECT().ListCompletedSessions(gomock.Any(), s.now.Add(-72*time.Hour)).Return(sessions, nil)
	s.enrollments.EXPECT().FindByPaymentRefs(gomock.Any(), []string{"cs_done", "cs_lost"}).
		Return(map[string]*enrollmentModels.Enrollment{"cs_done": {ID: id.NewEnrollmentID()}}, nil)
	s.enrollments.EXPECT().Fulfill(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req enrollmentModels.FulfillRequest) (*enrollmentModels.FulfillResult, error) {
			if s.NotNil(req.PaymentRef) {
				s.Equal("cs_lost", *req.PaymentRef)
			}
			s.Equal(sessions[1].LearnerID, req.LearnerID.String())
			s.Equal(sessions[1].CohortID, req.CohortID.String())
			return &enrollmentModels.FulfillResult{
				Enrollment: &enrollmentModels.Enrollment{ID: id.NewEnrollmentID()},
				Outcome:    enrollmentModels.OutcomeCreated,
			}, nil
		})

	report, err := s.reconciler().Run(s.ctx)
	s.Require().NoError(err)

	s.Equal(4, report.Scanned)
	s.Equal(1, report.Skipped)
	s.Equal(1, report.Unpaid)
	s.Equal(1, report.Already)
	s.Equal([]string{"cs_lost"}, report.Missing)
	s.Equal(1, report.Repaired)
	s.Empty(report.Failed)
}

func (s *ReconcileSuite) TestFailuresAreReportedNotReturned() {
	s.processor.EXPECT().ListCompletedSessions(gomock.Any(), gomock.Any()).
		Return([]payment.CompletedSession{session("cs_a", true), session("cs_b", true)}, nil)
	s.enrollments.EXPECT().FindByPaymentRefs(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.enrollments.EXPECT().Fulfill(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req enrollmentModels.FulfillRequest) (*enrollmentModels.FulfillResult, error) {
			if *req.PaymentRef == "cs_a" {
				return nil, dErrors.Conflict(dErrors.ReasonCohortFull, "cohort is full")
			}
			return &enrollmentModels.FulfillResult{
				Enrollment: &enrollmentModels.Enrollment{ID: id.NewEnrollmentID()},
				Outcome:    enrollmentModels.OutcomeCreated,
			}, nil
		}).Times(2)

	report, err := s.reconciler(WithConcurrency(2)).Run(s.ctx)
	s.Require().NoError(err)

	s.Equal(1, report.Repaired)
	s.Require().Len(report.Failed, 1)
	s.Equal(Failure{SessionID: "cs_a", Code: "conflict", Reason: "cohort_full"}, report.Failed[0])
}

func (s *ReconcileSuite) TestRaceWithWebhookCountsAsAlready() {
	s.processor.EXPECT().ListCompletedSessions(gomock.Any(), gomock.Any()).
		Return([]payment.CompletedSession{session("cs_a", true)}, nil)
	s.enrollments.EXPECT().FindByPaymentRefs(gomock.Any(), gomock.Any()).Return(map[string]*enrollmentModels.Enrollment{}, nil)
	s.enrollments.EXPECT().Fulfill(gomock.Any(), gomock.Any()).Return(&enrollmentModels.FulfillResult{
		Enrollment: &enrollmentModels.Enrollment{ID: id.NewEnrollmentID()},
		Outcome:    enrollmentModels.OutcomeAlreadyFulfilled,
	}, nil)

	report, err := s.reconciler().Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Already)
	s.Zero(report.Repaired)
}

func (s *ReconcileSuite) TestDryRunDoesNotFulfill() {
	s.processor.EXPECT().ListCompletedSessions(gomock.Any(), gomock.Any()).
		Return([]payment.CompletedSession{session("cs_a", true)}, nil)
	s.enrollments.EXPECT().FindByPaymentRefs(gomock.Any(), gomock.Any()).Return(nil, nil)

	report, err := s.reconciler(WithDryRun(true)).Run(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"cs_a"}, report.Missing)
	s.Zero(report.Repaired)
}

func (s *ReconcileSuite) TestLookupIsBatched() {
	var sessions []payment.CompletedSession
	for i := range lookupBatch + 5 {
		sessions = append(sessions, session(fmt.Sprintf("cs_%04d", i), true))
	}
	s.processor.EXPECT().ListCompletedSessions(gomock.Any(), gomock.Any()).Return(sessions, nil)

	found := map[string]*enrollmentModels.Enrollment{}
	for _, cs := range sessions {
		found[cs.ID] = &enrollmentModels.Enrollment{}
	}
	s.enrollments.EXPECT().FindByPaymentRefs(gomock.Any(), gomock.Len(lookupBatch)).Return(found, nil)
	s.enrollments.EXPECT().FindByPaymentRefs(gomock.Any(), gomock.Len(5)).Return(found, nil)

	report, err := s.reconciler().Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(lookupBatch+5, report.Already)
	s.Empty(report.Missing)
}

func (s *ReconcileSuite) TestListFailureAborts() {
	s.processor.EXPECT().ListCompletedSessions(gomock.Any(), gomock.Any()).Return(nil, errors.New("stripe: 503"))

	_, err := s.reconciler().Run(s.ctx)
	s.Require().Error(err)
}

func (s *ReconcileSuite) TestLookupFailureAborts() {
	s.processor.EXPECT().ListCompletedSessions(gomock.Any(), gomock.Any()).
		Return([]payment.CompletedSession{session("cs_a", true)}, nil)
	s.enrollments.EXPECT().FindByPaymentRefs(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := s.reconciler().Run(s.ctx)
	s.Require().Error(err)
}
