package dashboard

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	catalogModels "sparkfish/internal/catalog/models"
	certificateModels "sparkfish/internal/certificate/models"
	"sparkfish/internal/dashboard/mocks"
	enrollmentModels "sparkfish/internal/enrollment/models"
	identityModels "sparkfish/internal/identity/models"
	"sparkfish/internal/platform/logger"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/testutil"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Learners Enrollments Catalog Certificates
type DashboardSuite struct {
	suite.Suite
	ctx          context.Context
	learnerID    id.LearnerID
	learners     *mocks.MockLearners
	enrollments  *mocks.MockEnrollments
	catalog      *mocks.MockCatalog
	certificates *mocks.MockCertificates
	svc          *Service
}

func TestDashboardSuite(t *testing.T) {
	suite.Run(t, new(DashboardSuite))
}

func (s *DashboardSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.ctx = context.Background()
	s.learnerID = id.NewLearnerID()
	s.learners = mocks.NewMockLearners(ctrl)
	s.enrollments = mocks.NewMockEnrollments(ctrl)
	s.catalog = mocks.NewMockCatalog(ctrl)
	s.certificates = mocks.NewMockCertificates(ctrl)
	s.svc = NewService(s.learners, s.enrollments, s.catalog, s.certificates, "https://sparkfish.test", logger.Discard())
}

func (s *DashboardSuite) cohort() (*catalogModels.Cohort, *catalogModels.Program) {
	program := &catalogModels.Program{ID: id.NewProgramID(), Title: "AI for Educators", Type: catalogModels.ProgramTypeShortIntensive, Active: true}
	cohort := &catalogModels.Cohort{
		ID: id.NewCohortID(), ProgramID: program.ID, Title: "Spring 2026",
		StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), SeatLimit: 20,
		MeetingURL: "https://zoom.example/j/1", Active: true,
	}
	return cohort, program
}

func (s *DashboardSuite) TestOverview() {
	cohort, program := s.cohort()
	active := &enrollmentModels.Enrollment{ID: id.NewEnrollmentID(), LearnerID: s.learnerID, CohortID: cohort.ID, Status: enrollmentModels.StatusActive}
	done := &enrollmentModels.Enrollment{ID: id.NewEnrollmentID(), LearnerID: s.learnerID, CohortID: cohort.ID, Status: enrollmentModels.StatusCompleted}
	gone := &enrollmentModels.Enrollment{ID: id.NewEnrollmentID(), LearnerID: s.learnerID, CohortID: cohort.ID, Status: enrollmentModels.StatusCancelled}
	pdf := "https://files.test/certificates/ABCD1234.pdf"

	s.learners.EXPECT().Profile(gomock.Any(), s.learnerID).Return(&identityModels.Profile{ID: s.learnerID, Name: "Ada", IsAdmin: true}, nil)
	s.enrollments.EXPECT().ListForLearner(gomock.Any(), s.learnerID).Return([]*enrollmentModels.Enrollment{active, done, gone}, nil)
	s.certificates.EXPECT().ForEnrollments(gomock.Any(), []id.EnrollmentID{active.ID, done.ID}).
		Return(map[id.EnrollmentID]*certificateModels.Certificate{done.ID: {Code: "ABCD1234", ArtifactURL: &pdf}}, nil)
	s.catalog.EXPECT().CohortWithProgram(gomock.Any(), cohort.ID).Return(cohort, program, nil).Times(1)

	out, err := s.svc.Overview(s.ctx, s.learnerID)
	s.Require().NoError(err)

	s.Equal("Ada", out.Name)
	s.True(out.IsAdmin)
	s.Require().Len(out.Active, 1)
	s.Equal("https://zoom.example/j/1", out.Active[0].MeetingURL)
	s.Equal("AI for Educators", out.Active[0].ProgramTitle)
	s.Equal("Spring 2026", out.Active[0].CohortTitle)
	s.Nil(out.Active[0].Certificate)

	s.Require().Len(out.Completed, 1)
	s.Empty(out.Completed[0].MeetingURL)
	s.Require().NotNil(out.Completed[0].Certificate)
	s.Equal("ABCD1234", out.Completed[0].Certificate.Code)
	s.Equal("https://sparkfish.test/certificate/verify/ABCD1234", out.Completed[0].Certificate.VerifyURL)
}

func (s *DashboardSuite) TestOverviewWithoutProfileOrEnrollments() {
	s.learners.EXPECT().Profile(gomock.Any(), s.learnerID).Return(nil, dErrors.New(dErrors.CodeNotFound, "profile not found"))
	s.enrollments.EXPECT().ListForLearner(gomock.Any(), s.learnerID).Return(nil, nil)

	out, err := s.svc.Overview(s.ctx, s.learnerID)
	s.Require().NoError(err)
	s.Equal("Student", out.Name)
	s.False(out.IsAdmin)
	s.Empty(out.Active)
	s.NotNil(out.Active)
}

func (s *DashboardSuite) TestOverviewRequiresSession() {
	_, err := s.svc.Overview(s.ctx, id.LearnerID{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *DashboardSuite) TestHandler() {
	s.learners.EXPECT().Profile(gomock.Any(), s.learnerID).Return(&identityModels.Profile{ID: s.learnerID, Name: "Ada"}, nil)
	s.enrollments.EXPECT().ListForLearner(gomock.Any(), s.learnerID).Return(nil, nil)

	router := chi.NewRouter()
	NewHandler(s.svc, logger.Discard()).Register(router)

	req := testutil.WithLearnerID(testutil.NewRequest(s.T(), http.MethodGet, "/dashboard"), s.learnerID)
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "name", "Ada")
	assert.Equal(s.T(), "no-store", rr.Header().Get("Cache-Control"))
}

func (s *DashboardSuite) TestHandlerWithoutSession() {
	router := chi.NewRouter()
	NewHandler(s.svc, logger.Discard()).Register(router)

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/dashboard"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}
