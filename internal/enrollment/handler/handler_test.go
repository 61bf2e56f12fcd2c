package handler

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sparkfish/internal/enrollment/handler/mocks"
	"sparkfish/internal/enrollment/models"
	"sparkfish/internal/platform/logger"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type EnrollmentHandlerSuite struct {
	suite.Suite
	svc    *mocks.MockService
	router chi.Router
}

func TestEnrollmentHandlerSuite(t *testing.T) {
	suite.Run(t, new(EnrollmentHandlerSuite))
}

func (s *EnrollmentHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.svc = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.svc, logger.Discard()).RegisterAdmin(s.router)
}

func (s *EnrollmentHandlerSuite) TestListPassesFilter() {
	cohortID := id.NewCohortID()
	s.svc.EXPECT().List(gomock.Any(), models.ListFilter{CohortID: &cohortID, Status: models.StatusActive, Limit: 25}).
		Return([]*models.Enrollment{{ID: id.NewEnrollmentID(), CohortID: cohortID, Status: models.StatusActive}}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet,
		"/enrollments?status=active&limit=25&cohort_id="+cohortID.String()))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	assert.Contains(s.T(), rr.Body.String(), `"status":"active"`)
}

func (s *EnrollmentHandlerSuite) TestListRejectsBadLimit() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/enrollments?limit=0"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *EnrollmentHandlerSuite) TestListEmptyIsArray() {
	s.svc.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/enrollments"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	assert.JSONEq(s.T(), `{"enrollments":[]}`, rr.Body.String())
}

func (s *EnrollmentHandlerSuite) TestCancel() {
	enrollmentID := id.NewEnrollmentID()
	s.svc.EXPECT().Cancel(gomock.Any(), enrollmentID).
		Return(&models.Enrollment{ID: enrollmentID, Status: models.StatusCancelled}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/enrollments/"+enrollmentID.String()+"/cancel"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "status", "cancelled")
}

func (s *EnrollmentHandlerSuite) TestCompleteConflict() {
	enrollmentID := id.NewEnrollmentID()
	s.svc.EXPECT().Complete(gomock.Any(), enrollmentID).
		Return(nil, dErrors.Conflict(dErrors.ReasonInvalidState, "enrollment is cancelled and cannot become completed"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/enrollments/"+enrollmentID.String()+"/complete"))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
}

func (s *EnrollmentHandlerSuite) TestAssignTrackClears() {
	enrollmentID := id.NewEnrollmentID()
	s.svc.EXPECT().AssignTrack(gomock.Any(), enrollmentID, gomock.Nil()).
		Return(&models.Enrollment{ID: enrollmentID, Status: models.StatusActive}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/enrollments/"+enrollmentID.String()+"/track", map[string]any{"track_id": nil})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *EnrollmentHandlerSuite) TestPaymentRefIsNotExposed() {
	enrollmentID := id.NewEnrollmentID()
	paymentRef := "cs_live_secret"
	s.svc.EXPECT().Get(gomock.Any(), enrollmentID).
		Return(&models.Enrollment{ID: enrollmentID, Status: models.StatusActive, PaymentRef: &paymentRef}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/enrollments/"+enrollmentID.String()))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	assert.NotContains(s.T(), rr.Body.String(), paymentRef)
}
