package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sparkfish/internal/certificate/handler/mocks"
	"sparkfish/internal/certificate/models"
	"sparkfish/internal/platform/logger"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type CertificateHandlerSuite struct {
	suite.Suite
	svc    *mocks.MockService
	router chi.Router
}

func TestCertificateHandlerSuite(t *testing.T) {
	suite.Run(t, new(CertificateHandlerSuite))
}

func (s *CertificateHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.svc = mocks.NewMockService(ctrl)
	h := New(s.svc, logger.Discard())
	s.router = chi.NewRouter()
	h.Register(s.router)
	s.router.Route("/api/admin", h.RegisterAdmin)
}

func verification(artifact *string) *models.Verification {
	return &models.Verification{
		Code:          "8A2B9C1D",
		RecipientName: "Grace Hopper",
		Organization:  "Navy",
		ProgramTitle:  "AI Ethics Intensive",
		TrackTitle:    "Policy",
		IssuedAt:      time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		ArtifactURL:   artifact,
	}
}

func (s *CertificateHandlerSuite) TestIssue() {
	admin := id.NewLearnerID()
	enrollmentID := id.NewEnrollmentID()
	url := "https://files.example/certificates/8A2B9C1D.pdf"
	s.svc.EXPECT().Issue(gomock.Any(), admin, enrollmentID).
		Return(&models.IssueResult{Code: "8A2B9C1D", ArtifactURL: &url}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/admin/certificates/issue",
		map[string]string{"enrollment_id": enrollmentID.String()})
	rr := testutil.DoRequest(s.router, testutil.WithLearnerID(req, admin))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	assert.JSONEq(s.T(), `{"success":true,"code":"8A2B9C1D","pdf_url":"`+url+`"}`, rr.Body.String())
}

func (s *CertificateHandlerSuite) TestIssueWithoutArtifact() {
	s.svc.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.IssueResult{Code: "8A2B9C1D"}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/admin/certificates/issue",
		map[string]string{"enrollment_id": id.NewEnrollmentID().String()})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	assert.JSONEq(s.T(), `{"success":true,"code":"8A2B9C1D","pdf_url":null}`, rr.Body.String())
}

func (s *CertificateHandlerSuite) TestIssueMissingEnrollment() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/admin/certificates/issue", map[string]string{})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *CertificateHandlerSuite) TestIssueErrors() {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not signed in", dErrors.New(dErrors.CodeUnauthorized, "sign in required"), http.StatusUnauthorized, "unauthorized"},
		{"not admin", dErrors.New(dErrors.CodeForbidden, "admin access required"), http.StatusForbidden, "forbidden"},
		{"unknown enrollment", dErrors.New(dErrors.CodeNotFound, "enrollment not found"), http.StatusNotFound, "not_found"},
		{"already issued", dErrors.Conflict(dErrors.ReasonAlreadyIssued, "certificate already exists"), http.StatusConflict, "conflict"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.svc.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tt.err)

			req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/admin/certificates/issue",
				map[string]string{"enrollment_id": id.NewEnrollmentID().String()})
			rr := testutil.DoRequest(s.router, req)

			testutil.AssertStatusAndError(s.T(), rr, tt.status, tt.code)
		})
	}
}

func (s *CertificateHandlerSuite) TestBackfill() {
	url := "https://files.example/certificates/8A2B9C1D.pdf"
	s.svc.EXPECT().BackfillArtifact(gomock.Any(), gomock.Any(), "8A2B9C1D").
		Return(&models.IssueResult{Code: "8A2B9C1D", ArtifactURL: &url}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/api/admin/certificates/8A2B9C1D/artifact"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "pdf_url", url)
}

func (s *CertificateHandlerSuite) TestVerifyPage() {
	url := "https://files.example/certificates/8A2B9C1D.pdf"
	s.svc.EXPECT().Verify(gomock.Any(), "8A2B9C1D").Return(verification(&url), nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/certificate/verify/8A2B9C1D"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	body := rr.Body.String()
	assert.Contains(s.T(), body, "Verified Authentic")
	assert.Contains(s.T(), body, "This certificate was officially issued by Sparkfish LLC.")
	assert.Contains(s.T(), body, "Grace Hopper")
	assert.Contains(s.T(), body, "Navy")
	assert.Contains(s.T(), body, "Track Focus")
	assert.Contains(s.T(), body, "May 4, 2026")
	assert.Contains(s.T(), body, "Download Original PDF")
	assert.Contains(s.T(), body, url)
}

func (s *CertificateHandlerSuite) TestVerifyPageWithoutArtifact() {
	s.svc.EXPECT().Verify(gomock.Any(), "8A2B9C1D").Return(verification(nil), nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/certificate/verify/8A2B9C1D"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	assert.NotContains(s.T(), rr.Body.String(), "Download Original PDF")
}

func (s *CertificateHandlerSuite) TestVerifyNotFoundPage() {
	s.svc.EXPECT().Verify(gomock.Any(), "DEADBEEF").Return(nil, dErrors.New(dErrors.CodeNotFound, "certificate not found"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/certificate/verify/DEADBEEF"))

	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	assert.Contains(s.T(), rr.Body.String(), "Certificate Not Found")
	assert.Contains(s.T(), rr.Body.String(), "The certificate code <code>DEADBEEF</code> is invalid or does not exist in our system.")
}

func (s *CertificateHandlerSuite) TestVerifyNotFoundIgnoresPartialResult() {
	notFound := dErrors.New(dErrors.CodeNotFound, "certificate not found")

	s.svc.EXPECT().Verify(gomock.Any(), "DEADBEEF").Return(verification(nil), notFound)
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/certificate/verify/DEADBEEF"))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	assert.Contains(s.T(), rr.Body.String(), "Certificate Not Found")
	assert.NotContains(s.T(), rr.Body.String(), "Grace Hopper")

	s.svc.EXPECT().Verify(gomock.Any(), "DEADBEEF").Return(verification(nil), notFound)
	req := testutil.NewRequest(s.T(), http.MethodGet, "/certificate/verify/DEADBEEF")
	req.Header.Set("Accept", "application/json")
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *CertificateHandlerSuite) TestVerifyEscapesCode() {
	s.svc.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeNotFound, "certificate not found"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/certificate/verify/%3Cscript%3E"))

	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	assert.NotContains(s.T(), rr.Body.String(), "<script>")
}

func (s *CertificateHandlerSuite) TestVerifyJSON() {
	s.svc.EXPECT().Verify(gomock.Any(), "8A2B9C1D").Return(verification(nil), nil)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/certificate/verify/8A2B9C1D")
	req.Header.Set("Accept", "application/json")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "recipient_name", "Grace Hopper")
}

func (s *CertificateHandlerSuite) TestVerifyJSONNotFound() {
	s.svc.EXPECT().Verify(gomock.Any(), "DEADBEEF").Return(nil, dErrors.New(dErrors.CodeNotFound, "certificate not found"))

	req := testutil.NewRequest(s.T(), http.MethodGet, "/certificate/verify/DEADBEEF")
	req.Header.Set("Accept", "application/json")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *CertificateHandlerSuite) TestVerifyStoreFailureIsServerError() {
	s.svc.EXPECT().Verify(gomock.Any(), "8A2B9C1D").Return(nil, dErrors.New(dErrors.CodeInternal, "failed to load certificate"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/certificate/verify/8A2B9C1D"))

	testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
}
