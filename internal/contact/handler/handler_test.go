package handler

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sparkfish/internal/contact/handler/mocks"
	"sparkfish/internal/contact/models"
	"sparkfish/internal/platform/logger"
	rlMiddleware "sparkfish/internal/ratelimit/middleware"
	rlStore "sparkfish/internal/ratelimit/store"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/middleware/metadata"
	"sparkfish/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type ContactHandlerSuite struct {
	suite.Suite
	svc    *mocks.MockService
	router chi.Router
}

func TestContactHandlerSuite(t *testing.T) {
	suite.Run(t, new(ContactHandlerSuite))
}

func (s *ContactHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.svc = mocks.NewMockService(ctrl)

	limiter := rlMiddleware.New(rlStore.NewMemory(), logger.Discard())
	s.router = chi.NewRouter()
	s.router.Use(metadata.ClientMetadata)
	s.router.Route("/api", func(r chi.Router) {
		r.Use(limiter.Limit(rlMiddleware.Policy{Scope: "contact", Limit: 3, Window: time.Minute}))
		New(s.svc, logger.Discard()).Register(r)
	})
}

func body() map[string]any {
	return map[string]any{
		"name":         "Jane",
		"email":        "jane@example.org",
		"organization": "",
		"track":        "ai-literacy",
		"message":      "Hello",
		"b_url":        "",
	}
}

func (s *ContactHandlerSuite) TestSubmit() {
	s.svc.EXPECT().Submit(gomock.Any(), models.Submission{
		Name: "Jane", Email: "jane@example.org", Track: "ai-literacy", Message: "Hello",
	}).Return(nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/contact", body()))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	assert.JSONEq(s.T(), `{"success":true}`, rr.Body.String())
}

func (s *ContactHandlerSuite) TestValidationError() {
	s.svc.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(dErrors.New(dErrors.CodeValidation, "email must be a valid email address"))

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/contact", body()))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *ContactHandlerSuite) TestSendFailureHidesCause() {
	s.svc.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(dErrors.Wrap(errors.New("sendgrid: 401 bad key"), dErrors.CodeExternalService, "failed to send message"))

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/contact", body()))

	assert.Equal(s.T(), http.StatusBadGateway, rr.Code)
	assert.NotContains(s.T(), rr.Body.String(), "sendgrid")
}

func (s *ContactHandlerSuite) TestMalformedBody() {
	req := testutil.NewRequest(s.T(), http.MethodPost, "/api/contact")
	req.Body = http.NoBody
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *ContactHandlerSuite) TestRateLimitedAfterThreeSubmissions() {
	s.svc.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	for range 3 {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/contact", body()))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	}

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/contact", body()))
	assert.Equal(s.T(), http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(s.T(), rr.Header().Get("Retry-After"))
	assert.True(s.T(), strings.Contains(rr.Body.String(), "rate_limited"))
}
