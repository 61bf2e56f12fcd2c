package httpapi

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparkfish/internal/platform/logger"
	"sparkfish/internal/platform/metrics"
	rateLimitMiddleware "sparkfish/internal/ratelimit/middleware"
	rateLimitStore "sparkfish/internal/ratelimit/store"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/httputil"
	"sparkfish/pkg/requestcontext"
	"sparkfish/pkg/testutil"
)

type routes struct {
	public func(chi.Router)
	admin  func(chi.Router)
}

func (r routes) Register(router chi.Router) {
	if r.public != nil {
		r.public(router)
	}
}

func (r routes) RegisterAdmin(router chi.Router) {
	if r.admin != nil {
		r.admin(router)
	}
}

func echoLearner(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"learner_id": requestcontext.LearnerID(r.Context()).String()})
}

type sessions map[string]id.LearnerID

func (s sessions) ValidateSession(_ context.Context, token string) (id.LearnerID, error) {
	if learnerID, ok := s[token]; ok {
		return learnerID, nil
	}
	return id.LearnerID{}, errors.New("bad token")
}

type admins map[id.LearnerID]bool

func (a admins) RequireAdmin(_ context.Context, learnerID id.LearnerID) error {
	if a[learnerID] {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "admin access required")
}

type fixture struct {
	router  http.Handler
	learner id.LearnerID
	admin   id.LearnerID
	ready   error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{learner: id.NewLearnerID(), admin: id.NewLearnerID()}
	reg := metrics.NewRegistry()

	f.router = NewRouter(Deps{
		Logger:      logger.Discard(),
		Registry:    reg,
		HTTPMetrics: metrics.New(reg),
		Sessions:    sessions{"learner-token": f.learner, "admin-token": f.admin},
		Admins:      admins{f.admin: true},
		Limiter:     rateLimitMiddleware.New(rateLimitStore.NewMemory(), logger.Discard()),
		Contact:     rateLimitMiddleware.Policy{Scope: "contact", Limit: 2, Window: time.Minute},
		Ready:       func(context.Context) error { return f.ready },
		Files: http.StripPrefix("/files/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(r.URL.Path))
		})),

		Catalog: routes{
			public: func(r chi.Router) { r.Get("/api/programs", echoLearner) },
			admin:  func(r chi.Router) { r.Get("/programs", echoLearner) },
		},
		Certificates: routes{
			public: func(r chi.Router) { r.Get("/certificate/verify/{code}", echoLearner) },
			admin:  func(r chi.Router) { r.Post("/certificates/issue", echoLearner) },
		},
		Enrollments: routes{admin: func(r chi.Router) { r.Get("/enrollments", echoLearner) }},
		Checkout:    routes{public: func(r chi.Router) { r.Post("/checkout", echoLearner) }},
		ContactForm: routes{public: func(r chi.Router) { r.Post("/contact", echoLearner) }},
		Dashboard:   routes{public: func(r chi.Router) { r.Get("/dashboard", echoLearner) }},
		Webhook:     routes{public: func(r chi.Router) { r.Post("/webhooks/stripe", echoLearner) }},
	})
	return f
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRouterProbes(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/readyz"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	f.ready = errors.New("database: connection refused")
	rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/readyz"))
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	testutil.AssertJSONContains(t, rr, "status", "unavailable")

	rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), "sparkfish_http_requests_total")
}

func TestRouterPublicRoutes(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/programs"},
		{http.MethodGet, "/certificate/verify/ABCD1234"},
		{http.MethodPost, "/webhooks/stripe"},
	} {
		t.Run(tc.path, func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.NewRequest(t, tc.method, tc.path))
			testutil.AssertStatus(t, rr, http.StatusOK)
		})
	}

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/files/certificates/ABCD1234.pdf"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "certificates/ABCD1234.pdf", rr.Body.String())

	rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/nope"))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestRouterCheckoutRedirectsAnonymousBrowsers(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodPost, "/checkout"))
	testutil.AssertRedirect(t, rr, "/signin?next=%2Fcheckout")

	rr = testutil.DoRequest(f.router, bearer(testutil.NewRequest(t, http.MethodPost, "/checkout"), "learner-token"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "learner_id", f.learner.String())
}

func TestRouterDashboardRequiresSession(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/api/dashboard"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	req := testutil.NewRequest(t, http.MethodGet, "/api/dashboard")
	req.AddCookie(&http.Cookie{Name: "sparkfish_session", Value: "learner-token"})
	rr = testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "learner_id", f.learner.String())
}

func TestRouterAdminRoutes(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/admin/programs"},
		{http.MethodGet, "/api/admin/enrollments"},
		{http.MethodPost, "/api/admin/certificates/issue"},
	} {
		t.Run(tc.path, func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.NewRequest(t, tc.method, tc.path))
			testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

			rr = testutil.DoRequest(f.router, bearer(testutil.NewRequest(t, tc.method, tc.path), "learner-token"))
			testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

			rr = testutil.DoRequest(f.router, bearer(testutil.NewRequest(t, tc.method, tc.path), "admin-token"))
			testutil.AssertStatus(t, rr, http.StatusOK)
		})
	}
}

func TestRouterContactIsRateLimited(t *testing.T) {
	f := newFixture(t)

	send := func() int {
		req := testutil.NewRequest(t, http.MethodPost, "/api/contact")
		req.RemoteAddr = "203.0.113.7:5000"
		return testutil.DoRequest(f.router, req).Code
	}
	require.Equal(t, http.StatusOK, send())
	require.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}
