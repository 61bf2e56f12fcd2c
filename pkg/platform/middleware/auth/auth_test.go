package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "sparkfish/pkg/domain"
	"sparkfish/pkg/requestcontext"
)

type stubValidator struct {
	learner id.LearnerID
	err     error
	seen    string
}

func (s *stubValidator) ValidateSession(_ context.Context, token string) (id.LearnerID, error) {
	s.seen = token
	return s.learner, s.err
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func echoLearner(got *id.LearnerID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = requestcontext.LearnerID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireSession(t *testing.T) {
	learner := id.NewLearnerID()

	t.Run("bearer token sets learner", func(t *testing.T) {
		v := &stubValidator{learner: learner}
		var got id.LearnerID
		h := RequireSession(v, discard())(echoLearner(&got))

		r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		r.Header.Set("Authorization", "Bearer tok-1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "tok-1", v.seen)
		assert.Equal(t, learner, got)
	})

	t.Run("cookie token is accepted", func(t *testing.T) {
		v := &stubValidator{learner: learner}
		var got id.LearnerID
		h := RequireSession(v, discard())(echoLearner(&got))

		r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-2"})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "tok-2", v.seen)
	})

	t.Run("missing token is 401", func(t *testing.T) {
		v := &stubValidator{learner: learner}
		var got id.LearnerID
		h := RequireSession(v, discard())(echoLearner(&got))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.True(t, got.IsNil())
	})

	t.Run("invalid token is 401", func(t *testing.T) {
		v := &stubValidator{err: errors.New("jwt: token signature is invalid: kid=rot-7")}
		var got id.LearnerID
		h := RequireSession(v, discard())(echoLearner(&got))

		r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		r.Header.Set("Authorization", "Bearer stale")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotContains(t, w.Body.String(), "kid=rot-7")
		assert.NotContains(t, w.Body.String(), "signature")
	})
}

func TestRequireSessionOrRedirect(t *testing.T) {
	v := &stubValidator{}
	var got id.LearnerID
	h := RequireSessionOrRedirect(v, discard(), "/signin")(echoLearner(&got))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/signin?next=%2Fcheckout", w.Header().Get("Location"))
}
