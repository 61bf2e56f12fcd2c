package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/httputil"
	"sparkfish/pkg/requestcontext"
)

// SessionCookie carries the session token for browser form posts.
const SessionCookie = "sparkfish_session"

// SessionValidator resolves a session token to the signed-in learner.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (id.LearnerID, error)
}

// RequireSession rejects requests without a valid session with a JSON 401.
func RequireSession(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireSession(validator, logger, func(w http.ResponseWriter, r *http.Request, desc string) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, desc))
	})
}

// RequireSessionOrRedirect sends anonymous browsers to signinPath with a
// next parameter pointing back at the original request.
func RequireSessionOrRedirect(validator SessionValidator, logger *slog.Logger, signinPath string) func(http.Handler) http.Handler {
	return requireSession(validator, logger, func(w http.ResponseWriter, r *http.Request, _ string) {
		target := signinPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

func requireSession(validator SessionValidator, logger *slog.Logger, reject func(http.ResponseWriter, *http.Request, string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token := sessionToken(r)
			if token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing session",
					"request_id", requestID,
				)
				reject(w, r, "Missing or invalid session")
				return
			}

			learnerID, err := validator.ValidateSession(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid session",
					"error", err,
					"request_id", requestID,
				)
				reject(w, r, "Invalid or expired session")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithLearnerID(ctx, learnerID)))
		})
	}
}

func sessionToken(r *http.Request) string {
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
