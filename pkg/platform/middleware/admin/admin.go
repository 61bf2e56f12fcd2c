package admin

import (
	"context"
	"log/slog"
	"net/http"

	id "sparkfish/pkg/domain"
	"sparkfish/pkg/platform/httputil"
	"sparkfish/pkg/requestcontext"
)

// Authorizer decides whether a learner may use the admin console.
type Authorizer interface {
	RequireAdmin(ctx context.Context, learnerID id.LearnerID) error
}

// RequireAdmin must run after session middleware. Non-admins get 403,
// requests without a learner get 401.
func RequireAdmin(authz Authorizer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if err := authz.RequireAdmin(ctx, requestcontext.LearnerID(ctx)); err != nil {
				logger.WarnContext(ctx, "admin access denied",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
