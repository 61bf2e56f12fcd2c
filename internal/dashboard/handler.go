package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/httputil"
	"sparkfish/pkg/requestcontext"
)

type Viewer interface {
	Overview(ctx context.Context, learnerID id.LearnerID) (*Overview, error)
}

type Handler struct {
	svc    Viewer
	logger *slog.Logger
}

func NewHandler(svc Viewer, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the dashboard. The caller applies session middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/dashboard", h.handleOverview)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.svc.Overview(ctx, requestcontext.LearnerID(ctx))
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "failed to load dashboard", "error", err, "request_id", requestcontext.RequestID(ctx))
		}
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, out)
}
