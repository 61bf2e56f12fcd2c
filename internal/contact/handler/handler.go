package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sparkfish/internal/contact/models"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/httputil"
	"sparkfish/pkg/requestcontext"
)

const maxBody = 32 << 10

type Service interface {
	Submit(ctx context.Context, sub models.Submission) error
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the contact form endpoint. The caller applies rate limiting.
func (h *Handler) Register(r chi.Router) {
	r.Post("/contact", h.handleSubmit)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	var sub models.Submission
	if err := httputil.DecodeJSON(r, &sub); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.Submit(ctx, sub); err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeValidation {
			h.logger.InfoContext(ctx, "contact submission rejected", "error", err, "request_id", requestcontext.RequestID(ctx))
		} else {
			h.logger.ErrorContext(ctx, "failed to forward contact submission", "error", err, "request_id", requestcontext.RequestID(ctx))
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
