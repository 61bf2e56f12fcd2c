package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sparkfish/internal/enrollment/models"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/httputil"
	"sparkfish/pkg/requestcontext"
)

const maxListLimit = 500

// Service is the enrollment surface the admin console needs.
type Service interface {
	List(ctx context.Context, filter models.ListFilter) ([]*models.Enrollment, error)
	Get(ctx context.Context, enrollmentID id.EnrollmentID) (*models.Enrollment, error)
	Cancel(ctx context.Context, enrollmentID id.EnrollmentID) (*models.Enrollment, error)
	Complete(ctx context.Context, enrollmentID id.EnrollmentID) (*models.Enrollment, error)
	AssignTrack(ctx context.Context, enrollmentID id.EnrollmentID, trackID *id.TrackID) (*models.Enrollment, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterAdmin mounts enrollment management. The caller applies admin middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/enrollments", h.handleList)
	r.Get("/enrollments/{id}", h.handleGet)
	r.Post("/enrollments/{id}/cancel", h.handleCancel)
	r.Post("/enrollments/{id}/complete", h.handleComplete)
	r.Put("/enrollments/{id}/track", h.handleAssignTrack)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ListFilter{Status: models.Status(q.Get("status")), Limit: 100}
	if raw := q.Get("cohort_id"); raw != "" {
		cohortID, err := id.ParseCohortID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.CohortID = &cohortID
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 500"))
			return
		}
		filter.Limit = n
	}

	list, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "failed to list enrollments", err)
		return
	}
	if list == nil {
		list = []*models.Enrollment{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"enrollments": list})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := id.ParseEnrollmentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	e, err := h.svc.Get(r.Context(), enrollmentID)
	if err != nil {
		h.fail(w, r, "failed to load enrollment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel", h.svc.Cancel)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "complete", h.svc.Complete)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, action string,
	fn func(context.Context, id.EnrollmentID) (*models.Enrollment, error),
) {
	enrollmentID, err := id.ParseEnrollmentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	e, err := fn(r.Context(), enrollmentID)
	if err != nil {
		h.fail(w, r, "failed to "+action+" enrollment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

type assignTrackRequest struct {
	TrackID *string `json:"track_id"`
}

func (h *Handler) handleAssignTrack(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := id.ParseEnrollmentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req assignTrackRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	var trackID *id.TrackID
	if req.TrackID != nil && *req.TrackID != "" {
		parsed, err := id.ParseTrackID(*req.TrackID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		trackID = &parsed
	}
	e, err := h.svc.AssignTrack(r.Context(), enrollmentID, trackID)
	if err != nil {
		h.fail(w, r, "failed to assign track", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}
