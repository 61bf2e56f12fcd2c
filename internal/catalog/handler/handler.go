package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sparkfish/internal/catalog/models"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/httputil"
	"sparkfish/pkg/requestcontext"
)

// Service is the catalog surface the HTTP layer needs.
type Service interface {
	ListActivePrograms(ctx context.Context) ([]*models.Program, error)
	GetProgramBySlug(ctx context.Context, slug string) (*models.ProgramDetail, error)
	ListPrograms(ctx context.Context) ([]*models.Program, error)
	CreateProgram(ctx context.Context, req *models.CreateProgramRequest) (*models.Program, error)
	UpdateProgram(ctx context.Context, programID id.ProgramID, req *models.UpdateProgramRequest) (*models.Program, error)
	ListCohorts(ctx context.Context, programID *id.ProgramID) ([]*models.Cohort, error)
	CreateCohort(ctx context.Context, req *models.CreateCohortRequest) (*models.Cohort, error)
	UpdateCohort(ctx context.Context, cohortID id.CohortID, req *models.UpdateCohortRequest) (*models.Cohort, error)
	ListTracks(ctx context.Context) ([]*models.Track, error)
	CreateTrack(ctx context.Context, req *models.CreateTrackRequest) (*models.Track, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the public catalog.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/programs", h.handleListActivePrograms)
	r.Get("/api/programs/{slug}", h.handleGetProgram)
	r.Get("/api/tracks", h.handleListTracks)
}

// RegisterAdmin mounts catalog management. The caller applies admin middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/programs", h.handleAdminListPrograms)
	r.Post("/programs", h.handleCreateProgram)
	r.Patch("/programs/{id}", h.handleUpdateProgram)
	r.Get("/cohorts", h.handleListCohorts)
	r.Post("/cohorts", h.handleCreateCohort)
	r.Patch("/cohorts/{id}", h.handleUpdateCohort)
	r.Post("/tracks", h.handleCreateTrack)
}

func (h *Handler) handleListActivePrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := h.svc.ListActivePrograms(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list programs", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"programs": programs})
}

func (h *Handler) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetProgramBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, "failed to load program", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.svc.ListTracks(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list tracks", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

func (h *Handler) handleAdminListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := h.svc.ListPrograms(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list programs", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"programs": programs})
}

func (h *Handler) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProgramRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.svc.CreateProgram(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "failed to create program", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleUpdateProgram(w http.ResponseWriter, r *http.Request) {
	programID, err := id.ParseProgramID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.UpdateProgramRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.svc.UpdateProgram(r.Context(), programID, &req)
	if err != nil {
		h.fail(w, r, "failed to update program", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// adminCohort exposes the meeting URL, which the public cohort JSON hides.
type adminCohort struct {
	*models.Cohort
	MeetingURL string `json:"meeting_url"`
}

func (h *Handler) handleListCohorts(w http.ResponseWriter, r *http.Request) {
	var programID *id.ProgramID
	if raw := r.URL.Query().Get("program_id"); raw != "" {
		parsed, err := id.ParseProgramID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		programID = &parsed
	}
	cohorts, err := h.svc.ListCohorts(r.Context(), programID)
	if err != nil {
		h.fail(w, r, "failed to list cohorts", err)
		return
	}
	out := make([]adminCohort, 0, len(cohorts))
	for _, c := range cohorts {
		out = append(out, adminCohort{Cohort: c, MeetingURL: c.MeetingURL})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"cohorts": out})
}

func (h *Handler) handleCreateCohort(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCohortRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.svc.CreateCohort(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "failed to create cohort", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, adminCohort{Cohort: c, MeetingURL: c.MeetingURL})
}

func (h *Handler) handleUpdateCohort(w http.ResponseWriter, r *http.Request) {
	cohortID, err := id.ParseCohortID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.UpdateCohortRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.svc.UpdateCohort(r.Context(), cohortID, &req)
	if err != nil {
		h.fail(w, r, "failed to update cohort", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, adminCohort{Cohort: c, MeetingURL: c.MeetingURL})
}

func (h *Handler) handleCreateTrack(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTrackRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	t, err := h.svc.CreateTrack(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "failed to create track", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, t)
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
