package handler

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sparkfish/internal/certificate/models"
	"sparkfish/internal/certificate/render"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/httputil"
	"sparkfish/pkg/requestcontext"
)

//go:embed templates/verify.html
var templateFS embed.FS

var verifyPage = template.Must(template.New("verify.html").
	Funcs(template.FuncMap{
		"formatDate": func(t time.Time) string { return t.Format(render.DateLayout) },
	}).
	ParseFS(templateFS, "templates/verify.html"))

type Service interface {
	Issue(ctx context.Context, actor id.LearnerID, enrollmentID id.EnrollmentID) (*models.IssueResult, error)
	BackfillArtifact(ctx context.Context, actor id.LearnerID, code string) (*models.IssueResult, error)
	Verify(ctx context.Context, code string) (*models.Verification, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the public verification page.
func (h *Handler) Register(r chi.Router) {
	r.Get("/certificate/verify/{code}", h.handleVerify)
}

// RegisterAdmin mounts issuing. The caller applies session middleware; the
// service performs the admin check itself.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/certificates/issue", h.handleIssue)
	r.Post("/certificates/{code}/artifact", h.handleBackfill)
}

type issueRequest struct {
	EnrollmentID string `json:"enrollment_id"`
}

type issueResponse struct {
	Success bool    `json:"success"`
	Code    string  `json:"code"`
	PDFURL  *string `json:"pdf_url"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.EnrollmentID) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "missing enrollment_id"))
		return
	}
	enrollmentID, err := id.ParseEnrollmentID(req.EnrollmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.svc.Issue(r.Context(), requestcontext.LearnerID(r.Context()), enrollmentID)
	if err != nil {
		h.fail(w, r, "certificate issue failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issueResponse{Success: true, Code: res.Code, PDFURL: res.ArtifactURL})
}

func (h *Handler) handleBackfill(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.BackfillArtifact(r.Context(), requestcontext.LearnerID(r.Context()), chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, r, "certificate artifact backfill failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issueResponse{Success: true, Code: res.Code, PDFURL: res.ArtifactURL})
}

type verifyView struct {
	Code         string
	Verification *models.Verification
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	v, err := h.svc.Verify(r.Context(), code)
	status := http.StatusOK
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.fail(w, r, "certificate verification failed", err)
			return
		}
		status = http.StatusNotFound
		v = nil
	}

	if wantsJSON(r) {
		if status == http.StatusNotFound {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, status, v)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := verifyPage.Execute(w, verifyView{Code: code, Verification: v}); err != nil {
		h.logger.ErrorContext(r.Context(), "verify page render failed", "error", err)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
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
