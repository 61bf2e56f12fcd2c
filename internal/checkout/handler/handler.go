package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"sparkfish/internal/checkout/models"
	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/httputil"
	"sparkfish/pkg/requestcontext"
)

const maxFormBody = 16 << 10

type Service interface {
	Initiate(ctx context.Context, learnerID id.LearnerID, cohortID id.CohortID) (*models.Result, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the checkout form target. The caller applies session middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/checkout", h.handleCheckout)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}
	rawCohort := strings.TrimSpace(r.PostForm.Get("cohort_id"))
	if rawCohort == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "missing cohort_id"))
		return
	}

	learnerID := requestcontext.LearnerID(ctx)
	if learnerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "sign in required"))
		return
	}
	// The learner always comes from the session. A form naming someone else
	// is refused outright.
	for _, field := range []string{"learner_id", "user_id"} {
		if claimed := strings.TrimSpace(r.PostForm.Get(field)); claimed != "" && claimed != learnerID.String() {
			h.logger.WarnContext(ctx, "checkout form learner does not match session",
				"request_id", requestcontext.RequestID(ctx))
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "cannot check out for another learner"))
			return
		}
	}

	cohortID, err := id.ParseCohortID(rawCohort)
	if err != nil {
		redirect(w, r, checkoutPage(rawCohort, "error", "not-found"))
		return
	}

	res, err := h.svc.Initiate(ctx, learnerID, cohortID)
	if err != nil {
		switch dErrors.CodeOf(err) {
		case dErrors.CodeNotFound, dErrors.CodeValidation:
			redirect(w, r, checkoutPage(rawCohort, "error", "not-found"))
		case dErrors.CodeUnauthorized, dErrors.CodeForbidden:
			httputil.WriteError(w, err)
		default:
			h.logger.ErrorContext(ctx, "checkout failed", "error", err, "request_id", requestcontext.RequestID(ctx))
			redirect(w, r, checkoutPage(rawCohort, "error", "unavailable"))
		}
		return
	}

	switch res.Kind {
	case models.KindRedirect:
		redirect(w, r, res.RedirectURL)
	case models.KindCohortFull:
		redirect(w, r, checkoutPage(rawCohort, "error", "full"))
	case models.KindAlreadyEnrolled:
		redirect(w, r, "/dashboard?message=already-enrolled")
	case models.KindBypassed:
		redirect(w, r, "/dashboard?message=payment-bypassed")
	default:
		redirect(w, r, checkoutPage(rawCohort, "error", "unavailable"))
	}
}

func checkoutPage(cohort, key, value string) string {
	return "/checkout?cohort=" + url.QueryEscape(cohort) + "&" + key + "=" + value
}

func redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}
