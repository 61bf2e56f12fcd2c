package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	enrollmentModels "sparkfish/internal/enrollment/models"
	"sparkfish/internal/payment"
	"sparkfish/internal/payment/metrics"
	stripeadapter "sparkfish/internal/payment/stripe"
	"sparkfish/pkg/platform/httputil"
	"sparkfish/pkg/requestcontext"
)

// MaxPayload bounds a webhook body. Stripe events are well under this.
const MaxPayload = 64 << 10

const signatureHeader = "Stripe-Signature"

type Fulfiller interface {
	Fulfill(ctx context.Context, req enrollmentModels.FulfillRequest) (*enrollmentModels.FulfillResult, error)
}

// WebhookHandler turns verified processor events into fulfillment calls.
type WebhookHandler struct {
	secret    string
	fulfiller Fulfiller
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewWebhookHandler(secret string, fulfiller Fulfiller, m *metrics.Metrics, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{secret: secret, fulfiller: fulfiller, metrics: m, logger: logger}
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/webhooks/stripe", h.handleWebhook)
}

type errorResponse struct {
	Error string `json:"error"`
}

type ackResponse struct {
	Received bool `json:"received"`
}

func (h *WebhookHandler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WarnContext(ctx, "webhook payload too large", "request_id", requestcontext.RequestID(ctx))
		}
		h.metrics.IncrementWebhook("unknown", "invalid_payload")
		httputil.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_payload"})
		return
	}

	// Nothing in the payload is looked at until the signature checks out.
	if h.secret == "" {
		h.logger.ErrorContext(ctx, "webhook secret not configured, rejecting event")
		h.metrics.IncrementWebhook("unknown", "invalid_signature")
		httputil.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_signature"})
		return
	}
	event, err := webhook.ConstructEventWithOptions(body, r.Header.Get(signatureHeader), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.logger.WarnContext(ctx, "webhook signature verification failed",
			"error", err, "request_id", requestcontext.RequestID(ctx))
		h.metrics.IncrementWebhook("unknown", "invalid_signature")
		httputil.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_signature"})
		return
	}

	eventType := string(event.Type)
	switch event.Type {
	case stripeapi.EventTypeCheckoutSessionCompleted, stripeapi.EventTypeCheckoutSessionAsyncPaymentSucceeded:
	default:
		h.metrics.IncrementWebhook(eventType, "ignored")
		h.ack(w)
		return
	}

	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.logger.WarnContext(ctx, "webhook session payload malformed", "event_id", event.ID, "error", err)
		h.metrics.IncrementWebhook(eventType, "bad_metadata")
		httputil.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_payload"})
		return
	}

	req, ok := fulfillRequest(stripeadapter.Completed(&session))
	if !ok {
		h.logger.ErrorContext(ctx, "webhook session missing correlation metadata",
			"session_id", session.ID, "event_id", event.ID)
		h.metrics.IncrementWebhook(eventType, "bad_metadata")
		httputil.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "missing_metadata"})
		return
	}
	if !stripeadapter.IsPaid(session.PaymentStatus) {
		// Delayed payment methods complete the session before the money
		// arrives; async_payment_succeeded follows.
		h.logger.InfoContext(ctx, "checkout completed without payment yet",
			"session_id", session.ID, "payment_status", session.PaymentStatus)
		h.metrics.IncrementWebhook(eventType, "unpaid")
		h.ack(w)
		return
	}

	res, err := h.fulfiller.Fulfill(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "fulfillment failed after verified payment, reconcile manually",
			"session_id", session.ID,
			"event_id", event.ID,
			"learner_id", req.LearnerID,
			"cohort_id", req.CohortID,
			"error", err,
		)
		h.metrics.IncrementWebhook(eventType, "fulfill_failed")
		h.ack(w)
		return
	}
	if res.Outcome == enrollmentModels.OutcomeAlreadyFulfilled {
		h.metrics.IncrementWebhook(eventType, "duplicate")
	} else {
		h.metrics.IncrementWebhook(eventType, "fulfilled")
	}
	h.ack(w)
}

func (h *WebhookHandler) ack(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusOK, ackResponse{Received: true})
}

func fulfillRequest(s payment.CompletedSession) (enrollmentModels.FulfillRequest, bool) {
	learnerID, cohortID, ok := s.Correlation()
	if !ok {
		return enrollmentModels.FulfillRequest{}, false
	}
	ref := s.ID
	return enrollmentModels.FulfillRequest{LearnerID: learnerID, CohortID: cohortID, PaymentRef: &ref}, true
}
