//go:build e2e

package webhook

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Request(method, path string, body []byte, headers map[string]string) error
	WebhookSecret() string
}

// RegisterSteps registers payment processor webhook steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &webhookSteps{tc: tc}

	ctx.Step(`^the payment processor sends an unsigned "([^"]*)" event$`, steps.sendUnsigned)
	ctx.Step(`^the payment processor sends a signed "([^"]*)" event$`, steps.sendSignedType)
	ctx.Step(`^the payment processor sends a signed completed checkout for an unknown cohort$`, steps.sendUnknownCohort)
	ctx.Step(`^the payment processor sends a signed completed checkout without metadata$`, steps.sendWithoutMetadata)
}

type webhookSteps struct {
	tc TestContext
}

func event(eventType string, metadata map[string]string) ([]byte, error) {
	return json.Marshal(map[string]any{
		"id":          "evt_e2e_" + uuid.NewString()[:8],
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"data": map[string]any{
			"object": map[string]any{
				"id":             "cs_e2e_" + uuid.NewString()[:8],
				"object":         "checkout.session",
				"payment_status": "paid",
				"metadata":       metadata,
			},
		},
	})
}

func (s *webhookSteps) post(payload []byte, signature string) error {
	headers := map[string]string{"Content-Type": "application/json"}
	if signature != "" {
		headers["Stripe-Signature"] = signature
	}
	return s.tc.Request(http.MethodPost, "/webhooks/stripe", payload, headers)
}

func (s *webhookSteps) sign(payload []byte) string {
	return stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload: payload,
		Secret:  s.tc.WebhookSecret(),
	}).Header
}

func (s *webhookSteps) sendUnsigned(_ context.Context, eventType string) error {
	payload, err := event(eventType, nil)
	if err != nil {
		return err
	}
	return s.post(payload, "")
}

func (s *webhookSteps) sendSignedType(_ context.Context, eventType string) error {
	payload, err := event(eventType, nil)
	if err != nil {
		return err
	}
	return s.post(payload, s.sign(payload))
}

func (s *webhookSteps) sendUnknownCohort(context.Context) error {
	payload, err := event("checkout.session.completed", map[string]string{
		"learner_id": uuid.NewString(),
		"cohort_id":  uuid.NewString(),
	})
	if err != nil {
		return err
	}
	return s.post(payload, s.sign(payload))
}

func (s *webhookSteps) sendWithoutMetadata(context.Context) error {
	payload, err := event("checkout.session.completed", map[string]string{})
	if err != nil {
		return err
	}
	return s.post(payload, s.sign(payload))
}
