// Package stripe adapts Stripe Checkout to the payment processor port.
package stripe

import (
	"context"
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v82"

	"sparkfish/internal/payment"
)

// maxListed bounds one reconciliation listing.
const maxListed = 1000

type Client struct {
	sc *stripeapi.Client
}

func New(secretKey string) *Client {
	return &Client{sc: stripeapi.NewClient(secretKey)}
}

// NewWithBackends points the client at custom backends, e.g. stripe-mock.
func NewWithBackends(secretKey string, backends *stripeapi.Backends) *Client {
	return &Client{sc: stripeapi.NewClient(secretKey, stripeapi.WithBackends(backends))}
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	params := &stripeapi.CheckoutSessionCreateParams{
		Mode: stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		LineItems: []*stripeapi.CheckoutSessionCreateLineItemParams{{
			Price:    stripeapi.String(req.PriceID),
			Quantity: stripeapi.Int64(1),
		}},
		ClientReferenceID: stripeapi.String(req.LearnerID.String()),
		SuccessURL:        stripeapi.String(req.SuccessURL),
		CancelURL:         stripeapi.String(req.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripeapi.String(req.CustomerEmail)
	}
	params.AddMetadata(payment.MetadataCohortID, req.CohortID.String())
	params.AddMetadata(payment.MetadataLearnerID, req.LearnerID.String())

	s, err := c.sc.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &payment.Session{ID: s.ID, URL: s.URL}, nil
}

// ListCompletedSessions pages through complete sessions created since the
// given time, newest first.
func (c *Client) ListCompletedSessions(ctx context.Context, since time.Time) ([]payment.CompletedSession, error) {
	params := &stripeapi.CheckoutSessionListParams{
		Status:       stripeapi.String(string(stripeapi.CheckoutSessionStatusComplete)),
		CreatedRange: &stripeapi.RangeQueryParams{GreaterThanOrEqual: since.Unix()},
	}
	params.Limit = stripeapi.Int64(100)

	var out []payment.CompletedSession
	for s, err := range c.sc.V1CheckoutSessions.List(ctx, params) {
		if err != nil {
			return nil, fmt.Errorf("list checkout sessions: %w", err)
		}
		out = append(out, Completed(s))
		if len(out) >= maxListed {
			break
		}
	}
	return out, nil
}

// Completed maps a Stripe session onto the port type.
func Completed(s *stripeapi.CheckoutSession) payment.CompletedSession {
	return payment.CompletedSession{
		ID:        s.ID,
		LearnerID: s.Metadata[payment.MetadataLearnerID],
		CohortID:  s.Metadata[payment.MetadataCohortID],
		Paid:      IsPaid(s.PaymentStatus),
		CreatedAt: time.Unix(s.Created, 0).UTC(),
	}
}

// IsPaid treats free (no_payment_required) sessions as paid.
func IsPaid(status stripeapi.CheckoutSessionPaymentStatus) bool {
	return status == stripeapi.CheckoutSessionPaymentStatusPaid ||
		status == stripeapi.CheckoutSessionPaymentStatusNoPaymentRequired
}
