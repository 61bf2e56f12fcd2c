package stripe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparkfish/internal/payment"
	id "sparkfish/pkg/domain"
)

type fakeStripe struct {
	mu   sync.Mutex
	form url.Values
	body string
}

func (f *fakeStripe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.form, _ = url.ParseQuery(string(raw))
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, f.body)
}

func newTestClient(t *testing.T, fake *fakeStripe) *Client {
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	backend := stripeapi.GetBackendWithConfig(stripeapi.APIBackend, &stripeapi.BackendConfig{
		URL:               stripeapi.String(srv.URL),
		MaxNetworkRetries: stripeapi.Int64(0),
	})
	return NewWithBackends("sk_test_123", &stripeapi.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestCreateCheckoutSession(t *testing.T) {
	fake := &fakeStripe{body: `{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`}
	c := newTestClient(t, fake)
	learnerID := id.NewLearnerID()
	cohortID := id.NewCohortID()

	s, err := c.CreateCheckoutSession(context.Background(), payment.CheckoutRequest{
		LearnerID:  learnerID,
		CohortID:   cohortID,
		PriceID:    "price_123",
		SuccessURL: "https://sparkfish.app/dashboard?success=true",
		CancelURL:  "https://sparkfish.app/checkout?cohort=" + cohortID.String() + "&canceled=true",
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", s.URL)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "payment", fake.form.Get("mode"))
	assert.Equal(t, "price_123", fake.form.Get("line_items[0][price]"))
	assert.Equal(t, learnerID.String(), fake.form.Get("client_reference_id"))
	assert.Equal(t, cohortID.String(), fake.form.Get("metadata[cohort_id]"))
	assert.Equal(t, learnerID.String(), fake.form.Get("metadata[learner_id]"))
	assert.Empty(t, fake.form.Get("customer_email"))
}

func TestCompleted(t *testing.T) {
	s := &stripeapi.CheckoutSession{
		ID:            "cs_test_2",
		Created:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Unix(),
		PaymentStatus: stripeapi.CheckoutSessionPaymentStatusNoPaymentRequired,
		Metadata:      map[string]string{payment.MetadataCohortID: "c", payment.MetadataLearnerID: "l"},
	}

	got := Completed(s)

	assert.Equal(t, payment.CompletedSession{
		ID: "cs_test_2", LearnerID: "l", CohortID: "c", Paid: true,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, got)
	assert.False(t, IsPaid(stripeapi.CheckoutSessionPaymentStatusUnpaid))
}
