//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"sparkfish/internal/app"
	"sparkfish/internal/platform/config"
	"sparkfish/internal/platform/logger"
	id "sparkfish/pkg/domain"
)

const (
	webhookSecret = "whsec_e2e"
	signingKey    = "e2e-session-signing-key-0123456789abcdef"
)

// TestContext runs one in-memory server per scenario and remembers the last
// response for assertions.
type TestContext struct {
	app    *app.App
	server *httptest.Server
	client *http.Client

	clientIP   string
	session    string
	lastStatus int
	lastBody   []byte
	lastHeader http.Header
}

func newTestContext(ctx context.Context) (*TestContext, error) {
	cfg := config.Config{
		Server: config.Server{
			Addr:              ":0",
			BaseURL:           "http://sparkfish.test",
			SessionSigningKey: signingKey,
			ShutdownTimeout:   5 * time.Second,
		},
		Stripe:      config.StripeConfig{WebhookSecret: webhookSecret},
		Contact:     config.ContactConfig{Inbox: "hello@sparkfish.test", RateLimit: 3, Window: time.Minute},
		Reconcile:   config.ReconcileConfig{Lookback: time.Hour, Concurrency: 1},
		ServiceName: "sparkfish-e2e",
	}
	a, err := app.New(ctx, cfg, logger.Discard())
	if err != nil {
		return nil, err
	}
	return &TestContext{
		app:    a,
		server: httptest.NewServer(a.Handler()),
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		clientIP: "198.51.100.10",
	}, nil
}

func (tc *TestContext) close(ctx context.Context) error {
	tc.server.Close()
	return tc.app.Close(ctx)
}

func (tc *TestContext) Request(method, path string, body []byte, headers map[string]string) error {
	req, err := http.NewRequest(method, tc.server.URL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("X-Forwarded-For", tc.clientIP)
	if tc.session != "" {
		req.Header.Set("Authorization", "Bearer "+tc.session)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastStatus = resp.StatusCode
	tc.lastHeader = resp.Header
	return nil
}

func (tc *TestContext) GET(path string) error {
	return tc.Request(http.MethodGet, path, nil, map[string]string{"Accept": "application/json"})
}

func (tc *TestContext) POST(path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tc.Request(http.MethodPost, path, raw, map[string]string{"Content-Type": "application/json"})
}

func (tc *TestContext) SetClientIP(ip string) {
	tc.clientIP = ip
}

// SignIn mints a session for a fresh learner.
func (tc *TestContext) SignIn() error {
	token, err := tc.app.Tokens.Issue(id.NewLearnerID(), "learner@sparkfish.test", time.Hour)
	if err != nil {
		return err
	}
	tc.session = token
	return nil
}

func (tc *TestContext) WebhookSecret() string {
	return webhookSecret
}

func (tc *TestContext) LastStatus() int {
	return tc.lastStatus
}

func (tc *TestContext) LastBody() []byte {
	return tc.lastBody
}

func (tc *TestContext) LastHeader(name string) string {
	return tc.lastHeader.Get(name)
}

func (tc *TestContext) ResponseField(field string) (any, error) {
	var body map[string]any
	if err := json.Unmarshal(tc.lastBody, &body); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w (body %s)", err, tc.lastBody)
	}
	v, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("field %q missing from %s", field, tc.lastBody)
	}
	return v, nil
}
