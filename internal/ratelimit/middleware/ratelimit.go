package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"sparkfish/internal/ratelimit/metrics"
	"sparkfish/internal/ratelimit/models"
	"sparkfish/pkg/platform/httputil"
	"sparkfish/pkg/requestcontext"
)

type Counter interface {
	Allow(ctx context.Context, key string, limit int, ttl time.Duration) (*models.Result, error)
}

// Policy is a fixed window applied per client address.
type Policy struct {
	Scope  string
	Limit  int
	Window time.Duration
}

type Middleware struct {
	counter  Counter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (local development).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

func New(counter Counter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		counter: counter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit rejects callers that exceed p with 429. Counter failures let the
// request through.
func (m *Middleware) Limit(p Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			result, err := m.counter.Allow(ctx, models.Key(p.Scope, requestcontext.ClientIP(ctx)), p.Limit, p.Window)
			if err != nil {
				m.metrics.IncrementDecision(p.Scope, "error")
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"scope", p.Scope, "error", err, "request_id", requestcontext.RequestID(ctx))
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)

			if !result.Allowed {
				m.metrics.IncrementDecision(p.Scope, "limited")
				writeRateLimitExceeded(w, result)
				return
			}

			m.metrics.IncrementDecision(p.Scope, "allowed")
			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	if result.Degraded {
		w.Header().Set("X-RateLimit-Status", "degraded")
	}
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "rate_limited",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
