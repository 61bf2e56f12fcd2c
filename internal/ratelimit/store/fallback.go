package store

import (
	"context"
	"log/slog"
	"time"

	"sparkfish/internal/ratelimit/models"
	"sparkfish/pkg/platform/circuit"
)

// Counter is a fixed-window hit counter.
type Counter interface {
	Allow(ctx context.Context, key string, limit int, ttl time.Duration) (*models.Result, error)
}

// Fallback answers from secondary while primary keeps failing. The primary is
// still probed on every call so the breaker can close once it recovers.
type Fallback struct {
	primary   Counter
	secondary Counter
	breaker   *circuit.Breaker
	logger    *slog.Logger
}

func NewFallback(primary, secondary Counter, breaker *circuit.Breaker, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		breaker:   breaker,
		logger:    logger,
	}
}

func (f *Fallback) Allow(ctx context.Context, key string, limit int, ttl time.Duration) (*models.Result, error) {
	res, err := f.primary.Allow(ctx, key, limit, ttl)
	if err != nil {
		useFallback, change := f.breaker.RecordFailure()
		if change.Opened {
			f.logger.WarnContext(ctx, "rate limit store unavailable, using in-process counter",
				"breaker", f.breaker.Name(), "error", err)
		}
		if !useFallback {
			return nil, err
		}
		return f.degraded(ctx, key, limit, ttl)
	}

	usePrimary, change := f.breaker.RecordSuccess()
	if change.Closed {
		f.logger.InfoContext(ctx, "rate limit store recovered", "breaker", f.breaker.Name())
	}
	if usePrimary {
		return res, nil
	}
	return f.degraded(ctx, key, limit, ttl)
}

func (f *Fallback) degraded(ctx context.Context, key string, limit int, ttl time.Duration) (*models.Result, error) {
	res, err := f.secondary.Allow(ctx, key, limit, ttl)
	if err != nil {
		return nil, err
	}
	res.Degraded = true
	return res, nil
}
