package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sparkfish/pkg/requestcontext"
)

const defaultSendTimeout = 15 * time.Second

// AsyncDispatcher sends notices on background goroutines, detached from the
// caller's cancellation. Failures are logged, never returned.
type AsyncDispatcher struct {
	d       *Dispatcher
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsync wraps d. A zero timeout uses a 15s per-send deadline.
func NewAsync(d *Dispatcher, logger *slog.Logger, timeout time.Duration) *AsyncDispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &AsyncDispatcher{d: d, logger: logger, timeout: timeout}
}

func (a *AsyncDispatcher) RegistrationConfirmed(ctx context.Context, n RegistrationNotice) {
	a.dispatch(ctx, CategoryRegistration, func(ctx context.Context) error {
		return a.d.RegistrationConfirmed(ctx, n)
	})
}

func (a *AsyncDispatcher) CertificateReady(ctx context.Context, n CertificateNotice) {
	a.dispatch(ctx, CategoryCertificate, func(ctx context.Context) error {
		return a.d.CertificateReady(ctx, n)
	})
}

func (a *AsyncDispatcher) dispatch(ctx context.Context, category string, send func(context.Context) error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.logger.WarnContext(ctx, "notification dropped after shutdown", "category", category)
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer a.wg.Done()
		sendCtx, cancel := context.WithTimeout(detached, a.timeout)
		defer cancel()
		if err := send(sendCtx); err != nil {
			a.logger.ErrorContext(sendCtx, "notification failed",
				"category", category,
				"error", err,
				"request_id", requestcontext.RequestID(sendCtx),
			)
			return
		}
		a.logger.InfoContext(sendCtx, "notification sent", "category", category)
	}()
}

// Close stops accepting work and waits for in-flight sends or ctx expiry.
func (a *AsyncDispatcher) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
