package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mssola/useragent"

	"sparkfish/internal/contact/metrics"
	"sparkfish/internal/contact/models"
	"sparkfish/internal/events"
	"sparkfish/internal/notification"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/validation"
	"sparkfish/pkg/requestcontext"
)

// Dispatcher delivers the inquiry to the team inbox.
type Dispatcher interface {
	ContactInquiry(ctx context.Context, in notification.Inquiry) error
}

type Service struct {
	dispatcher Dispatcher
	publisher  events.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(dispatcher Dispatcher, opts ...Option) *Service {
	s := &Service{
		dispatcher: dispatcher,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type receivedEvent struct {
	Track         string `json:"track,omitempty"`
	HasOrg        bool   `json:"has_organization"`
	SubmittedFrom string `json:"submitted_from,omitempty"`
}

// Submit forwards a contact form submission to the inbox. Honeypot hits are
// accepted silently and never sent.
func (s *Service) Submit(ctx context.Context, sub models.Submission) error {
	if sub.IsSpam() {
		s.metrics.IncrementSubmission("spam")
		s.logger.InfoContext(ctx, "contact honeypot triggered", "request_id", requestcontext.RequestID(ctx))
		return nil
	}

	sub.Normalize()
	if err := validation.Struct(sub); err != nil {
		s.metrics.IncrementSubmission("invalid")
		return err
	}

	from := describeAgent(requestcontext.UserAgent(ctx))
	err := s.dispatcher.ContactInquiry(ctx, notification.Inquiry{
		Name:          sub.Name,
		Email:         sub.Email,
		Organization:  sub.Organization,
		Track:         sub.Track,
		Message:       sub.Message,
		SubmittedFrom: from,
	})
	if err != nil {
		s.metrics.IncrementSubmission("failed")
		return dErrors.Wrap(err, dErrors.CodeExternalService, "failed to send message")
	}
	s.metrics.IncrementSubmission("sent")

	s.publish(ctx, sub, from)
	return nil
}

func (s *Service) publish(ctx context.Context, sub models.Submission, from string) {
	if s.publisher == nil {
		return
	}
	// Key by a digest of the sender so events group per sender without the address.
	sum := sha256.Sum256([]byte(strings.ToLower(sub.Email)))
	event, err := events.New(events.TypeContactReceived, hex.EncodeToString(sum[:8]), receivedEvent{
		Track:         sub.Track,
		HasOrg:        sub.Organization != "",
		SubmittedFrom: from,
	}, requestcontext.Now(ctx))
	if err == nil {
		event.RequestID = requestcontext.RequestID(ctx)
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "event publish failed", "type", events.TypeContactReceived, "error", err)
	}
}

// describeAgent renders a short "Browser version on OS" line, or "" when the
// header is empty.
func describeAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		name, _ := ua.Browser()
		return "bot (" + name + ")"
	}
	name, version := ua.Browser()
	out := strings.TrimSpace(name + " " + version)
	if os := ua.OS(); os != "" {
		out = fmt.Sprintf("%s on %s", out, os)
	}
	if ua.Mobile() {
		out += " (mobile)"
	}
	return out
}
