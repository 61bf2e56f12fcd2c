// Package notification renders and delivers transactional email. Delivery is
// best-effort for enrollment and certificate notices: callers go through
// AsyncDispatcher, which logs and counts failures instead of returning them.
package notification

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"sparkfish/pkg/email"
)

const (
	CategoryRegistration = "registration"
	CategoryCertificate  = "certificate"
	CategoryContact      = "contact"
)

// ErrNoRecipient is returned when a notice has no resolvable address.
var ErrNoRecipient = errors.New("notification: recipient email is required")

//go:embed templates/*.txt
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.txt"))

// Dispatcher renders notices and hands them to a Mailer synchronously.
type Dispatcher struct {
	mailer  Mailer
	baseURL string
	inbox   Address
	metrics *Metrics
}

type Option func(*Dispatcher)

func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher builds a dispatcher. baseURL prefixes dashboard and
// verification links; inbox receives contact inquiries.
func NewDispatcher(mailer Mailer, baseURL, inbox string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		inbox:   Address{Email: inbox, Name: "Sparkfish"},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// VerifyURL is the public verification link for a certificate code.
func (d *Dispatcher) VerifyURL(code string) string {
	return d.baseURL + "/certificate/verify/" + code
}

func (d *Dispatcher) RegistrationConfirmed(ctx context.Context, n RegistrationNotice) error {
	if n.Email == "" {
		return ErrNoRecipient
	}
	text, err := render("registration.txt", map[string]string{
		"Name":         email.GreetingName(n.LearnerName, n.Email),
		"Program":      n.ProgramTitle,
		"Cohort":       n.CohortTitle,
		"DashboardURL": d.baseURL + "/dashboard",
		"MeetingURL":   n.MeetingURL,
	})
	if err != nil {
		return err
	}
	return d.send(ctx, Message{
		To:       Address{Email: n.Email, Name: n.LearnerName},
		Subject:  "You're Enrolled: " + n.ProgramTitle,
		Text:     text,
		Category: CategoryRegistration,
	})
}

func (d *Dispatcher) CertificateReady(ctx context.Context, n CertificateNotice) error {
	if n.Email == "" {
		return ErrNoRecipient
	}
	text, err := render("certificate.txt", map[string]string{
		"Name":      email.GreetingName(n.LearnerName, n.Email),
		"Program":   n.ProgramTitle,
		"VerifyURL": d.VerifyURL(n.Code),
	})
	if err != nil {
		return err
	}
	return d.send(ctx, Message{
		To:       Address{Email: n.Email, Name: n.LearnerName},
		Subject:  fmt.Sprintf("Your Certificate for %s is Ready", n.ProgramTitle),
		Text:     text,
		Category: CategoryCertificate,
	})
}

// ContactInquiry forwards a contact-form submission to the team inbox with
// the sender as reply-to.
func (d *Dispatcher) ContactInquiry(ctx context.Context, in Inquiry) error {
	text, err := render("contact.txt", in)
	if err != nil {
		return err
	}
	return d.send(ctx, Message{
		To:       d.inbox,
		ReplyTo:  &Address{Email: in.Email, Name: in.Name},
		Subject:  "New Sparkfish Inquiry from " + in.Name,
		Text:     text,
		Category: CategoryContact,
	})
}

func (d *Dispatcher) send(ctx context.Context, msg Message) error {
	if err := d.mailer.Send(ctx, msg); err != nil {
		d.metrics.IncrementFailed(msg.Category)
		return fmt.Errorf("send %s email: %w", msg.Category, err)
	}
	d.metrics.IncrementSent(msg.Category)
	return nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
