package notification

import "context"

type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is a rendered plain-text email.
type Message struct {
	To       Address
	ReplyTo  *Address
	Subject  string
	Text     string
	Category string
}

// Mailer delivers one message. Implementations must honour ctx.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// RegistrationNotice confirms a new enrollment. Email must be resolved from
// the identity directory at send time, never from a cached profile copy.
type RegistrationNotice struct {
	LearnerName  string
	Email        string
	ProgramTitle string
	CohortTitle  string
	MeetingURL   string
}

type CertificateNotice struct {
	LearnerName  string
	Email        string
	ProgramTitle string
	Code         string
}

// Inquiry is a contact-form submission routed to the team inbox.
type Inquiry struct {
	Name          string
	Email         string
	Organization  string
	Track         string
	Message       string
	SubmittedFrom string
}
