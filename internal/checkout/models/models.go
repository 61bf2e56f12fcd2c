package models

// Kind is how a checkout attempt ended.
type Kind string

const (
	// KindRedirect sends the learner to the processor's hosted page.
	KindRedirect        Kind = "redirect"
	KindAlreadyEnrolled Kind = "already_enrolled"
	KindCohortFull      Kind = "cohort_full"
	// KindBypassed means the program needs no payment and the learner is
	// already enrolled.
	KindBypassed Kind = "bypassed"
)

type Result struct {
	Kind        Kind
	RedirectURL string
	SessionID   string
}
