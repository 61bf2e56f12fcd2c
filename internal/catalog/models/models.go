package models

import (
	"time"

	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
)

// ProgramType is the catalog format of a program.
type ProgramType string

const (
	ProgramTypeShortIntensive ProgramType = "short_intensive"
	ProgramTypeMediumTerm     ProgramType = "medium_term"
	ProgramTypeLongTerm       ProgramType = "long_term"
)

func (t ProgramType) IsValid() bool {
	switch t {
	case ProgramTypeShortIntensive, ProgramTypeMediumTerm, ProgramTypeLongTerm:
		return true
	}
	return false
}

// Label is the human-readable program format.
func (t ProgramType) Label() string {
	switch t {
	case ProgramTypeShortIntensive:
		return "Short Intensive"
	case ProgramTypeMediumTerm:
		return "Medium-Term Program"
	case ProgramTypeLongTerm:
		return "Long-Term Program"
	}
	return string(t)
}

type Program struct {
	ID            id.ProgramID `json:"id"`
	Slug          string       `json:"slug"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Type          ProgramType  `json:"type"`
	Active        bool         `json:"active"`
	PaymentPlanID *string      `json:"payment_plan_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// RequiresPayment is false for programs without a configured price; those
// enroll through the bypass path.
func (p *Program) RequiresPayment() bool {
	return p.PaymentPlanID != nil && *p.PaymentPlanID != ""
}

type Cohort struct {
	ID           id.CohortID  `json:"id"`
	ProgramID    id.ProgramID `json:"program_id"`
	Title        string       `json:"title"`
	StartDate    time.Time    `json:"start_date"`
	ScheduleText string       `json:"schedule_text"`
	SeatLimit    int          `json:"seat_limit"`
	SeatsTaken   int          `json:"seats_taken"`
	MeetingURL   string       `json:"-"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewCohort enforces the seat invariants at construction.
func NewCohort(cohortID id.CohortID, programID id.ProgramID, title string, start time.Time, seatLimit int) (*Cohort, error) {
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "cohort title is required")
	}
	if seatLimit <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "seat limit must be positive")
	}
	return &Cohort{
		ID:        cohortID,
		ProgramID: programID,
		Title:     title,
		StartDate: start,
		SeatLimit: seatLimit,
		Active:    true,
	}, nil
}

func (c *Cohort) HasCapacity() bool {
	return c.SeatsTaken < c.SeatLimit
}

func (c *Cohort) SeatsRemaining() int {
	if n := c.SeatLimit - c.SeatsTaken; n > 0 {
		return n
	}
	return 0
}

// Open reports whether new enrollments may be taken.
func (c *Cohort) Open() bool {
	return c.Active && c.HasCapacity()
}

type Track struct {
	ID          id.TrackID `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
}

// ProgramDetail is a program with its cohorts, for the public catalog.
type ProgramDetail struct {
	Program *Program      `json:"program"`
	Cohorts []*CohortView `json:"cohorts"`
}

// CohortView is the public shape of a cohort; the meeting URL stays private.
type CohortView struct {
	*Cohort
	SeatsRemaining int `json:"seats_remaining"`
}

func NewCohortView(c *Cohort) *CohortView {
	return &CohortView{Cohort: c, SeatsRemaining: c.SeatsRemaining()}
}
