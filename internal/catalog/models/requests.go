package models

import "strings"

type CreateProgramRequest struct {
	Slug          string      `json:"slug" validate:"required,max=80,slug"`
	Title         string      `json:"title" validate:"required,max=200"`
	Description   string      `json:"description" validate:"max=4000"`
	Type          ProgramType `json:"type" validate:"required,oneof=short_intensive medium_term long_term"`
	Active        *bool       `json:"active"`
	PaymentPlanID *string     `json:"payment_plan_id" validate:"omitempty,max=200"`
}

func (r *CreateProgramRequest) Normalize() {
	r.Slug = strings.ToLower(strings.TrimSpace(r.Slug))
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.PaymentPlanID = trimOptional(r.PaymentPlanID)
}

type UpdateProgramRequest struct {
	Slug          *string      `json:"slug" validate:"omitempty,max=80,slug"`
	Title         *string      `json:"title" validate:"omitempty,max=200"`
	Description   *string      `json:"description" validate:"omitempty,max=4000"`
	Type          *ProgramType `json:"type" validate:"omitempty,oneof=short_intensive medium_term long_term"`
	Active        *bool        `json:"active"`
	PaymentPlanID *string      `json:"payment_plan_id" validate:"omitempty,max=200"`
}

func (r *UpdateProgramRequest) Normalize() {
	if r.Slug != nil {
		s := strings.ToLower(strings.TrimSpace(*r.Slug))
		r.Slug = &s
	}
	if r.Title != nil {
		s := strings.TrimSpace(*r.Title)
		r.Title = &s
	}
}

type CreateCohortRequest struct {
	ProgramID    string `json:"program_id" validate:"required,uuid"`
	Title        string `json:"title" validate:"required,max=200"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	ScheduleText string `json:"schedule_text" validate:"max=500"`
	SeatLimit    int    `json:"seat_limit" validate:"required,gte=1"`
	MeetingURL   string `json:"meeting_url" validate:"omitempty,http_url"`
}

type UpdateCohortRequest struct {
	Title        *string `json:"title" validate:"omitempty,max=200"`
	StartDate    *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	ScheduleText *string `json:"schedule_text" validate:"omitempty,max=500"`
	SeatLimit    *int    `json:"seat_limit" validate:"omitempty,gte=1"`
	MeetingURL   *string `json:"meeting_url" validate:"omitempty,http_url"`
	Active       *bool   `json:"active"`
}

type CreateTrackRequest struct {
	Slug        string `json:"slug" validate:"required,max=80,slug"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=4000"`
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
