package models

import "strings"

// Submission is the contact form payload. Website is the hidden honeypot
// field; people leave it empty.
type Submission struct {
	Name         string `json:"name" validate:"required,max=200"`
	Email        string `json:"email" validate:"required,email,max=320"`
	Organization string `json:"organization" validate:"max=200"`
	Track        string `json:"track" validate:"max=100"`
	Message      string `json:"message" validate:"required,max=5000"`
	Website      string `json:"b_url"`
}

// IsSpam reports whether the honeypot field was filled in.
func (s Submission) IsSpam() bool {
	return strings.TrimSpace(s.Website) != ""
}

// Normalize trims surrounding whitespace from every field.
func (s *Submission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Organization = strings.TrimSpace(s.Organization)
	s.Track = strings.TrimSpace(s.Track)
	s.Message = strings.TrimSpace(s.Message)
}
