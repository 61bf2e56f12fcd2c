package models

import (
	"time"

	id "sparkfish/pkg/domain"
)

// Profile is the learner's local record. Email here is a convenience copy
// and is never used as a notification address.
type Profile struct {
	ID           id.LearnerID `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email,omitempty"`
	Organization string       `json:"organization,omitempty"`
	IsAdmin      bool         `json:"is_admin"`
	CreatedAt    time.Time    `json:"created_at"`
}

// DisplayName falls back to a neutral salutation for unnamed profiles.
func (p *Profile) DisplayName() string {
	if p == nil || p.Name == "" {
		return "Student"
	}
	return p.Name
}

// Identity is the auth provider's account record. Its email is authoritative.
type Identity struct {
	ID        id.LearnerID
	Email     string
	CreatedAt time.Time
}
