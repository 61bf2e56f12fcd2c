package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	id "sparkfish/pkg/domain"
)

// CodeLength is the number of hex characters in a verification code.
const CodeLength = 8

// Certificate is the issued record for one enrollment.
type Certificate struct {
	ID             id.CertificateID `json:"id"`
	EnrollmentID   id.EnrollmentID  `json:"enrollment_id"`
	Code           string           `json:"code"`
	ArtifactURL    *string          `json:"artifact_url,omitempty"`
	CompletionDate time.Time        `json:"completion_date"`
	IssuedAt       time.Time        `json:"issued_at"`
}

// HasArtifact reports whether a PDF was stored for this certificate.
func (c *Certificate) HasArtifact() bool {
	return c.ArtifactURL != nil && *c.ArtifactURL != ""
}

// NewCode draws four random bytes and renders them as uppercase hex.
func NewCode(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, CodeLength/2)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("read random code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// NormalizeCode uppercases and trims a code taken from a URL.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidCode reports whether code has the issued shape. Anything else can be
// answered as not found without a lookup.
func IsValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, c := range code {
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// IssueResult is what the admin console gets back after issuing.
type IssueResult struct {
	Code        string  `json:"code"`
	ArtifactURL *string `json:"pdf_url"`
}

// Verification is the public view of a certificate.
type Verification struct {
	Code          string    `json:"code"`
	RecipientName string    `json:"recipient_name"`
	Organization  string    `json:"organization,omitempty"`
	ProgramTitle  string    `json:"program_title"`
	ProgramType   string    `json:"program_type,omitempty"`
	TrackTitle    string    `json:"track_title,omitempty"`
	IssuedAt      time.Time `json:"issued_at"`
	ArtifactURL   *string   `json:"pdf_url,omitempty"`
}
