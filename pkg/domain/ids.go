package domain

import (
	"github.com/google/uuid"

	dErrors "sparkfish/pkg/domain-errors"
)

// Typed identifiers keep learner, cohort, enrollment and certificate IDs from
// being swapped at call sites. All are UUIDs on the wire and in storage.
type (
	LearnerID     uuid.UUID
	ProgramID     uuid.UUID
	CohortID      uuid.UUID
	TrackID       uuid.UUID
	EnrollmentID  uuid.UUID
	CertificateID uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return u, nil
}

func ParseLearnerID(s string) (LearnerID, error) {
	u, err := parseUUID("learner id", s)
	return LearnerID(u), err
}

func ParseProgramID(s string) (ProgramID, error) {
	u, err := parseUUID("program id", s)
	return ProgramID(u), err
}

func ParseCohortID(s string) (CohortID, error) {
	u, err := parseUUID("cohort id", s)
	return CohortID(u), err
}

func ParseTrackID(s string) (TrackID, error) {
	u, err := parseUUID("track id", s)
	return TrackID(u), err
}

func ParseEnrollmentID(s string) (EnrollmentID, error) {
	u, err := parseUUID("enrollment id", s)
	return EnrollmentID(u), err
}

func ParseCertificateID(s string) (CertificateID, error) {
	u, err := parseUUID("certificate id", s)
	return CertificateID(u), err
}

func (id LearnerID) String() string     { return uuid.UUID(id).String() }
func (id ProgramID) String() string     { return uuid.UUID(id).String() }
func (id CohortID) String() string      { return uuid.UUID(id).String() }
func (id TrackID) String() string       { return uuid.UUID(id).String() }
func (id EnrollmentID) String() string  { return uuid.UUID(id).String() }
func (id CertificateID) String() string { return uuid.UUID(id).String() }

func (id LearnerID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ProgramID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CohortID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id TrackID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id EnrollmentID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id CertificateID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshalling so IDs render as UUID strings in JSON rather than byte arrays.

func (id LearnerID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id ProgramID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id CohortID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id TrackID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id EnrollmentID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id CertificateID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *LearnerID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ProgramID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CohortID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *TrackID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EnrollmentID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CertificateID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func NewLearnerID() LearnerID         { return LearnerID(uuid.New()) }
func NewProgramID() ProgramID         { return ProgramID(uuid.New()) }
func NewCohortID() CohortID           { return CohortID(uuid.New()) }
func NewTrackID() TrackID             { return TrackID(uuid.New()) }
func NewEnrollmentID() EnrollmentID   { return EnrollmentID(uuid.New()) }
func NewCertificateID() CertificateID { return CertificateID(uuid.New()) }
