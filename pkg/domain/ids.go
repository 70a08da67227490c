// Package domain holds shared domain primitives: typed identifiers and the
// worker category vocabulary. IDs are distinct types over uuid.UUID so the
// compiler rejects cross-entity mixups.
package domain

import (
	"github.com/google/uuid"

	dErrors "suraksha/pkg/domain-errors"
)

type (
	// UserID identifies an account (worker, officer, company, admin).
	UserID uuid.UUID
	// WorkerID is the internal worker record identifier. It is never the
	// official worker ID and is never exposed as one.
	WorkerID uuid.UUID
	// OfficerID identifies a police officer profile.
	OfficerID uuid.UUID
	// CompanyID identifies a registered company.
	CompanyID uuid.UUID
	// VerificationID identifies one verification decision record.
	VerificationID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id WorkerID) String() string       { return uuid.UUID(id).String() }
func (id OfficerID) String() string      { return uuid.UUID(id).String() }
func (id CompanyID) String() string      { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id WorkerID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id OfficerID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CompanyID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewWorkerID allocates a fresh internal worker identifier.
func NewWorkerID() WorkerID { return WorkerID(uuid.New()) }

// NewVerificationID allocates a fresh verification record identifier.
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }

// NewOfficerID allocates a fresh officer identifier.
func NewOfficerID() OfficerID { return OfficerID(uuid.New()) }

// NewUserID mints a random account identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewCompanyID mints a random company profile identifier.
func NewCompanyID() CompanyID { return CompanyID(uuid.New()) }

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

// ParseWorkerID validates and returns a WorkerID.
func ParseWorkerID(s string) (WorkerID, error) {
	u, err := parseUUID(s)
	return WorkerID(u), err
}

// ParseOfficerID validates and returns an OfficerID.
func ParseOfficerID(s string) (OfficerID, error) {
	u, err := parseUUID(s)
	return OfficerID(u), err
}

// ParseCompanyID validates and returns a CompanyID.
func ParseCompanyID(s string) (CompanyID, error) {
	u, err := parseUUID(s)
	return CompanyID(u), err
}
