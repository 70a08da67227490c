// Package models holds the employer company profile. Companies link
// workers to their roster and see the company-scoped projection of each.
package models

import (
	"strings"
	"time"

	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
)

// Company is an employer profile. The ID is minted at account signup; the
// profile itself is registered afterwards with the business details.
type Company struct {
	ID     id.CompanyID `json:"id"`
	UserID id.UserID    `json:"user_id"`

	Name           string `json:"name"`
	CIN            string `json:"cin,omitempty"`
	RegistrationID string `json:"registration_id,omitempty"`

	SignatoryName   string `json:"signatory_name,omitempty"`
	SignatoryEmail  string `json:"signatory_email,omitempty"`
	SignatoryMobile string `json:"signatory_mobile,omitempty"`

	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegisterParams is the business detail collected at profile registration.
type RegisterParams struct {
	Name           string
	CIN            string
	RegistrationID string

	SignatoryName   string
	SignatoryEmail  string
	SignatoryMobile string

	Address string
	City    string
	State   string
}

// NewCompany validates the registration details and builds the profile.
func NewCompany(companyID id.CompanyID, userID id.UserID, params RegisterParams, now time.Time) (*Company, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "company name is required")
	}
	return &Company{
		ID:              companyID,
		UserID:          userID,
		Name:            name,
		CIN:             strings.TrimSpace(params.CIN),
		RegistrationID:  strings.TrimSpace(params.RegistrationID),
		SignatoryName:   strings.TrimSpace(params.SignatoryName),
		SignatoryEmail:  strings.TrimSpace(params.SignatoryEmail),
		SignatoryMobile: strings.TrimSpace(params.SignatoryMobile),
		Address:         strings.TrimSpace(params.Address),
		City:            strings.TrimSpace(params.City),
		State:           strings.TrimSpace(params.State),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Clone returns a copy.
func (c *Company) Clone() *Company {
	copy := *c
	return &copy
}
