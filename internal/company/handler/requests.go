package handler

import (
	"suraksha/internal/company/models"
	"suraksha/internal/disclosure"
)

type registerRequest struct {
	Name           string `json:"name"`
	CIN            string `json:"cin"`
	RegistrationID string `json:"registration_id"`

	SignatoryName   string `json:"signatory_name"`
	SignatoryEmail  string `json:"signatory_email"`
	SignatoryMobile string `json:"signatory_mobile"`

	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

func (r registerRequest) toParams() models.RegisterParams {
	return models.RegisterParams{
		Name:            r.Name,
		CIN:             r.CIN,
		RegistrationID:  r.RegistrationID,
		SignatoryName:   r.SignatoryName,
		SignatoryEmail:  r.SignatoryEmail,
		SignatoryMobile: r.SignatoryMobile,
		Address:         r.Address,
		City:            r.City,
		State:           r.State,
	}
}

// rosterResponse wraps the company-scoped worker listing.
type rosterResponse struct {
	Workers []*disclosure.CompanyView `json:"workers"`
	Total   int                       `json:"total"`
}
