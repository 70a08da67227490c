// Package disclosure gates what each caller role may see of a worker
// record. Every read path that leaves the service goes through Project so
// field-level exposure is decided in exactly one place.
package disclosure

import (
	"time"

	"suraksha/internal/worker/models"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/requestcontext"
)

// Placeholder values shown to the owner and police before issuance.
const (
	PlaceholderPendingID = "Pending Verification"
	PlaceholderNoCompany = "Not Assigned"
)

// PublicView is what an anonymous QR scan reveals. Only verified workers
// have a public view at all.
type PublicView struct {
	OfficialWorkerID     string     `json:"official_worker_id"`
	FullName             string     `json:"full_name"`
	PhotoURL             string     `json:"photo_url,omitempty"`
	Category             string     `json:"category"`
	CompanyName          string     `json:"company_name,omitempty"`
	VerificationStatus   string     `json:"verification_status"`
	PoliceVerified       bool       `json:"police_verified"`
	LastVerificationDate *time.Time `json:"last_verification_date,omitempty"`
	RiskScore            float64    `json:"risk_score"`
	IsActive             bool       `json:"is_active"`
}

// OwnerView is the worker's own profile. Identity fields show placeholders
// until issuance.
type OwnerView struct {
	ID                   string             `json:"id"`
	OfficialWorkerID     string             `json:"official_worker_id"`
	Category             string             `json:"category,omitempty"`
	FullName             string             `json:"full_name,omitempty"`
	Mobile               string             `json:"mobile,omitempty"`
	AddressCurrent       string             `json:"address_current,omitempty"`
	City                 string             `json:"city,omitempty"`
	State                string             `json:"state,omitempty"`
	Pincode              string             `json:"pincode,omitempty"`
	Status               string             `json:"status"`
	VerificationStatus   string             `json:"verification_status"`
	CompanyName          string             `json:"company_name"`
	QRCodeURL            string             `json:"qr_code_url,omitempty"`
	VerificationEndpoint string             `json:"verification_endpoint,omitempty"`
	VerifiedAt           *time.Time         `json:"verified_at,omitempty"`
	ExpiryDate           *time.Time         `json:"expiry_date,omitempty"`
	Progress             models.Progress    `json:"progress"`
	AePS                 models.AePSProfile `json:"aeps,omitempty"`
}

// PoliceView is the verification desk's working view. It includes the
// tokenized Aadhaar reference and risk posture, never a raw Aadhaar number.
type PoliceView struct {
	ID                 string     `json:"id"`
	OfficialWorkerID   string     `json:"official_worker_id"`
	Category           string     `json:"category,omitempty"`
	FullName           string     `json:"full_name,omitempty"`
	Mobile             string     `json:"mobile,omitempty"`
	AddressCurrent     string     `json:"address_current,omitempty"`
	City               string     `json:"city,omitempty"`
	State              string     `json:"state,omitempty"`
	Pincode            string     `json:"pincode,omitempty"`
	AadhaarReference   string     `json:"aadhaar_reference,omitempty"`
	SelfieRef          string     `json:"selfie_ref,omitempty"`
	ConsentGiven       bool       `json:"consent_given"`
	ConsentAt          *time.Time `json:"consent_at,omitempty"`
	DeclarationSigned  bool       `json:"declaration_signed"`
	Status             string     `json:"status"`
	VerificationStatus string     `json:"verification_status"`
	OnboardingStep     int        `json:"onboarding_step"`
	RiskScore          float64    `json:"risk_score"`
	ComplaintCount     int        `json:"complaint_count"`
	CompanyName        string     `json:"company_name"`
	QRCodeURL          string     `json:"qr_code_url,omitempty"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	ExpiryDate         *time.Time `json:"expiry_date,omitempty"`
}

// CompanyView is what an employing company sees about a worker: enough to
// verify status and risk posture, no address or KYC material.
type CompanyView struct {
	OfficialWorkerID   string     `json:"official_worker_id"`
	FullName           string     `json:"full_name"`
	Category           string     `json:"category,omitempty"`
	Status             string     `json:"status"`
	VerificationStatus string     `json:"verification_status"`
	RiskScore          float64    `json:"risk_score"`
	ComplaintCount     int        `json:"complaint_count"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	ExpiryDate         *time.Time `json:"expiry_date,omitempty"`
}

// Project builds the view of a worker appropriate for the caller's role.
//
// A public caller asking about a non-verified worker gets not-found, never
// a hint that an application is pending.
func Project(w *models.Worker, role requestcontext.Role) (any, error) {
	switch role {
	case requestcontext.RolePublic:
		return ProjectPublic(w)
	case requestcontext.RoleWorker:
		return ProjectOwner(w), nil
	case requestcontext.RolePolice, requestcontext.RoleAdmin:
		return ProjectPolice(w), nil
	case requestcontext.RoleCompany:
		return ProjectCompany(w), nil
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "caller role cannot view worker records")
	}
}

// ProjectPublic returns the anonymous QR-scan view. Workers that are not
// currently verified do not exist as far as the public endpoint is
// concerned. The selfie reference doubles as the public photo; address and
// KYC material never appear here.
func ProjectPublic(w *models.Worker) (*PublicView, error) {
	if !w.IsVerified() || !w.HasIdentity() {
		return nil, dErrors.New(dErrors.CodeNotFound, "no verified worker found")
	}
	return &PublicView{
		OfficialWorkerID:     w.OfficialWorkerID,
		FullName:             w.FullName,
		PhotoURL:             w.SelfieRef,
		Category:             string(w.Category),
		CompanyName:          w.CompanyName,
		VerificationStatus:   string(w.VerificationStatus),
		PoliceVerified:       w.VerifiedAt != nil,
		LastVerificationDate: w.VerifiedAt,
		RiskScore:            w.RiskScore,
		IsActive:             w.Status == models.StatusActive,
	}, nil
}

func ProjectOwner(w *models.Worker) *OwnerView {
	return &OwnerView{
		ID:                   w.ID.String(),
		OfficialWorkerID:     orPlaceholder(w.OfficialWorkerID, PlaceholderPendingID),
		Category:             string(w.Category),
		FullName:             w.FullName,
		Mobile:               w.Mobile,
		AddressCurrent:       w.AddressCurrent,
		City:                 w.City,
		State:                w.State,
		Pincode:              w.Pincode,
		Status:               string(w.Status),
		VerificationStatus:   string(w.VerificationStatus),
		CompanyName:          orPlaceholder(w.CompanyName, PlaceholderNoCompany),
		QRCodeURL:            w.QRCodeURL,
		VerificationEndpoint: w.VerificationEndpoint,
		VerifiedAt:           w.VerifiedAt,
		ExpiryDate:           w.ExpiryDate,
		Progress:             models.ProgressOf(w),
		AePS:                 w.AePS,
	}
}

func ProjectPolice(w *models.Worker) *PoliceView {
	return &PoliceView{
		ID:                 w.ID.String(),
		OfficialWorkerID:   orPlaceholder(w.OfficialWorkerID, PlaceholderPendingID),
		Category:           string(w.Category),
		FullName:           w.FullName,
		Mobile:             w.Mobile,
		AddressCurrent:     w.AddressCurrent,
		City:               w.City,
		State:              w.State,
		Pincode:            w.Pincode,
		AadhaarReference:   w.AadhaarReference,
		SelfieRef:          w.SelfieRef,
		ConsentGiven:       w.ConsentGiven,
		ConsentAt:          w.ConsentAt,
		DeclarationSigned:  w.DeclarationSigned,
		Status:             string(w.Status),
		VerificationStatus: string(w.VerificationStatus),
		OnboardingStep:     w.OnboardingStep,
		RiskScore:          w.RiskScore,
		ComplaintCount:     w.ComplaintCount,
		CompanyName:        orPlaceholder(w.CompanyName, PlaceholderNoCompany),
		QRCodeURL:          w.QRCodeURL,
		VerifiedAt:         w.VerifiedAt,
		ExpiryDate:         w.ExpiryDate,
	}
}

func ProjectCompany(w *models.Worker) *CompanyView {
	return &CompanyView{
		OfficialWorkerID:   orPlaceholder(w.OfficialWorkerID, PlaceholderPendingID),
		FullName:           w.FullName,
		Category:           string(w.Category),
		Status:             string(w.Status),
		VerificationStatus: string(w.VerificationStatus),
		RiskScore:          w.RiskScore,
		ComplaintCount:     w.ComplaintCount,
		VerifiedAt:         w.VerifiedAt,
		ExpiryDate:         w.ExpiryDate,
	}
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}
