package models

import (
	"strings"

	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
)

// StepPayload is the tagged union of per-step onboarding payloads. Each
// payload validates its own required-field contract at the boundary and
// knows how to merge itself into the worker record.
type StepPayload interface {
	Step() int
	Validate() error
	apply(w *Worker)
}

// OnboardingData is the typed accumulator of step payloads. Each step
// merges only its own key; submitting step N never disturbs step M.
type OnboardingData struct {
	Step1 *Step1Basic   `json:"step1,omitempty"`
	Step2 *Step2Address `json:"step2,omitempty"`
	Step3 *Step3Selfie  `json:"step3,omitempty"`
	Step4 *Step4Aadhaar `json:"step4,omitempty"`
	Step5 *Step5AePS    `json:"step5,omitempty"`
	Step6 *Step6Consent `json:"step6,omitempty"`
}

func (d *OnboardingData) merge(payload StepPayload) {
	switch p := payload.(type) {
	case Step1Basic:
		d.Step1 = &p
	case Step2Address:
		d.Step2 = &p
	case Step3Selfie:
		d.Step3 = &p
	case Step4Aadhaar:
		d.Step4 = &p
	case Step5AePS:
		d.Step5 = &p
	case Step6Consent:
		d.Step6 = &p
	}
}

// Step1Basic collects category and basic identity.
type Step1Basic struct {
	Category id.WorkerCategory `json:"category"`
	FullName string            `json:"full_name"`
	Mobile   string            `json:"mobile"`
}

func (Step1Basic) Step() int { return 1 }

func (p Step1Basic) Validate() error {
	if _, err := id.ParseWorkerCategory(string(p.Category)); err != nil {
		return err
	}
	if strings.TrimSpace(p.FullName) == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if strings.TrimSpace(p.Mobile) == "" {
		return dErrors.New(dErrors.CodeValidation, "mobile is required")
	}
	return nil
}

func (p Step1Basic) apply(w *Worker) {
	w.Category = p.Category
	w.FullName = strings.TrimSpace(p.FullName)
	w.Mobile = strings.TrimSpace(p.Mobile)
}

// Step2Address collects the current address.
type Step2Address struct {
	AddressCurrent string `json:"address_current"`
	City           string `json:"city"`
	State          string `json:"state"`
	Pincode        string `json:"pincode"`
}

func (Step2Address) Step() int { return 2 }

func (p Step2Address) Validate() error {
	var missing []string
	if strings.TrimSpace(p.AddressCurrent) == "" {
		missing = append(missing, "address_current")
	}
	if strings.TrimSpace(p.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(p.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(p.Pincode) == "" {
		missing = append(missing, "pincode")
	}
	if len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (p Step2Address) apply(w *Worker) {
	w.AddressCurrent = strings.TrimSpace(p.AddressCurrent)
	w.City = strings.TrimSpace(p.City)
	w.State = strings.TrimSpace(p.State)
	w.Pincode = strings.TrimSpace(p.Pincode)
}

// Step3Selfie carries the asset-store reference to the persisted selfie.
// The raw image never enters the worker record; the service exchanges the
// uploaded payload for a reference before this payload is constructed.
type Step3Selfie struct {
	SelfieRef string `json:"selfie_ref"`
}

func (Step3Selfie) Step() int { return 3 }

func (p Step3Selfie) Validate() error {
	if p.SelfieRef == "" {
		return dErrors.New(dErrors.CodeValidation, "selfie reference is required")
	}
	return nil
}

func (p Step3Selfie) apply(w *Worker) {
	w.SelfieRef = p.SelfieRef
}

// Step4Aadhaar carries the tokenized Aadhaar reference. The raw Aadhaar
// number must never reach this system.
type Step4Aadhaar struct {
	AadhaarReference string `json:"aadhaar_reference"`
}

func (Step4Aadhaar) Step() int { return 4 }

func (p Step4Aadhaar) Validate() error {
	ref := strings.TrimSpace(p.AadhaarReference)
	if ref == "" {
		return dErrors.New(dErrors.CodeValidation, "aadhaar_reference is required")
	}
	// A 12-digit value is almost certainly a raw Aadhaar number rather
	// than a token. Reject it outright instead of persisting it.
	if len(ref) == 12 && strings.Trim(ref, "0123456789") == "" {
		return dErrors.New(dErrors.CodeValidation, "aadhaar_reference must be a tokenized reference, not a raw Aadhaar number")
	}
	return nil
}

func (p Step4Aadhaar) apply(w *Worker) {
	w.AadhaarReference = strings.TrimSpace(p.AadhaarReference)
}

// Step5AePS collects banking-agent specifics. All fields are optional;
// they are functionally inert unless the worker is an AePS agent.
type Step5AePS struct {
	BankAffiliation string `json:"bank_affiliation,omitempty"`
	BCAffiliation   string `json:"bc_affiliation,omitempty"`
	OperatorID      string `json:"aeps_operator_id,omitempty"`
	ServiceRegion   string `json:"service_region,omitempty"`
	DeviceInfo      string `json:"aeps_device_info,omitempty"`
	TransactionRole string `json:"transaction_role,omitempty"`
}

func (Step5AePS) Step() int { return 5 }

func (Step5AePS) Validate() error { return nil }

func (p Step5AePS) apply(w *Worker) {
	w.AePS = AePSProfile{
		BankAffiliation: p.BankAffiliation,
		BCAffiliation:   p.BCAffiliation,
		OperatorID:      p.OperatorID,
		ServiceRegion:   p.ServiceRegion,
		DeviceInfo:      p.DeviceInfo,
		TransactionRole: p.TransactionRole,
	}
}

// Step6Consent finalizes the application. Validation beyond the flag check
// happens in Worker.CanFinalize, which re-validates steps 1-4.
type Step6Consent struct {
	ConsentGiven      bool   `json:"consent_given"`
	DeclarationSigned bool   `json:"declaration_signed"`
	DeviceFingerprint string `json:"device_fingerprint,omitempty"`
}

func (Step6Consent) Step() int { return FinalStep }

func (Step6Consent) Validate() error { return nil }

func (p Step6Consent) apply(w *Worker) {
	w.ConsentGiven = p.ConsentGiven
	w.DeclarationSigned = p.DeclarationSigned
}
