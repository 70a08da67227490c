package models

import (
	"strings"
	"time"

	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
)

// WorkerStatus is the operational status of a worker profile.
type WorkerStatus string

const (
	StatusPendingVerification WorkerStatus = "pending_verification"
	StatusActive              WorkerStatus = "active"
	StatusInactive            WorkerStatus = "inactive"
	StatusSuspended           WorkerStatus = "suspended"
	StatusBlocked             WorkerStatus = "blocked"
)

// VerificationStatus is the police-side verification state.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
	VerificationExpired  VerificationStatus = "expired"
)

// FinalStep is the onboarding step number that submits the application.
const FinalStep = 6

// Worker is the aggregate root for a worker profile.
//
// Invariants:
//   - OfficialWorkerID is unique across all workers and assigned at most
//     once, only on the transition into VerificationVerified. It is never
//     reassigned a different value afterward.
//   - QRCodeURL and VerificationEndpoint are set only after
//     OfficialWorkerID and never before it.
//   - OnboardingStep is 0..6 and non-decreasing, except for an explicit
//     restart after rejection which returns the worker to step 1.
//   - Once OnboardingStep == 6 and Status == StatusPendingVerification the
//     record is locked: no step mutation until a verification decision.
//   - AadhaarReference holds a token, never a raw Aadhaar number.
//   - RiskScore only increases; nothing resets it automatically.
type Worker struct {
	ID     id.WorkerID `json:"id"`
	UserID id.UserID   `json:"user_id"`

	// OfficialWorkerID is the public government-format identifier
	// (IND-WRK-<CODE>-<YEAR>-<NNNNNN>). Empty until issuance.
	OfficialWorkerID string `json:"official_worker_id,omitempty"`

	Category id.WorkerCategory `json:"category"`
	FullName string            `json:"full_name"`
	Mobile   string            `json:"mobile"`

	AddressCurrent string `json:"address_current,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Pincode        string `json:"pincode,omitempty"`

	// AadhaarReference is a tokenized identifier issued by the KYC
	// tokenization service.
	AadhaarReference string `json:"aadhaar_reference,omitempty"`
	SelfieRef        string `json:"selfie_ref,omitempty"`

	ConsentGiven      bool       `json:"consent_given"`
	ConsentAt         *time.Time `json:"consent_at,omitempty"`
	DeclarationSigned bool       `json:"declaration_signed"`

	AePS AePSProfile `json:"aeps,omitempty"`

	Status             WorkerStatus       `json:"status"`
	VerificationStatus VerificationStatus `json:"verification_status"`

	RiskScore      float64 `json:"risk_score"`
	ComplaintCount int     `json:"complaint_count"`

	CompanyID   id.CompanyID `json:"company_id,omitempty"`
	CompanyName string       `json:"company_name,omitempty"`

	QRCodeURL            string `json:"qr_code_url,omitempty"`
	VerificationEndpoint string `json:"verification_endpoint,omitempty"`

	OnboardingStep int            `json:"onboarding_step"`
	Onboarding     OnboardingData `json:"onboarding_data"`

	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AePSProfile holds the banking-agent fields collected at step 5. Stored
// for every category but functionally inert unless the worker is an AePS
// agent.
type AePSProfile struct {
	BankAffiliation string `json:"bank_affiliation,omitempty"`
	BCAffiliation   string `json:"bc_affiliation,omitempty"`
	OperatorID      string `json:"aeps_operator_id,omitempty"`
	ServiceRegion   string `json:"service_region,omitempty"`
	DeviceInfo      string `json:"aeps_device_info,omitempty"`
	TransactionRole string `json:"transaction_role,omitempty"`
}

// NewWorker creates a worker profile at step 0. Step 1 data is applied
// through Advance like every other step.
func NewWorker(workerID id.WorkerID, userID id.UserID, now time.Time) *Worker {
	return &Worker{
		ID:                 workerID,
		UserID:             userID,
		Status:             StatusInactive,
		VerificationStatus: VerificationPending,
		OnboardingStep:     0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Locked reports whether the record is submitted and awaiting a
// verification decision.
func (w *Worker) Locked() bool {
	return w.OnboardingStep == FinalStep && w.Status == StatusPendingVerification
}

// IsVerified reports whether the worker currently holds a VERIFIED status.
func (w *Worker) IsVerified() bool {
	return w.VerificationStatus == VerificationVerified
}

// HasIdentity reports whether the official worker ID has been issued.
func (w *Worker) HasIdentity() bool {
	return w.OfficialWorkerID != ""
}

// NeedsArtifacts reports whether a verified worker is missing its QR
// artifacts, the gap the repair path closes.
func (w *Worker) NeedsArtifacts() bool {
	return w.IsVerified() && w.HasIdentity() && (w.QRCodeURL == "" || w.VerificationEndpoint == "")
}

// CanAdvance checks whether the given onboarding step may be applied.
//
// Legal when step == current+1 (sequential) or step == current (idempotent
// resubmission), while the record is not locked and not verified. A
// rejected worker may restart from step 1 only.
func (w *Worker) CanAdvance(step int) error {
	if step < 1 || step > FinalStep {
		return dErrors.Newf(dErrors.CodeInvalidInput, "onboarding step %d is out of range", step)
	}
	if w.Locked() {
		return dErrors.New(dErrors.CodeConflict, "application is already submitted and pending police verification")
	}
	if w.IsVerified() {
		return dErrors.New(dErrors.CodeConflict, "worker is already verified; onboarding data cannot be changed")
	}
	if w.VerificationStatus == VerificationRejected && step != 1 {
		return dErrors.New(dErrors.CodeConflict, "application was rejected; restart onboarding from step 1")
	}
	if w.VerificationStatus == VerificationRejected && step == 1 {
		return nil
	}
	if step != w.OnboardingStep+1 && step != w.OnboardingStep {
		return dErrors.Newf(dErrors.CodeConflict, "cannot submit step %d at step %d; steps are sequential", step, w.OnboardingStep)
	}
	return nil
}

// ApplyStep merges a validated step payload into the record and advances
// the step counter. Call CanAdvance first. Each payload merges only its
// own key; earlier steps are never overwritten wholesale.
func (w *Worker) ApplyStep(payload StepPayload, now time.Time) {
	if w.VerificationStatus == VerificationRejected && payload.Step() == 1 {
		w.restartOnboarding()
	}

	payload.apply(w)
	w.Onboarding.merge(payload)
	if payload.Step() > w.OnboardingStep {
		w.OnboardingStep = payload.Step()
	}
	w.UpdatedAt = now
}

// restartOnboarding clears the rejection lock so a rejected applicant can
// resubmit. The official ID was never issued (rejection precedes issuance)
// so there is nothing to clear there.
func (w *Worker) restartOnboarding() {
	w.OnboardingStep = 0
	w.Status = StatusInactive
	w.VerificationStatus = VerificationPending
	w.ConsentGiven = false
	w.ConsentAt = nil
	w.DeclarationSigned = false
	w.Onboarding = OnboardingData{}
}

// MissingPrerequisites lists the mandatory fields from steps 1-4 that are
// still absent. Finalization requires an empty list.
func (w *Worker) MissingPrerequisites() []string {
	var missing []string
	if w.Category == "" {
		missing = append(missing, "category")
	}
	if w.AddressCurrent == "" {
		missing = append(missing, "address_current")
	}
	if w.City == "" {
		missing = append(missing, "city")
	}
	if w.State == "" {
		missing = append(missing, "state")
	}
	if w.Pincode == "" {
		missing = append(missing, "pincode")
	}
	if w.SelfieRef == "" {
		missing = append(missing, "selfie")
	}
	if w.AadhaarReference == "" {
		missing = append(missing, "aadhaar_reference")
	}
	return missing
}

// CanFinalize checks the step 6 contract: consent flags plus the mandatory
// fields from steps 1-4.
func (w *Worker) CanFinalize(consent Step6Consent) error {
	if err := w.CanAdvance(FinalStep); err != nil {
		return err
	}
	if !consent.ConsentGiven || !consent.DeclarationSigned {
		return dErrors.New(dErrors.CodeValidation, "consent and signed declaration are required to submit the application")
	}
	if missing := w.MissingPrerequisites(); len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeValidation, "prerequisites incomplete, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ApplyFinalize submits the application: records consent, locks the record,
// and moves it into the verification queue. Call CanFinalize first.
func (w *Worker) ApplyFinalize(consent Step6Consent, now time.Time) {
	w.ConsentGiven = consent.ConsentGiven
	w.DeclarationSigned = consent.DeclarationSigned
	w.ConsentAt = &now
	w.Onboarding.merge(consent)
	w.OnboardingStep = FinalStep
	w.Status = StatusPendingVerification
	w.VerificationStatus = VerificationPending
	w.UpdatedAt = now
}

// CanDecide checks whether a verification decision may be recorded.
// Re-approving an already verified worker is allowed (the approval is
// idempotent); any other decision on a non-pending record conflicts.
func (w *Worker) CanDecide(approve bool) error {
	switch w.VerificationStatus {
	case VerificationPending:
		if w.OnboardingStep != FinalStep {
			return dErrors.New(dErrors.CodeConflict, "worker has not submitted the application yet")
		}
		return nil
	case VerificationVerified:
		if approve {
			return nil
		}
		return dErrors.New(dErrors.CodeConflict, "worker is already verified")
	case VerificationRejected:
		return dErrors.New(dErrors.CodeConflict, "application was already rejected")
	case VerificationExpired:
		return dErrors.New(dErrors.CodeConflict, "verification has expired; worker must re-verify")
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown verification status")
	}
}

// ApplyApproval transitions the worker into VERIFIED/ACTIVE with the given
// validity window. Identity issuance is the caller's responsibility and
// must complete in the same transaction.
func (w *Worker) ApplyApproval(now time.Time, validity time.Duration) {
	if w.IsVerified() {
		return // idempotent re-approval leaves everything untouched
	}
	w.VerificationStatus = VerificationVerified
	w.Status = StatusActive
	w.VerifiedAt = &now
	expiry := now.Add(validity)
	w.ExpiryDate = &expiry
	w.UpdatedAt = now
}

// SetIdentity assigns the official worker ID. It is a no-op if an ID is
// already present; the first issuance wins.
func (w *Worker) SetIdentity(officialID string, now time.Time) {
	if w.HasIdentity() {
		return
	}
	w.OfficialWorkerID = officialID
	w.UpdatedAt = now
}

// SetArtifacts records the QR artifacts. No-op when already present.
func (w *Worker) SetArtifacts(qrURL, endpoint string, now time.Time) {
	if w.QRCodeURL != "" && w.VerificationEndpoint != "" {
		return
	}
	if w.QRCodeURL == "" {
		w.QRCodeURL = qrURL
	}
	if w.VerificationEndpoint == "" {
		w.VerificationEndpoint = endpoint
	}
	w.UpdatedAt = now
}

// ApplyRejection transitions the worker into REJECTED/BLOCKED. The official
// ID cannot have been issued on this path.
func (w *Worker) ApplyRejection(now time.Time) {
	w.VerificationStatus = VerificationRejected
	w.Status = StatusBlocked
	w.UpdatedAt = now
}

// ApplyExpiry marks a verified worker's validity window as lapsed.
func (w *Worker) ApplyExpiry(now time.Time) {
	if !w.IsVerified() {
		return
	}
	w.VerificationStatus = VerificationExpired
	w.Status = StatusInactive
	w.UpdatedAt = now
}

// ApplyIncident bumps the complaint count and risk score. Risk never
// decreases automatically.
func (w *Worker) ApplyIncident(riskWeight float64, now time.Time) {
	w.ComplaintCount++
	w.RiskScore += riskWeight
	w.UpdatedAt = now
}

// CanLinkCompany checks whether a company may take the worker on. Only one
// employer link at a time; the company must unlink before another links.
func (w *Worker) CanLinkCompany(companyID id.CompanyID) error {
	if w.CompanyID == companyID && !w.CompanyID.IsNil() {
		return dErrors.New(dErrors.CodeConflict, "worker is already linked to your company")
	}
	if !w.CompanyID.IsNil() {
		return dErrors.New(dErrors.CodeConflict, "worker is already linked to another company")
	}
	return nil
}

// LinkCompany records the employer link.
func (w *Worker) LinkCompany(companyID id.CompanyID, companyName string, now time.Time) {
	w.CompanyID = companyID
	w.CompanyName = companyName
	w.UpdatedAt = now
}

// CanUnlinkCompany checks that the caller holds the current link.
func (w *Worker) CanUnlinkCompany(companyID id.CompanyID) error {
	if w.CompanyID != companyID || w.CompanyID.IsNil() {
		return dErrors.New(dErrors.CodeForbidden, "worker is not linked to your company")
	}
	return nil
}

// UnlinkCompany clears the employer link.
func (w *Worker) UnlinkCompany(now time.Time) {
	w.CompanyID = id.CompanyID{}
	w.CompanyName = ""
	w.UpdatedAt = now
}

// CanSuspend checks whether the worker can be taken off duty.
func (w *Worker) CanSuspend() error {
	if w.Status == StatusBlocked {
		return dErrors.New(dErrors.CodeConflict, "worker is already blocked")
	}
	if w.Status == StatusSuspended {
		return dErrors.New(dErrors.CodeConflict, "worker is already suspended")
	}
	return nil
}

// ApplySuspension suspends (temporary) or blocks (permanent) the worker.
func (w *Worker) ApplySuspension(permanent bool, now time.Time) {
	if permanent {
		w.Status = StatusBlocked
	} else {
		w.Status = StatusSuspended
	}
	w.UpdatedAt = now
}

// CanReactivate checks whether a suspended worker can return to duty.
func (w *Worker) CanReactivate() error {
	if w.Status != StatusSuspended {
		return dErrors.New(dErrors.CodeConflict, "only suspended workers can be reactivated")
	}
	return nil
}

// ApplyReactivation returns a suspended worker to active duty.
func (w *Worker) ApplyReactivation(now time.Time) {
	w.Status = StatusActive
	w.UpdatedAt = now
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate shared state outside Execute.
func (w *Worker) Clone() *Worker {
	c := *w
	c.ConsentAt = cloneTime(w.ConsentAt)
	c.VerifiedAt = cloneTime(w.VerifiedAt)
	c.ExpiryDate = cloneTime(w.ExpiryDate)
	c.Onboarding = OnboardingData{
		Step1: clonePtr(w.Onboarding.Step1),
		Step2: clonePtr(w.Onboarding.Step2),
		Step3: clonePtr(w.Onboarding.Step3),
		Step4: clonePtr(w.Onboarding.Step4),
		Step5: clonePtr(w.Onboarding.Step5),
		Step6: clonePtr(w.Onboarding.Step6),
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
