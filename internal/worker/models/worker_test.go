package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
)

func newTestWorker(t *testing.T) *Worker {
	t.Helper()
	return NewWorker(id.NewWorkerID(), id.UserID{}, time.Now())
}

func completeSteps(t *testing.T, w *Worker, upTo int) {
	t.Helper()
	now := time.Now()
	payloads := []StepPayload{
		Step1Basic{Category: id.CategoryDeliveryWorker, FullName: "Ravi Kumar", Mobile: "9876543210"},
		Step2Address{AddressCurrent: "12 MG Road", City: "Patna", State: "Bihar", Pincode: "800001"},
		Step3Selfie{SelfieRef: "assets/selfies/ravi.jpg"},
		Step4Aadhaar{AadhaarReference: "tok_abc123"},
		Step5AePS{},
	}
	for _, p := range payloads[:upTo] {
		require.NoError(t, w.CanAdvance(p.Step()))
		w.ApplyStep(p, now)
	}
}

func submit(t *testing.T, w *Worker) {
	t.Helper()
	completeSteps(t, w, 5)
	consent := Step6Consent{ConsentGiven: true, DeclarationSigned: true}
	require.NoError(t, w.CanFinalize(consent))
	w.ApplyFinalize(consent, time.Now())
}

func TestWorker_SequentialSteps(t *testing.T) {
	w := newTestWorker(t)

	completeSteps(t, w, 2)
	assert.Equal(t, 2, w.OnboardingStep)
	assert.Equal(t, "Patna", w.City)

	// Resubmitting the current step is idempotent.
	require.NoError(t, w.CanAdvance(2))

	// Skipping ahead is a state conflict.
	err := w.CanAdvance(4)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestWorker_CannotSkipSteps(t *testing.T) {
	w := newTestWorker(t)
	completeSteps(t, w, 1)

	err := w.CanAdvance(3)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestWorker_FinalizeRequiresPrerequisites(t *testing.T) {
	w := newTestWorker(t)
	now := time.Now()
	w.ApplyStep(Step1Basic{Category: id.CategoryDeliveryWorker, FullName: "Ravi", Mobile: "9876543210"}, now)
	w.ApplyStep(Step2Address{AddressCurrent: "12 MG Road", City: "Patna", State: "Bihar", Pincode: "800001"}, now)
	// force the counter forward without selfie or aadhaar data
	w.OnboardingStep = 5

	err := w.CanFinalize(Step6Consent{ConsentGiven: true, DeclarationSigned: true})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Contains(t, err.Error(), "selfie")
	assert.Contains(t, err.Error(), "aadhaar_reference")
}

func TestWorker_FinalizeRequiresConsent(t *testing.T) {
	w := newTestWorker(t)
	completeSteps(t, w, 5)

	err := w.CanFinalize(Step6Consent{ConsentGiven: true, DeclarationSigned: false})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestWorker_SubmittedRecordIsLocked(t *testing.T) {
	w := newTestWorker(t)
	submit(t, w)

	assert.True(t, w.Locked())
	assert.Equal(t, StatusPendingVerification, w.Status)
	assert.Equal(t, VerificationPending, w.VerificationStatus)

	for step := 1; step <= FinalStep; step++ {
		err := w.CanAdvance(step)
		require.Error(t, err, "step %d must be rejected while locked", step)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	}
}

func TestWorker_VerifiedRecordRejectsMutation(t *testing.T) {
	w := newTestWorker(t)
	submit(t, w)
	w.ApplyApproval(time.Now(), 365*24*time.Hour)

	err := w.CanAdvance(1)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestWorker_ApprovalSetsWindowAndStatus(t *testing.T) {
	w := newTestWorker(t)
	submit(t, w)

	now := time.Now()
	w.ApplyApproval(now, 365*24*time.Hour)

	assert.Equal(t, VerificationVerified, w.VerificationStatus)
	assert.Equal(t, StatusActive, w.Status)
	require.NotNil(t, w.ExpiryDate)
	assert.WithinDuration(t, now.Add(365*24*time.Hour), *w.ExpiryDate, time.Second)
}

func TestWorker_ReApprovalIsIdempotent(t *testing.T) {
	w := newTestWorker(t)
	submit(t, w)

	first := time.Now()
	w.ApplyApproval(first, 365*24*time.Hour)
	w.SetIdentity("IND-WRK-DLV-2026-000001", first)
	w.SetArtifacts("https://cdn/qr/1.png", "https://api/verify/worker/IND-WRK-DLV-2026-000001", first)

	require.NoError(t, w.CanDecide(true))
	w.ApplyApproval(time.Now().Add(time.Hour), 365*24*time.Hour)
	w.SetIdentity("IND-WRK-DLV-2026-000099", time.Now())

	assert.Equal(t, "IND-WRK-DLV-2026-000001", w.OfficialWorkerID)
	assert.Equal(t, "https://cdn/qr/1.png", w.QRCodeURL)
	assert.WithinDuration(t, first.Add(365*24*time.Hour), *w.ExpiryDate, time.Second)
}

func TestWorker_RejectionBlocksAndKeepsIdentityNull(t *testing.T) {
	w := newTestWorker(t)
	submit(t, w)

	require.NoError(t, w.CanDecide(false))
	w.ApplyRejection(time.Now())

	assert.Equal(t, VerificationRejected, w.VerificationStatus)
	assert.Equal(t, StatusBlocked, w.Status)
	assert.False(t, w.HasIdentity())

	// A second decision conflicts either way.
	assert.Error(t, w.CanDecide(true))
	assert.Error(t, w.CanDecide(false))
}

func TestWorker_RejectedWorkerRestartsFromStepOne(t *testing.T) {
	w := newTestWorker(t)
	submit(t, w)
	w.ApplyRejection(time.Now())

	// Only step 1 is allowed after rejection.
	err := w.CanAdvance(2)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	require.NoError(t, w.CanAdvance(1))
	w.ApplyStep(Step1Basic{Category: id.CategoryAepsAgent, FullName: "Ravi Kumar", Mobile: "9876543210"}, time.Now())

	assert.Equal(t, 1, w.OnboardingStep)
	assert.Equal(t, StatusInactive, w.Status)
	assert.Equal(t, VerificationPending, w.VerificationStatus)
	assert.False(t, w.ConsentGiven)
	assert.False(t, w.HasIdentity())
}

func TestWorker_RiskScoreOnlyIncreases(t *testing.T) {
	w := newTestWorker(t)
	now := time.Now()

	w.ApplyIncident(15, now)
	w.ApplyIncident(30, now)

	assert.Equal(t, 45.0, w.RiskScore)
	assert.Equal(t, 2, w.ComplaintCount)
}

func TestWorker_SuspensionLifecycle(t *testing.T) {
	w := newTestWorker(t)
	submit(t, w)
	w.ApplyApproval(time.Now(), 365*24*time.Hour)

	require.NoError(t, w.CanSuspend())
	w.ApplySuspension(false, time.Now())
	assert.Equal(t, StatusSuspended, w.Status)

	require.NoError(t, w.CanReactivate())
	w.ApplyReactivation(time.Now())
	assert.Equal(t, StatusActive, w.Status)

	w.ApplySuspension(true, time.Now())
	assert.Equal(t, StatusBlocked, w.Status)
	assert.Error(t, w.CanSuspend())
	assert.Error(t, w.CanReactivate())
}

func TestWorker_NeedsArtifacts(t *testing.T) {
	w := newTestWorker(t)
	submit(t, w)
	w.ApplyApproval(time.Now(), 365*24*time.Hour)
	w.SetIdentity("IND-WRK-DLV-2026-000001", time.Now())

	assert.True(t, w.NeedsArtifacts())

	w.SetArtifacts("https://cdn/qr/1.png", "https://api/verify/worker/IND-WRK-DLV-2026-000001", time.Now())
	assert.False(t, w.NeedsArtifacts())
}

func TestStepPayload_Validation(t *testing.T) {
	assert.Error(t, Step1Basic{Category: "coal_miner", FullName: "x", Mobile: "1"}.Validate())
	assert.Error(t, Step1Basic{Category: id.CategoryDeliveryWorker, Mobile: "1"}.Validate())
	assert.NoError(t, Step1Basic{Category: id.CategoryDeliveryWorker, FullName: "x", Mobile: "1"}.Validate())

	err := Step2Address{City: "Patna"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pincode")

	assert.Error(t, Step3Selfie{}.Validate())

	// Raw 12-digit Aadhaar numbers must be refused.
	err = Step4Aadhaar{AadhaarReference: "123412341234"}.Validate()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.NoError(t, Step4Aadhaar{AadhaarReference: "tok_abc123"}.Validate())
}

func TestWorker_CompanyLinkLifecycle(t *testing.T) {
	w := newTestWorker(t)
	companyA := id.NewCompanyID()
	companyB := id.NewCompanyID()
	now := time.Now()

	require.NoError(t, w.CanLinkCompany(companyA))
	w.LinkCompany(companyA, "Swift Facility Services", now)
	assert.Equal(t, companyA, w.CompanyID)
	assert.Equal(t, "Swift Facility Services", w.CompanyName)

	// Re-linking to the same company conflicts.
	err := w.CanLinkCompany(companyA)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	// A second employer cannot poach a linked worker.
	err = w.CanLinkCompany(companyB)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	// Only the linked company may unlink.
	err = w.CanUnlinkCompany(companyB)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	require.NoError(t, w.CanUnlinkCompany(companyA))
	w.UnlinkCompany(now)
	assert.True(t, w.CompanyID.IsNil())
	assert.Empty(t, w.CompanyName)
	require.NoError(t, w.CanLinkCompany(companyB))
}
