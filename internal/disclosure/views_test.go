package disclosure

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suraksha/internal/worker/models"
	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/requestcontext"
)

func verifiedWorker(t *testing.T) *models.Worker {
	t.Helper()
	now := time.Now()
	w := models.NewWorker(id.NewWorkerID(), id.UserID(uuid.New()), now)
	w.Category = id.CategoryDeliveryWorker
	w.FullName = "Asha Kumari"
	w.Mobile = "9876501234"
	w.AddressCurrent = "12 MG Road"
	w.City = "Pune"
	w.State = "Maharashtra"
	w.Pincode = "411001"
	w.AadhaarReference = "tok_9f3ab2"
	w.SelfieRef = "asset://selfies/x"
	w.OnboardingStep = models.FinalStep
	w.Status = models.StatusActive
	w.VerificationStatus = models.VerificationVerified
	w.OfficialWorkerID = "IND-WRK-DLV-2026-000001"
	w.VerifiedAt = &now
	expiry := now.Add(365 * 24 * time.Hour)
	w.ExpiryDate = &expiry
	return w
}

func pendingWorker(t *testing.T) *models.Worker {
	t.Helper()
	w := verifiedWorker(t)
	w.OfficialWorkerID = ""
	w.VerificationStatus = models.VerificationPending
	w.Status = models.StatusPendingVerification
	w.VerifiedAt = nil
	w.ExpiryDate = nil
	return w
}

func TestPublicView_VerifiedWorker(t *testing.T) {
	w := verifiedWorker(t)

	view, err := ProjectPublic(w)
	require.NoError(t, err)
	assert.Equal(t, "IND-WRK-DLV-2026-000001", view.OfficialWorkerID)
	assert.Equal(t, "Asha Kumari", view.FullName)
	assert.Equal(t, "asset://selfies/x", view.PhotoURL)
	assert.Equal(t, "verified", view.VerificationStatus)
	assert.True(t, view.PoliceVerified)
	assert.NotNil(t, view.LastVerificationDate)
	assert.True(t, view.IsActive)
}

func TestPublicView_SuspendedWorkerShowsInactive(t *testing.T) {
	w := verifiedWorker(t)
	w.Status = models.StatusSuspended
	w.RiskScore = 35

	view, err := ProjectPublic(w)
	require.NoError(t, err)
	assert.False(t, view.IsActive)
	assert.Equal(t, 35.0, view.RiskScore)
}

func TestPublicView_NonVerifiedWorkerIsNotFound(t *testing.T) {
	for _, status := range []models.VerificationStatus{
		models.VerificationPending,
		models.VerificationRejected,
		models.VerificationExpired,
	} {
		w := verifiedWorker(t)
		w.VerificationStatus = status

		_, err := ProjectPublic(w)
		require.Error(t, err, "status %s", status)
		assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	}
}

func TestPublicView_VerifiedWithoutIdentityIsNotFound(t *testing.T) {
	w := verifiedWorker(t)
	w.OfficialWorkerID = ""

	_, err := ProjectPublic(w)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestPublicView_OmitsAddressAndKYCFields(t *testing.T) {
	w := verifiedWorker(t)

	view, err := ProjectPublic(w)
	require.NoError(t, err)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"city", "state", "pincode", "address_current", "mobile", "aadhaar_reference"} {
		assert.NotContains(t, fields, key)
	}
	assert.Contains(t, fields, "risk_score")
	assert.Contains(t, fields, "is_active")
	assert.Contains(t, fields, "police_verified")
}

func TestOwnerView_ShowsPlaceholdersBeforeIssuance(t *testing.T) {
	w := pendingWorker(t)
	w.CompanyName = ""

	view := ProjectOwner(w)
	assert.Equal(t, PlaceholderPendingID, view.OfficialWorkerID)
	assert.Equal(t, PlaceholderNoCompany, view.CompanyName)
	assert.Equal(t, "pending", view.VerificationStatus)
}

func TestOwnerView_ShowsIssuedIdentity(t *testing.T) {
	w := verifiedWorker(t)
	w.QRCodeURL = "https://suraksha.example/qr/x.png"

	view := ProjectOwner(w)
	assert.Equal(t, "IND-WRK-DLV-2026-000001", view.OfficialWorkerID)
	assert.Equal(t, "https://suraksha.example/qr/x.png", view.QRCodeURL)
}

func TestPoliceView_IncludesKYCReferencesAndRisk(t *testing.T) {
	w := verifiedWorker(t)
	w.RiskScore = 30
	w.ComplaintCount = 2

	view := ProjectPolice(w)
	assert.Equal(t, "tok_9f3ab2", view.AadhaarReference)
	assert.Equal(t, "asset://selfies/x", view.SelfieRef)
	assert.Equal(t, 30.0, view.RiskScore)
	assert.Equal(t, 2, view.ComplaintCount)
}

func TestCompanyView_OmitsKYCAndAddress(t *testing.T) {
	w := verifiedWorker(t)
	w.RiskScore = 15

	view := ProjectCompany(w)
	assert.Equal(t, "IND-WRK-DLV-2026-000001", view.OfficialWorkerID)
	assert.Equal(t, 15.0, view.RiskScore)
}

func TestProject_DispatchesByRole(t *testing.T) {
	w := verifiedWorker(t)

	public, err := Project(w, requestcontext.RolePublic)
	require.NoError(t, err)
	assert.IsType(t, &PublicView{}, public)

	owner, err := Project(w, requestcontext.RoleWorker)
	require.NoError(t, err)
	assert.IsType(t, &OwnerView{}, owner)

	police, err := Project(w, requestcontext.RolePolice)
	require.NoError(t, err)
	assert.IsType(t, &PoliceView{}, police)

	admin, err := Project(w, requestcontext.RoleAdmin)
	require.NoError(t, err)
	assert.IsType(t, &PoliceView{}, admin)

	company, err := Project(w, requestcontext.RoleCompany)
	require.NoError(t, err)
	assert.IsType(t, &CompanyView{}, company)
}

func TestProject_PublicPendingWorkerNeverLeaksQueueState(t *testing.T) {
	w := pendingWorker(t)

	_, err := Project(w, requestcontext.RolePublic)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	assert.NotContains(t, dErrors.MessageOf(err), "pending")
}
