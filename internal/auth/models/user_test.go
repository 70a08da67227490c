package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/requestcontext"
)

func TestNewUser_HashesPassword(t *testing.T) {
	u, err := NewUser("9876543210", "w@example.in", "delivery-route-7", requestcontext.RoleWorker, time.Now().UTC())
	require.NoError(t, err)

	assert.NotEqual(t, "delivery-route-7", u.PasswordHash)
	assert.True(t, u.CheckPassword("delivery-route-7"))
	assert.False(t, u.CheckPassword("delivery-route-8"))
}

func TestNewUser_MintsProfileIDsByRole(t *testing.T) {
	now := time.Now().UTC()

	worker, err := NewUser("9876543210", "", "delivery-route-7", requestcontext.RoleWorker, now)
	require.NoError(t, err)
	assert.True(t, worker.OfficerID.IsNil())
	assert.True(t, worker.CompanyID.IsNil())

	police, err := NewUser("9876543211", "", "delivery-route-7", requestcontext.RolePolice, now)
	require.NoError(t, err)
	assert.False(t, police.OfficerID.IsNil())

	company, err := NewUser("9876543212", "", "delivery-route-7", requestcontext.RoleCompany, now)
	require.NoError(t, err)
	assert.False(t, company.CompanyID.IsNil())
}

func TestNewUser_Validation(t *testing.T) {
	now := time.Now().UTC()

	_, err := NewUser("12345", "", "delivery-route-7", requestcontext.RoleWorker, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = NewUser("9876543210", "", "short", requestcontext.RoleWorker, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = NewUser("9876543210", "", "delivery-route-7", requestcontext.Role("driver"), now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestNewUser_TrimsAndAcceptsCountryCode(t *testing.T) {
	u, err := NewUser("  +919876543210  ", " w@example.in ", "delivery-route-7", requestcontext.RoleWorker, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", u.Mobile)
	assert.Equal(t, "w@example.in", u.Email)
}
