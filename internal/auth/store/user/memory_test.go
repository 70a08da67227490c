package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suraksha/internal/auth/models"
	"suraksha/pkg/platform/sentinel"
	"suraksha/pkg/requestcontext"
)

func newAccount(t *testing.T, mobile string) *models.User {
	t.Helper()
	u, err := models.NewUser(mobile, "", "delivery-route-7", requestcontext.RoleWorker, time.Now().UTC())
	require.NoError(t, err)
	return u
}

func TestCreateAndFind(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	u := newAccount(t, "+919876543210")

	require.NoError(t, store.Create(ctx, u))

	byID, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Mobile, byID.Mobile)

	byMobile, err := store.FindByMobile(ctx, u.Mobile)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byMobile.ID)
}

func TestCreate_RejectsDuplicateMobile(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newAccount(t, "+919876543210")))
	err := store.Create(ctx, newAccount(t, "+919876543210"))
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestFind_UnknownAccount(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	_, err := store.FindByMobile(ctx, "+910000000000")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFind_ReturnsCopies(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	u := newAccount(t, "+919876543210")
	require.NoError(t, store.Create(ctx, u))

	got, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	got.Email = "mutated@example.in"

	again, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Email)
}
