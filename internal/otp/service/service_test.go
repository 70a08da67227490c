package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suraksha/internal/otp/models"
	challengestore "suraksha/internal/otp/store/challenge"
	dErrors "suraksha/pkg/domain-errors"
)

type stubNotifier struct {
	sent []string
	err  error
}

func (n *stubNotifier) Notify(_ context.Context, _, _, body string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, body)
	return nil
}

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

func (n *stubNotifier) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, n.sent)
	match := codePattern.FindStringSubmatch(n.sent[len(n.sent)-1])
	require.NotNil(t, match, "no code in notification body")
	return match[1]
}

func newService() (*OTPService, *challengestore.InMemory, *stubNotifier) {
	store := challengestore.NewInMemory()
	notifier := &stubNotifier{}
	return NewOTPService(store, notifier), store, notifier
}

func TestSendAndVerify(t *testing.T) {
	svc, _, notifier := newService()
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "9876501234"))
	code := notifier.lastCode(t)

	require.NoError(t, svc.Verify(ctx, "9876501234", code))

	// The challenge is consumed; the same code cannot be replayed.
	err := svc.Verify(ctx, "9876501234", code)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestSend_RequiresMobile(t *testing.T) {
	svc, _, _ := newService()

	err := svc.Send(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(err))
}

func TestSend_ResendReplacesChallenge(t *testing.T) {
	svc, _, notifier := newService()
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "9876501234"))
	first := notifier.lastCode(t)
	require.NoError(t, svc.Send(ctx, "9876501234"))
	second := notifier.lastCode(t)

	if first != second {
		err := svc.Verify(ctx, "9876501234", first)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	}
	require.NoError(t, svc.Verify(ctx, "9876501234", second))
}

func TestSend_DeliveryFailureBurnsChallenge(t *testing.T) {
	svc, store, notifier := newService()
	ctx := context.Background()
	notifier.err = errors.New("gateway down")

	err := svc.Send(ctx, "9876501234")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeExternal, dErrors.CodeOf(err))

	_, err = store.Find(ctx, "9876501234")
	require.Error(t, err)
}

func TestVerify_WrongCodeBurnsAttempts(t *testing.T) {
	svc, _, notifier := newService()
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "9876501234"))
	code := notifier.lastCode(t)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < models.MaxAttempts; i++ {
		err := svc.Verify(ctx, "9876501234", wrong)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	}

	// The budget is spent; even the right code is refused now.
	err := svc.Verify(ctx, "9876501234", code)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeExhausted, dErrors.CodeOf(err))

	// And the exhausted challenge was deleted outright.
	err = svc.Verify(ctx, "9876501234", code)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestVerify_ExpiredChallenge(t *testing.T) {
	svc, store, notifier := newService()
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "9876501234"))
	code := notifier.lastCode(t)

	// Rewind the expiry instead of sleeping.
	challenge, err := store.Find(ctx, "9876501234")
	require.NoError(t, err)
	challenge.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Save(ctx, challenge))

	err = svc.Verify(ctx, "9876501234", code)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestVerify_UnknownMobile(t *testing.T) {
	svc, _, _ := newService()

	err := svc.Verify(context.Background(), "9999999999", "123456")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}
