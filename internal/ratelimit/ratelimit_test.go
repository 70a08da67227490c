package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suraksha/pkg/requestcontext"
)

func TestInMemory_AllowsUpToLimit(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := store.Allow(ctx, "ip:10.0.0.1", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should pass", i+1)
		assert.Equal(t, 4-i, result.Remaining)
	}

	result, err := store.Allow(ctx, "ip:10.0.0.1", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.False(t, result.ResetAt.IsZero())
}

func TestInMemory_KeysAreIndependent(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	_, err := store.Allow(ctx, "ip:10.0.0.1", 1, time.Minute)
	require.NoError(t, err)

	result, err := store.Allow(ctx, "ip:10.0.0.2", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestInMemory_WindowExpires(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	_, err := store.Allow(ctx, "ip:10.0.0.1", 1, 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	result, err := store.Allow(ctx, "ip:10.0.0.1", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMiddleware_Returns429WithHeaders(t *testing.T) {
	store := NewInMemory()
	handler := Middleware(store, 2, time.Minute, slog.Default())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), "10.0.0.1", "test"))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusNoContent, do().Code)
	assert.Equal(t, http.StatusNoContent, do().Code)

	rr := do()
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	assert.Contains(t, rr.Body.String(), "rate_limited")
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, context.DeadlineExceeded
}

func TestMiddleware_FailsOpenOnStoreError(t *testing.T) {
	handler := Middleware(failingStore{}, 1, time.Minute, slog.Default())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
