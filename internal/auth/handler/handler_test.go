package handler

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suraksha/internal/auth/service"
	userstore "suraksha/internal/auth/store/user"
	"suraksha/internal/auth/token"
	otpservice "suraksha/internal/otp/service"
	challengestore "suraksha/internal/otp/store/challenge"
	authmw "suraksha/pkg/platform/middleware/auth"
	"suraksha/pkg/testutil"
)

var codePattern = regexp.MustCompile(`\b([0-9]{6})\b`)

type captureNotifier struct {
	lastBody string
}

func (n *captureNotifier) Notify(_ context.Context, _, _, body string) error {
	n.lastBody = body
	return nil
}

type fixture struct {
	router   chi.Router
	tokens   *token.Service
	notifier *captureNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.Default()
	notifier := &captureNotifier{}
	tokens := token.NewService("test-signing-key", time.Hour)

	otp := otpservice.NewOTPService(challengestore.NewInMemory(), notifier)
	svc := service.NewAuthService(userstore.NewInMemory(), tokens, otp)

	router := chi.NewRouter()
	router.Route("/api/auth", func(r chi.Router) {
		New(svc, logger).Register(r)
	})
	return &fixture{router: router, tokens: tokens, notifier: notifier}
}

func (f *fixture) signup(t *testing.T, body map[string]any) *sessionResponse {
	t.Helper()
	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/signup", body))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return testutil.UnmarshalResponse[sessionResponse](t, rr)
}

func workerSignup() map[string]any {
	return map[string]any{"mobile": "+919876543210", "password": "delivery-route-7"}
}

func TestSignup_ReturnsUsableBearerToken(t *testing.T) {
	f := newFixture(t)

	resp := f.signup(t, workerSignup())
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, "worker", resp.Role)
	assert.Empty(t, resp.OfficerID)

	claims, err := f.tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID.String())
}

func TestSignup_PoliceSessionExposesOfficerID(t *testing.T) {
	f := newFixture(t)

	body := workerSignup()
	body["role"] = "police"
	resp := f.signup(t, body)
	require.NotEmpty(t, resp.OfficerID)

	claims, err := f.tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.OfficerID, claims.OfficerID.String())
}

func TestSignup_DuplicateMobileConflicts(t *testing.T) {
	f := newFixture(t)
	f.signup(t, workerSignup())

	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/signup", workerSignup()))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
}

func TestSignup_ShortPasswordIsRejected(t *testing.T) {
	f := newFixture(t)

	body := workerSignup()
	body["password"] = "short"
	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/signup", body))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
}

func TestLogin_PasswordFlow(t *testing.T) {
	f := newFixture(t)
	f.signup(t, workerSignup())

	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login",
		map[string]any{"mobile": "+919876543210", "password": "delivery-route-7"}))
	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[sessionResponse](t, rr)
	assert.NotEmpty(t, resp.Token)

	rr = testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login",
		map[string]any{"mobile": "+919876543210", "password": "wrong"}))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestLogin_OTPFlow(t *testing.T) {
	f := newFixture(t)
	f.signup(t, workerSignup())

	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/otp/send",
		map[string]any{"mobile": "+919876543210"}))
	testutil.AssertStatus(t, rr, http.StatusAccepted)

	match := codePattern.FindStringSubmatch(f.notifier.lastBody)
	require.Len(t, match, 2)

	rr = testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/otp/verify",
		map[string]any{"mobile": "+919876543210", "code": match[1]}))
	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[sessionResponse](t, rr)
	assert.NotEmpty(t, resp.Token)
}

func TestLogin_MalformedBodyIsBadRequest(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequestWithBody(t, http.MethodPost, "/api/auth/login", "{not json"))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

// The issued token must be accepted by the shared auth middleware, since
// that is what every protected route group mounts.
func TestIssuedTokenPassesAuthMiddleware(t *testing.T) {
	f := newFixture(t)
	resp := f.signup(t, workerSignup())

	protected := chi.NewRouter()
	protected.Use(authmw.RequireAuth(f.tokens, slog.Default()))
	protected.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := testutil.NewRequest(t, http.MethodGet, "/ping")
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rr := testutil.DoRequest(protected, req)
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	req = testutil.NewRequest(t, http.MethodGet, "/ping")
	req.Header.Set("Authorization", "Bearer bogus")
	rr = testutil.DoRequest(protected, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}
