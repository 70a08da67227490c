package httpapi

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	authhandler "suraksha/internal/auth/handler"
	authservice "suraksha/internal/auth/service"
	userstore "suraksha/internal/auth/store/user"
	"suraksha/internal/auth/token"
	"suraksha/internal/collab/assetstore"
	companyhandler "suraksha/internal/company/handler"
	companyservice "suraksha/internal/company/service"
	companystore "suraksha/internal/company/store/company"
	disclosurehandler "suraksha/internal/disclosure/handler"
	"suraksha/internal/identity"
	"suraksha/internal/ratelimit"
	verificationhandler "suraksha/internal/verification/handler"
	verificationservice "suraksha/internal/verification/service"
	incidentstore "suraksha/internal/verification/store/incident"
	recordstore "suraksha/internal/verification/store/verification"
	workerhandler "suraksha/internal/worker/handler"
	workerservice "suraksha/internal/worker/service"
	workerstore "suraksha/internal/worker/store/worker"
	auditpublisher "suraksha/pkg/platform/audit/publisher"
	auditmemory "suraksha/pkg/platform/audit/store/memory"
	"suraksha/pkg/testutil"
)

// newTestRouter assembles the full application against in-memory stores,
// the same shape main builds in production.
func newTestRouter(t *testing.T) (http.Handler, *token.Service) {
	t.Helper()
	logger := slog.Default()
	tokens := token.NewService("router-test-key", time.Hour)
	publisher := auditpublisher.NewPublisher(auditmemory.NewInMemoryStore())

	workers := workerstore.NewInMemory()
	workerSvc := workerservice.NewWorkerService(workers, assetstore.NewInMemory(),
		workerservice.WithAuditPublisher(publisher))
	verificationSvc := verificationservice.NewVerificationService(
		workers, recordstore.NewInMemory(), incidentstore.NewInMemory(), identity.NewIssuer(),
		verificationservice.WithAuditPublisher(publisher))
	authSvc := authservice.NewAuthService(userstore.NewInMemory(), tokens, nil,
		authservice.WithAuditPublisher(publisher))
	companySvc := companyservice.NewCompanyService(companystore.NewInMemory(), workers,
		companyservice.WithAuditPublisher(publisher))

	router := New(Config{
		Logger:      logger,
		Validator:   tokens,
		Auth:        authhandler.New(authSvc, logger),
		Worker:      workerhandler.New(workerSvc, logger),
		Police:      verificationhandler.New(verificationSvc, logger),
		Company:     companyhandler.New(companySvc, logger),
		Disclosure:  disclosurehandler.New(workers, publisher, logger),
		AuthLimiter: ratelimit.Middleware(ratelimit.NewInMemory(), 30, time.Minute, logger),
	})
	return router, tokens
}

func signupToken(t *testing.T, router http.Handler, mobile, role string) string {
	t.Helper()
	body := map[string]any{"mobile": mobile, "password": "delivery-route-7", "role": role}
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/signup", body))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[struct {
		Token string `json:"token"`
	}](t, rr)
	return resp.Token
}

func authed(t *testing.T, method, path, tok string) *http.Request {
	t.Helper()
	req := testutil.NewRequest(t, method, path)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func TestRouter_HealthAndMetricsAreOpen(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(t, rr)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
}

func TestRouter_WorkerGroupRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/worker/profile"))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestRouter_WorkerCanRegisterButNotReachPoliceRoutes(t *testing.T) {
	router, _ := newTestRouter(t)
	tok := signupToken(t, router, "+919876543210", "worker")

	rr := testutil.DoRequest(router, authed(t, http.MethodPost, "/api/worker/register", tok))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rr = testutil.DoRequest(router, authed(t, http.MethodGet, "/api/police/queue", tok))
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}

func TestRouter_PoliceCanListQueue(t *testing.T) {
	router, _ := newTestRouter(t)
	tok := signupToken(t, router, "+919876543211", "police")

	rr := testutil.DoRequest(router, authed(t, http.MethodGet, "/api/police/queue", tok))
	testutil.AssertStatusOK(t, rr)

	rr = testutil.DoRequest(router, authed(t, http.MethodGet, "/api/worker/profile", tok))
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}

func TestRouter_PublicVerifyNeedsNoAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/verify/worker/IND-WRK-DLV-2026-000001"))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestRouter_AuthEndpointsCarryRateLimitHeaders(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login",
		map[string]any{"mobile": "+910000000000", "password": "delivery-route-7"}))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestRouter_CompanyGroupEnforcesRole(t *testing.T) {
	router, _ := newTestRouter(t)

	// Unauthenticated requests are rejected outright.
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/company/profile"))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	// Worker tokens cannot reach the company surface, and vice versa.
	workerTok := signupToken(t, router, "+919876543220", "worker")
	rr = testutil.DoRequest(router, authed(t, http.MethodGet, "/api/company/profile", workerTok))
	testutil.AssertStatus(t, rr, http.StatusForbidden)

	companyTok := signupToken(t, router, "+919876543221", "company")
	rr = testutil.DoRequest(router, authed(t, http.MethodGet, "/api/worker/profile", companyTok))
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}

func TestRouter_CompanyRegistersAndSeesEmptyRoster(t *testing.T) {
	router, _ := newTestRouter(t)
	tok := signupToken(t, router, "+919876543222", "company")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/company/register",
		map[string]any{"name": "Swift Facility Services"})
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rr = testutil.DoRequest(router, authed(t, http.MethodGet, "/api/company/workers", tok))
	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[struct {
		Total int `json:"total"`
	}](t, rr)
	assert.Equal(t, 0, resp.Total)
}
