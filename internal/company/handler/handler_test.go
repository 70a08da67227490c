package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suraksha/internal/company/models"
	companyservice "suraksha/internal/company/service"
	companystore "suraksha/internal/company/store/company"
	"suraksha/internal/disclosure"
	workermodels "suraksha/internal/worker/models"
	workerstore "suraksha/internal/worker/store/worker"
	id "suraksha/pkg/domain"
	"suraksha/pkg/testutil"
)

type fixture struct {
	router    chi.Router
	workers   *workerstore.InMemory
	userID    string
	companyID string
}

func newHandlerFixture(t *testing.T) *fixture {
	t.Helper()
	workers := workerstore.NewInMemory()
	svc := companyservice.NewCompanyService(companystore.NewInMemory(), workers)
	h := New(svc, nil)

	router := chi.NewRouter()
	router.Route("/api/company", h.Register)
	return &fixture{
		router:    router,
		workers:   workers,
		userID:    uuid.NewString(),
		companyID: uuid.NewString(),
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(t, method, path, body)
	} else {
		req = testutil.NewRequest(t, method, path)
	}
	return testutil.WithCompany(req, f.userID, f.companyID)
}

func (f *fixture) register(t *testing.T) {
	t.Helper()
	rr := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/api/company/register", map[string]string{
		"name": "Swift Facility Services",
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
}

func (f *fixture) seedWorker(t *testing.T, officialID string) *workermodels.Worker {
	t.Helper()
	w := workermodels.NewWorker(id.NewWorkerID(), id.NewUserID(), time.Now())
	w.FullName = "Asha Kumari"
	w.Category = id.CategoryDeliveryWorker
	w.OfficialWorkerID = officialID
	require.NoError(t, f.workers.CreateIfUserAvailable(context.Background(), w))
	return w
}

func TestRegister_ReturnsProfile(t *testing.T) {
	f := newHandlerFixture(t)

	rr := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/api/company/register", map[string]string{
		"name": "Swift Facility Services",
		"cin":  "U74999DL2020PTC123456",
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	resp := testutil.UnmarshalResponse[models.Company](t, rr)
	assert.Equal(t, f.companyID, resp.ID.String())
	assert.Equal(t, "Swift Facility Services", resp.Name)
}

func TestRegister_EmptyNameFailsValidation(t *testing.T) {
	f := newHandlerFixture(t)

	rr := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/api/company/register", map[string]string{}))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
}

func TestProfile_BeforeRegistrationIsNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	rr := testutil.DoRequest(f.router, f.do(t, http.MethodGet, "/api/company/profile", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestLinkWorker_ThenRoster(t *testing.T) {
	f := newHandlerFixture(t)
	f.register(t)
	f.seedWorker(t, "IND-WRK-DLV-2026-000001")

	rr := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/api/company/workers/IND-WRK-DLV-2026-000001/link", nil))
	testutil.AssertStatusOK(t, rr)

	view := testutil.UnmarshalResponse[disclosure.CompanyView](t, rr)
	assert.Equal(t, "IND-WRK-DLV-2026-000001", view.OfficialWorkerID)
	assert.Equal(t, "Asha Kumari", view.FullName)

	rr = testutil.DoRequest(f.router, f.do(t, http.MethodGet, "/api/company/workers", nil))
	testutil.AssertStatusOK(t, rr)

	roster := testutil.UnmarshalResponse[rosterResponse](t, rr)
	assert.Equal(t, 1, roster.Total)
	require.Len(t, roster.Workers, 1)
	assert.Equal(t, "IND-WRK-DLV-2026-000001", roster.Workers[0].OfficialWorkerID)
}

func TestLinkWorker_UnknownWorkerIsNotFound(t *testing.T) {
	f := newHandlerFixture(t)
	f.register(t)

	rr := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/api/company/workers/IND-WRK-DLV-2026-999999/link", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestLinkWorker_SecondLinkConflicts(t *testing.T) {
	f := newHandlerFixture(t)
	f.register(t)
	f.seedWorker(t, "IND-WRK-DLV-2026-000001")

	rr := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/api/company/workers/IND-WRK-DLV-2026-000001/link", nil))
	testutil.AssertStatusOK(t, rr)

	rr = testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/api/company/workers/IND-WRK-DLV-2026-000001/link", nil))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
}

func TestUnlinkWorker_RemovesFromRoster(t *testing.T) {
	f := newHandlerFixture(t)
	f.register(t)
	f.seedWorker(t, "IND-WRK-DLV-2026-000001")

	rr := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/api/company/workers/IND-WRK-DLV-2026-000001/link", nil))
	testutil.AssertStatusOK(t, rr)

	rr = testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/api/company/workers/IND-WRK-DLV-2026-000001/unlink", nil))
	testutil.AssertStatusOK(t, rr)

	rr = testutil.DoRequest(f.router, f.do(t, http.MethodGet, "/api/company/workers", nil))
	testutil.AssertStatusOK(t, rr)

	roster := testutil.UnmarshalResponse[rosterResponse](t, rr)
	assert.Equal(t, 0, roster.Total)
}

func TestRosterWorker_ForeignWorkerIsForbidden(t *testing.T) {
	f := newHandlerFixture(t)
	f.register(t)
	f.seedWorker(t, "IND-WRK-DLV-2026-000001")

	rr := testutil.DoRequest(f.router, f.do(t, http.MethodGet, "/api/company/workers/IND-WRK-DLV-2026-000001", nil))
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}
