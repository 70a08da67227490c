package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suraksha/internal/company/models"
	companystore "suraksha/internal/company/store/company"
	workermodels "suraksha/internal/worker/models"
	workerstore "suraksha/internal/worker/store/worker"
	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/audit"
	auditpublisher "suraksha/pkg/platform/audit/publisher"
	auditmemory "suraksha/pkg/platform/audit/store/memory"
	"suraksha/pkg/requestcontext"
)

type serviceFixture struct {
	svc       *CompanyService
	companies *companystore.InMemory
	workers   *workerstore.InMemory
	audits    *auditmemory.InMemoryStore
	ctx       context.Context
	companyID id.CompanyID
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	companies := companystore.NewInMemory()
	workers := workerstore.NewInMemory()
	audits := auditmemory.NewInMemoryStore()
	svc := NewCompanyService(companies, workers,
		WithAuditPublisher(auditpublisher.NewPublisher(audits)),
	)

	companyID := id.NewCompanyID()
	ctx := requestcontext.WithUserID(context.Background(), id.NewUserID())
	ctx = requestcontext.WithCompanyID(ctx, companyID)
	return &serviceFixture{
		svc:       svc,
		companies: companies,
		workers:   workers,
		audits:    audits,
		ctx:       ctx,
		companyID: companyID,
	}
}

func (f *serviceFixture) register(t *testing.T) *models.Company {
	t.Helper()
	company, err := f.svc.Register(f.ctx, models.RegisterParams{Name: "Swift Facility Services"})
	require.NoError(t, err)
	return company
}

// seedWorker stores a worker that already holds an official ID, the state
// a company links against.
func (f *serviceFixture) seedWorker(t *testing.T, officialID string) *workermodels.Worker {
	t.Helper()
	w := workermodels.NewWorker(id.NewWorkerID(), id.NewUserID(), time.Now())
	w.FullName = "Asha Kumari"
	w.Category = id.CategoryDeliveryWorker
	w.OfficialWorkerID = officialID
	require.NoError(t, f.workers.CreateIfUserAvailable(context.Background(), w))
	return w
}

func TestRegister_CreatesProfileAndAudits(t *testing.T) {
	f := newFixture(t)

	company := f.register(t)
	assert.Equal(t, f.companyID, company.ID)
	assert.Equal(t, "Swift Facility Services", company.Name)

	profile, err := f.svc.Profile(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, company.ID, profile.ID)

	events, err := f.audits.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventCompanyRegistered), events[0].Action)
}

func TestRegister_SecondProfileConflicts(t *testing.T) {
	f := newFixture(t)
	f.register(t)

	_, err := f.svc.Register(f.ctx, models.RegisterParams{Name: "Duplicate"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRegister_WithoutCompanyIdentityFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), models.RegisterParams{Name: "Swift"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestLinkWorker_PopulatesCompanyOnWorker(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	seeded := f.seedWorker(t, "IND-WRK-DLV-2026-000001")

	linked, err := f.svc.LinkWorker(f.ctx, "IND-WRK-DLV-2026-000001")
	require.NoError(t, err)
	assert.Equal(t, f.companyID, linked.CompanyID)
	assert.Equal(t, "Swift Facility Services", linked.CompanyName)

	stored, err := f.workers.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, f.companyID, stored.CompanyID)
	assert.Equal(t, "Swift Facility Services", stored.CompanyName)

	events, err := f.audits.ListByWorker(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventWorkerLinked), events[0].Action)
}

func TestLinkWorker_UnknownOfficialIDIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.register(t)

	_, err := f.svc.LinkWorker(f.ctx, "IND-WRK-DLV-2026-999999")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestLinkWorker_AlreadyLinkedConflicts(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	f.seedWorker(t, "IND-WRK-DLV-2026-000001")

	_, err := f.svc.LinkWorker(f.ctx, "IND-WRK-DLV-2026-000001")
	require.NoError(t, err)

	_, err = f.svc.LinkWorker(f.ctx, "IND-WRK-DLV-2026-000001")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestLinkWorker_RequiresRegisteredProfile(t *testing.T) {
	f := newFixture(t)
	f.seedWorker(t, "IND-WRK-DLV-2026-000001")

	_, err := f.svc.LinkWorker(f.ctx, "IND-WRK-DLV-2026-000001")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUnlinkWorker_OnlyTheLinkedCompanyMayUnlink(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	seeded := f.seedWorker(t, "IND-WRK-DLV-2026-000001")

	_, err := f.svc.LinkWorker(f.ctx, "IND-WRK-DLV-2026-000001")
	require.NoError(t, err)

	// A different company account cannot unlink the worker.
	otherCtx := requestcontext.WithUserID(context.Background(), id.NewUserID())
	otherCtx = requestcontext.WithCompanyID(otherCtx, id.NewCompanyID())
	_, err = f.svc.Register(otherCtx, models.RegisterParams{Name: "Other Services"})
	require.NoError(t, err)
	_, err = f.svc.UnlinkWorker(otherCtx, "IND-WRK-DLV-2026-000001")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	unlinked, err := f.svc.UnlinkWorker(f.ctx, "IND-WRK-DLV-2026-000001")
	require.NoError(t, err)
	assert.True(t, unlinked.CompanyID.IsNil())
	assert.Empty(t, unlinked.CompanyName)

	events, err := f.audits.ListByWorker(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(audit.EventWorkerUnlinked), events[1].Action)
}

func TestRoster_ListsOnlyOwnWorkers(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	f.seedWorker(t, "IND-WRK-DLV-2026-000001")
	foreign := f.seedWorker(t, "IND-WRK-DLV-2026-000002")
	_, err := f.workers.Execute(context.Background(), foreign.ID,
		func(*workermodels.Worker) error { return nil },
		func(w *workermodels.Worker) { w.LinkCompany(id.NewCompanyID(), "Other Services", time.Now()) },
	)
	require.NoError(t, err)

	_, err = f.svc.LinkWorker(f.ctx, "IND-WRK-DLV-2026-000001")
	require.NoError(t, err)

	roster, err := f.svc.Roster(f.ctx)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "IND-WRK-DLV-2026-000001", roster[0].OfficialWorkerID)
}

func TestRosterWorker_ForeignWorkerIsForbidden(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	f.seedWorker(t, "IND-WRK-DLV-2026-000001")

	_, err := f.svc.RosterWorker(f.ctx, "IND-WRK-DLV-2026-000001")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = f.svc.LinkWorker(f.ctx, "IND-WRK-DLV-2026-000001")
	require.NoError(t, err)

	w, err := f.svc.RosterWorker(f.ctx, "IND-WRK-DLV-2026-000001")
	require.NoError(t, err)
	assert.Equal(t, "Asha Kumari", w.FullName)
}
