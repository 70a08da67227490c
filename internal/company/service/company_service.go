package service

import (
	"context"

	"suraksha/internal/company/models"
	workermodels "suraksha/internal/worker/models"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/audit"
	"suraksha/pkg/requestcontext"
)

// Register creates the company profile for the authenticated account. The
// company ID is minted at signup; registration fills in the business
// details. A second registration for the same account conflicts.
func (s *CompanyService) Register(ctx context.Context, params models.RegisterParams) (*models.Company, error) {
	companyID := requestcontext.CompanyID(ctx)
	userID := requestcontext.UserID(ctx)
	if companyID.IsNil() || userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "company identity missing from request")
	}

	company, err := models.NewCompany(companyID, userID, params, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.companies.CreateIfUserAvailable(txCtx, company); err != nil {
			return wrapCompanyErr(err)
		}
		return s.auditEmitter.emit(txCtx, audit.Event{
			Subject: company.ID.String(),
			Action:  string(audit.EventCompanyRegistered),
			Reason:  company.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

// Profile returns the authenticated company's own profile.
func (s *CompanyService) Profile(ctx context.Context) (*models.Company, error) {
	company, err := s.companies.FindByID(ctx, requestcontext.CompanyID(ctx))
	if err != nil {
		return nil, wrapCompanyErr(err)
	}
	return company, nil
}

// LinkWorker attaches a worker to the company roster by official worker
// ID. Workers carry at most one employer; linking an already-linked
// worker conflicts.
func (s *CompanyService) LinkWorker(ctx context.Context, officialID string) (*workermodels.Worker, error) {
	company, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}

	var worker *workermodels.Worker
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.workers.FindByOfficialID(txCtx, officialID)
		if err != nil {
			return wrapWorkerErr(err)
		}

		now := requestcontext.Now(txCtx)
		worker, err = s.workers.Execute(txCtx, found.ID,
			func(w *workermodels.Worker) error { return w.CanLinkCompany(company.ID) },
			func(w *workermodels.Worker) { w.LinkCompany(company.ID, company.Name, now) },
		)
		if err != nil {
			return wrapWorkerErr(err)
		}

		return s.auditEmitter.emit(txCtx, audit.Event{
			WorkerID: worker.ID,
			Subject:  company.ID.String(),
			Action:   string(audit.EventWorkerLinked),
			Reason:   officialID,
		})
	})
	if err != nil {
		return nil, err
	}
	return worker, nil
}

// UnlinkWorker detaches a worker from the company roster. Only the linked
// company may unlink its own workers.
func (s *CompanyService) UnlinkWorker(ctx context.Context, officialID string) (*workermodels.Worker, error) {
	company, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}

	var worker *workermodels.Worker
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.workers.FindByOfficialID(txCtx, officialID)
		if err != nil {
			return wrapWorkerErr(err)
		}

		now := requestcontext.Now(txCtx)
		worker, err = s.workers.Execute(txCtx, found.ID,
			func(w *workermodels.Worker) error { return w.CanUnlinkCompany(company.ID) },
			func(w *workermodels.Worker) { w.UnlinkCompany(now) },
		)
		if err != nil {
			return wrapWorkerErr(err)
		}

		return s.auditEmitter.emit(txCtx, audit.Event{
			WorkerID: worker.ID,
			Subject:  company.ID.String(),
			Action:   string(audit.EventWorkerUnlinked),
			Reason:   officialID,
		})
	})
	if err != nil {
		return nil, err
	}
	return worker, nil
}

// Roster lists the workers currently linked to the company.
func (s *CompanyService) Roster(ctx context.Context) ([]*workermodels.Worker, error) {
	companyID := requestcontext.CompanyID(ctx)
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "company identity missing from request")
	}
	workers, err := s.workers.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, wrapWorkerErr(err)
	}
	return workers, nil
}

// RosterWorker returns one linked worker by official worker ID. Workers
// linked to a different company are off limits.
func (s *CompanyService) RosterWorker(ctx context.Context, officialID string) (*workermodels.Worker, error) {
	companyID := requestcontext.CompanyID(ctx)
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "company identity missing from request")
	}
	worker, err := s.workers.FindByOfficialID(ctx, officialID)
	if err != nil {
		return nil, wrapWorkerErr(err)
	}
	if worker.CompanyID != companyID {
		return nil, dErrors.New(dErrors.CodeForbidden, "worker is not linked to your company")
	}
	return worker, nil
}
