// Package service orchestrates the employer side of the registry: company
// profile registration and the roster of workers linked to the company.
package service

import (
	"context"
	"errors"
	"log/slog"

	"suraksha/internal/company/models"
	workermodels "suraksha/internal/worker/models"
	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/audit"
	"suraksha/pkg/platform/sentinel"
	"suraksha/pkg/platform/tx"
	"suraksha/pkg/requestcontext"
)

// Store is the company persistence contract required by the service.
type Store interface {
	CreateIfUserAvailable(ctx context.Context, c *models.Company) error
	FindByID(ctx context.Context, companyID id.CompanyID) (*models.Company, error)
	FindByUserID(ctx context.Context, userID id.UserID) (*models.Company, error)
}

// WorkerStore is the worker persistence contract the roster operations
// need: lookup by official ID for linking, and the company-scoped listing.
type WorkerStore interface {
	FindByOfficialID(ctx context.Context, officialID string) (*workermodels.Worker, error)
	Execute(ctx context.Context, workerID id.WorkerID, validate func(*workermodels.Worker) error, mutate func(*workermodels.Worker)) (*workermodels.Worker, error)
	ListByCompany(ctx context.Context, companyID id.CompanyID) ([]*workermodels.Worker, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	tx             tx.Runner
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(cfg *serviceConfig) { cfg.auditPublisher = publisher }
}

func WithTxRunner(runner tx.Runner) Option {
	return func(cfg *serviceConfig) { cfg.tx = runner }
}

// CompanyService orchestrates company registration and worker linking.
type CompanyService struct {
	companies    Store
	workers      WorkerStore
	auditEmitter *auditEmitter
	tx           tx.Runner
}

func NewCompanyService(companies Store, workers WorkerStore, opts ...Option) *CompanyService {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	runner := cfg.tx
	if runner == nil {
		runner = tx.NewMemoryRunner()
	}
	return &CompanyService{
		companies:    companies,
		workers:      workers,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
		tx:           runner,
	}
}

// auditEmitter enriches audit events with request metadata before handing
// them to the publisher.
type auditEmitter struct {
	logger    *slog.Logger
	publisher AuditPublisher
}

func newAuditEmitter(logger *slog.Logger, publisher AuditPublisher) *auditEmitter {
	return &auditEmitter{logger: logger, publisher: publisher}
}

func (e *auditEmitter) emit(ctx context.Context, event audit.Event) error {
	event.RequestID = requestcontext.RequestID(ctx)
	event.IP = requestcontext.ClientIP(ctx)
	event.UserAgent = requestcontext.UserAgent(ctx)
	if event.ActorID == "" {
		if companyID := requestcontext.CompanyID(ctx); !companyID.IsNil() {
			event.ActorID = companyID.String()
		}
	}

	if e.logger != nil {
		e.logger.InfoContext(ctx, event.Action,
			"log_type", "audit",
			"worker_id", event.WorkerID.String(),
			"actor_id", event.ActorID,
			"request_id", event.RequestID,
		)
	}
	if e.publisher == nil {
		return nil
	}
	if err := e.publisher.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func wrapCompanyErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "company profile not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "company profile already exists for this user")
	case dErrors.IsDomainError(err):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "company store operation failed")
	}
}

func wrapWorkerErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "worker profile not found")
	case dErrors.IsDomainError(err):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "worker store operation failed")
	}
}
