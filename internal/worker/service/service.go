// Package service orchestrates worker registration and the six-step
// onboarding flow.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	workermetrics "suraksha/internal/worker/metrics"
	"suraksha/internal/worker/models"
	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/audit"
	"suraksha/pkg/platform/sentinel"
	"suraksha/pkg/platform/tx"
	"suraksha/pkg/requestcontext"
)

// Store is the worker persistence contract required by the service.
type Store interface {
	CreateIfUserAvailable(ctx context.Context, w *models.Worker) error
	FindByID(ctx context.Context, workerID id.WorkerID) (*models.Worker, error)
	FindByUserID(ctx context.Context, userID id.UserID) (*models.Worker, error)
	Execute(ctx context.Context, workerID id.WorkerID, validate func(*models.Worker) error, mutate func(*models.Worker)) (*models.Worker, error)
}

// AssetStore persists binary artifacts (selfies) outside the worker record
// and returns an opaque reference.
type AssetStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *workermetrics.Metrics
	tx             tx.Runner
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(cfg *serviceConfig) { cfg.auditPublisher = publisher }
}

func WithMetrics(m *workermetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

func WithTxRunner(runner tx.Runner) Option {
	return func(cfg *serviceConfig) { cfg.tx = runner }
}

// WorkerService orchestrates the worker onboarding lifecycle.
type WorkerService struct {
	workers      Store
	assets       AssetStore
	auditEmitter *auditEmitter
	metrics      *workermetrics.Metrics
	tx           tx.Runner
}

func NewWorkerService(workers Store, assets AssetStore, opts ...Option) *WorkerService {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	runner := cfg.tx
	if runner == nil {
		runner = tx.NewMemoryRunner()
	}
	return &WorkerService{
		workers:      workers,
		assets:       assets,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:      cfg.metrics,
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
		if userID := requestcontext.UserID(ctx); !userID.IsNil() {
			event.ActorID = userID.String()
		}
	}

	if e.logger != nil {
		e.logger.InfoContext(ctx, event.Action,
			"log_type", "audit",
			"worker_id", event.WorkerID.String(),
			"stage", event.Stage,
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

func wrapWorkerErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "worker profile not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "worker profile already exists for this user")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "official worker ID is already assigned")
	case dErrors.IsDomainError(err):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "worker store operation failed")
	}
}

func (s *WorkerService) observeAdvance(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveAdvance(start)
	}
}
