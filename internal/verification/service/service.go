// Package service orchestrates the police verification workflow: face
// checks, approval and rejection decisions, identity issuance, incident
// reports and the expiry sweep.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"suraksha/internal/collab/biometric"
	"suraksha/internal/collab/qr"
	"suraksha/internal/identity"
	verificationmetrics "suraksha/internal/verification/metrics"
	"suraksha/internal/verification/models"
	workermodels "suraksha/internal/worker/models"
	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/audit"
	"suraksha/pkg/platform/sentinel"
	"suraksha/pkg/platform/tx"
	"suraksha/pkg/requestcontext"
)

// DefaultValidity is how long an approval stays valid before the worker
// must re-verify.
const DefaultValidity = 365 * 24 * time.Hour

// WorkerStore is the worker persistence contract required by the
// verification workflow. It includes the issuance sequence queries so the
// ID claim and the worker update share one transaction.
type WorkerStore interface {
	identity.Sequencer
	FindByID(ctx context.Context, workerID id.WorkerID) (*workermodels.Worker, error)
	FindByOfficialID(ctx context.Context, officialID string) (*workermodels.Worker, error)
	Execute(ctx context.Context, workerID id.WorkerID, validate func(*workermodels.Worker) error, mutate func(*workermodels.Worker)) (*workermodels.Worker, error)
	ListByVerificationStatus(ctx context.Context, status workermodels.VerificationStatus) ([]*workermodels.Worker, error)
	ListExpired(ctx context.Context, asOf time.Time) ([]*workermodels.Worker, error)
}

// RecordStore persists verification case records.
type RecordStore interface {
	Open(ctx context.Context, record *models.Record) error
	FindByID(ctx context.Context, recordID id.VerificationID) (*models.Record, error)
	FindOpenByWorker(ctx context.Context, workerID id.WorkerID) (*models.Record, error)
	Execute(ctx context.Context, recordID id.VerificationID, validate func(*models.Record) error, mutate func(*models.Record)) (*models.Record, error)
	ListByWorker(ctx context.Context, workerID id.WorkerID) ([]*models.Record, error)
}

// IncidentStore persists incident reports.
type IncidentStore interface {
	Create(ctx context.Context, incident *models.Incident) error
	ListByWorker(ctx context.Context, workerID id.WorkerID) ([]*models.Incident, error)
}

// Issuer allocates official worker IDs.
type Issuer interface {
	Issue(ctx context.Context, seq identity.Sequencer, category id.WorkerCategory, year int, claim func(officialID string) error) (string, error)
}

// QRGenerator produces the public verification artifacts for an issued ID.
type QRGenerator interface {
	Generate(ctx context.Context, officialID string) (qr.Artifacts, error)
}

// Notifier delivers decision notices to workers. Delivery failures are
// logged, never propagated; the decision has already committed.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *verificationmetrics.Metrics
	tx             tx.Runner
	matcher        biometric.Matcher
	qr             QRGenerator
	notifier       Notifier
	validity       time.Duration
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(cfg *serviceConfig) { cfg.auditPublisher = publisher }
}

func WithMetrics(m *verificationmetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

func WithTxRunner(runner tx.Runner) Option {
	return func(cfg *serviceConfig) { cfg.tx = runner }
}

func WithMatcher(matcher biometric.Matcher) Option {
	return func(cfg *serviceConfig) { cfg.matcher = matcher }
}

func WithQRGenerator(generator QRGenerator) Option {
	return func(cfg *serviceConfig) { cfg.qr = generator }
}

func WithNotifier(notifier Notifier) Option {
	return func(cfg *serviceConfig) { cfg.notifier = notifier }
}

// WithValidity overrides the approval validity window.
func WithValidity(validity time.Duration) Option {
	return func(cfg *serviceConfig) { cfg.validity = validity }
}

// VerificationService runs the police side of the worker lifecycle.
type VerificationService struct {
	workers      WorkerStore
	records      RecordStore
	incidents    IncidentStore
	issuer       Issuer
	matcher      biometric.Matcher
	qr           QRGenerator
	notifier     Notifier
	auditEmitter *auditEmitter
	metrics      *verificationmetrics.Metrics
	tx           tx.Runner
	validity     time.Duration
}

func NewVerificationService(workers WorkerStore, records RecordStore, incidents IncidentStore, issuer Issuer, opts ...Option) *VerificationService {
	cfg := &serviceConfig{validity: DefaultValidity}
	for _, opt := range opts {
		opt(cfg)
	}
	runner := cfg.tx
	if runner == nil {
		runner = tx.NewMemoryRunner()
	}
	return &VerificationService{
		workers:      workers,
		records:      records,
		incidents:    incidents,
		issuer:       issuer,
		matcher:      cfg.matcher,
		qr:           cfg.qr,
		notifier:     cfg.notifier,
		auditEmitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:      cfg.metrics,
		tx:           runner,
		validity:     cfg.validity,
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
		if officerID := requestcontext.OfficerID(ctx); !officerID.IsNil() {
			event.ActorID = officerID.String()
		} else if userID := requestcontext.UserID(ctx); !userID.IsNil() {
			event.ActorID = userID.String()
		}
	}

	if e.logger != nil {
		e.logger.InfoContext(ctx, event.Action,
			"log_type", "audit",
			"worker_id", event.WorkerID.String(),
			"decision", event.Decision,
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
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "official worker ID is already assigned")
	case dErrors.IsDomainError(err):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "worker store operation failed")
	}
}

func wrapRecordErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "verification case not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "worker already has an open verification case")
	case dErrors.IsDomainError(err):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "verification store operation failed")
	}
}

func (s *VerificationService) observeDecision(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDecision(start)
	}
}
