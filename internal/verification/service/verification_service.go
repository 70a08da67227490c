package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"suraksha/internal/collab/biometric"
	"suraksha/internal/verification/models"
	workermodels "suraksha/internal/worker/models"
	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/audit"
	"suraksha/pkg/platform/sentinel"
	pstrings "suraksha/pkg/platform/strings"
	"suraksha/pkg/requestcontext"
)

var tracer = otel.Tracer("suraksha/internal/verification")

// Queue lists workers awaiting a verification decision, oldest update
// first. Only locked applications qualify; a worker mid-onboarding is not
// submitted yet.
func (s *VerificationService) Queue(ctx context.Context) ([]*workermodels.Worker, error) {
	pending, err := s.workers.ListByVerificationStatus(ctx, workermodels.VerificationPending)
	if err != nil {
		return nil, wrapWorkerErr(err)
	}
	queue := make([]*workermodels.Worker, 0, len(pending))
	for _, w := range pending {
		if w.Locked() {
			queue = append(queue, w)
		}
	}
	return queue, nil
}

// CaseFile is everything an officer reviews before deciding.
type CaseFile struct {
	Worker    *workermodels.Worker `json:"worker"`
	OpenCase  *models.Record       `json:"open_case,omitempty"`
	History   []*models.Record     `json:"history,omitempty"`
	Incidents []*models.Incident   `json:"incidents,omitempty"`
}

// CaseFile assembles the worker's record, case history and incident log.
func (s *VerificationService) CaseFile(ctx context.Context, workerID id.WorkerID) (*CaseFile, error) {
	worker, err := s.workers.FindByID(ctx, workerID)
	if err != nil {
		return nil, wrapWorkerErr(err)
	}

	file := &CaseFile{Worker: worker}
	if file.History, err = s.records.ListByWorker(ctx, workerID); err != nil {
		return nil, wrapRecordErr(err)
	}
	for _, record := range file.History {
		if record.Status == models.RecordOpen {
			file.OpenCase = record
		}
	}
	if file.Incidents, err = s.incidents.ListByWorker(ctx, workerID); err != nil {
		return nil, wrapRecordErr(err)
	}
	return file, nil
}

// RecordFaceCheck runs the biometric comparison between the worker's selfie
// and the Aadhaar reference photo and stores the normalized confidence on
// the worker's open case, opening one when this is the first check.
func (s *VerificationService) RecordFaceCheck(ctx context.Context, workerID id.WorkerID) (*models.Record, error) {
	if s.matcher == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "face match service is not configured")
	}

	worker, err := s.workers.FindByID(ctx, workerID)
	if err != nil {
		return nil, wrapWorkerErr(err)
	}
	if !worker.Locked() || worker.VerificationStatus != workermodels.VerificationPending {
		return nil, dErrors.New(dErrors.CodeConflict, "worker has no application pending verification")
	}
	if worker.SelfieRef == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "submitted application is missing the selfie")
	}

	match, err := s.matcher.Compare(ctx, worker.SelfieRef, worker.AadhaarReference)
	if err != nil {
		return nil, err
	}
	confidence, err := biometric.NormalizeScore(match.Score)
	if err != nil {
		return nil, err
	}

	var record *models.Record
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)

		open, err := s.openCase(txCtx, workerID, now)
		if err != nil {
			return err
		}
		record, err = s.records.Execute(txCtx, open.ID,
			func(r *models.Record) error { return r.CanRecordFaceCheck(confidence) },
			func(r *models.Record) { r.RecordFaceCheck(confidence, match.IsLive, now) },
		)
		if err != nil {
			return wrapRecordErr(err)
		}

		return s.auditEmitter.emit(txCtx, audit.Event{
			WorkerID: workerID,
			Subject:  record.ID.String(),
			Action:   string(audit.EventFaceCheckRecorded),
			Reason:   fmt.Sprintf("confidence=%.4f live=%t", confidence, match.IsLive),
		})
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.FaceChecks.Inc()
	}
	return record, nil
}

// openCase returns the worker's open verification case, filing one if
// none exists. A concurrent filer losing the unique-index race falls back
// to the winner's case.
func (s *VerificationService) openCase(ctx context.Context, workerID id.WorkerID, now time.Time) (*models.Record, error) {
	open, err := s.records.FindOpenByWorker(ctx, workerID)
	if err == nil {
		return open, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, wrapRecordErr(err)
	}

	fresh := models.NewRecord(id.NewVerificationID(), workerID, now)
	switch err := s.records.Open(ctx, fresh); {
	case err == nil:
		return fresh, nil
	case errors.Is(err, sentinel.ErrConflict):
		open, err := s.records.FindOpenByWorker(ctx, workerID)
		if err != nil {
			return nil, wrapRecordErr(err)
		}
		return open, nil
	default:
		return nil, wrapRecordErr(err)
	}
}

// Decide records the officer's verdict. Approval issues the official worker
// ID in the same transaction as the status change; rejection blocks the
// worker until onboarding is restarted. Re-approving an already verified
// worker returns the current state without issuing a second ID.
func (s *VerificationService) Decide(ctx context.Context, workerID id.WorkerID, approve bool, remarks string) (*workermodels.Worker, error) {
	defer s.observeDecision(time.Now())

	ctx, span := tracer.Start(ctx, "verification.Decide", trace.WithAttributes(
		attribute.String("worker.id", workerID.String()),
		attribute.Bool("decision.approve", approve),
	))
	defer span.End()

	officerID := requestcontext.OfficerID(ctx)
	if officerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "officer identity is missing")
	}

	decision := models.DecisionRejected
	if approve {
		decision = models.DecisionApproved
	}

	var (
		worker   *workermodels.Worker
		issuedID string
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)

		current, err := s.workers.FindByID(txCtx, workerID)
		if err != nil {
			return wrapWorkerErr(err)
		}
		if err := current.CanDecide(approve); err != nil {
			return err
		}

		if approve && current.HasIdentity() {
			// Idempotent re-approval: the worker keeps the ID and the
			// original validity window.
			worker = current
			return nil
		}

		if approve {
			year := now.Year()
			issuedID, err = s.issuer.Issue(txCtx, s.workers, current.Category, year, func(officialID string) error {
				w, execErr := s.workers.Execute(txCtx, workerID,
					func(w *workermodels.Worker) error { return w.CanDecide(true) },
					func(w *workermodels.Worker) {
						w.ApplyApproval(now, s.validity)
						w.SetIdentity(officialID, now)
					},
				)
				if execErr != nil {
					return execErr
				}
				worker = w
				return nil
			})
			if err != nil {
				return wrapWorkerErr(err)
			}
		} else {
			worker, err = s.workers.Execute(txCtx, workerID,
				func(w *workermodels.Worker) error { return w.CanDecide(false) },
				func(w *workermodels.Worker) { w.ApplyRejection(now) },
			)
			if err != nil {
				return wrapWorkerErr(err)
			}
		}

		if err := s.closeCase(txCtx, workerID, officerID, decision, remarks, now); err != nil {
			return err
		}

		if err := s.auditEmitter.emit(txCtx, audit.Event{
			WorkerID: workerID,
			Subject:  workerID.String(),
			Action:   string(audit.EventVerificationDecided),
			Decision: string(decision),
			Reason:   remarks,
		}); err != nil {
			return err
		}
		if issuedID != "" {
			if err := s.auditEmitter.emit(txCtx, audit.Event{
				WorkerID: workerID,
				Subject:  issuedID,
				Action:   string(audit.EventWorkerIDIssued),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementDecision(string(decision))
		if issuedID != "" {
			s.metrics.IDsIssued.Inc()
		}
	}

	// Artifact generation and the decision notice happen after commit.
	// Both are recoverable: artifacts via EnsureArtifacts, the notice is
	// best effort.
	if worker.NeedsArtifacts() {
		if repaired, err := s.EnsureArtifacts(ctx, workerID); err != nil {
			s.logWarn(ctx, "qr artifact generation failed", "worker_id", workerID.String(), "error", err)
		} else {
			worker = repaired
		}
	}
	s.notifyDecision(ctx, worker, decision)

	return worker, nil
}

// closeCase stamps the officer's outcome on the open case, if one exists.
// Deciding straight from the queue without a prior face check is allowed,
// so a missing case is not an error.
func (s *VerificationService) closeCase(ctx context.Context, workerID id.WorkerID, officerID id.OfficerID, decision models.Decision, remarks string, now time.Time) error {
	record, err := s.records.FindOpenByWorker(ctx, workerID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return wrapRecordErr(err)
	}

	_, err = s.records.Execute(ctx, record.ID,
		func(r *models.Record) error { return r.EnsureOpen() },
		func(r *models.Record) { r.ApplyDecision(officerID, decision, remarks, now) },
	)
	return wrapRecordErr(err)
}

// EnsureArtifacts generates and stores the QR artifacts for a verified
// worker whose issuance completed without them.
func (s *VerificationService) EnsureArtifacts(ctx context.Context, workerID id.WorkerID) (*workermodels.Worker, error) {
	if s.qr == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "qr generator is not configured")
	}

	worker, err := s.workers.FindByID(ctx, workerID)
	if err != nil {
		return nil, wrapWorkerErr(err)
	}
	if !worker.HasIdentity() {
		return nil, dErrors.New(dErrors.CodeConflict, "worker has no official ID issued")
	}
	if !worker.NeedsArtifacts() {
		return worker, nil
	}

	artifacts, err := s.qr.Generate(ctx, worker.OfficialWorkerID)
	if err != nil {
		return nil, err
	}

	worker, err = s.workers.Execute(ctx, workerID,
		func(w *workermodels.Worker) error { return nil },
		func(w *workermodels.Worker) {
			w.SetArtifacts(artifacts.QRCodeURL, artifacts.VerificationEndpoint, requestcontext.Now(ctx))
		},
	)
	if err != nil {
		return nil, wrapWorkerErr(err)
	}

	if err := s.auditEmitter.emit(ctx, audit.Event{
		WorkerID: workerID,
		Subject:  worker.OfficialWorkerID,
		Action:   string(audit.EventQRGenerated),
	}); err != nil {
		return nil, err
	}
	return worker, nil
}

// LogIncident files a complaint against a worker and bumps their risk
// score. The report itself is append-only.
func (s *VerificationService) LogIncident(ctx context.Context, workerID id.WorkerID, severity models.Severity, description, reportedBy string, evidenceURLs []string) (*models.Incident, error) {
	var incident *models.Incident
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)

		filed, err := models.NewIncident(workerID, severity, description, reportedBy, pstrings.DedupeAndTrim(evidenceURLs), now)
		if err != nil {
			return err
		}

		_, err = s.workers.Execute(txCtx, workerID,
			func(w *workermodels.Worker) error { return nil },
			func(w *workermodels.Worker) { w.ApplyIncident(filed.RiskWeight, now) },
		)
		if err != nil {
			return wrapWorkerErr(err)
		}
		if err := s.incidents.Create(txCtx, filed); err != nil {
			return wrapRecordErr(err)
		}

		if err := s.auditEmitter.emit(txCtx, audit.Event{
			WorkerID: workerID,
			Subject:  filed.ID.String(),
			Action:   string(audit.EventIncidentLogged),
			Reason:   string(severity),
		}); err != nil {
			return err
		}
		incident = filed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementIncident(string(severity))
	}
	return incident, nil
}

// Suspend takes a worker off duty. Permanent suspension blocks the worker
// outright; a temporary one can be lifted with Reactivate.
func (s *VerificationService) Suspend(ctx context.Context, workerID id.WorkerID, permanent bool, reason string) (*workermodels.Worker, error) {
	event := audit.EventWorkerSuspended
	if permanent {
		event = audit.EventWorkerBlocked
	}

	var worker *workermodels.Worker
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)

		w, err := s.workers.Execute(txCtx, workerID,
			func(w *workermodels.Worker) error { return w.CanSuspend() },
			func(w *workermodels.Worker) { w.ApplySuspension(permanent, now) },
		)
		if err != nil {
			return wrapWorkerErr(err)
		}
		worker = w

		return s.auditEmitter.emit(txCtx, audit.Event{
			WorkerID: workerID,
			Subject:  workerID.String(),
			Action:   string(event),
			Reason:   reason,
		})
	})
	if err != nil {
		return nil, err
	}
	return worker, nil
}

// Reactivate returns a temporarily suspended worker to active duty.
func (s *VerificationService) Reactivate(ctx context.Context, workerID id.WorkerID) (*workermodels.Worker, error) {
	var worker *workermodels.Worker
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)

		w, err := s.workers.Execute(txCtx, workerID,
			func(w *workermodels.Worker) error { return w.CanReactivate() },
			func(w *workermodels.Worker) { w.ApplyReactivation(now) },
		)
		if err != nil {
			return wrapWorkerErr(err)
		}
		worker = w

		return s.auditEmitter.emit(txCtx, audit.Event{
			WorkerID: workerID,
			Subject:  workerID.String(),
			Action:   string(audit.EventWorkerReactivated),
		})
	})
	if err != nil {
		return nil, err
	}
	return worker, nil
}

// ExpireLapsed sweeps verified workers whose validity window has passed and
// marks them expired. Workers re-approved between the listing and the
// update are skipped, not failed. Returns the number of workers expired.
func (s *VerificationService) ExpireLapsed(ctx context.Context, asOf time.Time) (int, error) {
	lapsed, err := s.workers.ListExpired(ctx, asOf)
	if err != nil {
		return 0, wrapWorkerErr(err)
	}

	expired := 0
	for _, candidate := range lapsed {
		workerID := candidate.ID
		err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			_, err := s.workers.Execute(txCtx, workerID,
				func(w *workermodels.Worker) error {
					if !w.IsVerified() || w.ExpiryDate == nil || w.ExpiryDate.After(asOf) {
						return sentinel.ErrInvalidState
					}
					return nil
				},
				func(w *workermodels.Worker) { w.ApplyExpiry(asOf) },
			)
			if err != nil {
				return err
			}
			return s.auditEmitter.emit(txCtx, audit.Event{
				WorkerID: workerID,
				Subject:  workerID.String(),
				Action:   string(audit.EventVerificationExpired),
			})
		})
		if errors.Is(err, sentinel.ErrInvalidState) || errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return expired, wrapWorkerErr(err)
		}
		expired++
		if s.metrics != nil {
			s.metrics.Expirations.Inc()
		}
	}
	return expired, nil
}

func (s *VerificationService) notifyDecision(ctx context.Context, worker *workermodels.Worker, decision models.Decision) {
	if s.notifier == nil || worker.Mobile == "" {
		return
	}

	subject := "Suraksha verification update"
	var body string
	switch decision {
	case models.DecisionApproved:
		body = fmt.Sprintf("Your verification is complete. Official worker ID: %s", worker.OfficialWorkerID)
	case models.DecisionRejected:
		body = "Your verification application was rejected. You may restart onboarding to reapply."
	}
	if err := s.notifier.Notify(ctx, worker.Mobile, subject, body); err != nil {
		s.logWarn(ctx, "decision notice delivery failed", "worker_id", worker.ID.String(), "error", err)
	}
}

func (s *VerificationService) logWarn(ctx context.Context, msg string, args ...any) {
	if s.auditEmitter.logger != nil {
		s.auditEmitter.logger.WarnContext(ctx, msg, args...)
	}
}
