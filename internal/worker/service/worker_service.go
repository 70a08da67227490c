package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"suraksha/internal/worker/models"
	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/audit"
	"suraksha/pkg/requestcontext"
)

// Register creates a worker profile for the calling user at step 0.
func (s *WorkerService) Register(ctx context.Context) (*models.Worker, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is missing")
	}

	var worker *models.Worker
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		w := models.NewWorker(id.NewWorkerID(), userID, requestcontext.Now(txCtx))
		if err := s.workers.CreateIfUserAvailable(txCtx, w); err != nil {
			return wrapWorkerErr(err)
		}
		if err := s.auditEmitter.emit(txCtx, audit.Event{
			WorkerID: w.ID,
			Subject:  w.ID.String(),
			Action:   string(audit.EventWorkerRegistered),
		}); err != nil {
			return err
		}
		worker = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.WorkersRegistered.Inc()
	}
	return worker, nil
}

// SaveStep applies one onboarding step for the calling user. Steps 1, 2, 4
// and 5 go through here directly; step 3 arrives via SaveSelfie and step 6
// via Submit.
//
// Uses the Execute callback pattern for atomic validate-then-mutate.
// The store's Execute method holds the lock (mutex or FOR UPDATE) during
// both validation and mutation.
func (s *WorkerService) SaveStep(ctx context.Context, payload models.StepPayload) (*models.Worker, error) {
	defer s.observeAdvance(time.Now())

	if payload.Step() == models.FinalStep {
		return nil, dErrors.New(dErrors.CodeBadRequest, "step 6 must be submitted through the consent endpoint")
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	current, err := s.currentWorker(ctx)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	restarted := false
	var worker *models.Worker
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		w, err := s.workers.Execute(txCtx, current.ID,
			func(w *models.Worker) error {
				if err := w.CanAdvance(payload.Step()); err != nil {
					return err
				}
				restarted = w.VerificationStatus == models.VerificationRejected && payload.Step() == 1
				return nil
			},
			func(w *models.Worker) {
				w.ApplyStep(payload, now)
			},
		)
		if err != nil {
			return wrapWorkerErr(err)
		}

		if restarted {
			if err := s.auditEmitter.emit(txCtx, audit.Event{
				WorkerID: w.ID,
				Subject:  w.ID.String(),
				Action:   string(audit.EventOnboardingRestarted),
			}); err != nil {
				return err
			}
		}
		if err := s.auditEmitter.emit(txCtx, audit.Event{
			WorkerID: w.ID,
			Subject:  w.ID.String(),
			Action:   string(audit.EventOnboardingStepSaved),
			Stage:    strconv.Itoa(payload.Step()),
		}); err != nil {
			return err
		}
		worker = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementStepSaved(strconv.Itoa(payload.Step()))
		if restarted {
			s.metrics.Restarts.Inc()
		}
	}
	return worker, nil
}

// SaveSelfie persists the uploaded selfie in the asset store and records
// the returned reference as step 3. The raw image never enters the worker
// record or the audit trail.
func (s *WorkerService) SaveSelfie(ctx context.Context, data []byte, contentType string) (*models.Worker, error) {
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "selfie image is required")
	}

	current, err := s.currentWorker(ctx)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("selfies/%s", current.ID)
	ref, err := s.assets.Save(ctx, key, data, contentType)
	if err != nil {
		return nil, dErrors.External("asset store", err)
	}

	return s.SaveStep(ctx, models.Step3Selfie{SelfieRef: ref})
}

// Submit finalizes the application: validates consent and the accumulated
// prerequisites, locks the record, and queues it for police verification.
func (s *WorkerService) Submit(ctx context.Context, consent models.Step6Consent) (*models.Worker, error) {
	current, err := s.currentWorker(ctx)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var worker *models.Worker
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		w, err := s.workers.Execute(txCtx, current.ID,
			func(w *models.Worker) error {
				return w.CanFinalize(consent)
			},
			func(w *models.Worker) {
				w.ApplyFinalize(consent, now)
			},
		)
		if err != nil {
			return wrapWorkerErr(err)
		}

		if err := s.auditEmitter.emit(txCtx, audit.Event{
			WorkerID: w.ID,
			Subject:  w.ID.String(),
			Action:   string(audit.EventOnboardingSubmitted),
			Stage:    strconv.Itoa(models.FinalStep),
		}); err != nil {
			return err
		}
		worker = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Submissions.Inc()
	}
	return worker, nil
}

// Profile returns the calling user's worker record.
func (s *WorkerService) Profile(ctx context.Context) (*models.Worker, error) {
	return s.currentWorker(ctx)
}

// Progress returns the calling user's onboarding summary.
func (s *WorkerService) Progress(ctx context.Context) (models.Progress, error) {
	w, err := s.currentWorker(ctx)
	if err != nil {
		return models.Progress{}, err
	}
	return models.ProgressOf(w), nil
}

// Get returns a worker by its internal ID, for police and admin callers.
func (s *WorkerService) Get(ctx context.Context, workerID id.WorkerID) (*models.Worker, error) {
	w, err := s.workers.FindByID(ctx, workerID)
	if err != nil {
		return nil, wrapWorkerErr(err)
	}
	return w, nil
}

func (s *WorkerService) currentWorker(ctx context.Context) (*models.Worker, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is missing")
	}
	w, err := s.workers.FindByUserID(ctx, userID)
	if err != nil {
		return nil, wrapWorkerErr(err)
	}
	return w, nil
}
