// Package models holds the police verification workflow records. The
// worker aggregate owns the verification state machine; these records are
// the workflow log around it.
package models

import (
	"time"

	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
)

// RecordStatus is the lifecycle of a single verification case.
type RecordStatus string

const (
	RecordOpen    RecordStatus = "open"
	RecordDecided RecordStatus = "decided"
)

// Decision is the outcome recorded by the deciding officer.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Record is one police verification case for a worker. A worker has at
// most one open case at a time; restarting onboarding after rejection
// opens a new one on the next submission.
type Record struct {
	ID       id.VerificationID `json:"id"`
	WorkerID id.WorkerID       `json:"worker_id"`
	Status   RecordStatus      `json:"status"`

	// FaceMatchScore is the normalized 0-1 confidence from the biometric
	// collaborator, recorded before the decision. LivenessPassed is the
	// vendor's liveness verdict from the same capture.
	FaceMatchScore *float64   `json:"face_match_score,omitempty"`
	LivenessPassed *bool      `json:"liveness_passed,omitempty"`
	FaceCheckedAt  *time.Time `json:"face_checked_at,omitempty"`

	OfficerID id.OfficerID `json:"officer_id,omitempty"`
	Decision  Decision     `json:"decision,omitempty"`
	Remarks   string       `json:"remarks,omitempty"`
	DecidedAt *time.Time   `json:"decided_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord opens a verification case for a worker.
func NewRecord(recordID id.VerificationID, workerID id.WorkerID, now time.Time) *Record {
	return &Record{
		ID:        recordID,
		WorkerID:  workerID,
		Status:    RecordOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EnsureOpen guards writes against a case that already carries a decision.
func (r *Record) EnsureOpen() error {
	if r.Status != RecordOpen {
		return dErrors.New(dErrors.CodeConflict, "verification case is already decided")
	}
	return nil
}

// CanRecordFaceCheck reports whether the given confidence may be stored.
func (r *Record) CanRecordFaceCheck(confidence float64) error {
	if err := r.EnsureOpen(); err != nil {
		return err
	}
	if confidence < 0 || confidence > 1 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "face match confidence %.4f is outside [0, 1]", confidence)
	}
	return nil
}

// RecordFaceCheck stores the normalized confidence and liveness verdict.
// Repeat checks overwrite the previous values; the latest capture is the
// one that counts. Callers validate with CanRecordFaceCheck first.
func (r *Record) RecordFaceCheck(confidence float64, live bool, now time.Time) {
	r.FaceMatchScore = &confidence
	r.LivenessPassed = &live
	r.FaceCheckedAt = &now
	r.UpdatedAt = now
}

// ApplyDecision closes the case with the officer's outcome. Callers
// validate with EnsureOpen first.
func (r *Record) ApplyDecision(officerID id.OfficerID, decision Decision, remarks string, now time.Time) {
	r.Status = RecordDecided
	r.OfficerID = officerID
	r.Decision = decision
	r.Remarks = remarks
	r.DecidedAt = &now
	r.UpdatedAt = now
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := *r
	c.FaceMatchScore = clonePtr(r.FaceMatchScore)
	c.LivenessPassed = clonePtr(r.LivenessPassed)
	c.FaceCheckedAt = clonePtr(r.FaceCheckedAt)
	c.DecidedAt = clonePtr(r.DecidedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
