package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
)

// Severity grades an incident report against a worker.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskWeight returns how much the severity adds to a worker's risk score.
// Unknown severities carry a default weight rather than zero, so a
// malformed report still registers.
func (s Severity) RiskWeight() float64 {
	switch s {
	case SeverityLow:
		return 5
	case SeverityMedium:
		return 15
	case SeverityHigh:
		return 30
	case SeverityCritical:
		return 50
	default:
		return 10
	}
}

func (s Severity) known() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Incident is a complaint or incident report filed against a worker.
// Incidents are append-only; nothing edits or removes one after filing.
type Incident struct {
	ID           uuid.UUID   `json:"id"`
	WorkerID     id.WorkerID `json:"worker_id"`
	Severity     Severity    `json:"severity"`
	Description  string      `json:"description"`
	ReportedBy   string      `json:"reported_by,omitempty"`
	EvidenceURLs []string    `json:"evidence_urls,omitempty"`
	RiskWeight   float64     `json:"risk_weight"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Clone returns a deep copy.
func (i *Incident) Clone() *Incident {
	c := *i
	if i.EvidenceURLs != nil {
		c.EvidenceURLs = append([]string(nil), i.EvidenceURLs...)
	}
	return &c
}

// NewIncident validates and builds an incident report.
func NewIncident(workerID id.WorkerID, severity Severity, description, reportedBy string, evidenceURLs []string, now time.Time) (*Incident, error) {
	if !severity.known() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown incident severity %q", severity)
	}
	if strings.TrimSpace(description) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "incident description is required")
	}
	return &Incident{
		ID:           uuid.New(),
		WorkerID:     workerID,
		Severity:     severity,
		Description:  strings.TrimSpace(description),
		ReportedBy:   reportedBy,
		EvidenceURLs: evidenceURLs,
		RiskWeight:   severity.RiskWeight(),
		CreatedAt:    now,
	}, nil
}
