package incident

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"suraksha/internal/verification/models"
	id "suraksha/pkg/domain"
	"suraksha/pkg/platform/sentinel"
	txcontext "suraksha/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore is the production incident store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbHandle interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) handle(ctx context.Context) dbHandle {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, incident *models.Incident) error {
	evidence, err := json.Marshal(incident.EvidenceURLs)
	if err != nil {
		return fmt.Errorf("marshal evidence urls: %w", err)
	}

	_, err = s.handle(ctx).ExecContext(ctx, `INSERT INTO incidents
		(id, worker_id, severity, description, reported_by, evidence_urls, risk_weight, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		incident.ID, uuid.UUID(incident.WorkerID), string(incident.Severity),
		incident.Description, incident.ReportedBy, evidence,
		incident.RiskWeight, incident.CreatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByWorker(ctx context.Context, workerID id.WorkerID) ([]*models.Incident, error) {
	rows, err := s.handle(ctx).QueryContext(ctx, `SELECT
		id, worker_id, severity, description, reported_by, evidence_urls, risk_weight, created_at
	FROM incidents WHERE worker_id = $1 ORDER BY created_at ASC`, uuid.UUID(workerID))
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var incidents []*models.Incident
	for rows.Next() {
		var (
			incident models.Incident
			workerID uuid.UUID
			severity string
			evidence []byte
		)
		err := rows.Scan(
			&incident.ID, &workerID, &severity, &incident.Description,
			&incident.ReportedBy, &evidence, &incident.RiskWeight, &incident.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		if err := json.Unmarshal(evidence, &incident.EvidenceURLs); err != nil {
			return nil, fmt.Errorf("unmarshal evidence urls: %w", err)
		}
		incident.WorkerID = id.WorkerID(workerID)
		incident.Severity = models.Severity(severity)
		incidents = append(incidents, &incident)
	}
	return incidents, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
