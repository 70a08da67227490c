package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"suraksha/internal/verification/models"
	id "suraksha/pkg/domain"
	"suraksha/pkg/platform/sentinel"
	txcontext "suraksha/pkg/platform/tx"
)

const uniqueViolation = "23505"

const recordColumns = `id, worker_id, status, face_match_score, liveness_passed, face_checked_at,
	officer_id, decision, remarks, decided_at, created_at, updated_at`

// PostgresStore is the production record store. A partial unique index on
// (worker_id) for open rows enforces one open case per worker.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbHandle interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) handle(ctx context.Context) dbHandle {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Open(ctx context.Context, record *models.Record) error {
	query := fmt.Sprintf(`INSERT INTO verifications (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, recordColumns)

	_, err := s.handle(ctx).ExecContext(ctx, query,
		uuid.UUID(record.ID), uuid.UUID(record.WorkerID), string(record.Status),
		record.FaceMatchScore, record.LivenessPassed, nullableTime(record.FaceCheckedAt),
		nullableUUID(uuid.UUID(record.OfficerID)), string(record.Decision),
		record.Remarks, nullableTime(record.DecidedAt),
		record.CreatedAt, record.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("open verification case: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, recordID id.VerificationID) (*models.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM verifications WHERE id = $1", recordColumns)
	return scanRecord(s.handle(ctx).QueryRowContext(ctx, query, uuid.UUID(recordID)))
}

func (s *PostgresStore) FindOpenByWorker(ctx context.Context, workerID id.WorkerID) (*models.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM verifications WHERE worker_id = $1 AND status = 'open'", recordColumns)
	return scanRecord(s.handle(ctx).QueryRowContext(ctx, query, uuid.UUID(workerID)))
}

// Execute atomically validates and mutates a record under a row lock,
// joining the surrounding transaction when one is present.
func (s *PostgresStore) Execute(ctx context.Context, recordID id.VerificationID, validate func(*models.Record) error, mutate func(*models.Record)) (*models.Record, error) {
	if _, ok := txcontext.From(ctx); ok {
		return s.executeLocked(ctx, recordID, validate, mutate)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	record, err := s.executeLocked(txcontext.WithTx(ctx, dbTx), recordID, validate, mutate)
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) executeLocked(ctx context.Context, recordID id.VerificationID, validate func(*models.Record) error, mutate func(*models.Record)) (*models.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM verifications WHERE id = $1 FOR UPDATE", recordColumns)
	record, err := scanRecord(s.handle(ctx).QueryRowContext(ctx, query, uuid.UUID(recordID)))
	if err != nil {
		return nil, err
	}

	if err := validate(record); err != nil {
		return nil, err
	}
	mutate(record)

	_, err = s.handle(ctx).ExecContext(ctx, `UPDATE verifications SET
		status = $2, face_match_score = $3, liveness_passed = $4, face_checked_at = $5,
		officer_id = $6, decision = $7, remarks = $8, decided_at = $9, updated_at = $10
	WHERE id = $1`,
		uuid.UUID(record.ID), string(record.Status),
		record.FaceMatchScore, record.LivenessPassed, nullableTime(record.FaceCheckedAt),
		nullableUUID(uuid.UUID(record.OfficerID)), string(record.Decision),
		record.Remarks, nullableTime(record.DecidedAt), record.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update verification case: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByWorker(ctx context.Context, workerID id.WorkerID) ([]*models.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM verifications WHERE worker_id = $1 ORDER BY created_at ASC", recordColumns)
	rows, err := s.handle(ctx).QueryContext(ctx, query, uuid.UUID(workerID))
	if err != nil {
		return nil, fmt.Errorf("list verification cases: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanRecordRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row *sql.Row) (*models.Record, error) {
	record, err := scanRecordRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return record, err
}

func scanRecordRow(row rowScanner) (*models.Record, error) {
	var (
		record        models.Record
		recordID      uuid.UUID
		workerID      uuid.UUID
		status        string
		score         sql.NullFloat64
		live          sql.NullBool
		faceCheckedAt sql.NullTime
		officerID     uuid.NullUUID
		decision      string
		decidedAt     sql.NullTime
	)
	err := row.Scan(
		&recordID, &workerID, &status, &score, &live, &faceCheckedAt,
		&officerID, &decision, &record.Remarks, &decidedAt,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan verification case: %w", err)
	}

	record.ID = id.VerificationID(recordID)
	record.WorkerID = id.WorkerID(workerID)
	record.Status = models.RecordStatus(status)
	record.Decision = models.Decision(decision)
	if score.Valid {
		record.FaceMatchScore = &score.Float64
	}
	if live.Valid {
		record.LivenessPassed = &live.Bool
	}
	record.FaceCheckedAt = timePtr(faceCheckedAt)
	record.DecidedAt = timePtr(decidedAt)
	if officerID.Valid {
		record.OfficerID = id.OfficerID(officerID.UUID)
	}
	return &record, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
