package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"suraksha/internal/worker/models"
	id "suraksha/pkg/domain"
	"suraksha/pkg/platform/sentinel"
	txcontext "suraksha/pkg/platform/tx"
)

const uniqueViolation = "23505"

// workerColumns is the shared column list for worker queries, kept in one
// place so SELECT and scan stay in sync.
const workerColumns = `id, user_id, official_worker_id, category, full_name, mobile,
	address_current, city, state, pincode, aadhaar_reference, selfie_ref,
	consent_given, consent_at, declaration_signed, aeps,
	status, verification_status, risk_score, complaint_count,
	company_id, company_name, qr_code_url, verification_endpoint,
	onboarding_step, onboarding, verified_at, expiry_date, created_at, updated_at`

// PostgresStore is the production worker store. Reads and writes join a
// surrounding service transaction when one is present in context, so
// issuance queries and the worker update commit or roll back together.
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

// CreateIfUserAvailable registers a new worker profile. The unique index on
// user_id enforces one profile per user.
func (s *PostgresStore) CreateIfUserAvailable(ctx context.Context, w *models.Worker) error {
	aeps, onboarding, err := marshalDocs(w)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO workers (%s) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`, workerColumns)

	_, err = s.handle(ctx).ExecContext(ctx, query, writeArgs(w, aeps, onboarding)...)
	if isUniqueViolation(err) {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("insert worker: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, workerID id.WorkerID) (*models.Worker, error) {
	query := fmt.Sprintf("SELECT %s FROM workers WHERE id = $1", workerColumns)
	return s.scanOne(s.handle(ctx).QueryRowContext(ctx, query, uuid.UUID(workerID)))
}

func (s *PostgresStore) FindByUserID(ctx context.Context, userID id.UserID) (*models.Worker, error) {
	query := fmt.Sprintf("SELECT %s FROM workers WHERE user_id = $1", workerColumns)
	return s.scanOne(s.handle(ctx).QueryRowContext(ctx, query, uuid.UUID(userID)))
}

func (s *PostgresStore) FindByOfficialID(ctx context.Context, officialID string) (*models.Worker, error) {
	query := fmt.Sprintf("SELECT %s FROM workers WHERE official_worker_id = $1", workerColumns)
	return s.scanOne(s.handle(ctx).QueryRowContext(ctx, query, officialID))
}

// Execute atomically validates and mutates a worker row under a row lock.
// The row stays locked for the remainder of the surrounding transaction
// when one is present; otherwise a transaction is opened for this call.
func (s *PostgresStore) Execute(ctx context.Context, workerID id.WorkerID, validate func(*models.Worker) error, mutate func(*models.Worker)) (*models.Worker, error) {
	if _, ok := txcontext.From(ctx); ok {
		return s.executeLocked(ctx, workerID, validate, mutate)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	w, err := s.executeLocked(txcontext.WithTx(ctx, dbTx), workerID, validate, mutate)
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return w, nil
}

func (s *PostgresStore) executeLocked(ctx context.Context, workerID id.WorkerID, validate func(*models.Worker) error, mutate func(*models.Worker)) (*models.Worker, error) {
	query := fmt.Sprintf("SELECT %s FROM workers WHERE id = $1 FOR UPDATE", workerColumns)
	w, err := s.scanOne(s.handle(ctx).QueryRowContext(ctx, query, uuid.UUID(workerID)))
	if err != nil {
		return nil, err
	}

	if err := validate(w); err != nil {
		return nil, err
	}
	mutate(w)

	if err := s.update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *PostgresStore) update(ctx context.Context, w *models.Worker) error {
	aeps, onboarding, err := marshalDocs(w)
	if err != nil {
		return err
	}

	query := `UPDATE workers SET
		official_worker_id = $2, category = $3, full_name = $4, mobile = $5,
		address_current = $6, city = $7, state = $8, pincode = $9,
		aadhaar_reference = $10, selfie_ref = $11,
		consent_given = $12, consent_at = $13, declaration_signed = $14, aeps = $15,
		status = $16, verification_status = $17, risk_score = $18, complaint_count = $19,
		company_id = $20, company_name = $21, qr_code_url = $22, verification_endpoint = $23,
		onboarding_step = $24, onboarding = $25, verified_at = $26, expiry_date = $27,
		updated_at = $28
	WHERE id = $1`

	args := []any{
		uuid.UUID(w.ID),
		nullableString(w.OfficialWorkerID), string(w.Category), w.FullName, w.Mobile,
		w.AddressCurrent, w.City, w.State, w.Pincode,
		w.AadhaarReference, w.SelfieRef,
		w.ConsentGiven, nullableTimeArg(w.ConsentAt), w.DeclarationSigned, aeps,
		string(w.Status), string(w.VerificationStatus), w.RiskScore, w.ComplaintCount,
		nullableUUID(uuid.UUID(w.CompanyID)), w.CompanyName, w.QRCodeURL, w.VerificationEndpoint,
		w.OnboardingStep, onboarding, nullableTimeArg(w.VerifiedAt), nullableTimeArg(w.ExpiryDate),
		w.UpdatedAt,
	}

	res, err := s.handle(ctx).ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update worker: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// CountByPrefix counts assigned official IDs with the given prefix.
func (s *PostgresStore) CountByPrefix(ctx context.Context, prefix string) (int, error) {
	var n int
	err := s.handle(ctx).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM workers WHERE official_worker_id LIKE $1",
		likePattern(prefix),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count official IDs: %w", err)
	}
	return n, nil
}

// Exists reports whether the exact official ID is already assigned.
func (s *PostgresStore) Exists(ctx context.Context, officialID string) (bool, error) {
	var exists bool
	err := s.handle(ctx).QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM workers WHERE official_worker_id = $1)",
		officialID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check official ID: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListByVerificationStatus(ctx context.Context, status models.VerificationStatus) ([]*models.Worker, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM workers WHERE verification_status = $1 ORDER BY updated_at ASC",
		workerColumns,
	)
	rows, err := s.handle(ctx).QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return s.scanAll(rows)
}

func (s *PostgresStore) ListByCompany(ctx context.Context, companyID id.CompanyID) ([]*models.Worker, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM workers WHERE company_id = $1 ORDER BY updated_at ASC",
		workerColumns,
	)
	rows, err := s.handle(ctx).QueryContext(ctx, query, uuid.UUID(companyID))
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return s.scanAll(rows)
}

func (s *PostgresStore) ListExpired(ctx context.Context, asOf time.Time) ([]*models.Worker, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM workers
		WHERE verification_status = $1 AND expiry_date IS NOT NULL AND expiry_date <= $2
		ORDER BY expiry_date ASC`,
		workerColumns,
	)
	rows, err := s.handle(ctx).QueryContext(ctx, query, string(models.VerificationVerified), asOf)
	if err != nil {
		return nil, fmt.Errorf("list expired workers: %w", err)
	}
	return s.scanAll(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row rowScanner) (*models.Worker, error) {
	w, err := scanWorker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan worker: %w", err)
	}
	return w, nil
}

func (s *PostgresStore) scanAll(rows *sql.Rows) ([]*models.Worker, error) {
	defer rows.Close()

	var out []*models.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan worker: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workers: %w", err)
	}
	return out, nil
}

func scanWorker(row rowScanner) (*models.Worker, error) {
	var (
		w          models.Worker
		workerID   uuid.UUID
		userID     uuid.UUID
		officialID sql.NullString
		companyID  uuid.NullUUID
		consentAt  sql.NullTime
		verifiedAt sql.NullTime
		expiryDate sql.NullTime
		aeps       []byte
		onboarding []byte
	)

	err := row.Scan(
		&workerID, &userID, &officialID, &w.Category, &w.FullName, &w.Mobile,
		&w.AddressCurrent, &w.City, &w.State, &w.Pincode, &w.AadhaarReference, &w.SelfieRef,
		&w.ConsentGiven, &consentAt, &w.DeclarationSigned, &aeps,
		&w.Status, &w.VerificationStatus, &w.RiskScore, &w.ComplaintCount,
		&companyID, &w.CompanyName, &w.QRCodeURL, &w.VerificationEndpoint,
		&w.OnboardingStep, &onboarding, &verifiedAt, &expiryDate, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.ID = id.WorkerID(workerID)
	w.UserID = id.UserID(userID)
	if officialID.Valid {
		w.OfficialWorkerID = officialID.String
	}
	if companyID.Valid {
		w.CompanyID = id.CompanyID(companyID.UUID)
	}
	w.ConsentAt = nullableTime(consentAt)
	w.VerifiedAt = nullableTime(verifiedAt)
	w.ExpiryDate = nullableTime(expiryDate)

	if len(aeps) > 0 {
		if err := json.Unmarshal(aeps, &w.AePS); err != nil {
			return nil, fmt.Errorf("decode aeps profile: %w", err)
		}
	}
	if len(onboarding) > 0 {
		if err := json.Unmarshal(onboarding, &w.Onboarding); err != nil {
			return nil, fmt.Errorf("decode onboarding data: %w", err)
		}
	}
	return &w, nil
}

func writeArgs(w *models.Worker, aeps, onboarding []byte) []any {
	return []any{
		uuid.UUID(w.ID), uuid.UUID(w.UserID), nullableString(w.OfficialWorkerID),
		string(w.Category), w.FullName, w.Mobile,
		w.AddressCurrent, w.City, w.State, w.Pincode, w.AadhaarReference, w.SelfieRef,
		w.ConsentGiven, nullableTimeArg(w.ConsentAt), w.DeclarationSigned, aeps,
		string(w.Status), string(w.VerificationStatus), w.RiskScore, w.ComplaintCount,
		nullableUUID(uuid.UUID(w.CompanyID)), w.CompanyName, w.QRCodeURL, w.VerificationEndpoint,
		w.OnboardingStep, onboarding, nullableTimeArg(w.VerifiedAt), nullableTimeArg(w.ExpiryDate),
		w.CreatedAt, w.UpdatedAt,
	}
}

func marshalDocs(w *models.Worker) (aeps, onboarding []byte, err error) {
	aeps, err = json.Marshal(w.AePS)
	if err != nil {
		return nil, nil, fmt.Errorf("encode aeps profile: %w", err)
	}
	onboarding, err = json.Marshal(w.Onboarding)
	if err != nil {
		return nil, nil, fmt.Errorf("encode onboarding data: %w", err)
	}
	return aeps, onboarding, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func likePattern(prefix string) string {
	return prefix + "%"
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}

func nullableTimeArg(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	out := t.Time
	return &out
}
