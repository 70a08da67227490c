package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"suraksha/internal/auth/models"
	id "suraksha/pkg/domain"
	"suraksha/pkg/platform/sentinel"
	txcontext "suraksha/pkg/platform/tx"
	"suraksha/pkg/requestcontext"
)

const uniqueViolation = "23505"

const userColumns = `id, mobile, email, password_hash, role, officer_id, company_id, created_at, updated_at`

// PostgresStore is the production account store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbHandle interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) handle(ctx context.Context) dbHandle {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Create inserts a new account. The unique constraint on mobile maps to
// sentinel.ErrAlreadyUsed.
func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	query := fmt.Sprintf(`INSERT INTO users (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, userColumns)
	_, err := s.handle(ctx).ExecContext(ctx, query,
		uuid.UUID(u.ID), u.Mobile, u.Email, u.PasswordHash, string(u.Role),
		nullableUUID(uuid.UUID(u.OfficerID)), nullableUUID(uuid.UUID(u.CompanyID)),
		u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	return scanUser(s.handle(ctx).QueryRowContext(ctx, query, uuid.UUID(userID)))
}

func (s *PostgresStore) FindByMobile(ctx context.Context, mobile string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE mobile = $1", userColumns)
	return scanUser(s.handle(ctx).QueryRowContext(ctx, query, mobile))
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u         models.User
		userID    uuid.UUID
		role      string
		officerID uuid.NullUUID
		companyID uuid.NullUUID
	)
	err := row.Scan(&userID, &u.Mobile, &u.Email, &u.PasswordHash, &role,
		&officerID, &companyID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = id.UserID(userID)
	u.Role = requestcontext.Role(role)
	if officerID.Valid {
		u.OfficerID = id.OfficerID(officerID.UUID)
	}
	if companyID.Valid {
		u.CompanyID = id.CompanyID(companyID.UUID)
	}
	return &u, nil
}

func nullableUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
