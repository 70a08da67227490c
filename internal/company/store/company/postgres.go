package company

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"suraksha/internal/company/models"
	id "suraksha/pkg/domain"
	"suraksha/pkg/platform/sentinel"
	txcontext "suraksha/pkg/platform/tx"
)

const uniqueViolation = "23505"

const companyColumns = `id, user_id, name, cin, registration_id,
	signatory_name, signatory_email, signatory_mobile,
	address, city, state, created_at, updated_at`

// PostgresStore is the production company store. Reads and writes join a
// surrounding service transaction when one is present in context.
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

// CreateIfUserAvailable registers a company profile. The unique index on
// user_id enforces one profile per account.
func (s *PostgresStore) CreateIfUserAvailable(ctx context.Context, c *models.Company) error {
	query := fmt.Sprintf(`INSERT INTO companies (%s) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, companyColumns)

	_, err := s.handle(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID), uuid.UUID(c.UserID), c.Name, c.CIN, c.RegistrationID,
		c.SignatoryName, c.SignatoryEmail, c.SignatoryMobile,
		c.Address, c.City, c.State, c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, companyID id.CompanyID) (*models.Company, error) {
	query := fmt.Sprintf("SELECT %s FROM companies WHERE id = $1", companyColumns)
	return s.scanOne(s.handle(ctx).QueryRowContext(ctx, query, uuid.UUID(companyID)))
}

func (s *PostgresStore) FindByUserID(ctx context.Context, userID id.UserID) (*models.Company, error) {
	query := fmt.Sprintf("SELECT %s FROM companies WHERE user_id = $1", companyColumns)
	return s.scanOne(s.handle(ctx).QueryRowContext(ctx, query, uuid.UUID(userID)))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row rowScanner) (*models.Company, error) {
	var (
		c         models.Company
		companyID uuid.UUID
		userID    uuid.UUID
	)
	err := row.Scan(&companyID, &userID, &c.Name, &c.CIN, &c.RegistrationID,
		&c.SignatoryName, &c.SignatoryEmail, &c.SignatoryMobile,
		&c.Address, &c.City, &c.State, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan company: %w", err)
	}
	c.ID = id.CompanyID(companyID)
	c.UserID = id.UserID(userID)
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
