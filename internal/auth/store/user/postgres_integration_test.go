//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"suraksha/internal/auth/models"
	userstore "suraksha/internal/auth/store/user"
	"suraksha/pkg/platform/sentinel"
	"suraksha/pkg/requestcontext"
	"suraksha/pkg/testutil/containers"
)

type PostgresUserSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *userstore.PostgresStore
}

func TestPostgresUserSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserSuite))
}

func (s *PostgresUserSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.postgres.ApplyMigrations(s.T(), "../../../../migrations")
	s.store = userstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresUserSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "incidents", "verifications", "workers", "users")
	s.Require().NoError(err)
}

func (s *PostgresUserSuite) newAccount(mobile string, role requestcontext.Role) *models.User {
	u, err := models.NewUser(mobile, "a@example.in", "delivery-route-7", role, time.Now().UTC())
	s.Require().NoError(err)
	return u
}

func (s *PostgresUserSuite) TestRoundTrip() {
	ctx := context.Background()
	u := s.newAccount("+919876543210", requestcontext.RolePolice)
	s.Require().NoError(s.store.Create(ctx, u))

	got, err := s.store.FindByMobile(ctx, u.Mobile)
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)
	s.Equal(requestcontext.RolePolice, got.Role)
	s.Equal(u.OfficerID, got.OfficerID)
	s.True(got.CompanyID.IsNil())
	s.True(got.CheckPassword("delivery-route-7"))
}

func (s *PostgresUserSuite) TestNullProfileIDsRoundTrip() {
	ctx := context.Background()
	u := s.newAccount("+919876543211", requestcontext.RoleWorker)
	s.Require().NoError(s.store.Create(ctx, u))

	got, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.True(got.OfficerID.IsNil())
	s.True(got.CompanyID.IsNil())
}

func (s *PostgresUserSuite) TestDuplicateMobile() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newAccount("+919876543212", requestcontext.RoleWorker)))

	err := s.store.Create(ctx, s.newAccount("+919876543212", requestcontext.RoleWorker))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresUserSuite) TestUnknownMobile() {
	_, err := s.store.FindByMobile(context.Background(), "+910000000000")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
