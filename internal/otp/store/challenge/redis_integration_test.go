//go:build integration

package challenge_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"suraksha/internal/otp/models"
	challengestore "suraksha/internal/otp/store/challenge"
	"suraksha/pkg/platform/sentinel"
	"suraksha/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *challengestore.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = challengestore.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRoundTripAndConsume() {
	ctx := context.Background()
	challenge, err := models.NewChallenge("9876501234", time.Now().UTC())
	s.Require().NoError(err)

	s.Require().NoError(s.store.Save(ctx, challenge))

	found, err := s.store.Find(ctx, "9876501234")
	s.Require().NoError(err)
	s.Equal(challenge.Code, found.Code)
	s.Equal(0, found.Attempts)

	s.Require().NoError(s.store.Delete(ctx, "9876501234"))
	_, err = s.store.Find(ctx, "9876501234")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestAttemptCountPersists() {
	ctx := context.Background()
	challenge, err := models.NewChallenge("9876501234", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(ctx, challenge))

	challenge.Match("wrong!")
	s.Require().NoError(s.store.Save(ctx, challenge))

	found, err := s.store.Find(ctx, "9876501234")
	s.Require().NoError(err)
	s.Equal(1, found.Attempts)
}

func (s *RedisStoreSuite) TestExpiredChallengeIsGone() {
	ctx := context.Background()
	challenge, err := models.NewChallenge("9876501234", time.Now().UTC())
	s.Require().NoError(err)
	challenge.ExpiresAt = time.Now().Add(time.Second)
	s.Require().NoError(s.store.Save(ctx, challenge))

	time.Sleep(1500 * time.Millisecond)

	_, err = s.store.Find(ctx, "9876501234")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
