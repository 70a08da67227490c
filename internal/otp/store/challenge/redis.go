package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"suraksha/internal/otp/models"
	"suraksha/pkg/platform/sentinel"
)

const challengeKeyPrefix = "otp:mobile:"

// RedisStore is the production challenge store. Redis TTLs carry the
// expiry, so instances share challenges and expired ones vanish on their
// own.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, c *models.Challenge) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal otp challenge: %w", err)
	}
	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		return sentinel.ErrExpired
	}
	if err := s.client.Set(ctx, challengeKeyPrefix+c.Mobile, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store otp challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, mobile string) (*models.Challenge, error) {
	payload, err := s.client.Get(ctx, challengeKeyPrefix+mobile).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load otp challenge: %w", err)
	}

	var c models.Challenge
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("unmarshal otp challenge: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Delete(ctx context.Context, mobile string) error {
	if err := s.client.Del(ctx, challengeKeyPrefix+mobile).Err(); err != nil {
		return fmt.Errorf("delete otp challenge: %w", err)
	}
	return nil
}
