// Package kafka wraps franz-go with the small surface the service needs:
// a producer for outbox relay publishing and a consumer group for
// materializing audit events.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Config holds broker connection settings.
type Config struct {
	Brokers  []string
	ClientID string
}

// NewClient creates a franz-go client for producing.
func NewClient(cfg Config) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopics creates the given topics if they do not exist yet.
// Already-existing topics are not an error.
func EnsureTopics(ctx context.Context, client *kgo.Client, partitions int32, topics ...string) error {
	admin := kadm.NewClient(client)

	resps, err := admin.CreateTopics(ctx, partitions, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}
