package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is a consumed record, decoupled from the client library so
// handlers stay testable.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// Handler processes a consumed message. Returning an error leaves the
// message uncommitted for redelivery.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer runs a consumer group over the given topics and dispatches
// each record to the handler.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

func NewConsumer(cfg Config, group string, topics []string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until the context is cancelled. Records are committed only
// after the handler succeeds, so processing is at-least-once and handlers
// must be idempotent.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var failed bool
		fetches.EachRecord(func(record *kgo.Record) {
			if failed {
				return
			}
			msg := &Message{
				Topic:     record.Topic,
				Partition: record.Partition,
				Offset:    record.Offset,
				Key:       record.Key,
				Value:     record.Value,
			}
			if err := c.handler.Handle(ctx, msg); err != nil {
				failed = true
				c.logger.Error("message handling failed, will redeliver",
					"topic", record.Topic,
					"offset", record.Offset,
					"error", err,
				)
			}
		})

		if failed {
			continue
		}
		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.logger.Error("commit offsets failed", "error", err)
		}
	}
}
