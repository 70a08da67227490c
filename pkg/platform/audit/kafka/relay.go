// Package kafka moves audit events between the transactional outbox and
// the broker. The Relay publishes pending outbox entries; the Materializer
// consumes them back into the queryable audit_events table.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "suraksha/pkg/platform/audit"
	auditpg "suraksha/pkg/platform/audit/store/postgres"
	"suraksha/pkg/platform/circuit"
)

// TopicPrefix is the namespace for audit topics; the category completes
// the topic name.
const TopicPrefix = "suraksha.audit."

// Topics returns the full set of audit topics, one per category.
func Topics() []string {
	return []string{
		TopicPrefix + string(audit.CategoryCompliance),
		TopicPrefix + string(audit.CategorySecurity),
		TopicPrefix + string(audit.CategoryOperations),
	}
}

// OutboxSource supplies pending outbox entries and records publication.
type OutboxSource interface {
	PendingOutbox(ctx context.Context, limit int) ([]auditpg.OutboxEntry, error)
	MarkPublished(ctx context.Context, entryID uuid.UUID) error
}

// Producer publishes a record and confirms delivery.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Relay polls the outbox and publishes entries to the broker. A circuit
// breaker throttles the relay to a single probe per tick while the broker
// is unhealthy, so outages do not hammer it with full batches.
type Relay struct {
	source   OutboxSource
	producer Producer
	breaker  *circuit.Breaker
	logger   *slog.Logger

	interval  time.Duration
	batchSize int
}

func NewRelay(source OutboxSource, producer Producer, logger *slog.Logger) *Relay {
	return &Relay{
		source:    source,
		producer:  producer,
		breaker:   circuit.New("kafka", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
		logger:    logger,
		interval:  time.Second,
		batchSize: 100,
	}
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Relay) tick(ctx context.Context) {
	limit := r.batchSize
	if r.breaker.IsOpen() {
		limit = 1
	}

	entries, err := r.source.PendingOutbox(ctx, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to read outbox", "error", err)
		return
	}

	for _, entry := range entries {
		if err := r.publish(ctx, entry); err != nil {
			if _, change := r.breaker.RecordFailure(); change.Opened {
				r.logger.WarnContext(ctx, "kafka circuit opened", "error", err)
			}
			r.logger.ErrorContext(ctx, "failed to publish outbox entry",
				"entry_id", entry.ID,
				"event_type", entry.EventType,
				"error", err,
			)
			return
		}
		if _, change := r.breaker.RecordSuccess(); change.Closed {
			r.logger.InfoContext(ctx, "kafka circuit closed")
		}
		if err := r.source.MarkPublished(ctx, entry.ID); err != nil {
			r.logger.ErrorContext(ctx, "failed to mark outbox entry published",
				"entry_id", entry.ID,
				"error", err,
			)
			return
		}
	}
}

func (r *Relay) publish(ctx context.Context, entry auditpg.OutboxEntry) error {
	var payload auditpg.Payload
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		// Malformed entries cannot be retried. Log and mark published so
		// they do not wedge the relay.
		r.logger.ErrorContext(ctx, "malformed outbox payload, skipping",
			"entry_id", entry.ID,
			"error", err,
		)
		return r.source.MarkPublished(ctx, entry.ID)
	}

	topic := TopicPrefix + payload.Category
	// Key by worker so a worker's events stay ordered within a partition.
	key := []byte(payload.WorkerID)
	if len(key) == 0 {
		key = []byte(payload.ID)
	}
	return r.producer.Produce(ctx, topic, key, entry.Payload)
}
