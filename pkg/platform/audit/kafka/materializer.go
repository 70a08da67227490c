package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	platformkafka "suraksha/internal/platform/kafka"
	audit "suraksha/pkg/platform/audit"
	auditpg "suraksha/pkg/platform/audit/store/postgres"
)

// MaterializeStore writes consumed events into the queryable table.
type MaterializeStore interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Materializer consumes audit topics and writes events into audit_events.
// AppendWithID is idempotent, so at-least-once delivery is safe.
type Materializer struct {
	store  MaterializeStore
	logger *slog.Logger
}

func NewMaterializer(store MaterializeStore, logger *slog.Logger) *Materializer {
	return &Materializer{store: store, logger: logger}
}

// Handle implements the consumer handler.
func (m *Materializer) Handle(ctx context.Context, msg *platformkafka.Message) error {
	var payload auditpg.Payload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		// Malformed messages will never parse. Skip and commit.
		m.logger.ErrorContext(ctx, "malformed audit message, skipping",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	eventID, event, err := payload.Event()
	if err != nil {
		m.logger.ErrorContext(ctx, "invalid audit payload, skipping",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	return m.store.AppendWithID(ctx, eventID, event)
}
