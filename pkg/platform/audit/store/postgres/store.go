package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "suraksha/pkg/domain"
	audit "suraksha/pkg/platform/audit"
	txcontext "suraksha/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table in the same transaction as the
// domain mutation, and the outbox relay publishes them to Kafka. Kafka is
// the source of truth for audit events; the audit_events table is a
// queryable materialization fed by the consumer.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Payload is the JSON structure published to Kafka. Field names match
// audit.Event so the consumer can deserialize without a mapping layer.
type Payload struct {
	ID        string `json:"ID"`
	Category  string `json:"Category"`
	Timestamp string `json:"Timestamp"`
	WorkerID  string `json:"WorkerID,omitempty"`
	Subject   string `json:"Subject"`
	Action    string `json:"Action"`
	Stage     string `json:"Stage,omitempty"`
	Decision  string `json:"Decision,omitempty"`
	Reason    string `json:"Reason,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
	ActorID   string `json:"ActorID,omitempty"`
	IP        string `json:"IP,omitempty"`
	UserAgent string `json:"UserAgent,omitempty"`
}

// Event converts the payload back into an audit.Event.
func (p Payload) Event() (uuid.UUID, audit.Event, error) {
	eventID, err := uuid.Parse(p.ID)
	if err != nil {
		return uuid.Nil, audit.Event{}, fmt.Errorf("parse event id: %w", err)
	}

	event := audit.Event{
		Category:  audit.EventCategory(p.Category),
		Subject:   p.Subject,
		Action:    p.Action,
		Stage:     p.Stage,
		Decision:  p.Decision,
		Reason:    p.Reason,
		RequestID: p.RequestID,
		ActorID:   p.ActorID,
		IP:        p.IP,
		UserAgent: p.UserAgent,
	}
	if p.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
		if err != nil {
			return uuid.Nil, audit.Event{}, fmt.Errorf("parse event timestamp: %w", err)
		}
		event.Timestamp = ts
	}
	if p.WorkerID != "" {
		workerID, err := id.ParseWorkerID(p.WorkerID)
		if err != nil {
			return uuid.Nil, audit.Event{}, fmt.Errorf("parse event worker id: %w", err)
		}
		event.WorkerID = workerID
	}
	return eventID, event, nil
}

// Append writes an audit event to the outbox table for Kafka publishing.
// When a transaction is carried in the context the write joins it, so the
// event commits atomically with the domain mutation.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Always derive category from action - eventCategories map is the source of truth
	category := audit.AuditEvent(event.Action).Category()

	payload := Payload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Subject:   event.Subject,
		Action:    event.Action,
		Stage:     event.Stage,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
		IP:        event.IP,
		UserAgent: event.UserAgent,
	}
	if !event.WorkerID.IsNil() {
		payload.WorkerID = event.WorkerID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	if !event.WorkerID.IsNil() {
		aggregateType = "worker"
		aggregateID = event.WorkerID.String()
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.New(), // outbox entry ID
		aggregateType,
		aggregateID,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// AppendWithID inserts an audit event into the audit_events table with a
// specific ID. Used by the Kafka consumer to materialize events for
// querying. Idempotent via ON CONFLICT DO NOTHING, so redelivered messages
// are harmless.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, worker_id, subject, action,
			stage, decision, reason, request_id, actor_id, ip, user_agent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`

	var workerID *uuid.UUID
	if !event.WorkerID.IsNil() {
		wid := uuid.UUID(event.WorkerID)
		workerID = &wid
	}

	_, err := s.db.ExecContext(ctx, query,
		eventID,
		string(event.Category),
		event.Timestamp,
		workerID,
		event.Subject,
		event.Action,
		event.Stage,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ActorID,
		event.IP,
		event.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByWorker returns events for a specific worker, newest first.
func (s *Store) ListByWorker(ctx context.Context, workerID id.WorkerID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, worker_id, subject, action,
			   stage, decision, reason, request_id, actor_id, ip, user_agent
		FROM audit_events
		WHERE worker_id = $1
		ORDER BY timestamp DESC
	`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(workerID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, worker_id, subject, action,
			   stage, decision, reason, request_id, actor_id, ip, user_agent
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

func (s *Store) scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			category         string
			event            audit.Event
			workerIDNullable *uuid.UUID
		)

		err := rows.Scan(
			&category,
			&event.Timestamp,
			&workerIDNullable,
			&event.Subject,
			&event.Action,
			&event.Stage,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.ActorID,
			&event.IP,
			&event.UserAgent,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.Category = audit.EventCategory(category)
		if workerIDNullable != nil {
			event.WorkerID = id.WorkerID(*workerIDNullable)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, nil
}

// OutboxEntry is a pending outbox row awaiting publication.
type OutboxEntry struct {
	ID        uuid.UUID
	EventType string
	Payload   []byte
}

// PendingOutbox returns unpublished outbox entries in insertion order.
// The relay runs as a single instance per deployment; duplicate delivery
// is tolerated downstream via idempotent materialization.
func (s *Store) PendingOutbox(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `
		SELECT id, event_type, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var entry OutboxEntry
		if err := rows.Scan(&entry.ID, &entry.EventType, &entry.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished records that an outbox entry reached the broker.
func (s *Store) MarkPublished(ctx context.Context, entryID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET published_at = $1 WHERE id = $2`,
		time.Now(), entryID,
	)
	if err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}
	return nil
}
