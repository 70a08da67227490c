package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "suraksha/pkg/platform/audit"
	auditpg "suraksha/pkg/platform/audit/store/postgres"
)

type fakeSource struct {
	entries   []auditpg.OutboxEntry
	published []uuid.UUID
}

func (f *fakeSource) PendingOutbox(_ context.Context, limit int) ([]auditpg.OutboxEntry, error) {
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return f.entries[:limit], nil
}

func (f *fakeSource) MarkPublished(_ context.Context, entryID uuid.UUID) error {
	f.published = append(f.published, entryID)
	remaining := make([]auditpg.OutboxEntry, 0, len(f.entries))
	for _, e := range f.entries {
		if e.ID != entryID {
			remaining = append(remaining, e)
		}
	}
	f.entries = remaining
	return nil
}

type fakeProducer struct {
	records map[string][][]byte
	fail    bool
}

func (f *fakeProducer) Produce(_ context.Context, topic string, _, value []byte) error {
	if f.fail {
		return errors.New("broker unavailable")
	}
	if f.records == nil {
		f.records = make(map[string][][]byte)
	}
	f.records[topic] = append(f.records[topic], value)
	return nil
}

func entry(t *testing.T, action string, category audit.EventCategory) auditpg.OutboxEntry {
	t.Helper()
	payload := auditpg.Payload{
		ID:       uuid.NewString(),
		Category: string(category),
		Action:   action,
		WorkerID: uuid.NewString(),
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return auditpg.OutboxEntry{ID: uuid.New(), EventType: action, Payload: raw}
}

func TestRelay_PublishesAndMarks(t *testing.T) {
	source := &fakeSource{entries: []auditpg.OutboxEntry{
		entry(t, string(audit.EventWorkerIDIssued), audit.CategoryCompliance),
		entry(t, string(audit.EventOTPSent), audit.CategoryOperations),
	}}
	producer := &fakeProducer{}
	relay := NewRelay(source, producer, slog.Default())

	relay.tick(context.Background())

	assert.Len(t, producer.records[TopicPrefix+"compliance"], 1)
	assert.Len(t, producer.records[TopicPrefix+"operations"], 1)
	assert.Len(t, source.published, 2)
	assert.Empty(t, source.entries)
}

func TestRelay_BrokerFailureLeavesEntriesPending(t *testing.T) {
	pending := entry(t, string(audit.EventWorkerIDIssued), audit.CategoryCompliance)
	source := &fakeSource{entries: []auditpg.OutboxEntry{pending}}
	producer := &fakeProducer{fail: true}
	relay := NewRelay(source, producer, slog.Default())

	relay.tick(context.Background())

	assert.Empty(t, source.published)
	require.Len(t, source.entries, 1)
	assert.Equal(t, pending.ID, source.entries[0].ID)
}

func TestRelay_MalformedEntryIsSkipped(t *testing.T) {
	bad := auditpg.OutboxEntry{ID: uuid.New(), EventType: "broken", Payload: []byte("{not json")}
	source := &fakeSource{entries: []auditpg.OutboxEntry{bad}}
	producer := &fakeProducer{}
	relay := NewRelay(source, producer, slog.Default())

	relay.tick(context.Background())

	// Marked published twice is harmless; the entry must be gone.
	assert.Empty(t, source.entries)
	assert.Empty(t, producer.records)
}

func TestRelay_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	source := &fakeSource{entries: []auditpg.OutboxEntry{
		entry(t, string(audit.EventOTPSent), audit.CategoryOperations),
		entry(t, string(audit.EventOTPSent), audit.CategoryOperations),
	}}
	producer := &fakeProducer{fail: true}
	relay := NewRelay(source, producer, slog.Default())

	for range 5 {
		relay.tick(context.Background())
	}

	assert.True(t, relay.breaker.IsOpen())

	// Recovery: probe succeeds and eventually closes the circuit.
	producer.fail = false
	relay.tick(context.Background())
	relay.tick(context.Background())
	assert.False(t, relay.breaker.IsOpen())
}
