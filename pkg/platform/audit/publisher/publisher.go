// Package publisher emits audit events to a backing store.
//
// The publisher runs in one of two modes. In synchronous mode (the default)
// Emit blocks until the store write succeeds, giving fail-closed semantics
// for compliance-significant actions. With WithAsyncBuffer the publisher
// becomes fire-and-forget: events are queued on a bounded channel and
// drained by a background goroutine, and Emit drops events rather than
// block the request path when the buffer is full.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "suraksha/pkg/domain"
	audit "suraksha/pkg/platform/audit"
	"suraksha/pkg/platform/audit/worker"
)

var errBufferFull = errors.New("audit buffer full")

// Publisher emits audit events to a Store.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox chan audit.Event
	done  chan struct{}

	closeOnce sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous mode with the
// given channel capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithLogger sets a logger for reporting dropped or failed events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher backed by the given store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.done = make(chan struct{})
		drain := worker.New(p.store, p.inbox, p.logger)
		go func() {
			defer close(p.done)
			_ = drain.Run(context.Background())
		}()
	}
	return p
}

// Emit records an audit event. The category is always derived from the
// action so callers cannot misfile events, and the timestamp is set if
// the caller left it zero.
//
// In synchronous mode a returned error means persistence failed and the
// calling operation should fail too. In asynchronous mode the only errors
// are a full buffer or a cancelled context.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Category = audit.AuditEvent(event.Action).Category()

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit event dropped, buffer full",
				"action", event.Action,
			)
		}
		return errBufferFull
	}
}

// List returns the audit trail for a worker.
func (p *Publisher) List(ctx context.Context, workerID id.WorkerID) ([]audit.Event, error) {
	return p.store.ListByWorker(ctx, workerID)
}

// Close stops the background goroutine, draining any queued events first.
// Safe to call multiple times.
func (p *Publisher) Close() error {
	if p.inbox == nil {
		return nil
	}
	p.closeOnce.Do(func() {
		close(p.inbox)
		<-p.done
	})
	return nil
}
