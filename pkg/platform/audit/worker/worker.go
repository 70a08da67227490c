// Package worker drains audit events from a channel into a store. The
// asynchronous publisher runs one as its background goroutine; tests can
// drive one directly without wiring queue implementations.
package worker

import (
	"context"
	"log/slog"

	audit "suraksha/pkg/platform/audit"
)

type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run persists events until the context is cancelled or the inbox is
// closed. A failed write is logged and the loop keeps going; audit
// persistence must not take the drain down with it.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil && w.logger != nil {
				w.logger.Error("failed to persist audit event",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
