package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher hands events to the background worker without blocking domain
// logic. A full inbox drops the event and logs; auditing is best-effort here.
type Publisher struct {
	inbox  chan<- Event
	logger *slog.Logger
	now    func() time.Time
}

func NewPublisher(inbox chan<- Event, logger *slog.Logger) *Publisher {
	return &Publisher{inbox: inbox, logger: logger, now: time.Now}
}

// Emit stamps and queues an event.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now().UTC()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action, "record_id", event.RecordID)
	}
}

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run processes events until ctx is cancelled. Store failures are logged,
// not fatal: an audit hiccup must not take the service down.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"action", event.Action, "error", err)
			}
		}
	}
}
