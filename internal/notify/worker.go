package notify

import (
	"context"
	"log/slog"

	"blkout/internal/notify/metrics"
)

// Worker decouples webhook delivery from the request path: services publish
// into a bounded inbox and return immediately, the worker drains it in the
// background. When the inbox is full the event is dropped and counted rather
// than blocking a moderation decision.
type Worker struct {
	inbox      chan Event
	dispatcher *Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

var _ Publisher = (*Worker)(nil)

func NewWorker(dispatcher *Dispatcher, inboxSize int, logger *slog.Logger, m *metrics.Metrics) *Worker {
	if inboxSize <= 0 {
		inboxSize = 256
	}
	return &Worker{
		inbox:      make(chan Event, inboxSize),
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    m,
	}
}

// Publish enqueues an event without blocking the caller.
func (w *Worker) Publish(event Event) {
	select {
	case w.inbox <- event:
	default:
		w.metrics.RecordDropped()
		w.logger.Warn("notification dropped, inbox full",
			"submission_id", event.Record.ID,
			"workflow", event.WorkflowSlug(),
		)
	}
}

// Run drains the inbox until ctx ends. Events already in the inbox when ctx
// is cancelled are delivered before returning, bounded by the dispatcher's
// per-delivery timeout.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.dispatcher.Dispatch(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case event := <-w.inbox:
			// Fresh context: the run context is already cancelled.
			ctx, cancel := context.WithTimeout(context.Background(), w.dispatcher.timeout)
			w.dispatcher.Dispatch(ctx, event)
			cancel()
		default:
			return
		}
	}
}
