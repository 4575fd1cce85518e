package events

import (
	"context"
	"log/slog"

	"bloodlink/internal/domain"
)

// Sink delivers one event to a downstream collaborator.
type Sink interface {
	Deliver(ctx context.Context, event domain.Event) error
}

// Worker drains a publisher's inbox into a sink. Delivery failures are
// logged and dropped; the transitions that produced them are already
// committed and must not be affected.
type Worker struct {
	sink   Sink
	inbox  <-chan domain.Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan domain.Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Deliver(ctx, event); err != nil {
				w.logger.Error("event delivery failed",
					"type", event.Type,
					"request_id", event.RequestID,
					"error", err,
				)
			}
		}
	}
}
