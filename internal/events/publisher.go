// Package events fans domain events out to the notification collaborator.
// Emission is fire-and-forget: a state transition has already committed by
// the time its event is published, and nothing here may fail it.
package events

import (
	"log/slog"
	"time"

	"bloodlink/internal/domain"
)

// Publisher buffers events for asynchronous delivery. When the buffer is
// full the event is dropped and counted; blocking a state transition on a
// slow sink is never acceptable.
type Publisher struct {
	inbox  chan domain.Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan domain.Event, buffer),
		logger: logger,
	}
}

// Emit queues an event for delivery, stamping the time if unset.
func (p *Publisher) Emit(event domain.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("event buffer full, dropping event",
			"type", event.Type,
			"request_id", event.RequestID,
		)
	}
}

// Inbox exposes the queue to the worker.
func (p *Publisher) Inbox() <-chan domain.Event {
	return p.inbox
}
