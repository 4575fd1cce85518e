package events

import (
	"context"
	"log/slog"

	"bloodlink/internal/domain"
)

// LogSink writes events to the structured log. Default sink when no broker
// is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(_ context.Context, event domain.Event) error {
	s.logger.Info("domain event",
		"type", event.Type,
		"request_id", event.RequestID,
		"donor_id", event.DonorID,
		"region", event.Region,
		"timestamp", event.Timestamp,
	)
	return nil
}
