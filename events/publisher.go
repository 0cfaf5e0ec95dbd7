package events

import (
	"context"
	"errors"
	"log/slog"
)

// Publisher publishes an event payload under a partition key.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}

// LoggingPublisher writes events to the log. It is used when no broker is configured.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	p.logger.InfoContext(ctx, "event published",
		"event_type", eventType,
		"partition_key", partitionKey,
		"payload", string(payload),
	)
	return nil
}

// MultiPublisher publishes every event to all of its publishers.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, eventType, payload, partitionKey); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
