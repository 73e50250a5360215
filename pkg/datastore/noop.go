package datastore

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink.
// Useful when no event handling is needed, and for testing.
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) ContentCreated(ctx context.Context, record *ContentRecord) error {
	return nil
}

func (n *NoopEventSink) ContentUpdated(ctx context.Context, record *ContentRecord) error {
	return nil
}

func (n *NoopEventSink) ContentDeleted(ctx context.Context, contentID uuid.UUID) error {
	return nil
}

func (n *NoopEventSink) BlobOrphaned(ctx context.Context, objectKey string, reason string) error {
	return nil
}

// LogEventSink writes lifecycle events to a structured logger. Orphaned
// blobs are logged at Warn so operators can sweep them later.
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink creates an event sink backed by the given logger. A nil
// logger falls back to slog.Default.
func NewLogEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger}
}

func (l *LogEventSink) ContentCreated(ctx context.Context, record *ContentRecord) error {
	l.logger.Info("content created", "content_id", record.ID, "tenant_id", record.TenantID, "kind", record.Kind)
	return nil
}

func (l *LogEventSink) ContentUpdated(ctx context.Context, record *ContentRecord) error {
	l.logger.Info("content updated", "content_id", record.ID, "kind", record.Kind)
	return nil
}

func (l *LogEventSink) ContentDeleted(ctx context.Context, contentID uuid.UUID) error {
	l.logger.Info("content deleted", "content_id", contentID)
	return nil
}

func (l *LogEventSink) BlobOrphaned(ctx context.Context, objectKey string, reason string) error {
	l.logger.Warn("blob orphaned, reconciliation candidate", "object_key", objectKey, "reason", reason)
	return nil
}
