package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventFaceEnrolled            EventType = "FACE_ENROLLED"
	EventFaceImported            EventType = "FACE_IMPORTED"
	EventAuthenticated           EventType = "AUTHENTICATED"
	EventAuthenticationFailed    EventType = "AUTHENTICATION_FAILED"
	EventAuthenticationCancelled EventType = "AUTHENTICATION_CANCELLED"
	EventCaptureFailed           EventType = "CAPTURE_FAILED"
)

// Event is one entry of the biometric audit trail
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	SessionID uuid.UUID         `json:"session_id"`
	EventType EventType         `json:"event_type"`
	Identity  string            `json:"identity,omitempty"`
	RecordID  int64             `json:"record_id,omitempty"`
	Distance  *float64          `json:"distance,omitempty"`
	Provider  string            `json:"provider"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger   *slog.Logger
	provider string
}

// NewSlogLogger creates an audit logger that stamps every event with the
// extractor in use
func NewSlogLogger(logger *slog.Logger, provider string) *SlogLogger {
	return &SlogLogger{
		logger:   logger.With("component", "audit"),
		provider: provider,
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Provider == "" {
		event.Provider = l.provider
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	l.logger.InfoContext(ctx, "audit_event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.String("session_id", event.SessionID.String()),
		slog.String("provider", event.Provider),
		slog.Bool("success", event.Success),
		slog.String("event_data", string(eventJSON)),
	)

	return nil
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
