package observability

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AuditEvent is one line of the run journal
type AuditEvent struct {
	Type      string         `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id,omitempty"`
	Action    string         `json:"action"` // e.g. "run:concurrent", "save"
	Status    string         `json:"status"` // "success", "failure"
	Metadata  map[string]any `json:"metadata,omitempty"`
	TraceID   string         `json:"trace_id,omitempty"`
}

// AuditLogger appends audit events as JSON lines
type AuditLogger struct {
	logger zerolog.Logger
	mu     sync.Mutex
	file   *os.File
}

var (
	auditMu   sync.Mutex
	auditInst = newAuditLogger(io.Discard, nil)
)

func newAuditLogger(w io.Writer, file *os.File) *AuditLogger {
	return &AuditLogger{
		logger: zerolog.New(w).With().Timestamp().Logger(),
		file:   file,
	}
}

// GetAuditLogger returns the global audit logger. Events are discarded
// until InitAuditLogger is called.
func GetAuditLogger() *AuditLogger {
	auditMu.Lock()
	defer auditMu.Unlock()
	return auditInst
}

// InitAuditLogger sends audit events to path, appending to an existing journal
func InitAuditLogger(path string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	swapAuditLogger(newAuditLogger(file, file))
	return nil
}

// SetAuditWriter sends audit events to w. The previous journal file, if
// any, is closed.
func SetAuditWriter(w io.Writer) {
	swapAuditLogger(newAuditLogger(w, nil))
}

func swapAuditLogger(next *AuditLogger) {
	auditMu.Lock()
	prev := auditInst
	auditInst = next
	auditMu.Unlock()

	_ = prev.Close()
}

// Record writes the event and mirrors it onto the current span
func (a *AuditLogger) Record(ctx context.Context, event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		event.TraceID = span.SpanContext().TraceID().String()

		span.AddEvent(event.Action, trace.WithAttributes(
			attribute.String("audit.type", event.Type),
			attribute.String("audit.status", event.Status),
			attribute.String("audit.run_id", event.RunID),
		))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Str("type", event.Type).
		Str("run_id", event.RunID).
		Str("action", event.Action).
		Str("status", event.Status).
		Str("trace_id", event.TraceID)

	if event.Metadata != nil {
		entry.Interface("metadata", event.Metadata)
	}

	entry.Msg("")
}

// Close closes the journal file, if one is open
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		err := a.file.Close()
		a.file = nil
		return err
	}
	return nil
}

// RecordRunAudit journals the outcome of one simulation run
func RecordRunAudit(ctx context.Context, runID, mode string, err error, metadata map[string]any) {
	status := "success"
	if err != nil {
		status = "failure"
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["error"] = err.Error()
	}

	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     "simulation",
		RunID:    runID,
		Action:   "run:" + mode,
		Status:   status,
		Metadata: metadata,
	})
}

// RecordConfigAudit journals a configuration change
func RecordConfigAudit(ctx context.Context, action string, metadata map[string]any) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     "config",
		Action:   action,
		Status:   "success",
		Metadata: metadata,
	})
}
