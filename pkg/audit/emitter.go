package audit

import (
	"log/slog"
	"time"
)

// Sink persists audit events. The store's audit_log table implements it.
type Sink interface {
	InsertAuditEvent(ev Event) error
}

// Emitter fans an event out to the structured log and the sink.
// Sink failures are logged, never propagated: audit must not block the
// operation it describes.
type Emitter struct {
	logger *slog.Logger
	sink   Sink
}

// NewEmitter creates an emitter. A nil logger uses slog.Default();
// a nil sink disables persistence.
func NewEmitter(logger *slog.Logger, sink Sink) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{logger: logger, sink: sink}
}

// Emit records one event.
func (e *Emitter) Emit(ev Event) {
	if e == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	attrs := []any{
		"event", string(ev.Type),
		"actor", ev.ActorID,
		"actor_tier", ev.ActorTier,
		"target", ev.Target,
		"decision", ev.Decision,
	}
	for k, v := range ev.Details {
		attrs = append(attrs, k, v)
	}

	switch SeverityFor(ev.Type) {
	case SeverityWarning:
		e.logger.Warn("audit", attrs...)
	case SeverityNotice, SeverityInfo:
		e.logger.Info("audit", attrs...)
	}

	if e.sink != nil {
		if err := e.sink.InsertAuditEvent(ev); err != nil {
			e.logger.Error("failed to persist audit event", "event", string(ev.Type), "error", err)
		}
	}
}
