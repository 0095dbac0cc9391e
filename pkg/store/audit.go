// Audit trail persistence. Implements audit.Sink.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/clearsite/clearsite/pkg/audit"
)

// InsertAuditEvent persists one audit event.
func (s *Store) InsertAuditEvent(ev audit.Event) error {
	details := "{}"
	if len(ev.Details) > 0 {
		b, err := json.Marshal(ev.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		details = string(b)
	}

	_, err := s.db.Exec(
		`INSERT INTO audit_log (timestamp, event_type, actor_id, actor_tier, target, decision, details) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.Timestamp.Unix(), string(ev.Type), ev.ActorID, ev.ActorTier, ev.Target, ev.Decision, details,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns the most recent audit events, newest first.
func (s *Store) ListAuditEvents(limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT timestamp, event_type, actor_id, actor_tier, target, decision, details FROM audit_log ORDER BY timestamp DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var ev audit.Event
		var ts int64
		var eventType, details string
		if err := rows.Scan(&ts, &eventType, &ev.ActorID, &ev.ActorTier, &ev.Target, &ev.Decision, &details); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		ev.Timestamp = time.Unix(ts, 0)
		ev.Type = audit.EventType(eventType)
		if details != "" && details != "{}" {
			ev.Details = make(map[string]string)
			json.Unmarshal([]byte(details), &ev.Details)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
