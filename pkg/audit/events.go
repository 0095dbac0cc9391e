// Package audit emits security-relevant events for the administrative
// surface. Events go to structured logs and, when a sink is attached,
// to the persistent audit trail.
package audit

import "time"

// Severity selects the log level an event is emitted at.
type Severity int

const (
	SeverityWarning Severity = 4
	SeverityNotice  Severity = 5
	SeverityInfo    Severity = 6
)

// String returns the human-readable name for a severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityNotice:
		return "NOTICE"
	case SeverityWarning:
		return "WARNING"
	default:
		return "UNKNOWN"
	}
}

// EventType identifies a security-relevant audit event.
type EventType string

const (
	EventIdentityCreate   EventType = "identity.create"
	EventIdentityDelete   EventType = "identity.delete"
	EventCredentialRotate EventType = "credential.rotate"
	EventAuthzDenied      EventType = "authz.denied"
	EventPartialFailure   EventType = "identity.partial_failure"
	EventContactMessage   EventType = "contact.message"
)

// severityMap maps each event type to its emission severity.
var severityMap = map[EventType]Severity{
	EventIdentityCreate:   SeverityNotice,
	EventIdentityDelete:   SeverityWarning,
	EventCredentialRotate: SeverityNotice,
	EventAuthzDenied:      SeverityWarning,
	EventPartialFailure:   SeverityWarning,
	EventContactMessage:   SeverityInfo,
}

// SeverityFor returns the severity for a given event type.
// Unknown event types return SeverityWarning (treat unknowns as concerning).
func SeverityFor(et EventType) Severity {
	if s, ok := severityMap[et]; ok {
		return s
	}
	return SeverityWarning
}

// Event is one audit record with structured fields.
type Event struct {
	Type      EventType
	Timestamp time.Time
	ActorID   string            // resolved subject id, or "master"
	ActorTier string            // tier spelling at decision time
	Target    string            // record id, handle, or operation target
	Decision  string            // allow, deny, error
	Details   map[string]string // event-specific fields
}
