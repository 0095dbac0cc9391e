package audit

import (
	"fmt"
	"testing"
	"time"
)

// recordingSink captures emitted events.
type recordingSink struct {
	events []Event
	fail   bool
}

func (r *recordingSink) InsertAuditEvent(ev Event) error {
	if r.fail {
		return fmt.Errorf("sink unavailable")
	}
	r.events = append(r.events, ev)
	return nil
}

func TestSeverityFor(t *testing.T) {
	cases := []struct {
		event    EventType
		severity Severity
	}{
		{EventIdentityCreate, SeverityNotice},
		{EventIdentityDelete, SeverityWarning},
		{EventCredentialRotate, SeverityNotice},
		{EventAuthzDenied, SeverityWarning},
		{EventPartialFailure, SeverityWarning},
		{EventContactMessage, SeverityInfo},
		{EventType("something.new"), SeverityWarning},
	}
	for _, tc := range cases {
		if got := SeverityFor(tc.event); got != tc.severity {
			t.Errorf("SeverityFor(%s) = %s, want %s", tc.event, got, tc.severity)
		}
	}
}

func TestEmitPersistsToSink(t *testing.T) {
	sink := &recordingSink{}
	e := NewEmitter(nil, sink)

	e.Emit(Event{
		Type:     EventIdentityCreate,
		ActorID:  "master",
		Target:   "cred-1",
		Decision: "allow",
	})

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 persisted event, got %d", len(sink.events))
	}
	if sink.events[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be defaulted")
	}
}

func TestEmitKeepsExplicitTimestamp(t *testing.T) {
	sink := &recordingSink{}
	e := NewEmitter(nil, sink)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e.Emit(Event{Type: EventAuthzDenied, Timestamp: ts})

	if !sink.events[0].Timestamp.Equal(ts) {
		t.Errorf("expected timestamp preserved, got %v", sink.events[0].Timestamp)
	}
}

// Sink failures must not propagate; audit cannot block the operation
// it describes.
func TestEmitSurvivesSinkFailure(t *testing.T) {
	e := NewEmitter(nil, &recordingSink{fail: true})
	e.Emit(Event{Type: EventIdentityDelete})
}

func TestEmitWithoutSink(t *testing.T) {
	e := NewEmitter(nil, nil)
	e.Emit(Event{Type: EventContactMessage})
}
