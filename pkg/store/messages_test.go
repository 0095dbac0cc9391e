package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearsite/clearsite/pkg/audit"
)

func TestMessageLifecycle(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.AddMessage(&Message{
		ID:      "msg_1",
		Name:    "Visitor",
		Email:   "visitor@example.com",
		Subject: "Hello",
		Body:    "I have a question.",
	}))

	messages, err := s.ListMessages(0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Visitor", messages[0].Name)
	assert.Nil(t, messages[0].ReadAt)

	require.NoError(t, s.MarkMessageRead("msg_1"))

	messages, err = s.ListMessages(0)
	require.NoError(t, err)
	require.NotNil(t, messages[0].ReadAt)

	require.NoError(t, s.DeleteMessage("msg_1"))
	assert.ErrorIs(t, s.DeleteMessage("msg_1"), ErrMessageNotFound)
	assert.ErrorIs(t, s.MarkMessageRead("msg_1"), ErrMessageNotFound)
}

func TestSettingsUpsert(t *testing.T) {
	s := setupTestStore(t)

	// Missing keys read as empty, not as errors.
	value, err := s.GetSetting("about_text")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	require.NoError(t, s.SetSetting("about_text", "We build things."))
	require.NoError(t, s.SetSetting("twitter_url", "https://twitter.com/example"))

	value, err = s.GetSetting("about_text")
	require.NoError(t, err)
	assert.Equal(t, "We build things.", value)

	// Upsert replaces in place.
	require.NoError(t, s.SetSetting("about_text", "We build other things."))
	value, err = s.GetSetting("about_text")
	require.NoError(t, err)
	assert.Equal(t, "We build other things.", value)

	settings, err := s.ListSettings()
	require.NoError(t, err)
	assert.Len(t, settings, 2)
}

func TestAuditTrail(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.InsertAuditEvent(audit.Event{
		Type:      audit.EventIdentityCreate,
		Timestamp: time.Now().Add(-time.Minute),
		ActorID:   "master",
		ActorTier: "master",
		Target:    "cred-1",
		Decision:  "allow",
		Details:   map[string]string{"handle": "ops@example.com"},
	}))
	require.NoError(t, s.InsertAuditEvent(audit.Event{
		Type:      audit.EventAuthzDenied,
		Timestamp: time.Now(),
		ActorID:   "cred-2",
		ActorTier: "admin",
		Target:    "cred-1",
		Decision:  "deny",
	}))

	events, err := s.ListAuditEvents(0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first.
	assert.Equal(t, audit.EventAuthzDenied, events[0].Type)
	assert.Equal(t, "deny", events[0].Decision)
	assert.Equal(t, audit.EventIdentityCreate, events[1].Type)
	assert.Equal(t, "ops@example.com", events[1].Details["handle"])

	t.Run("Limit", func(t *testing.T) {
		events, err := s.ListAuditEvents(1)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})
}
