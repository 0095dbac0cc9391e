package authority

import (
	"crypto/subtle"
	"strings"
)

// Recognizer matches request evidence against the single configured
// master credential pair. The handle is compared case-insensitively,
// the secret in constant time. No side effects, never errors.
//
// The recognizer exists so that a brand-new or degraded deployment
// stays reachable: it consults neither the directory nor the store.
type Recognizer struct {
	handle string
	secret string
}

// NewRecognizer creates a recognizer for the given master pair.
// An empty handle or secret disables recognition entirely.
func NewRecognizer(handle, secret string) *Recognizer {
	return &Recognizer{handle: handle, secret: secret}
}

// Recognize reports whether the evidence carries the master pair.
func (r *Recognizer) Recognize(ev Evidence) bool {
	if r == nil || r.handle == "" || r.secret == "" {
		return false
	}
	if !strings.EqualFold(ev.Handle, r.handle) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(ev.Secret), []byte(r.secret)) == 1
}

// Handle returns the configured master handle for display purposes.
func (r *Recognizer) Handle() string {
	return r.handle
}
