// Package identity orchestrates the administrative identity lifecycle:
// creation, deletion, and credential rotation across the credential
// directory and the identity store.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/clearsite/clearsite/pkg/authority"
)

// ErrDuplicateHandle is returned by Store.Insert when the contact
// handle is already registered. Defined here so the lifecycle service
// can match it across the Store interface.
var ErrDuplicateHandle = errors.New("contact handle already registered")

// Record is a persisted administrative identity. The secret half of the
// identity lives exclusively at the credential directory; a Record
// never carries secret material.
type Record struct {
	ID            string         `json:"id"`
	ContactHandle string         `json:"contact_handle"`
	Tier          authority.Tier `json:"tier"`
	DisplayName   string         `json:"display_name"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Validate checks the structural invariants of a record.
func (r *Record) Validate() error {
	if r.ID == "" {
		return ErrInvalid("record id is required")
	}
	if !strings.Contains(r.ContactHandle, "@") {
		return ErrInvalid("contact handle must be an email address")
	}
	if !r.Tier.Storable() {
		return ErrInvalid("tier must be super-admin or admin")
	}
	return nil
}

// CredentialOracle is the external directory that owns authenticatable
// secrets. It is trusted as a black box: it either vouches for a
// subject or it does not.
type CredentialOracle interface {
	authority.SessionVerifier

	// CreateCredential registers a new handle/secret pair and returns
	// the directory-assigned credential id.
	CreateCredential(ctx context.Context, handle, secret string) (string, error)

	// DeleteCredential removes a credential by id.
	DeleteCredential(ctx context.Context, id string) error

	// UpdateSecret replaces the secret for an existing credential.
	UpdateSecret(ctx context.Context, id, newSecret string) error
}

// Store persists administrative identity records. It is the only
// component permitted to mutate them.
type Store interface {
	// FindBySubjectID returns the record keyed by a verified subject id,
	// or nil when none exists.
	FindBySubjectID(id string) (*Record, error)

	// FindByHandle returns the record with the given contact handle, or
	// nil when none exists.
	FindByHandle(handle string) (*Record, error)

	// Insert adds a new record. Duplicate handles are rejected with
	// ErrDuplicateHandle.
	Insert(rec *Record) error

	// Delete removes a record by id.
	Delete(id string) error

	// ListAll returns every record.
	ListAll() ([]*Record, error)
}
