package directory

import (
	"context"
	"fmt"
)

// Unconfigured is the oracle used when no credential service is
// configured. The server still runs so the master key can manage site
// content, but identity lifecycle operations fail cleanly and session
// tokens never verify.
type Unconfigured struct{}

var errUnconfigured = fmt.Errorf("no credential service configured")

// VerifySession never recognizes a session.
func (Unconfigured) VerifySession(ctx context.Context, token string) (string, bool, error) {
	return "", false, nil
}

// CreateCredential fails: there is nowhere to store a credential.
func (Unconfigured) CreateCredential(ctx context.Context, handle, secret string) (string, error) {
	return "", errUnconfigured
}

// DeleteCredential fails.
func (Unconfigured) DeleteCredential(ctx context.Context, id string) error {
	return errUnconfigured
}

// UpdateSecret fails.
func (Unconfigured) UpdateSecret(ctx context.Context, id, newSecret string) error {
	return errUnconfigured
}
