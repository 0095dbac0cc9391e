// Package authority resolves the acting principal for a request.
//
// Two independent trust sources feed resolution: a fixed master
// credential pair configured out of band, and sessions verified by the
// external credential directory. All credential comparison in the
// system happens here; nothing outside this package decides who is
// acting.
package authority

import (
	"encoding/json"
	"fmt"
)

// Tier is an ordered authority level. Higher values carry more
// capability: Master > SuperAdmin > Admin > User.
type Tier int

const (
	// TierUser is the default tier for anonymous or unprovisioned
	// subjects. It carries no administrative capability.
	TierUser Tier = iota

	// TierAdmin manages site content only.
	TierAdmin

	// TierSuperAdmin manages Admin identities in addition to content.
	TierSuperAdmin

	// TierMaster is the break-glass tier. It is never stored; it exists
	// only while the master credential matches.
	TierMaster
)

// tierNames uses the wire/storage spelling for each tier.
var tierNames = map[Tier]string{
	TierUser:       "user",
	TierAdmin:      "admin",
	TierSuperAdmin: "super-admin",
	TierMaster:     "master",
}

// String returns the wire spelling of the tier.
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTier converts a wire spelling back to a Tier.
// Unknown spellings are rejected (fail-closed).
func ParseTier(s string) (Tier, error) {
	for t, name := range tierNames {
		if name == s {
			return t, nil
		}
	}
	return TierUser, fmt.Errorf("unknown tier %q", s)
}

// AtLeast reports whether t carries at least the capability of other.
func (t Tier) AtLeast(other Tier) bool {
	return t >= other
}

// Storable reports whether the tier may appear on a persisted identity
// record. Master and User are never stored.
func (t Tier) Storable() bool {
	return t == TierSuperAdmin || t == TierAdmin
}

// MarshalJSON writes the tier as its wire spelling.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON reads a tier from its wire spelling.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MasterSubjectID is the fixed sentinel subject for the master tier.
// It is never a row identifier.
const MasterSubjectID = "master"

// Principal is the resolved identity-plus-tier for one request. It is
// resolved fresh on every request and never persisted.
type Principal struct {
	Tier          Tier   `json:"tier"`
	SubjectID     string `json:"subject_id,omitempty"`
	ContactHandle string `json:"contact_handle,omitempty"`
}

// Evidence carries the request-supplied credentials a resolver may
// inspect: a handle/secret pair and/or a directory session token.
// Either or both may be empty.
type Evidence struct {
	Handle       string
	Secret       string
	SessionToken string
}
