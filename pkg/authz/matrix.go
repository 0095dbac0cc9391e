package authz

import "github.com/clearsite/clearsite/pkg/authority"

// Operation is an identity-management operation subject to the matrix.
type Operation string

const (
	// OpCreateIdentity creates a credential and identity record.
	OpCreateIdentity Operation = "identity:create"

	// OpDeleteIdentity removes a credential and identity record.
	OpDeleteIdentity Operation = "identity:delete"

	// OpRotateCredential replaces an identity's secret.
	OpRotateCredential Operation = "credential:rotate"
)

var validOperations = map[Operation]bool{
	OpCreateIdentity:   true,
	OpDeleteIdentity:   true,
	OpRotateCredential: true,
}

// ValidOperation reports whether op is a known operation.
func ValidOperation(op Operation) bool {
	return validOperations[op]
}

// IsAllowed reports whether an actor at the acting tier may perform op
// against a target at the target tier.
//
// The matrix, exhaustively:
//   - Master may perform any known operation against any tier.
//   - SuperAdmin manages Admin identities: create, delete, and rotate,
//     against Admin targets only. SuperAdmin peers are off limits.
//   - Admin and User hold no identity-management capability.
//
// Unknown operations are denied for every tier pairing.
func IsAllowed(acting, target authority.Tier, op Operation) bool {
	if !ValidOperation(op) {
		return false
	}

	switch acting {
	case authority.TierMaster:
		return true
	case authority.TierSuperAdmin:
		return target == authority.TierAdmin
	default:
		return false
	}
}
