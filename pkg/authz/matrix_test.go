package authz

import (
	"testing"

	"github.com/clearsite/clearsite/pkg/authority"
)

func TestMatrix(t *testing.T) {
	tiers := []authority.Tier{
		authority.TierUser,
		authority.TierAdmin,
		authority.TierSuperAdmin,
		authority.TierMaster,
	}
	ops := []Operation{OpCreateIdentity, OpDeleteIdentity, OpRotateCredential}

	cases := []struct {
		name    string
		acting  authority.Tier
		target  authority.Tier
		op      Operation
		allowed bool
	}{
		{"MasterCreatesSuperAdmin", authority.TierMaster, authority.TierSuperAdmin, OpCreateIdentity, true},
		{"MasterDeletesSuperAdmin", authority.TierMaster, authority.TierSuperAdmin, OpDeleteIdentity, true},
		{"MasterRotatesAdmin", authority.TierMaster, authority.TierAdmin, OpRotateCredential, true},
		{"SuperAdminCreatesAdmin", authority.TierSuperAdmin, authority.TierAdmin, OpCreateIdentity, true},
		{"SuperAdminDeletesAdmin", authority.TierSuperAdmin, authority.TierAdmin, OpDeleteIdentity, true},
		{"SuperAdminRotatesAdmin", authority.TierSuperAdmin, authority.TierAdmin, OpRotateCredential, true},
		{"SuperAdminCreatesSuperAdmin", authority.TierSuperAdmin, authority.TierSuperAdmin, OpCreateIdentity, false},
		{"SuperAdminDeletesSuperAdmin", authority.TierSuperAdmin, authority.TierSuperAdmin, OpDeleteIdentity, false},
		{"SuperAdminRotatesSuperAdmin", authority.TierSuperAdmin, authority.TierSuperAdmin, OpRotateCredential, false},
		{"AdminCreatesAdmin", authority.TierAdmin, authority.TierAdmin, OpCreateIdentity, false},
		{"AdminDeletesAdmin", authority.TierAdmin, authority.TierAdmin, OpDeleteIdentity, false},
		{"UserCreatesAdmin", authority.TierUser, authority.TierAdmin, OpCreateIdentity, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsAllowed(tc.acting, tc.target, tc.op)
			if got != tc.allowed {
				t.Errorf("IsAllowed(%s, %s, %s) = %v, want %v",
					tc.acting, tc.target, tc.op, got, tc.allowed)
			}
		})
	}

	// Unknown operations are denied for every pairing, master included.
	t.Run("UnknownOperation", func(t *testing.T) {
		for _, acting := range tiers {
			for _, target := range tiers {
				if IsAllowed(acting, target, Operation("identity:promote")) {
					t.Errorf("unknown operation allowed for acting=%s target=%s", acting, target)
				}
			}
		}
	})

	// The matrix is pure: the same inputs always produce the same answer.
	t.Run("Deterministic", func(t *testing.T) {
		for _, acting := range tiers {
			for _, target := range tiers {
				for _, op := range ops {
					first := IsAllowed(acting, target, op)
					second := IsAllowed(acting, target, op)
					if first != second {
						t.Errorf("IsAllowed(%s, %s, %s) not deterministic", acting, target, op)
					}
				}
			}
		}
	})
}

func TestValidOperation(t *testing.T) {
	for _, op := range []Operation{OpCreateIdentity, OpDeleteIdentity, OpRotateCredential} {
		if !ValidOperation(op) {
			t.Errorf("expected %s to be a valid operation", op)
		}
	}
	if ValidOperation(Operation("")) {
		t.Error("empty operation must be invalid")
	}
}
