// Package authz holds the permission matrix for identity-management
// operations. The matrix is a pure function over (acting tier, target
// tier, operation) with no I/O; every identity-management decision in
// the system flows through IsAllowed.
package authz
