package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/clearsite/clearsite/pkg/authority"
)

// Context keys for authenticated principal info
type contextKey string

const contextKeyPrincipal contextKey = "principal"

// evidenceFromRequest extracts authority evidence from a request.
// Basic credentials carry a handle and secret for the master key path;
// a Bearer token carries a directory session token. Absent headers
// yield empty evidence, which resolves to the anonymous tier.
func evidenceFromRequest(r *http.Request) authority.Evidence {
	if handle, secret, ok := r.BasicAuth(); ok {
		return authority.Evidence{Handle: handle, Secret: secret}
	}
	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return authority.Evidence{SessionToken: token}
	}
	return authority.Evidence{}
}

// withPrincipal resolves the caller's authority and stores the
// resulting principal in the request context. Resolution never fails
// the request by itself; handlers decide what tier they require.
func (s *Server) withPrincipal(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := s.resolver.Resolve(r.Context(), evidenceFromRequest(r))
		ctx := context.WithValue(r.Context(), contextKeyPrincipal, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// principalFrom returns the resolved principal from the request
// context. Requests that bypassed the middleware get the anonymous
// principal, never elevated authority.
func principalFrom(ctx context.Context) authority.Principal {
	if v := ctx.Value(contextKeyPrincipal); v != nil {
		return v.(authority.Principal)
	}
	return authority.Principal{Tier: authority.TierUser}
}

// requireTier rejects the request unless the caller holds at least the
// given tier. Returns the principal and true when the gate passes.
func requireTier(w http.ResponseWriter, r *http.Request, min authority.Tier) (authority.Principal, bool) {
	principal := principalFrom(r.Context())
	if !principal.Tier.AtLeast(min) {
		writeError(w, r, http.StatusForbidden, "Insufficient privileges")
		return principal, false
	}
	return principal, true
}
