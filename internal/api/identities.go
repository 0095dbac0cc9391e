package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clearsite/clearsite/pkg/authority"
	"github.com/clearsite/clearsite/pkg/identity"
)

// ----- Identity Types -----

type createIdentityRequest struct {
	ContactHandle string `json:"contactHandle"`
	Secret        string `json:"secret"`
	DisplayName   string `json:"displayName"`
	Tier          string `json:"tier"`
}

type rotateCredentialRequest struct {
	NewSecret string `json:"newSecret"`
	Tier      string `json:"tier"`
}

type identityResponse struct {
	ID            string `json:"id"`
	ContactHandle string `json:"contactHandle"`
	Tier          string `json:"tier"`
	DisplayName   string `json:"displayName,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

func identityToResponse(rec *identity.Record) identityResponse {
	return identityResponse{
		ID:            rec.ID,
		ContactHandle: rec.ContactHandle,
		Tier:          rec.Tier.String(),
		DisplayName:   rec.DisplayName,
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// handleWhoAmI reports the caller's resolved authority. Unauthenticated
// callers get the anonymous tier rather than an error.
func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	principal := s.svc.ResolveCurrentPrincipal(r.Context(), evidenceFromRequest(r))
	writeJSON(w, http.StatusOK, principal)
}

func (s *Server) handleListIdentities(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.ListIdentities(r.Context(), evidenceFromRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	result := make([]identityResponse, 0, len(recs))
	for _, rec := range recs {
		result = append(result, identityToResponse(rec))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateIdentity(w http.ResponseWriter, r *http.Request) {
	var req createIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	tier, err := authority.ParseTier(req.Tier)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Unknown tier: "+req.Tier)
		return
	}

	rec, err := s.svc.CreateIdentity(r.Context(), evidenceFromRequest(r), identity.CreateParams{
		ContactHandle: req.ContactHandle,
		Secret:        req.Secret,
		DisplayName:   req.DisplayName,
		Tier:          tier,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, identityToResponse(rec))
}

func (s *Server) handleDeleteIdentity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ev := evidenceFromRequest(r)

	tier, err := s.targetTierFor(r, ev, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := s.svc.DeleteIdentity(r.Context(), ev, id, tier); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRotateCredential(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ev := evidenceFromRequest(r)

	var req rotateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	tier, err := s.targetTierFor(r, ev, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := s.svc.RotateCredential(r.Context(), ev, id, tier, req.NewSecret); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// targetTierFor looks up the registered tier for a target identity. The
// matrix is evaluated against the stored tier, never one the caller
// claims in the request.
//
// Callers without any identity-management capability never reach the
// lookup: they get a placeholder tier so the service denies them
// without revealing whether the id exists.
func (s *Server) targetTierFor(r *http.Request, ev authority.Evidence, id string) (authority.Tier, error) {
	acting := s.svc.ResolveCurrentPrincipal(r.Context(), ev)
	if !acting.Tier.AtLeast(authority.TierSuperAdmin) {
		return authority.TierAdmin, nil
	}

	rec, err := s.store.FindBySubjectID(id)
	if err != nil {
		return authority.TierUser, identity.ErrInvalid("could not look up target identity")
	}
	if rec == nil {
		return authority.TierUser, identity.ErrNotFound(id)
	}
	return rec.Tier, nil
}
