package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/clearsite/clearsite/pkg/authority"
)

type setSettingRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.ListSettings()
	if err != nil {
		writeInternalError(w, r, err, "Failed to list settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	value, err := s.store.GetSetting(key)
	if err != nil {
		writeInternalError(w, r, err, "Failed to get setting")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	var req setSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	key := r.PathValue("key")
	if err := s.store.SetSetting(key, req.Value); err != nil {
		writeInternalError(w, r, err, "Failed to set setting")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}

// handleListAuditEvents returns the recent audit trail. Restricted to
// the super-admin tier and above.
func (s *Server) handleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierSuperAdmin); !ok {
		return
	}

	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	events, err := s.store.ListAuditEvents(limit)
	if err != nil {
		writeInternalError(w, r, err, "Failed to list audit events")
		return
	}

	result := make([]map[string]interface{}, 0, len(events))
	for _, ev := range events {
		result = append(result, map[string]interface{}{
			"type":      string(ev.Type),
			"timestamp": ev.Timestamp.UTC().Format(time.RFC3339),
			"actorId":   ev.ActorID,
			"actorTier": ev.ActorTier,
			"target":    ev.Target,
			"decision":  ev.Decision,
			"details":   ev.Details,
		})
	}
	writeJSON(w, http.StatusOK, result)
}
