package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/clearsite/clearsite/pkg/audit"
	"github.com/clearsite/clearsite/pkg/authority"
	"github.com/clearsite/clearsite/pkg/store"
)

// Contact form limits: a small burst per source address, refilling
// slowly. Keeps drive-by form spam out without a captcha.
const (
	contactRatePerMinute = 3
	contactBurst         = 5
	maxContactBodyLength = 4096

	// An idle bucket refills to full burst well inside this window, so
	// evicting it never grants a source extra sends.
	contactIdleWindow = 10 * time.Minute
)

// contactLimiter tracks one token bucket per source address. Entries
// idle past contactIdleWindow are evicted to keep the map bounded on a
// public endpoint.
type contactLimiter struct {
	mu        sync.Mutex
	entries   map[string]*contactEntry
	lastPrune time.Time
}

type contactEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newContactLimiter() *contactLimiter {
	return &contactLimiter{
		entries:   make(map[string]*contactEntry),
		lastPrune: time.Now(),
	}
}

// allow reports whether the given source may submit another message.
func (cl *contactLimiter) allow(addr string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := time.Now()
	if now.Sub(cl.lastPrune) > contactIdleWindow {
		for a, e := range cl.entries {
			if now.Sub(e.lastSeen) > contactIdleWindow {
				delete(cl.entries, a)
			}
		}
		cl.lastPrune = now
	}

	e, ok := cl.entries[addr]
	if !ok {
		e = &contactEntry{lim: rate.NewLimiter(rate.Every(time.Minute/contactRatePerMinute), contactBurst)}
		cl.entries[addr] = e
	}
	e.lastSeen = now
	return e.lim.Allow()
}

// clientAddr extracts the client host from a request, without the port.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ----- Contact Types -----

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type messageResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Subject   string  `json:"subject,omitempty"`
	Body      string  `json:"body"`
	CreatedAt string  `json:"createdAt"`
	ReadAt    *string `json:"readAt,omitempty"`
}

func messageToResponse(m *store.Message) messageResponse {
	resp := messageResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Subject:   m.Subject,
		Body:      m.Body,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.ReadAt != nil {
		t := m.ReadAt.UTC().Format(time.RFC3339)
		resp.ReadAt = &t
	}
	return resp
}

// handleContact accepts a public contact-form submission. No auth; the
// per-address rate limit is the only gate.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if !s.contact.allow(clientAddr(r)) {
		writeError(w, r, http.StatusTooManyRequests, "Too many messages, try again later")
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Body = strings.TrimSpace(req.Body)
	if req.Name == "" || req.Body == "" {
		writeError(w, r, http.StatusBadRequest, "Name and body are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, r, http.StatusBadRequest, "A valid email is required")
		return
	}
	if len(req.Body) > maxContactBodyLength {
		writeError(w, r, http.StatusBadRequest, "Message body too long")
		return
	}

	m := &store.Message{
		ID:      "msg_" + uuid.New().String()[:UUIDShortLength],
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if err := s.store.AddMessage(m); err != nil {
		writeInternalError(w, r, err, "Failed to store message")
		return
	}

	s.store.InsertAuditEvent(audit.Event{
		Type:      audit.EventContactMessage,
		Timestamp: time.Now(),
		ActorID:   "anonymous",
		ActorTier: authority.TierUser.String(),
		Target:    m.ID,
		Decision:  "allow",
	})

	writeJSON(w, http.StatusCreated, map[string]string{"id": m.ID})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	messages, err := s.store.ListMessages(0)
	if err != nil {
		writeInternalError(w, r, err, "Failed to list messages")
		return
	}

	result := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		result = append(result, messageToResponse(m))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMarkMessageRead(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	if err := s.store.MarkMessageRead(r.PathValue("id")); err != nil {
		writeError(w, r, http.StatusNotFound, "Message not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTier(w, r, authority.TierAdmin); !ok {
		return
	}

	if err := s.store.DeleteMessage(r.PathValue("id")); err != nil {
		writeError(w, r, http.StatusNotFound, "Message not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
