// Package api implements the HTTP API server for the site backend and
// its admin surface.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/clearsite/clearsite/internal/version"
	"github.com/clearsite/clearsite/pkg/authority"
	"github.com/clearsite/clearsite/pkg/identity"
	"github.com/clearsite/clearsite/pkg/store"
)

// UUIDShortLength is the number of characters used when truncating UUIDs for IDs.
// Example: "msg_" + uuid.New().String()[:UUIDShortLength] produces "msg_abc12345"
const UUIDShortLength = 8

// Server is the HTTP API server.
type Server struct {
	store    *store.Store
	svc      *identity.Service
	resolver *authority.Resolver
	contact  *contactLimiter
}

// NewServer creates a new API server.
func NewServer(s *store.Store, svc *identity.Service, resolver *authority.Resolver) *Server {
	return &Server{
		store:    s,
		svc:      svc,
		resolver: resolver,
		contact:  newContactLimiter(),
	}
}

// RegisterRoutes registers all API routes. Every route passes through
// the principal middleware; handlers gate on the resolved tier.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Identity routes. The lifecycle service resolves evidence itself,
	// so these skip the principal middleware.
	mux.HandleFunc("GET /api/v1/me", s.handleWhoAmI)
	mux.HandleFunc("GET /api/v1/identities", s.handleListIdentities)
	mux.HandleFunc("POST /api/v1/identities", s.handleCreateIdentity)
	mux.HandleFunc("DELETE /api/v1/identities/{id}", s.handleDeleteIdentity)
	mux.HandleFunc("POST /api/v1/identities/{id}/rotate", s.handleRotateCredential)

	// Product routes
	mux.HandleFunc("GET /api/v1/products", s.handleListProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", s.handleGetProduct)
	mux.HandleFunc("POST /api/v1/products", s.withPrincipal(s.handleAddProduct))
	mux.HandleFunc("PUT /api/v1/products/{id}", s.withPrincipal(s.handleUpdateProduct))
	mux.HandleFunc("DELETE /api/v1/products/{id}", s.withPrincipal(s.handleDeleteProduct))

	// Service routes
	mux.HandleFunc("GET /api/v1/services", s.handleListServices)
	mux.HandleFunc("POST /api/v1/services", s.withPrincipal(s.handleAddService))
	mux.HandleFunc("PUT /api/v1/services/{id}", s.withPrincipal(s.handleUpdateService))
	mux.HandleFunc("DELETE /api/v1/services/{id}", s.withPrincipal(s.handleDeleteService))

	// Project routes
	mux.HandleFunc("GET /api/v1/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/v1/projects/{id}", s.handleGetProject)
	mux.HandleFunc("POST /api/v1/projects", s.withPrincipal(s.handleAddProject))
	mux.HandleFunc("DELETE /api/v1/projects/{id}", s.withPrincipal(s.handleDeleteProject))

	// Testimonial routes
	mux.HandleFunc("GET /api/v1/testimonials", s.handleListTestimonials)
	mux.HandleFunc("POST /api/v1/testimonials", s.withPrincipal(s.handleAddTestimonial))
	mux.HandleFunc("DELETE /api/v1/testimonials/{id}", s.withPrincipal(s.handleDeleteTestimonial))

	// FAQ routes
	mux.HandleFunc("GET /api/v1/faqs", s.handleListFAQs)
	mux.HandleFunc("POST /api/v1/faqs", s.withPrincipal(s.handleAddFAQ))
	mux.HandleFunc("PUT /api/v1/faqs/{id}", s.withPrincipal(s.handleUpdateFAQ))
	mux.HandleFunc("DELETE /api/v1/faqs/{id}", s.withPrincipal(s.handleDeleteFAQ))

	// Settings routes
	mux.HandleFunc("GET /api/v1/settings", s.handleListSettings)
	mux.HandleFunc("GET /api/v1/settings/{key}", s.handleGetSetting)
	mux.HandleFunc("PUT /api/v1/settings/{key}", s.withPrincipal(s.handleSetSetting))

	// Contact routes
	mux.HandleFunc("POST /api/v1/contact", s.handleContact)
	mux.HandleFunc("GET /api/v1/messages", s.withPrincipal(s.handleListMessages))
	mux.HandleFunc("POST /api/v1/messages/{id}/read", s.withPrincipal(s.handleMarkMessageRead))
	mux.HandleFunc("DELETE /api/v1/messages/{id}", s.withPrincipal(s.handleDeleteMessage))

	// Audit routes
	mux.HandleFunc("GET /api/v1/audit", s.withPrincipal(s.handleListAuditEvents))

	// Health routes (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
}

// handleHealth is the liveness probe endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleReady is the readiness probe endpoint.
// Returns 200 if ready to serve traffic, 503 if not ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	allOK := true

	if err := s.store.DB().PingContext(r.Context()); err != nil {
		checks["database"] = "failed"
		allOK = false
	} else {
		checks["database"] = "ok"
	}

	response := map[string]interface{}{
		"status": "ready",
		"checks": checks,
	}

	if !allOK {
		response["status"] = "not_ready"
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", message)
	writeJSON(w, status, map[string]string{"error": message})
}

// writeInternalError logs the detailed error internally and returns a generic message to the client.
// Use this for errors that might leak implementation details.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error, genericMsg string) {
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": genericMsg})
}

// writeServiceError maps lifecycle service errors to their HTTP status
// and coded payload. Unknown errors fall back to a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *identity.Error
	if errors.As(err, &svcErr) {
		slog.Error("operation failed", "method", r.Method, "path", r.URL.Path,
			"code", svcErr.Code, "error", svcErr.Message)
		writeJSON(w, svcErr.HTTPStatus(), map[string]string{
			"error": svcErr.Message,
			"code":  svcErr.Code,
		})
		return
	}
	writeInternalError(w, r, err, "Internal server error")
}
