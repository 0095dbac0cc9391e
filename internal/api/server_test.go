package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/clearsite/clearsite/pkg/audit"
	"github.com/clearsite/clearsite/pkg/authority"
	"github.com/clearsite/clearsite/pkg/identity"
	"github.com/clearsite/clearsite/pkg/store"
)

const (
	testMasterHandle = "root@example.com"
	testMasterSecret = "master-secret"
)

// testOracle is an in-memory credential directory for handler tests.
type testOracle struct {
	nextID   int
	sessions map[string]string // token -> subject id
}

func newTestOracle() *testOracle {
	return &testOracle{sessions: make(map[string]string)}
}

func (o *testOracle) VerifySession(ctx context.Context, token string) (string, bool, error) {
	subject, ok := o.sessions[token]
	return subject, ok, nil
}

func (o *testOracle) CreateCredential(ctx context.Context, handle, secret string) (string, error) {
	o.nextID++
	return fmt.Sprintf("cred-%d", o.nextID), nil
}

func (o *testOracle) DeleteCredential(ctx context.Context, id string) error { return nil }

func (o *testOracle) UpdateSecret(ctx context.Context, id, newSecret string) error { return nil }

// setupTestServer creates a test server with a temporary database and
// an in-memory credential directory.
func setupTestServer(t *testing.T) (*Server, *http.ServeMux, *testOracle) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	oracle := newTestOracle()
	recognizer := authority.NewRecognizer(testMasterHandle, testMasterSecret)
	resolver := authority.NewResolver(recognizer, oracle, s, authority.Config{})
	emitter := audit.NewEmitter(nil, s)
	svc := identity.NewService(resolver, s, oracle, emitter, nil)

	server := NewServer(s, svc, resolver)
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	return server, mux, oracle
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body interface{}, authorize func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if authorize != nil {
		authorize(req)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func asMaster(req *http.Request) {
	req.SetBasicAuth(testMasterHandle, testMasterSecret)
}

func TestHealthEndpoint(t *testing.T) {
	_, mux, _ := setupTestServer(t)

	w := doJSON(t, mux, "GET", "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%v'", result["status"])
	}
}

func TestReadyEndpoint(t *testing.T) {
	_, mux, _ := setupTestServer(t)

	w := doJSON(t, mux, "GET", "/ready", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestWhoAmI(t *testing.T) {
	_, mux, oracle := setupTestServer(t)

	t.Run("Anonymous", func(t *testing.T) {
		w := doJSON(t, mux, "GET", "/api/v1/me", nil, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var p authority.Principal
		json.NewDecoder(w.Body).Decode(&p)
		if p.Tier != authority.TierUser {
			t.Errorf("expected user tier, got %s", p.Tier)
		}
	})

	t.Run("Master", func(t *testing.T) {
		w := doJSON(t, mux, "GET", "/api/v1/me", nil, asMaster)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var p authority.Principal
		json.NewDecoder(w.Body).Decode(&p)
		if p.Tier != authority.TierMaster {
			t.Errorf("expected master tier, got %s", p.Tier)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		w := doJSON(t, mux, "GET", "/api/v1/me", nil, func(req *http.Request) {
			req.SetBasicAuth(testMasterHandle, "wrong")
		})
		var p authority.Principal
		json.NewDecoder(w.Body).Decode(&p)
		if p.Tier != authority.TierUser {
			t.Errorf("wrong secret must resolve to user, got %s", p.Tier)
		}
	})

	t.Run("SessionToken", func(t *testing.T) {
		oracle.sessions["tok-1"] = "sub-1"
		w := doJSON(t, mux, "GET", "/api/v1/me", nil, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer tok-1")
		})
		var p authority.Principal
		json.NewDecoder(w.Body).Decode(&p)
		// Verified but unprovisioned subjects are plain users.
		if p.Tier != authority.TierUser {
			t.Errorf("expected user tier, got %s", p.Tier)
		}
		if p.SubjectID != "sub-1" {
			t.Errorf("expected subject retained, got %q", p.SubjectID)
		}
	})
}

func TestIdentityLifecycleEndpoints(t *testing.T) {
	_, mux, oracle := setupTestServer(t)

	// Create as master.
	w := doJSON(t, mux, "POST", "/api/v1/identities", map[string]string{
		"contactHandle": "ops@example.com",
		"secret":        "s3cret",
		"displayName":   "Ops",
		"tier":          "admin",
	}, asMaster)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created identityResponse
	json.NewDecoder(w.Body).Decode(&created)
	if created.ID == "" || created.Tier != "admin" {
		t.Fatalf("unexpected identity response: %+v", created)
	}

	// The created identity's session now resolves to admin.
	oracle.sessions["admin-tok"] = created.ID
	w = doJSON(t, mux, "GET", "/api/v1/me", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer admin-tok")
	})
	var p authority.Principal
	json.NewDecoder(w.Body).Decode(&p)
	if p.Tier != authority.TierAdmin {
		t.Errorf("expected admin tier for provisioned session, got %s", p.Tier)
	}

	// List as master.
	w = doJSON(t, mux, "GET", "/api/v1/identities", nil, asMaster)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []identityResponse
	json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 1 {
		t.Fatalf("expected 1 identity, got %d", len(list))
	}

	// List denied for anonymous callers.
	w = doJSON(t, mux, "GET", "/api/v1/identities", nil, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for anonymous list, got %d", w.Code)
	}

	// Rotate.
	w = doJSON(t, mux, "POST", "/api/v1/identities/"+created.ID+"/rotate", map[string]string{
		"newSecret": "n3w-s3cret",
	}, asMaster)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204 for rotate, got %d: %s", w.Code, w.Body.String())
	}

	// Delete.
	w = doJSON(t, mux, "DELETE", "/api/v1/identities/"+created.ID, nil, asMaster)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204 for delete, got %d: %s", w.Code, w.Body.String())
	}

	// Deleting again is a 404: the record no longer exists.
	w = doJSON(t, mux, "DELETE", "/api/v1/identities/"+created.ID, nil, asMaster)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing identity, got %d", w.Code)
	}
}

func TestIdentityCreateDeniedForAnonymous(t *testing.T) {
	_, mux, _ := setupTestServer(t)

	w := doJSON(t, mux, "POST", "/api/v1/identities", map[string]string{
		"contactHandle": "ops@example.com",
		"secret":        "s3cret",
		"tier":          "admin",
	}, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}

	var errResp map[string]string
	json.NewDecoder(w.Body).Decode(&errResp)
	if errResp["code"] != identity.ErrCodeUnauthorized {
		t.Errorf("expected unauthorized code, got %q", errResp["code"])
	}
}

// A duplicate contact handle is a caller error: 400 with the invalid
// code, not an internal failure.
func TestIdentityCreateDuplicateHandle(t *testing.T) {
	_, mux, oracle := setupTestServer(t)

	body := map[string]string{
		"contactHandle": "ops@example.com",
		"secret":        "s3cret",
		"tier":          "admin",
	}
	w := doJSON(t, mux, "POST", "/api/v1/identities", body, asMaster)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, mux, "POST", "/api/v1/identities", body, asMaster)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate handle, got %d: %s", w.Code, w.Body.String())
	}
	var errResp map[string]string
	json.NewDecoder(w.Body).Decode(&errResp)
	if errResp["code"] != identity.ErrCodeInvalid {
		t.Errorf("expected invalid code, got %q", errResp["code"])
	}
	if oracle.nextID != 1 {
		t.Errorf("duplicate handle must not create a second credential, got %d creates", oracle.nextID)
	}
}

func TestIdentityCreateUnknownTier(t *testing.T) {
	_, mux, _ := setupTestServer(t)

	w := doJSON(t, mux, "POST", "/api/v1/identities", map[string]string{
		"contactHandle": "ops@example.com",
		"secret":        "s3cret",
		"tier":          "owner",
	}, asMaster)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown tier, got %d", w.Code)
	}
}

// Callers without management capability get the same 403 whether or not
// the target id exists; only privileged callers see 404 for a missing
// identity.
func TestIdentityExistenceHiddenFromUnprivileged(t *testing.T) {
	_, mux, _ := setupTestServer(t)

	w := doJSON(t, mux, "DELETE", "/api/v1/identities/idn_missing", nil, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for anonymous delete of missing id, got %d", w.Code)
	}

	w = doJSON(t, mux, "POST", "/api/v1/identities/idn_missing/rotate", map[string]string{
		"newSecret": "n3w",
	}, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for anonymous rotate of missing id, got %d", w.Code)
	}

	w = doJSON(t, mux, "DELETE", "/api/v1/identities/idn_missing", nil, asMaster)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for master delete of missing id, got %d", w.Code)
	}
}

func TestContentAuthz(t *testing.T) {
	_, mux, _ := setupTestServer(t)

	product := map[string]interface{}{"name": "Widget", "priceCents": 4999}

	// Anonymous mutation is denied.
	w := doJSON(t, mux, "POST", "/api/v1/products", product, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for anonymous create, got %d", w.Code)
	}

	// Master may mutate.
	w = doJSON(t, mux, "POST", "/api/v1/products", product, asMaster)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created productResponse
	json.NewDecoder(w.Body).Decode(&created)

	// Public read requires no auth.
	w = doJSON(t, mux, "GET", "/api/v1/products", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var products []productResponse
	json.NewDecoder(w.Body).Decode(&products)
	if len(products) != 1 || products[0].Name != "Widget" {
		t.Errorf("unexpected product list: %+v", products)
	}

	// Update and delete as master.
	w = doJSON(t, mux, "PUT", "/api/v1/products/"+created.ID, map[string]interface{}{
		"name": "Widget Pro", "priceCents": 5999,
	}, asMaster)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for update, got %d", w.Code)
	}

	w = doJSON(t, mux, "DELETE", "/api/v1/products/"+created.ID, nil, asMaster)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204 for delete, got %d", w.Code)
	}
}

func TestContactForm(t *testing.T) {
	_, mux, _ := setupTestServer(t)

	w := doJSON(t, mux, "POST", "/api/v1/contact", map[string]string{
		"name":  "Visitor",
		"email": "visitor@example.com",
		"body":  "I have a question.",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// Missing email is rejected.
	w = doJSON(t, mux, "POST", "/api/v1/contact", map[string]string{
		"name": "Visitor",
		"body": "No email.",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing email, got %d", w.Code)
	}

	// Reading messages requires admin.
	w = doJSON(t, mux, "GET", "/api/v1/messages", nil, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for anonymous message list, got %d", w.Code)
	}

	w = doJSON(t, mux, "GET", "/api/v1/messages", nil, asMaster)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var messages []messageResponse
	json.NewDecoder(w.Body).Decode(&messages)
	if len(messages) != 1 || messages[0].Name != "Visitor" {
		t.Errorf("unexpected messages: %+v", messages)
	}
}

func TestContactRateLimit(t *testing.T) {
	_, mux, _ := setupTestServer(t)

	body := map[string]string{
		"name":  "Visitor",
		"email": "visitor@example.com",
		"body":  "Hello again.",
	}

	// httptest requests share a fixed RemoteAddr, so they count against
	// one bucket. The burst passes, then the limiter bites.
	var lastCode int
	for i := 0; i < contactBurst+1; i++ {
		w := doJSON(t, mux, "POST", "/api/v1/contact", body, nil)
		lastCode = w.Code
	}
	if lastCode != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %d", lastCode)
	}
}

func TestContactLimiterPrunesIdleEntries(t *testing.T) {
	cl := newContactLimiter()
	cl.allow("192.0.2.1")
	cl.allow("192.0.2.2")

	// Age the existing entries and the prune clock past the idle window.
	for _, e := range cl.entries {
		e.lastSeen = time.Now().Add(-2 * contactIdleWindow)
	}
	cl.lastPrune = time.Now().Add(-2 * contactIdleWindow)

	cl.allow("192.0.2.3")
	if len(cl.entries) != 1 {
		t.Errorf("expected idle entries evicted, got %d entries", len(cl.entries))
	}
	if _, ok := cl.entries["192.0.2.3"]; !ok {
		t.Error("expected the active entry to survive the prune")
	}
}

func TestSettingsEndpoints(t *testing.T) {
	_, mux, _ := setupTestServer(t)

	// Anonymous write denied.
	w := doJSON(t, mux, "PUT", "/api/v1/settings/about_text", map[string]string{"value": "x"}, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}

	w = doJSON(t, mux, "PUT", "/api/v1/settings/about_text", map[string]string{"value": "We build things."}, asMaster)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// Public read.
	w = doJSON(t, mux, "GET", "/api/v1/settings/about_text", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var setting map[string]string
	json.NewDecoder(w.Body).Decode(&setting)
	if setting["value"] != "We build things." {
		t.Errorf("unexpected setting value %q", setting["value"])
	}
}

func TestAuditEndpointGated(t *testing.T) {
	_, mux, _ := setupTestServer(t)

	w := doJSON(t, mux, "GET", "/api/v1/audit", nil, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for anonymous audit read, got %d", w.Code)
	}

	w = doJSON(t, mux, "GET", "/api/v1/audit", nil, asMaster)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for master audit read, got %d", w.Code)
	}
}
