package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func serviceKey(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": role})
	signed, err := token.SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("failed to sign test key: %v", err)
	}
	return signed
}

func TestServiceKeyRole(t *testing.T) {
	if got := serviceKeyRole(serviceKey(t, "service_role")); got != "service_role" {
		t.Errorf("expected service_role, got %q", got)
	}
	if got := serviceKeyRole(serviceKey(t, "anon")); got != "anon" {
		t.Errorf("expected anon, got %q", got)
	}
	if got := serviceKeyRole("not-a-jwt"); got != "" {
		t.Errorf("expected empty role for opaque key, got %q", got)
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New("", "key"); err == nil {
		t.Error("expected error for empty base URL")
	}
	if _, err := New("http://localhost", ""); err == nil {
		t.Error("expected error for empty service key")
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, serviceKey(t, "service_role"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestVerifySession(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good-token":
			json.NewEncoder(w).Encode(map[string]string{"id": "sub-1", "email": "ops@example.com"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))

	t.Run("ValidToken", func(t *testing.T) {
		subject, ok, err := c.VerifySession(context.Background(), "good-token")
		if err != nil {
			t.Fatalf("VerifySession: %v", err)
		}
		if !ok || subject != "sub-1" {
			t.Errorf("expected sub-1/true, got %q/%v", subject, ok)
		}
	})

	t.Run("RejectedToken", func(t *testing.T) {
		_, ok, err := c.VerifySession(context.Background(), "bad-token")
		if err != nil {
			t.Fatalf("rejection must not be an error: %v", err)
		}
		if ok {
			t.Error("rejected token must not verify")
		}
	})
}

// Transport failures are errors, distinct from clean rejection; the
// resolver downgrades them to anonymous.
func TestVerifySessionTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c, err := New(srv.URL, serviceKey(t, "service_role"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, ok, err := c.VerifySession(context.Background(), "any")
	if err == nil {
		t.Error("expected transport error")
	}
	if ok {
		t.Error("transport failure must not verify")
	}
}

func TestCreateCredential(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/v1/admin/users" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ops@example.com" {
			t.Errorf("unexpected email %v", body["email"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "new-cred"})
	}))

	id, err := c.CreateCredential(context.Background(), "ops@example.com", "s3cret")
	if err != nil {
		t.Fatalf("CreateCredential: %v", err)
	}
	if id != "new-cred" {
		t.Errorf("expected new-cred, got %q", id)
	}
}

func TestCreateCredentialRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"msg": "email already registered"})
	}))

	if _, err := c.CreateCredential(context.Background(), "dup@example.com", "s3cret"); err == nil {
		t.Error("expected error for rejected creation")
	}
}

func TestDeleteAndUpdate(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))

	if err := c.DeleteCredential(context.Background(), "cred-1"); err != nil {
		t.Fatalf("DeleteCredential: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/auth/v1/admin/users/cred-1" {
		t.Errorf("unexpected %s %s", gotMethod, gotPath)
	}

	if err := c.UpdateSecret(context.Background(), "cred-1", "n3w"); err != nil {
		t.Fatalf("UpdateSecret: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/auth/v1/admin/users/cred-1" {
		t.Errorf("unexpected %s %s", gotMethod, gotPath)
	}
}

func TestUnconfigured(t *testing.T) {
	var u Unconfigured

	_, ok, err := u.VerifySession(context.Background(), "tok")
	if ok || err != nil {
		t.Error("unconfigured directory must never verify a session")
	}
	if _, err := u.CreateCredential(context.Background(), "a@b.com", "s"); err == nil {
		t.Error("expected error from unconfigured create")
	}
	if err := u.DeleteCredential(context.Background(), "id"); err == nil {
		t.Error("expected error from unconfigured delete")
	}
	if err := u.UpdateSecret(context.Background(), "id", "s"); err == nil {
		t.Error("expected error from unconfigured update")
	}
}
