// Package directory is an HTTP client for a GoTrue-compatible
// credential service (the hosted identity provider behind the admin
// surface). It owns the authenticatable half of an administrative
// identity: session verification and secret material. Everything else
// treats it as a trusted black box.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Client talks to the credential service's auth API using a service
// key. It implements identity.CredentialOracle.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a directory client. The service key is a JWT issued by
// the credential service; its role claim is inspected without signature
// verification to catch the common misconfiguration of deploying an
// anon key where the admin key belongs.
func New(baseURL, serviceKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("directory base URL is required")
	}
	if serviceKey == "" {
		return nil, fmt.Errorf("directory service key is required")
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if role := serviceKeyRole(serviceKey); role != "" && role != "service_role" {
		c.logger.Warn("directory service key does not carry the service_role claim", "role", role)
	}

	return c, nil
}

// serviceKeyRole extracts the role claim from the service key without
// verifying the signature. Returns empty string for opaque keys.
func serviceKeyRole(key string) string {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(key, claims); err != nil {
		return ""
	}
	if role, ok := claims["role"].(string); ok {
		return role
	}
	return ""
}

// userPayload is the subset of the service's user object we read.
type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// VerifySession asks the service who a session token belongs to.
// Invalid or expired tokens yield ok=false with no error; transport
// failures yield an error the resolver treats as "no verified subject".
func (c *Client) VerifySession(ctx context.Context, token string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("failed to verify session: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var user userPayload
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return "", false, fmt.Errorf("failed to decode session response: %w", err)
		}
		if user.ID == "" {
			return "", false, nil
		}
		return user.ID, true, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("session verification returned status %d", resp.StatusCode)
	}
}

// CreateCredential registers a new handle/secret pair and returns the
// service-assigned credential id.
func (c *Client) CreateCredential(ctx context.Context, handle, secret string) (string, error) {
	body := map[string]any{
		"email":         handle,
		"password":      secret,
		"email_confirm": true,
	}

	var user userPayload
	if err := c.doAdmin(ctx, http.MethodPost, "/auth/v1/admin/users", body, &user); err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("credential service returned no id")
	}
	return user.ID, nil
}

// DeleteCredential removes a credential by id.
func (c *Client) DeleteCredential(ctx context.Context, id string) error {
	return c.doAdmin(ctx, http.MethodDelete, "/auth/v1/admin/users/"+id, nil, nil)
}

// UpdateSecret replaces the secret for an existing credential.
func (c *Client) UpdateSecret(ctx context.Context, id, newSecret string) error {
	body := map[string]any{"password": newSecret}
	return c.doAdmin(ctx, http.MethodPut, "/auth/v1/admin/users/"+id, body, nil)
}

// doAdmin performs an admin API call authenticated with the service key.
func (c *Client) doAdmin(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Detail stays in the log; callers get the status only so that
		// provider internals never leak through the operation surface.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("directory admin call failed",
			"method", method, "path", path,
			"status", resp.StatusCode, "detail", string(detail))
		return fmt.Errorf("credential service returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
