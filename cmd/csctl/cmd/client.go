package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIClient provides HTTP client access to the clearsite API.
type APIClient struct {
	baseURL      string
	masterHandle string
	masterSecret string
	sessionToken string
	httpClient   *http.Client
}

// NewAPIClient creates a new client for the clearsite API.
func NewAPIClient(baseURL, masterHandle, masterSecret, sessionToken string) *APIClient {
	return &APIClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		masterHandle: masterHandle,
		masterSecret: masterSecret,
		sessionToken: sessionToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// authorize attaches the configured evidence to a request. The master
// pair travels as Basic credentials, a session token as Bearer.
func (c *APIClient) authorize(req *http.Request) {
	switch {
	case c.masterHandle != "" && c.masterSecret != "":
		req.SetBasicAuth(c.masterHandle, c.masterSecret)
	case c.sessionToken != "":
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}
}

// do sends a request and decodes the response into out (when non-nil).
// Non-2xx responses become errors carrying the server's message.
func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// principalResponse matches the API response for /api/v1/me.
type principalResponse struct {
	Tier          string `json:"tier"`
	SubjectID     string `json:"subject_id,omitempty"`
	ContactHandle string `json:"contact_handle,omitempty"`
}

// identityResponse matches the API response for identity operations.
type identityResponse struct {
	ID            string `json:"id"`
	ContactHandle string `json:"contactHandle"`
	Tier          string `json:"tier"`
	DisplayName   string `json:"displayName,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

// createIdentityRequest is the request body for creating an identity.
type createIdentityRequest struct {
	ContactHandle string `json:"contactHandle"`
	Secret        string `json:"secret"`
	DisplayName   string `json:"displayName"`
	Tier          string `json:"tier"`
}

// rotateCredentialRequest is the request body for rotating a credential.
type rotateCredentialRequest struct {
	NewSecret string `json:"newSecret"`
}

// WhoAmI returns the caller's resolved authority.
func (c *APIClient) WhoAmI(ctx context.Context) (*principalResponse, error) {
	var principal principalResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &principal); err != nil {
		return nil, err
	}
	return &principal, nil
}

// ListIdentities retrieves all administrative identities.
func (c *APIClient) ListIdentities(ctx context.Context) ([]identityResponse, error) {
	var identities []identityResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/identities", nil, &identities); err != nil {
		return nil, err
	}
	return identities, nil
}

// CreateIdentity creates a new administrative identity.
func (c *APIClient) CreateIdentity(ctx context.Context, handle, secret, displayName, tier string) (*identityResponse, error) {
	req := createIdentityRequest{
		ContactHandle: handle,
		Secret:        secret,
		DisplayName:   displayName,
		Tier:          tier,
	}
	var identity identityResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/identities", req, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// DeleteIdentity removes an administrative identity.
func (c *APIClient) DeleteIdentity(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/identities/"+id, nil, nil)
}

// RotateCredential replaces the secret for an identity.
func (c *APIClient) RotateCredential(ctx context.Context, id, newSecret string) error {
	req := rotateCredentialRequest{NewSecret: newSecret}
	return c.do(ctx, http.MethodPost, "/api/v1/identities/"+id+"/rotate", req, nil)
}

// Health checks server liveness.
func (c *APIClient) Health(ctx context.Context) (map[string]interface{}, error) {
	var health map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return health, nil
}
