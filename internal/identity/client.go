// Package identity is the HTTP client for the remote identity service.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
	"github.com/saikhaykhunmong/strapi-nextts/internal/session"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type authResponse struct {
	Token   string          `json:"token"`
	Profile *domain.Profile `json:"profile"`
}

// Login exchanges credentials for a bearer token and profile.
func (c *Client) Login(ctx context.Context, identifier, secret string) (string, *domain.Profile, error) {
	payload := map[string]string{"identifier": identifier, "secret": secret}

	var resp authResponse
	if err := c.post(ctx, "/auth/login", "", payload, &resp); err != nil {
		return "", nil, err
	}
	if resp.Token == "" || resp.Profile == nil {
		return "", nil, fmt.Errorf("identity service returned incomplete auth response")
	}
	return resp.Token, resp.Profile, nil
}

// Register creates a new identity and returns its first credential.
func (c *Client) Register(ctx context.Context, email, username, secret string) (string, *domain.Profile, error) {
	payload := map[string]string{"email": email, "username": username, "secret": secret}

	var resp authResponse
	if err := c.post(ctx, "/auth/register", "", payload, &resp); err != nil {
		return "", nil, err
	}
	if resp.Token == "" || resp.Profile == nil {
		return "", nil, fmt.Errorf("identity service returned incomplete auth response")
	}
	return resp.Token, resp.Profile, nil
}

// Me fetches the profile behind the credential. A 401/403 maps to
// domain.ErrCredentialRejected so the session store can fail closed.
func (c *Client) Me(ctx context.Context, credential string) (*domain.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	var profile domain.Profile
	if err := c.do(req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update pushes changed profile fields (and an optional password change)
// and returns the service's resulting profile.
func (c *Client) Update(ctx context.Context, credential string, userID int64, upd session.ProfileUpdate) (*domain.Profile, error) {
	body, err := json.Marshal(upd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile update: %w", err)
	}

	url := fmt.Sprintf("%s/users/%d", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	var profile domain.Profile
	if err := c.do(req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) post(ctx context.Context, path, credential string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domain.ErrCredentialRejected
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s", serviceError(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode identity response: %w", err)
	}
	return nil
}

// serviceError pulls the service's human-readable message out of an error
// body, falling back to the HTTP status.
func serviceError(resp *http.Response) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return resp.Status
}
