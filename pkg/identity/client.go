// Package identity resolves bearer credentials to user identifiers via
// the identity provider's introspection endpoint.
package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// ErrUnauthorized is returned when the provider rejects the credential.
var ErrUnauthorized = eris.New("identity: credential rejected")

// Client resolves a bearer token to a user id.
type Client interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an introspection client against the identity
// provider's base URL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type userResponse struct {
	ID string `json:"id"`
}

func (c *httpClient) Verify(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/me", nil)
	if err != nil {
		return "", eris.Wrap(err, "identity: create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "identity: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrUnauthorized
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", eris.Errorf("identity: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", eris.Wrap(err, "identity: decode response")
	}
	if user.ID == "" {
		return "", eris.New("identity: empty user id in response")
	}
	return user.ID, nil
}
