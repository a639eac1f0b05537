// Package auth validates caller bearer tokens against the external
// identity provider. The provider is a black box: the gateway only
// consumes its accept/reject answer plus the caller identity.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"seo-gateway/internal/config"
	"seo-gateway/internal/gwerror"
)

// Identity is the validated caller returned by the identity provider.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Client talks to the identity provider's user endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
	logger     *slog.Logger
}

// NewClient creates a Client from the auth section of the configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimSuffix(cfg.Auth.BaseURL, "/"),
		serviceKey: cfg.Auth.ServiceKey,
		logger:     logger.With("component", "auth_client"),
	}
}

// Validate checks the caller token with the identity provider and returns
// the caller identity. Any failure is fail-closed: the caller gets a 401
// regardless of whether the token was bad or the provider unreachable.
func (c *Client) Validate(ctx context.Context, token string) (*Identity, error) {
	if c.baseURL == "" || c.serviceKey == "" {
		return nil, gwerror.New(gwerror.KindConfiguration,
			"identity provider is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("identity provider unreachable", "err", err)
		return nil, unauthorized()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("token rejected", "status", resp.StatusCode)
		return nil, unauthorized()
	}

	var id Identity
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&id); err != nil {
		c.logger.Error("decoding identity response", "err", err)
		return nil, unauthorized()
	}
	if id.ID == "" {
		return nil, unauthorized()
	}

	return &id, nil
}

func unauthorized() *gwerror.Error {
	return &gwerror.Error{
		Kind:   gwerror.KindAuthorization,
		Detail: "could not validate credentials",
		Status: http.StatusUnauthorized,
	}
}
