// Package client implements the read-only Port API client: token exchange,
// entity existence probes and dry-run validation. It never creates, updates
// or deletes entities.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/port-tools/portcheck/internal/config"
	"github.com/port-tools/portcheck/internal/errors"
	"github.com/port-tools/portcheck/internal/settings"
)

// Client talks to the Port API for one validation run. The bearer token
// obtained by Authenticate lives for the run; there is no refresh logic.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	creds      settings.Settings
	token      string
	logger     hclog.Logger
}

// New creates a Client from the resolved credentials and run configuration.
func New(logger hclog.Logger, creds settings.Settings, cfg *config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		maxRetries: cfg.MaxRetries,
		creds:      creds,
		logger:     logger.Named("client"),
	}
}

type accessTokenRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Authenticate exchanges the client credentials for a bearer token.
// Any rejection or transport failure is fatal for the run: a broken token
// would invalidate every subsequent existence check.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(accessTokenRequest{
		ClientID:     c.creds.ClientID,
		ClientSecret: c.creds.ClientSecret,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to encode credentials: %w", errors.ErrAuthentication, err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/auth/access_token", body, false)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrAuthentication, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf(
			"%w: credential exchange returned HTTP %d",
			errors.ErrAuthentication, resp.StatusCode,
		)
	}

	var token accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("%w: failed to decode token response: %w", errors.ErrAuthentication, err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("%w: credential exchange returned an empty token", errors.ErrAuthentication)
	}

	c.token = token.AccessToken
	c.logger.Debug("Authenticated against Port API", "base_url", c.baseURL)

	return nil
}

type blueprintResponse struct {
	Blueprint struct {
		Schema struct {
			Required []string `json:"required"`
		} `json:"schema"`
	} `json:"blueprint"`
}

// BlueprintSchema fetches the blueprint definition and returns the property
// names its schema declares as required.
func (c *Client) BlueprintSchema(ctx context.Context, blueprint string) ([]string, error) {
	schemaURL := fmt.Sprintf("%s/blueprints/%s", c.baseURL, url.PathEscape(blueprint))

	resp, err := c.do(ctx, http.MethodGet, schemaURL, nil, true)
	if err != nil {
		return nil, fmt.Errorf("%w: blueprint '%s': %w", errors.ErrLookup, blueprint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"%w: blueprint '%s': HTTP %d",
			errors.ErrLookup, blueprint, resp.StatusCode,
		)
	}

	var payload blueprintResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf(
			"%w: blueprint '%s': failed to decode schema: %w",
			errors.ErrLookup, blueprint, err,
		)
	}

	return payload.Blueprint.Schema.Required, nil
}

// EntityExists issues a read-only lookup for the given blueprint/identifier
// pair. A 404 means the entity does not exist; any other non-OK outcome is a
// lookup error, reported distinctly from "not found".
func (c *Client) EntityExists(ctx context.Context, blueprint, identifier string) (bool, error) {
	lookupURL := fmt.Sprintf(
		"%s/blueprints/%s/entities/%s",
		c.baseURL, url.PathEscape(blueprint), url.PathEscape(identifier),
	)

	resp, err := c.do(ctx, http.MethodGet, lookupURL, nil, true)
	if err != nil {
		return false, fmt.Errorf(
			"%w: entity '%s' of blueprint '%s': %w",
			errors.ErrLookup, identifier, blueprint, err,
		)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf(
			"%w: entity '%s' of blueprint '%s': HTTP %d",
			errors.ErrLookup, identifier, blueprint, resp.StatusCode,
		)
	}
}

// ValidateEntity submits the raw document payload to the service's dry-run
// endpoint. The validation_only flag guarantees the call performs no writes.
func (c *Client) ValidateEntity(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: failed to encode payload: %w", errors.ErrRemoteValidation, err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/entities?validation_only=true", body, true)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrLookup, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: dry-run validation: HTTP %d", errors.ErrLookup, resp.StatusCode)
	}

	return fmt.Errorf(
		"%w: HTTP %d: %s",
		errors.ErrRemoteValidation, resp.StatusCode, strings.TrimSpace(string(detail)),
	)
}

// do performs one HTTP request, retrying transport errors and 5xx responses
// with exponential backoff and jitter. 4xx responses are never retried.
func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, authed bool) (*http.Response, error) {
	var (
		resp    *http.Response
		lastErr error
	)

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt)
			c.logger.Debug("Retrying request", "method", method, "url", rawURL, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := c.newRequest(ctx, method, rawURL, body, authed)
		if err != nil {
			return nil, err
		}

		resp, lastErr = c.httpClient.Do(req)
		if lastErr != nil {
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
			_ = resp.Body.Close()
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d attempt(s): %w", c.maxRetries+1, lastErr)
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body []byte, authed bool) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}

	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req, nil
}

// backoff returns the delay before the given retry attempt: exponential with
// up to 100ms of jitter, capped at two seconds.
func backoff(attempt int) time.Duration {
	delay := 250 * time.Millisecond << (attempt - 1)
	if delay > 2*time.Second {
		delay = 2 * time.Second
	}
	return delay + time.Duration(rand.Intn(100))*time.Millisecond
}
