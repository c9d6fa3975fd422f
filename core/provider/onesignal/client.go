package onesignal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-2xx response from the OneSignal API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("onesignal: status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// User is the subset of the OneSignal user model the service reads.
type User struct {
	Identity      map[string]string `json:"identity"`
	Properties    UserProperties    `json:"properties"`
	Subscriptions []Subscription    `json:"subscriptions"`
}

// UserProperties carries the user's tags.
type UserProperties struct {
	Tags map[string]string `json:"tags,omitempty"`
}

// Subscription is one delivery channel of a user.
type Subscription struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

// IsPush reports whether the subscription is a push channel (ChromePush, SafariPush, ...).
func (s Subscription) IsPush() bool {
	return strings.HasSuffix(s.Type, "Push")
}

// PushSubscription returns the first push subscription of the user.
func (u *User) PushSubscription() (Subscription, bool) {
	for _, sub := range u.Subscriptions {
		if sub.IsPush() {
			return sub, true
		}
	}
	return Subscription{}, false
}

// Client talks to the OneSignal REST API.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the configured app.
func NewClient(cfg Config) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.onesignal.com"
	}
	return &Client{
		cfg:     cfg,
		baseURL: base,
		http:    &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// Configured reports whether app id and API key are set.
func (c *Client) Configured() bool {
	return c.cfg.AppID != "" && c.cfg.APIKey != ""
}

func (c *Client) appPath(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = url.PathEscape(fmt.Sprint(a))
	}
	return "/apps/" + url.PathEscape(c.cfg.AppID) + fmt.Sprintf(format, escaped...)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("onesignal request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// GetUserByExternalID fetches a user by the visitor's external id.
func (c *Client) GetUserByExternalID(ctx context.Context, externalID string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, c.appPath("/users/by/external_id/%s", externalID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserTags patches tags on a user. Empty values delete the tag.
func (c *Client) UpdateUserTags(ctx context.Context, onesignalID string, tags map[string]string) error {
	body := map[string]any{
		"properties": UserProperties{Tags: tags},
	}
	return c.do(ctx, http.MethodPatch, c.appPath("/users/by/onesignal_id/%s", onesignalID), body, nil)
}

// SetSubscriptionEnabled enables or disables one subscription.
func (c *Client) SetSubscriptionEnabled(ctx context.Context, subscriptionID string, enabled bool) error {
	body := map[string]any{
		"subscription": map[string]any{"enabled": enabled},
	}
	return c.do(ctx, http.MethodPatch, c.appPath("/subscriptions/%s", subscriptionID), body, nil)
}

// Session binds the client to one visitor.
func (c *Client) Session(externalID string) *Session {
	return newSession(c, externalID)
}
