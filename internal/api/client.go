// Package api is the HTTP client for the CodePush-style deployment service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/humanzai/cpdash/internal/rollback"
	"github.com/humanzai/cpdash/pkg/models"
)

// maxErrorBody bounds how much of an error response is kept in StatusError
const maxErrorBody = 4 << 10

// Client talks to the deployment service REST API
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithTimeout sets the per-request timeout. A client passed with
// WithHTTPClient is copied first so the caller's client is left unchanged.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// New creates a client for the service rooted at baseURL. Every request
// carries token as a bearer credential when it is non-empty.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(baseURL, "/")
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL: trimmed,
		token:   token,
		http:    &http.Client{},
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// StatusError is returned when the service answers with a non-2xx status
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// IsNotFound reports whether err is a 404 from the service
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

func deploymentPath(app, deployment string, rest ...string) string {
	parts := []string{"apps", url.PathEscape(app), "deployments", url.PathEscape(deployment)}
	for _, r := range rest {
		parts = append(parts, url.PathEscape(r))
	}
	return "/" + strings.Join(parts, "/")
}

// GetApps lists the apps visible to the token
func (c *Client) GetApps(ctx context.Context) ([]models.App, error) {
	var resp struct {
		Apps []models.App `json:"apps"`
	}
	if err := c.do(ctx, http.MethodGet, "/apps", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	return resp.Apps, nil
}

// GetDeploymentHistory returns the releases of a deployment in service order
func (c *Client) GetDeploymentHistory(ctx context.Context, app, deployment string) ([]models.HistoryEntry, error) {
	var resp struct {
		History []models.HistoryEntry `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, deploymentPath(app, deployment, "history"), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get history for %s/%s: %w", app, deployment, err)
	}
	return resp.History, nil
}

// GetDeploymentMetrics returns install counters keyed by label. A payload
// without metrics yields a nil map.
func (c *Client) GetDeploymentMetrics(ctx context.Context, app, deployment string) (map[string]*models.MetricsEntry, error) {
	var resp struct {
		Metrics map[string]*models.MetricsEntry `json:"metrics"`
	}
	if err := c.do(ctx, http.MethodGet, deploymentPath(app, deployment, "metrics"), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get metrics for %s/%s: %w", app, deployment, err)
	}
	return resp.Metrics, nil
}

// GetDeploymentKeys returns the name and key of every deployment of app
func (c *Client) GetDeploymentKeys(ctx context.Context, app string) ([]models.DeploymentKey, error) {
	var resp struct {
		Deployments []models.DeploymentKey `json:"deployments"`
	}
	if err := c.do(ctx, http.MethodGet, "/apps/"+url.PathEscape(app)+"/deployments", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get deployment keys for %s: %w", app, err)
	}
	return resp.Deployments, nil
}

// UpdateRelease patches the metadata of the latest release on a deployment
func (c *Client) UpdateRelease(ctx context.Context, app, deployment string, update models.ReleaseUpdate) error {
	body := struct {
		PackageInfo models.ReleaseUpdate `json:"packageInfo"`
	}{update}
	if err := c.do(ctx, http.MethodPatch, deploymentPath(app, deployment, "release"), body, nil); err != nil {
		return fmt.Errorf("failed to update release for %s/%s: %w", app, deployment, err)
	}
	return nil
}

// RollbackToLabel rolls a deployment back to label. The current history is
// fetched first and the target is checked under policy; nothing is sent to
// the service when the check fails.
func (c *Client) RollbackToLabel(ctx context.Context, app, deployment, label string, policy rollback.Policy) (models.HistoryEntry, error) {
	entries, err := c.GetDeploymentHistory(ctx, app, deployment)
	if err != nil {
		return models.HistoryEntry{}, err
	}

	target, err := rollback.ValidateTarget(entries, label, policy)
	if err != nil {
		return models.HistoryEntry{}, err
	}

	body := struct {
		Label string `json:"label"`
	}{label}
	if err := c.do(ctx, http.MethodPost, deploymentPath(app, deployment, "rollback"), body, nil); err != nil {
		return models.HistoryEntry{}, fmt.Errorf("failed to roll back %s/%s to %s: %w", app, deployment, label, err)
	}
	return target, nil
}

// RollbackToPrevious asks the service to roll back to the previous release,
// or to targetRelease when it is non-empty.
func (c *Client) RollbackToPrevious(ctx context.Context, app, deployment, targetRelease string) error {
	path := deploymentPath(app, deployment, "rollback")
	if targetRelease != "" {
		path = deploymentPath(app, deployment, "rollback", targetRelease)
	}
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("failed to roll back %s/%s: %w", app, deployment, err)
	}
	return nil
}

// do sends a JSON request and decodes a JSON response into out when non-nil
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "err", err)
		return err
	}
	defer resp.Body.Close()
	c.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "latency", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} or {"message": "..."} from an error
// body, falling back to the trimmed text.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(data))
}
