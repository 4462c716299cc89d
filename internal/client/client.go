package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/GriffinCanCode/termhub/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/termhub/internal/providers/terminal"
	"github.com/GriffinCanCode/termhub/internal/shared/id"
)

// ErrNotFound is returned when the server has no session for the id.
var ErrNotFound = errors.New("session not found")

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("termhub: HTTP %d", e.Status)
	}
	return fmt.Sprintf("termhub: HTTP %d: %s", e.Status, e.Message)
}

// Health is the reply of GET /health.
type Health struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Sessions      int     `json:"sessions"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Client talks to a running termhub daemon over its REST API.
type Client struct {
	resty   *resty.Client
	baseURL string
	traceID tracing.TraceID
}

// New creates a client for the server at baseURL, e.g. http://127.0.0.1:8000.
// Every request carries the same trace id so the server logs of one CLI
// invocation can be correlated.
func New(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("User-Agent", "termhub-cli/1.0")

	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	return &Client{
		resty:   restyClient,
		baseURL: baseURL,
		traceID: tracing.TraceID(id.NewRequestID()),
	}
}

// SetTimeout configures the per-request timeout
func (c *Client) SetTimeout(d time.Duration) {
	c.resty.SetTimeout(d)
}

// TraceID returns the id sent in the X-Trace-ID header.
func (c *Client) TraceID() tracing.TraceID {
	return c.traceID
}

func (c *Client) request(ctx context.Context) *resty.Request {
	headers := map[string]string{}
	tracing.InjectTraceContext(tracing.WithTraceID(ctx, c.traceID), headers)
	return c.resty.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetError(&APIError{})
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.Status = resp.StatusCode()
	if apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
	}
	return apiErr
}

// Health fetches the server health summary.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := check(c.request(ctx).SetResult(&out).Get("/health")); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions returns the live sessions ordered by id.
func (c *Client) ListSessions(ctx context.Context) ([]terminal.SessionInfo, error) {
	var out struct {
		Sessions []terminal.SessionInfo `json:"sessions"`
	}
	if err := check(c.request(ctx).SetResult(&out).Get("/terminal/sessions")); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// GetSession describes one session. It returns ErrNotFound when the id has
// no live session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*terminal.SessionInfo, error) {
	var out terminal.SessionInfo
	err := check(c.request(ctx).
		SetPathParam("id", sessionID).
		SetResult(&out).
		Get("/terminal/sessions/{id}"))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type okReply struct {
	ID string `json:"id"`
	OK bool   `json:"ok"`
}

// InitSession starts the session for sessionID unless it is already running.
// A shell that failed to start is reported as false with a nil error.
func (c *Client) InitSession(ctx context.Context, sessionID, cwd string) (bool, error) {
	var out okReply
	resp, err := c.request(ctx).
		SetPathParam("id", sessionID).
		SetBody(map[string]string{"cwd": cwd}).
		SetResult(&out).
		Post("/terminal/sessions/{id}/init")
	if err == nil && resp.StatusCode() == http.StatusInternalServerError {
		return false, nil
	}
	if err := check(resp, err); err != nil {
		return false, err
	}
	return out.OK, nil
}

// WriteSession sends input to a session.
func (c *Client) WriteSession(ctx context.Context, sessionID, data string) error {
	return check(c.request(ctx).
		SetPathParam("id", sessionID).
		SetBody(map[string]string{"data": data}).
		Post("/terminal/sessions/{id}/write"))
}

// KillSession terminates a session and everything it started.
func (c *Client) KillSession(ctx context.Context, sessionID string) (bool, error) {
	var out okReply
	err := check(c.request(ctx).
		SetPathParam("id", sessionID).
		SetResult(&out).
		Delete("/terminal/sessions/{id}"))
	if err != nil {
		return false, err
	}
	return out.OK, nil
}

// WaitHealthy polls /health until it answers 200, retrying with backoff up
// to attempts times.
func (c *Client) WaitHealthy(ctx context.Context, attempts int, maxWait time.Duration) error {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = attempts
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = maxWait
	retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return err != nil || resp.StatusCode != http.StatusOK, nil
	}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set(tracing.TraceHeader, string(c.traceID))

	resp, err := retryClient.Do(req)
	if err != nil {
		return fmt.Errorf("server not healthy: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server not healthy: HTTP %d", resp.StatusCode)
	}
	return nil
}
