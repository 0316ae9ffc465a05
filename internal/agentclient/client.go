// Package agentclient talks to an agent over its authenticated HTTP surface.
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Alwanly/mcs-agent/internal/config"
	"github.com/Alwanly/mcs-agent/internal/logwindow"
	"github.com/Alwanly/mcs-agent/internal/models"
	"github.com/Alwanly/mcs-agent/internal/server/agent/dto"
	authentication "github.com/Alwanly/mcs-agent/pkg/auth"
	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/Alwanly/mcs-agent/pkg/wrapper"
	"go.uber.org/zap"
)

// APIError is a failure envelope returned by the agent.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agent returned %d: %s", e.Status, e.Message)
}

type envelope struct {
	Data  json.RawMessage    `json:"data"`
	Error *wrapper.ErrorBody `json:"error"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	auth       authentication.ITokenAuthService
	timeout    time.Duration
	logger     *logger.CanonicalLogger
}

// New builds a client. The http.Client carries no timeout so streams can run
// indefinitely; every other call is bounded by cfg.Timeout.
func New(cfg *config.ClientConfig, log *logger.CanonicalLogger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.AgentURL, "/"),
		auth: authentication.NewTokenAuthService(&authentication.TokenAuthConfig{
			Hostname: cfg.Hostname,
			Secret:   cfg.Secret,
		}),
		timeout: cfg.Timeout,
		logger:  log,
	}
}

func (c *Client) Health(ctx context.Context) (*dto.HealthResponse, error) {
	var out dto.HealthResponse
	if err := c.call(ctx, http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Make runs an action target and waits for it to finish.
func (c *Client) Make(ctx context.Context, target string, params map[string]string) (*dto.MakeResponse, error) {
	body := map[string]interface{}{"target": target, "params": params}
	var out dto.MakeResponse
	if err := c.call(ctx, http.MethodPost, "/make", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ServerStatus(ctx context.Context) (*dto.ServerStatus, error) {
	var out dto.ServerStatus
	if err := c.call(ctx, http.MethodGet, "/server-status", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReadLog fetches one window. A nil cursor means the end of the file.
func (c *Client) ReadLog(ctx context.Context, target string, stride int, cursor *int) (*logwindow.Window, error) {
	q := url.Values{}
	q.Set("target", target)
	q.Set("stride", strconv.Itoa(stride))
	if cursor != nil {
		q.Set("cursor", strconv.Itoa(*cursor))
	}
	var out logwindow.Window
	if err := c.call(ctx, http.MethodGet, "/log", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tail writes the last lines of the log to w, then keeps paging forward from
// the end every interval until ctx is done.
func (c *Client) Tail(ctx context.Context, target string, lines int, interval time.Duration, w io.Writer) error {
	if lines <= 0 || lines > logwindow.MaxStride {
		lines = logwindow.MaxStride
	}
	win, err := c.ReadLog(ctx, target, -lines, nil)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, win.Data); err != nil {
		return err
	}
	cursor := win.End

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		win, err := c.ReadLog(ctx, target, logwindow.MaxStride, &cursor)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if _, err := io.WriteString(w, win.Data); err != nil {
			return err
		}
		cursor = win.End
		// A full window means there is probably more waiting.
		if strings.Count(win.Data, "\n") >= logwindow.MaxStride-1 {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Stream copies a stream target's output to w until the process exits or
// ctx is done.
func (c *Client) Stream(ctx context.Context, target string, params map[string]string, w io.Writer) error {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	resp, err := c.do(ctx, http.MethodGet, "/make-stream/"+url.PathEscape(target), q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeFailure(resp)
	}
	_, err = io.Copy(w, resp.Body)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (c *Client) Runs(ctx context.Context, target string, limit int) ([]models.DispatchRun, error) {
	q := url.Values{}
	if target != "" {
		q.Set("target", target)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []models.DispatchRun
	if err := c.call(ctx, http.MethodGet, "/runs", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, method, path string, q url.Values, body, out interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.do(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeFailure(resp)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body interface{}) (*http.Response, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.auth.BuildAuthHeaders().Map() {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	c.logger.Debug("agent request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func decodeFailure(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env envelope
	if err := json.Unmarshal(b, &env); err == nil && env.Error != nil {
		return &APIError{Status: env.Error.Status, Message: env.Error.Message}
	}
	return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(b))}
}

// IsForbidden reports whether err is the agent rejecting the token.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden
}
