// Package metadata reads instance attributes from the GCE metadata server.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Alwanly/mcs-agent/internal/config"
	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/Alwanly/mcs-agent/pkg/retry"
	"go.uber.org/zap"
)

const (
	PathTokenSecret = "/computeMetadata/v1/instance/attributes/mcs-token-secret"
	PathHostname    = "/computeMetadata/v1/instance/hostname"
	PathZone        = "/computeMetadata/v1/instance/zone"

	flavorHeader = "Metadata-Flavor"
	flavorGoogle = "Google"

	maxValueSize = 64 * 1024
)

// ErrNotFound means the server answered but has no such key. It is not retried.
var ErrNotFound = errors.New("metadata key not found")

type Client struct {
	httpClient *http.Client
	baseURL    string
	retry      retry.Config
	logger     *logger.CanonicalLogger
}

func NewClient(baseURL string, timeout time.Duration, rc retry.Config, log *logger.CanonicalLogger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		retry:      rc,
		logger:     log.Component("metadata"),
	}
}

// Get fetches one value, retrying transport errors and non-404 failures.
func (c *Client) Get(ctx context.Context, path string) (string, error) {
	var value string
	rc := c.retry
	rc.OnRetry = func(attempt int, wait time.Duration, err error) {
		c.logger.Warn("metadata request failed, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
	err := retry.WithExponentialBackoff(ctx, rc, func(ctx context.Context) error {
		v, err := c.get(ctx, path)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	return value, err
}

func (c *Client) get(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set(flavorHeader, flavorGoogle)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", retry.Permanent(fmt.Errorf("%s: %w", path, ErrNotFound))
	default:
		return "", fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxValueSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// Zone returns the short zone name, e.g. "asia-northeast1-a".
func (c *Client) Zone(ctx context.Context) (string, error) {
	raw, err := c.Get(ctx, PathZone)
	if err != nil {
		return "", err
	}
	return raw[strings.LastIndex(raw, "/")+1:], nil
}

// ResolveIdentity fills the token secret and hostname from the metadata
// server when the environment did not provide them.
func (c *Client) ResolveIdentity(ctx context.Context, cfg *config.AgentConfig) error {
	if cfg.TokenSecret == "" {
		v, err := c.Get(ctx, PathTokenSecret)
		if err != nil {
			return fmt.Errorf("token secret: %w", err)
		}
		cfg.TokenSecret = v
	}
	if cfg.Hostname == "" {
		v, err := c.Get(ctx, PathHostname)
		if err != nil {
			return fmt.Errorf("hostname: %w", err)
		}
		cfg.Hostname = v
	}
	return cfg.Validate()
}
