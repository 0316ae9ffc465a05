package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Alwanly/mcs-agent/internal/config"
	"github.com/Alwanly/mcs-agent/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRetry() retry.Config {
	return retry.Config{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2}
}

func newServer(t *testing.T, values map[string]string, failFirst int32) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if r.Header.Get("Metadata-Flavor") != "Google" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if n <= failFirst {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		v, ok := values[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(v))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestResolveIdentity(t *testing.T) {
	srv, _ := newServer(t, map[string]string{
		PathTokenSecret: "s3cret\n",
		PathHostname:    "mc-1",
	}, 0)
	c := NewClient(srv.URL, time.Second, testRetry(), nil)

	cfg := &config.AgentConfig{}
	require.NoError(t, c.ResolveIdentity(context.Background(), cfg))
	assert.Equal(t, "s3cret", cfg.TokenSecret)
	assert.Equal(t, "mc-1", cfg.Hostname)
}

func TestResolveIdentity_EnvWins(t *testing.T) {
	srv, calls := newServer(t, map[string]string{}, 0)
	c := NewClient(srv.URL, time.Second, testRetry(), nil)

	cfg := &config.AgentConfig{TokenSecret: "env", Hostname: "env-host"}
	require.NoError(t, c.ResolveIdentity(context.Background(), cfg))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestGet_RetriesTransientFailures(t *testing.T) {
	srv, calls := newServer(t, map[string]string{PathHostname: "mc-1"}, 2)
	c := NewClient(srv.URL, time.Second, testRetry(), nil)

	v, err := c.Get(context.Background(), PathHostname)
	require.NoError(t, err)
	assert.Equal(t, "mc-1", v)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestGet_NotFoundIsNotRetried(t *testing.T) {
	srv, calls := newServer(t, map[string]string{}, 0)
	c := NewClient(srv.URL, time.Second, testRetry(), nil)

	_, err := c.Get(context.Background(), PathTokenSecret)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	cfg := &config.AgentConfig{Hostname: "mc-1"}
	assert.ErrorIs(t, c.ResolveIdentity(context.Background(), cfg), ErrNotFound)
}

func TestZone(t *testing.T) {
	srv, _ := newServer(t, map[string]string{PathZone: "projects/123/zones/asia-northeast1-a"}, 0)
	c := NewClient(srv.URL, time.Second, testRetry(), nil)

	zone, err := c.Zone(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "asia-northeast1-a", zone)
}
