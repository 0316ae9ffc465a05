package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Alwanly/mcs-agent/internal/config"
	"github.com/Alwanly/mcs-agent/internal/logwindow"
	authentication "github.com/Alwanly/mcs-agent/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testHost   = "mc-1"
	testSecret = "s3cret"
)

type fakeAgent struct {
	mu  sync.Mutex
	log string

	lastBody []byte
}

func (f *fakeAgent) appendLog(s string) {
	f.mu.Lock()
	f.log += s
	f.mu.Unlock()
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status != http.StatusOK {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data":  nil,
			"error": map[string]interface{}{"status": status, "message": data},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data, "error": nil})
}

func (f *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	verifier := authentication.NewTokenAuthService(&authentication.TokenAuthConfig{Hostname: testHost, Secret: testSecret})
	h, err := authentication.ParseHeaders(r.Header.Get(authentication.HeaderToken), r.Header.Get(authentication.HeaderTimestamp))
	if err != nil || !verifier.Verify(h) {
		writeEnvelope(w, http.StatusForbidden, "forbidden")
		return
	}

	switch {
	case r.URL.Path == "/make":
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r.Body)
		f.mu.Lock()
		f.lastBody = buf.Bytes()
		f.mu.Unlock()
		if strings.Contains(buf.String(), `"server-status"`) {
			writeEnvelope(w, http.StatusBadRequest, `unknown action target "server-status"`)
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]string{"run_id": "run-1"})
	case r.URL.Path == "/server-status":
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"description": "hi", "version": "1.12.2", "maxPlayers": 20, "onlinePlayers": 1})
	case r.URL.Path == "/log":
		stride, _ := strconv.Atoi(r.URL.Query().Get("stride"))
		f.mu.Lock()
		buf := f.log
		f.mu.Unlock()
		var win logwindow.Window
		if raw := r.URL.Query().Get("cursor"); raw != "" {
			cursor, _ := strconv.Atoi(raw)
			win = logwindow.WindowOf(buf, stride, cursor)
		} else {
			win = logwindow.WindowOf(buf, stride)
		}
		writeEnvelope(w, http.StatusOK, win)
	case strings.HasPrefix(r.URL.Path, "/make-stream/"):
		if r.URL.Path != "/make-stream/log-minecraft" {
			writeEnvelope(w, http.StatusBadRequest, "unknown stream target")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("tail=" + r.URL.Query().Get("LINES") + "\n"))
	case r.URL.Path == "/runs":
		writeEnvelope(w, http.StatusOK, []map[string]string{{"id": "run-1", "target": r.URL.Query().Get("target"), "state": "succeeded"}})
	default:
		writeEnvelope(w, http.StatusNotFound, "Cannot GET "+r.URL.Path)
	}
}

func newClient(t *testing.T, secret string) (*Client, *fakeAgent) {
	t.Helper()
	agent := &fakeAgent{}
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)
	return New(&config.ClientConfig{AgentURL: srv.URL + "/", Hostname: testHost, Secret: secret, Timeout: 2 * time.Second}, nil), agent
}

func TestMake(t *testing.T) {
	c, agent := newClient(t, testSecret)

	resp, err := c.Make(context.Background(), "start-minecraft", map[string]string{"JAVA_MEMORY": "4"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", resp.RunID)
	agent.mu.Lock()
	assert.JSONEq(t, `{"target":"start-minecraft","params":{"JAVA_MEMORY":"4"}}`, string(agent.lastBody))
	agent.mu.Unlock()

	_, err = c.Make(context.Background(), "server-status", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "unknown action target")
}

func TestForbidden(t *testing.T) {
	c, _ := newClient(t, "wrong")
	_, err := c.ServerStatus(context.Background())
	require.Error(t, err)
	assert.True(t, IsForbidden(err))
	assert.EqualError(t, err, "agent returned 403: forbidden")
}

func TestServerStatusAndRuns(t *testing.T) {
	c, _ := newClient(t, testSecret)

	st, err := c.ServerStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.12.2", st.Version)
	assert.Equal(t, 20, st.MaxPlayers)

	runs, err := c.Runs(context.Background(), "kill-minecraft", 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "kill-minecraft", runs[0].Target)
}

func TestReadLog(t *testing.T) {
	c, agent := newClient(t, testSecret)
	agent.appendLog("a\nb\nc\n")

	win, err := c.ReadLog(context.Background(), "minecraft", -3, nil)
	require.NoError(t, err)
	assert.Equal(t, logwindow.Window{Data: "b\nc\n", Start: 2, End: 6}, *win)

	cursor := 0
	win, err = c.ReadLog(context.Background(), "minecraft", 1, &cursor)
	require.NoError(t, err)
	assert.Equal(t, "a", win.Data)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTailFollowsAppends(t *testing.T) {
	c, agent := newClient(t, testSecret)
	agent.appendLog("old 1\nold 2\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- c.Tail(ctx, "minecraft", 2, 10*time.Millisecond, out) }()

	require.Eventually(t, func() bool { return out.String() == "old 2\n" }, time.Second, 5*time.Millisecond)
	agent.appendLog("new 1\nnew 2\n")
	require.Eventually(t, func() bool { return out.String() == "old 2\nnew 1\nnew 2\n" }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("tail did not stop")
	}
}

func TestStream(t *testing.T) {
	c, _ := newClient(t, testSecret)

	var out bytes.Buffer
	require.NoError(t, c.Stream(context.Background(), "log-minecraft", map[string]string{"LINES": "10"}, &out))
	assert.Equal(t, "tail=10\n", out.String())

	err := c.Stream(context.Background(), "start-minecraft", nil, &out)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}
