package handler

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHangupContext(t *testing.T) {
	t.Run("peer close cancels", func(t *testing.T) {
		server, client := net.Pipe()
		defer server.Close()
		ctx, stop := hangupContext(context.Background(), server)
		defer stop()

		require.NoError(t, ctx.Err())
		require.NoError(t, client.Close())
		select {
		case <-ctx.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("context not cancelled after peer closed")
		}
	})

	t.Run("stop unblocks the watcher", func(t *testing.T) {
		server, client := net.Pipe()
		defer server.Close()
		defer client.Close()
		ctx, stop := hangupContext(context.Background(), server)

		done := make(chan struct{})
		go func() {
			stop()
			stop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("stop blocked")
		}
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})

	t.Run("parent cancel propagates", func(t *testing.T) {
		server, client := net.Pipe()
		defer server.Close()
		defer client.Close()
		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := hangupContext(parent, server)
		defer stop()
		cancel()
		<-ctx.Done()
	})
}
