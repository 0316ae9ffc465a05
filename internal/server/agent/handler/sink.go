package handler

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"
)

// streamSink flushes after every chunk so output reaches the client as it
// arrives. A failed flush means the client is gone.
type streamSink struct {
	w *bufio.Writer
}

func (s *streamSink) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, s.w.Flush()
}

func (s *streamSink) Close() error {
	return s.w.Flush()
}

// hangupContext returns a context that is cancelled as soon as the peer
// closes conn, whether or not anything is being written to it. The client
// has nothing left to send once the stream has started, so any read error
// is a hangup. stop ends the watch and releases the context.
func hangupContext(parent context.Context, conn net.Conn) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	if conn == nil {
		return ctx, cancel
	}

	stopped := make(chan struct{})
	exited := make(chan struct{})
	_ = conn.SetReadDeadline(time.Time{})
	go func() {
		defer close(exited)
		buf := make([]byte, 512)
		for {
			if _, err := conn.Read(buf); err != nil {
				select {
				case <-stopped:
				default:
					cancel()
				}
				return
			}
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			close(stopped)
			// Unblocks the pending Read.
			_ = conn.SetReadDeadline(time.Now())
			<-exited
			cancel()
		})
	}
}
