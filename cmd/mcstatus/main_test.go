package main

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func fakeServer(t *testing.T, payload string) string {
	t.Helper()
	enc, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(payload))
	require.NoError(t, err)
	var reply bytes.Buffer
	reply.WriteByte(0xFF)
	require.NoError(t, binary.Write(&reply, binary.BigEndian, uint16(len(enc)/2)))
	reply.Write(enc)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Read(make([]byte, 2))
		_, _ = conn.Write(reply.Bytes())
	}()
	return ln.Addr().String()
}

func TestMcstatusPrintsJSON(t *testing.T) {
	addr := fakeServer(t, "§1\x00340\x001.12.2\x00Survival\x002\x0020")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--addr", addr, "--timeout", "1s"})
	require.NoError(t, cmd.Execute())

	assert.JSONEq(t,
		`{"description":"Survival","version":"1.12.2","maxPlayers":20,"onlinePlayers":2}`,
		out.String(),
	)
}

func TestMcstatusFailsWithoutServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--addr", addr, "--timeout", "200ms"})
	assert.Error(t, cmd.Execute())
	assert.Empty(t, out.String())
}
