package mcping

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func encodeKick(t *testing.T, payload string) []byte {
	t.Helper()
	enc, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(payload))
	require.NoError(t, err)
	var buf bytes.Buffer
	buf.WriteByte(0xFF)
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint16(len(enc)/2)))
	buf.Write(enc)
	return buf.Bytes()
}

func TestReadStatus(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    *Status
	}{
		{
			name:    "modern",
			payload: "§1\x0074\x001.6.4\x00A Minecraft Server\x003\x0020",
			want:    &Status{Protocol: 74, Version: "1.6.4", Description: "A Minecraft Server", OnlinePlayers: 3, MaxPlayers: 20},
		},
		{
			name:    "modern non-ascii motd",
			payload: "§1\x00340\x001.12.2\x00§aSurvie ☃\x000\x0010",
			want:    &Status{Protocol: 340, Version: "1.12.2", Description: "§aSurvie ☃", OnlinePlayers: 0, MaxPlayers: 10},
		},
		{
			name:    "beta",
			payload: "Old §cserver§5§16",
			want:    &Status{Protocol: -1, Description: "Old §cserver", OnlinePlayers: 5, MaxPlayers: 16},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadStatus(bytes.NewReader(encodeKick(t, tt.payload)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadStatus_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"wrong packet", append([]byte{0x00}, encodeKick(t, "x§1§2")[1:]...)},
		{"zero length", []byte{0xFF, 0x00, 0x00}},
		{"missing fields", encodeKick(t, "§1\x0074\x001.6.4")},
		{"bad count", encodeKick(t, "motd§many§20")},
		{"no separators", encodeKick(t, "hello")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadStatus(bytes.NewReader(tt.raw))
			assert.ErrorIs(t, err, ErrBadResponse)
		})
	}

	_, err := ReadStatus(bytes.NewReader(encodeKick(t, "§1\x0074\x001.6.4\x00m\x001\x0020")[:9]))
	assert.Error(t, err, "truncated payload")
}

func TestPing(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	reply := encodeKick(t, "§1\x00127\x001.18.2\x00hello\x001\x008")
	got := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		req := make([]byte, 2)
		_, _ = conn.Read(req)
		got <- req
		_, _ = conn.Write(reply)
	}()

	status, err := Ping(context.Background(), ln.Addr().String(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFE, 0x01}, <-got)
	assert.Equal(t, "1.18.2", status.Version)
	assert.Equal(t, 8, status.MaxPlayers)
}

func TestPing_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Ping(context.Background(), addr, 200*time.Millisecond)
	assert.Error(t, err)
}
