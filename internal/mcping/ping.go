// Package mcping implements the legacy (0xFE 0x01) server list ping that
// every Minecraft server since 1.4 still answers.
package mcping

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
)

const (
	DefaultPort    = 25565
	DefaultTimeout = 5 * time.Second

	kickPacket = 0xFF
	// maxChars bounds the UTF-16 payload. Real servers answer with well under
	// a kilobyte.
	maxChars = 1 << 14
)

var ErrBadResponse = errors.New("mcping: malformed response")

// Status is what a server reports in its ping response. Protocol is -1 for
// pre-1.4 servers, which do not send it.
type Status struct {
	Protocol      int
	Version       string
	Description   string
	OnlinePlayers int
	MaxPlayers    int
}

// Ping dials addr ("host" or "host:port") and performs one legacy ping.
func Ping(ctx context.Context, addr string, timeout time.Duration) (*Status, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(DefaultPort))
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("mcping: dial %s: %w", addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if _, err := conn.Write([]byte{0xFE, 0x01}); err != nil {
		return nil, fmt.Errorf("mcping: write: %w", err)
	}
	return ReadStatus(conn)
}

// ReadStatus decodes a kick packet: 0xFF, a big-endian uint16 character
// count, then that many UTF-16BE code units.
func ReadStatus(r io.Reader) (*Status, error) {
	var header [3]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("mcping: read header: %w", err)
	}
	if header[0] != kickPacket {
		return nil, fmt.Errorf("%w: packet id 0x%02x", ErrBadResponse, header[0])
	}
	n := int(binary.BigEndian.Uint16(header[1:]))
	if n == 0 || n > maxChars {
		return nil, fmt.Errorf("%w: length %d", ErrBadResponse, n)
	}

	raw := make([]byte, n*2)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("mcping: read payload: %w", err)
	}
	payload, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return parsePayload(string(payload))
}

// parsePayload handles both layouts:
//
//	§1\x00<protocol>\x00<version>\x00<motd>\x00<online>\x00<max>   (1.4+)
//	<motd>§<online>§<max>                                          (beta)
func parsePayload(s string) (*Status, error) {
	if strings.HasPrefix(s, "§1\x00") {
		fields := strings.Split(s, "\x00")
		if len(fields) != 6 {
			return nil, fmt.Errorf("%w: %d fields", ErrBadResponse, len(fields))
		}
		protocol, err1 := strconv.Atoi(fields[1])
		online, err2 := strconv.Atoi(fields[4])
		maxPlayers, err3 := strconv.Atoi(fields[5])
		if err := errors.Join(err1, err2, err3); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		return &Status{
			Protocol:      protocol,
			Version:       fields[2],
			Description:   fields[3],
			OnlinePlayers: online,
			MaxPlayers:    maxPlayers,
		}, nil
	}

	// The motd may itself contain §, so the counts are taken from the end.
	fields := strings.Split(s, "§")
	if len(fields) < 3 {
		return nil, fmt.Errorf("%w: %q", ErrBadResponse, s)
	}
	online, err1 := strconv.Atoi(fields[len(fields)-2])
	maxPlayers, err2 := strconv.Atoi(fields[len(fields)-1])
	if err := errors.Join(err1, err2); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return &Status{
		Protocol:      -1,
		Description:   strings.Join(fields[:len(fields)-2], "§"),
		OnlinePlayers: online,
		MaxPlayers:    maxPlayers,
	}, nil
}
