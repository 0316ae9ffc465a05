package authentication

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderToken     = "X-MCS-TOKEN"
	HeaderTimestamp = "X-MCS-TIMESTAMP"

	// TokenLifespan is how long a proof stays valid after its timestamp.
	TokenLifespan = 5 * time.Second
)

var ErrMalformedHeaders = errors.New("malformed auth headers")

type ITokenAuthService interface {
	BuildAuthHeaders() Headers
	Verify(h Headers) bool
}

// Headers is the proof a caller attaches to every request.
type Headers struct {
	Token     string `json:"token"`
	Timestamp int64  `json:"timestamp"`
}

// Map returns the proof keyed by HTTP header name.
func (h Headers) Map() map[string]string {
	return map[string]string{
		HeaderToken:     h.Token,
		HeaderTimestamp: strconv.FormatInt(h.Timestamp, 10),
	}
}

type TokenAuthConfig struct {
	Hostname string

	Secret string

	// MaxFutureSkew rejects proofs stamped further ahead of the local clock.
	// Zero disables the check.
	MaxFutureSkew time.Duration

	// Now overrides the wall clock, for tests.
	Now func() time.Time
}

type tokenAuth struct {
	hostname      string
	secret        string
	maxFutureSkew time.Duration
	now           func() time.Time
}

func NewTokenAuthService(config *TokenAuthConfig) ITokenAuthService {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &tokenAuth{
		hostname:      config.Hostname,
		secret:        config.Secret,
		maxFutureSkew: config.MaxFutureSkew,
		now:           now,
	}
}

// ComputeToken returns the hex SHA-1 digest of hostname, the decimal
// timestamp and secret, concatenated in that order.
func ComputeToken(hostname string, timestampMillis int64, secret string) string {
	sum := sha1.Sum([]byte(hostname + strconv.FormatInt(timestampMillis, 10) + secret))
	return hex.EncodeToString(sum[:])
}

func (a *tokenAuth) BuildAuthHeaders() Headers {
	ts := a.now().UnixMilli()
	return Headers{
		Token:     ComputeToken(a.hostname, ts, a.secret),
		Timestamp: ts,
	}
}

func (a *tokenAuth) Verify(h Headers) bool {
	now := a.now().UnixMilli()
	if h.Timestamp < now-TokenLifespan.Milliseconds() {
		return false
	}
	if a.maxFutureSkew > 0 && h.Timestamp > now+a.maxFutureSkew.Milliseconds() {
		return false
	}
	// Not constant-time.
	return ComputeToken(a.hostname, h.Timestamp, a.secret) == h.Token
}

// ParseHeaders reads a proof from raw header values.
func ParseHeaders(token, timestamp string) (Headers, error) {
	token = strings.TrimSpace(token)
	timestamp = strings.TrimSpace(timestamp)
	if token == "" || timestamp == "" {
		return Headers{}, ErrMalformedHeaders
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return Headers{}, ErrMalformedHeaders
	}
	return Headers{Token: token, Timestamp: ts}, nil
}
