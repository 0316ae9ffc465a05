package authentication

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestAuth(now time.Time) ITokenAuthService {
	return NewTokenAuthService(&TokenAuthConfig{
		Hostname: "mc-1",
		Secret:   "s3cret",
		Now:      fixedClock(now),
	})
}

func TestComputeToken_Deterministic(t *testing.T) {
	a := ComputeToken("mc-1", 1700000000000, "s3cret")
	b := ComputeToken("mc-1", 1700000000000, "s3cret")
	assert.Equal(t, a, b)
	assert.Len(t, a, 40)

	assert.NotEqual(t, a, ComputeToken("mc-2", 1700000000000, "s3cret"))
	assert.NotEqual(t, a, ComputeToken("mc-1", 1700000000000, "other"))
	assert.NotEqual(t, a, ComputeToken("mc-1", 1700000000001, "s3cret"))
}

func TestComputeToken_KnownVector(t *testing.T) {
	// sha1("mc-1" + "1700000000000" + "s3cret")
	assert.Equal(t, "26c732d59d6e79695388ab055c4d7707080d7718", ComputeToken("mc-1", 1700000000000, "s3cret"))
}

func TestBuildAuthHeaders_Verify(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	svc := newTestAuth(now)

	h := svc.BuildAuthHeaders()
	assert.Equal(t, now.UnixMilli(), h.Timestamp)
	assert.Equal(t, ComputeToken("mc-1", h.Timestamp, "s3cret"), h.Token)
	assert.True(t, svc.Verify(h))

	m := h.Map()
	assert.Equal(t, h.Token, m[HeaderToken])
	assert.Equal(t, strconv.FormatInt(h.Timestamp, 10), m[HeaderTimestamp])
}

func TestVerify_Expiry(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	svc := newTestAuth(now)

	tests := []struct {
		name string
		age  int64
		want bool
	}{
		{"fresh", 0, true},
		{"just inside window", 4999, true},
		{"at window edge", 5000, true},
		{"just expired", 5001, false},
		{"long expired", 60000, false},
		{"future dated", -60000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := now.UnixMilli() - tt.age
			h := Headers{Token: ComputeToken("mc-1", ts, "s3cret"), Timestamp: ts}
			assert.Equal(t, tt.want, svc.Verify(h))
		})
	}
}

func TestVerify_MaxFutureSkew(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	svc := NewTokenAuthService(&TokenAuthConfig{
		Hostname:      "mc-1",
		Secret:        "s3cret",
		MaxFutureSkew: time.Second,
		Now:           fixedClock(now),
	})

	ok := now.UnixMilli() + 999
	assert.True(t, svc.Verify(Headers{Token: ComputeToken("mc-1", ok, "s3cret"), Timestamp: ok}))

	tooFar := now.UnixMilli() + 1001
	assert.False(t, svc.Verify(Headers{Token: ComputeToken("mc-1", tooFar, "s3cret"), Timestamp: tooFar}))
}

func TestVerify_Tamper(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	svc := newTestAuth(now)
	h := svc.BuildAuthHeaders()

	for i := range h.Token {
		flipped := []byte(h.Token)
		if flipped[i] == '0' {
			flipped[i] = '1'
		} else {
			flipped[i] = '0'
		}
		assert.False(t, svc.Verify(Headers{Token: string(flipped), Timestamp: h.Timestamp}), "flipped index %d", i)
	}

	otherHost := NewTokenAuthService(&TokenAuthConfig{Hostname: "mc-2", Secret: "s3cret", Now: fixedClock(now)})
	assert.False(t, otherHost.Verify(h))

	otherSecret := NewTokenAuthService(&TokenAuthConfig{Hostname: "mc-1", Secret: "nope", Now: fixedClock(now)})
	assert.False(t, otherSecret.Verify(h))

	assert.False(t, svc.Verify(Headers{Token: h.Token, Timestamp: h.Timestamp + 1}))
	assert.False(t, svc.Verify(Headers{Timestamp: h.Timestamp}))
}

func TestParseHeaders(t *testing.T) {
	h, err := ParseHeaders("abc", "1700000000000")
	require.NoError(t, err)
	assert.Equal(t, Headers{Token: "abc", Timestamp: 1700000000000}, h)

	for _, tc := range [][2]string{
		{"", "1"},
		{"abc", ""},
		{"abc", "soon"},
		{"abc", "1.5"},
	} {
		_, err := ParseHeaders(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrMalformedHeaders, "%v", tc)
	}
}
