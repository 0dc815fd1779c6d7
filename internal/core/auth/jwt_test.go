package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func newJWTer(now *time.Time) *JWTer {
	return &JWTer{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Issuer: "yolo",
		TTL:    24 * time.Hour,
		Now:    func() time.Time { return *now },
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		uid      string
		isAdmin  bool
		username string
	}{
		{"u-1", false, "alice"},
		{"u-2", true, "root"},
		{"6f1c1f2e-3d43-4c61-9b39-1b0b8ad4b7f0", false, "用户"},
	}
	for _, tc := range cases {
		now := t0
		j := newJWTer(&now)

		tok, err := j.Issue(tc.uid, tc.isAdmin, tc.username)
		require.NoError(t, err)

		now = t0.Add(23 * time.Hour)
		c, err := j.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, tc.uid, c.UID)
		assert.Equal(t, tc.isAdmin, c.IsAdmin)
		assert.Equal(t, tc.username, c.Username)
		assert.True(t, t0.Equal(c.IssuedAt.Time))
		assert.True(t, t0.Add(24*time.Hour).Equal(c.ExpiresAt.Time))
	}
}

func TestIssue_DifferentInstantsDifferentTokens(t *testing.T) {
	t.Parallel()

	now := t0
	j := newJWTer(&now)
	a, err := j.Issue("u", false, "alice")
	require.NoError(t, err)
	now = t0.Add(time.Second)
	b, err := j.Issue("u", false, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	now = t0
	again, err := j.Issue("u", false, "alice")
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	for _, eps := range []time.Duration{time.Nanosecond, time.Second, time.Hour} {
		now := t0
		j := newJWTer(&now)
		tok, err := j.Issue("u1", false, "bob")
		require.NoError(t, err)

		now = t0.Add(j.TTL + eps)
		c, err := j.Verify(tok)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, ErrTokenExpired)
	}
}

func TestVerify_TamperedByteRejected(t *testing.T) {
	t.Parallel()

	now := t0
	j := newJWTer(&now)
	tok, err := j.Issue("u1", true, "carol")
	require.NoError(t, err)

	for i := 0; i < len(tok); i++ {
		b := []byte(tok)
		b[i] ^= 0x01
		c, err := j.Verify(string(b))
		require.Errorf(t, err, "byte %d flipped but token still verified", i)
		assert.Nil(t, c)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	now := t0
	j := newJWTer(&now)
	tok, err := j.Issue("u2", false, "dave")
	require.NoError(t, err)

	other := newJWTer(&now)
	other.Secret = []byte("another-secret-another-secret-xx")
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	now := t0
	j := newJWTer(&now)
	junk := []string{
		"", "not.a.jwt", "abc", strings.Repeat(".", 5),
		"eyJhbGciOiJIUzI1NiJ9..", "eyJhbGciOiJub25lIn0.e30.",
		"eyJhbGciOiJIUzI1NiJ9.bnVsbA.sig", "\x00\xff.\x00.\x00",
	}
	for _, s := range junk {
		var (
			c   *Claims
			err error
		)
		require.NotPanics(t, func() { c, err = j.Verify(s) }, s)
		assert.Nil(t, c)
		assert.Error(t, err)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	now := t0
	j := newJWTer(&now)
	claims := Claims{
		UID: "u3",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(j.Secret)
	require.NoError(t, err)

	_, err = j.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = j.Verify(none)
	assert.Error(t, err)
}

func TestVerify_WrongIssuer(t *testing.T) {
	t.Parallel()

	now := t0
	j := newJWTer(&now)
	tok, err := j.Issue("u4", false, "erin")
	require.NoError(t, err)

	j2 := newJWTer(&now)
	j2.Issuer = "someone-else"
	_, err = j2.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_SecretRotation(t *testing.T) {
	t.Parallel()

	now := t0
	old := newJWTer(&now)
	tok, err := old.Issue("u5", false, "frank")
	require.NoError(t, err)

	rotated := newJWTer(&now)
	rotated.Secret = []byte("fresh-secret-fresh-secret-fresh!")
	_, err = rotated.Verify(tok)
	require.ErrorIs(t, err, ErrTokenInvalid)

	rotated.PreviousSecrets = [][]byte{old.Secret}
	c, err := rotated.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u5", c.UID)

	fresh, err := rotated.Issue("u5", false, "frank")
	require.NoError(t, err)
	_, err = old.Verify(fresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIssue_RequiresSecret(t *testing.T) {
	t.Parallel()

	j := &JWTer{}
	_, err := j.Issue("u", false, "x")
	assert.Error(t, err)
}

func TestDefaultTTL(t *testing.T) {
	t.Parallel()

	now := t0
	j := newJWTer(&now)
	j.TTL = 0
	tok, err := j.Issue("u", false, "x")
	require.NoError(t, err)
	now = t0.Add(DefaultTTL - time.Second)
	_, err = j.Verify(tok)
	require.NoError(t, err)
	now = t0.Add(DefaultTTL)
	_, err = j.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
