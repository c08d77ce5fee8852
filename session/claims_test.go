package session_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-smartfaq/session"
)

var testSigningKey = []byte("test-signing-key")

// mintToken creates a signed JWT expiring at the given instant. The
// signature is irrelevant to the client (it never verifies), but real
// backend tokens are signed, so the fixtures are too.
func mintToken(t *testing.T, expiry time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"token_type": "access",
		"user_id":    1,
		"exp":        expiry.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	require.NoError(t, err)
	return token
}

// mintTokenWithoutExpiry creates a signed JWT carrying no exp claim.
func mintTokenWithoutExpiry(t *testing.T) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1}).SignedString(testSigningKey)
	require.NoError(t, err)
	return token
}

func TestIsUsable(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		token  string
		usable bool
	}{
		{
			name:   "fresh token",
			token:  mintToken(t, now.Add(time.Hour)),
			usable: true,
		},
		{
			name:   "expired token",
			token:  mintToken(t, now.Add(-time.Hour)),
			usable: false,
		},
		{
			name:   "expires inside the skew window",
			token:  mintToken(t, now.Add(30*time.Second)),
			usable: false,
		},
		{
			name:   "expires exactly at the skew boundary",
			token:  mintToken(t, now.Add(session.ExpirySkew)),
			usable: false,
		},
		{
			name:   "expires just past the skew boundary",
			token:  mintToken(t, now.Add(session.ExpirySkew+time.Second)),
			usable: true,
		},
		{
			name:   "no expiry claim",
			token:  mintTokenWithoutExpiry(t),
			usable: false,
		},
		{
			name:   "malformed token",
			token:  "not-a-jwt",
			usable: false,
		},
		{
			name:   "empty token",
			token:  "",
			usable: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.usable, session.IsUsable(tc.token, now))
		})
	}
}

func TestDecodeClaims(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)

	claims, err := session.DecodeClaims(mintToken(t, expiry))
	require.NoError(t, err)

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	require.Equal(t, expiry.Unix(), exp.Unix())

	_, err = session.DecodeClaims("garbage")
	require.Error(t, err)
}
