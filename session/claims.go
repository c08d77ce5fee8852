package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpirySkew is the safety margin subtracted from a token's expiry so a
// token is treated as stale slightly before it actually expires.
const ExpirySkew = 60 * time.Second

var unverifiedParser = jwt.NewParser()

// DecodeClaims extracts the claims of a JWT without verifying its
// signature. Signature verification is the backend's job - the client only
// needs to read the expiry instant.
func DecodeClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := unverifiedParser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("[DecodeClaims] parse token: %w", err)
	}
	return claims, nil
}

// IsUsable reports whether an access token can still authorise a request at
// the given instant: usable iff now + skew < exp. Malformed tokens and
// tokens without an expiry claim are never usable.
func IsUsable(token string, now time.Time) bool {
	claims, err := DecodeClaims(token)
	if err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return now.Add(ExpirySkew).Before(exp.Time)
}
