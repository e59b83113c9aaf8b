package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired inspects a JWT without verifying its signature and reports
// whether its exp claim has passed. Verification is the backend's job; the
// client only wants to skip restoring a token that is already dead.
// Unparseable tokens and tokens without exp count as expired.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !exp.After(now)
}
