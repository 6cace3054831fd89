package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry reads the "exp" claim of a JWT without verifying its
// signature; the backend remains the authority on validity. ok is false for
// opaque tokens and for JWTs without an expiry.
func tokenExpiry(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	date, err := claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// tokenTTL is how long a token should be persisted: until its expiry when it
// carries one, fallback otherwise.
func tokenTTL(token string, now time.Time, fallback time.Duration) time.Duration {
	exp, ok := tokenExpiry(token)
	if !ok {
		return fallback
	}
	return exp.Sub(now)
}
