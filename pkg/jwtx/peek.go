package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PeekClaims decodes a token's claims WITHOUT verifying the signature.
//
// This exists for layers that hold no signing secret (the SDK's client-side
// expiry check and the edge route guard) and only need the exp claim to make
// a UX decision. It is never a security boundary; the authoritative check is
// the server rejecting the token with a 401.
func PeekClaims(raw string) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return Claims{}, ErrMalformed
	}

	return claims, nil
}

// PeekExpired reports whether the token's exp claim is in the past at the
// given instant. Any decode failure, or a missing exp claim, counts as
// expired: the check fails closed.
func PeekExpired(raw string, now time.Time) bool {
	claims, err := PeekClaims(raw)
	if err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return now.After(claims.ExpiresAt.Time)
}
