// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package sync

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMissing is returned for an empty Authorization token.
	ErrTokenMissing = errors.New("authorization token is required")

	// ErrTokenExpired is returned when the token's exp claim is in the past.
	ErrTokenExpired = errors.New("authorization token has expired")
)

// CheckToken inspects the caller's bearer token before any upstream call.
// The signature is not verified (only the reporting API can do that); the
// check exists so an expired session fails fast with a clear message instead
// of a 401 on step 1/3. Tokens that are not JWTs pass through unchanged.
func CheckToken(token string, now time.Time) error {
	raw := strings.TrimSpace(token)
	if raw == "" || raw == "Bearer" || raw == "Bearer ey..." {
		return ErrTokenMissing
	}
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if now.After(exp.Time) {
		return fmt.Errorf("%w at %s", ErrTokenExpired, exp.Time.UTC().Format(time.RFC3339))
	}
	return nil
}
