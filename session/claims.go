// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ParseClaims decodes the payload segment of a JWT. The signature is NOT
// verified; a resource server must verify tokens before trusting them.
func ParseClaims(token string) (jwt.MapClaims, error) {
	const op = "session.ParseClaims"
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%s: token has %d segment(s): %w", op, len(parts), ErrMalformedToken)
	}
	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%s: unable to decode payload: %w: %w", op, ErrMalformedToken, err)
	}
	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%s: unable to unmarshal payload: %w: %w", op, ErrMalformedToken, err)
	}
	if claims == nil {
		return nil, fmt.Errorf("%s: payload is null: %w", op, ErrMalformedToken)
	}
	return claims, nil
}
