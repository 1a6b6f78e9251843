// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import "errors"

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilParameter     = errors.New("nil parameter")
	ErrUnsupportedAlg   = errors.New("unsupported signing algorithm")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidIssuer    = errors.New("invalid issuer (iss) claim")
	ErrInvalidAudience  = errors.New("invalid audience (aud) claim")
	ErrExpiredToken     = errors.New("token is expired")
	ErrNotYetValid      = errors.New("token is not yet valid")
)
