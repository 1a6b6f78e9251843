// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package api

import "errors"

var (
	ErrNilParameter  = errors.New("nil parameter")
	ErrMissingBearer = errors.New("missing bearer token")
	ErrMissingClaims = errors.New("missing token claims")
)
