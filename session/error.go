// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrNilParameter      = errors.New("nil parameter")
	ErrIdGeneratorFailed = errors.New("id generation failed")
	ErrProtocol          = errors.New("provider protocol error")
	ErrStateMismatch     = errors.New("state token mismatch")
	ErrMissingToken      = errors.New("access_token or id_token is missing")
	ErrMalformedToken    = errors.New("malformed token")
	ErrRefreshFailed     = errors.New("refresh failed")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrStorage           = errors.New("storage failure")
)

// ProtocolError is an error returned by the provider in an implicit flow
// redirect. See:
// https://openid.net/specs/openid-connect-core-1_0.html#AuthError
type ProtocolError struct {
	Code        string
	Description string
	Uri         string
}

// Error returns "{error}: {error_description}"
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is reports whether target is ErrProtocol, so callers can match any
// ProtocolError with errors.Is.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}
