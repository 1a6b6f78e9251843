// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// DefaultLen is the number of characters in a generated id, not counting an
// optional prefix.
const DefaultLen = 10

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// New generates an opaque, pseudo-random base36 id with an optional prefix.
// Ids are suitable for correlating an oidc state or nonce, but they are not
// secrets.
func New(optionalPrefix string) (string, error) {
	const op = "id.New"
	b, err := uuid.GenerateRandomBytes(DefaultLen)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id: %w", op, err)
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	switch {
	case optionalPrefix != "":
		return fmt.Sprintf("%s_%s", optionalPrefix, b), nil
	default:
		return string(b), nil
	}
}
