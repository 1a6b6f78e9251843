// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"gopkg.in/square/go-jose.v2/jwt"
)

// DefaultLeeway is the default clock skew allowed when validating the exp
// and nbf claims.
const DefaultLeeway = jwt.DefaultLeeway

// Validator validates bearer JWTs (access tokens) issued by a single issuer.
// A Validator is safe for concurrent use.
type Validator struct {
	issuer    string
	sigVerify *oidc.IDTokenVerifier

	audiences []string
	normalize bool
	leeway    time.Duration
	now       func() time.Time
}

// NewValidator returns a Validator for tokens issued by issuer and signed by
// keys in ks.
//
// Supported options:
//
//	WithAudiences
//	WithSupportedSigningAlgs
//	WithNow
//	WithClockSkewLeeway
//	WithNormalizedAudiences
func NewValidator(issuer string, ks KeySet, opt ...Option) (*Validator, error) {
	const op = "jwt.NewValidator"
	switch {
	case issuer == "":
		return nil, fmt.Errorf("%s: issuer is empty: %w", op, ErrInvalidParameter)
	case ks == nil:
		return nil, fmt.Errorf("%s: key set is nil: %w", op, ErrNilParameter)
	}
	opts := getValidatorOpts(opt...)
	if len(opts.withSupportedSigningAlgs) == 0 {
		return nil, fmt.Errorf("%s: no signing algorithms: %w", op, ErrInvalidParameter)
	}
	if err := SupportedSigningAlgorithm(opts.withSupportedSigningAlgs...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	leeway := opts.withClockSkewLeeway
	if leeway < 0 {
		leeway = 0
	}

	// the verifier only checks the signature (and alg), claims are checked
	// by Validate so each failure maps to its own error.
	sigVerify := oidc.NewVerifier(issuer, ks, &oidc.Config{
		SkipClientIDCheck:    true,
		SkipExpiryCheck:      true,
		SkipIssuerCheck:      true,
		SupportedSigningAlgs: algStrings(opts.withSupportedSigningAlgs),
		Now:                  opts.withNow,
	})

	return &Validator{
		issuer:    issuer,
		sigVerify: sigVerify,
		audiences: opts.withAudiences,
		normalize: opts.withNormalizedAudiences,
		leeway:    leeway,
		now:       opts.withNow,
	}, nil
}

// Validate verifies the token's signature and its iss, aud, exp and nbf
// claims. It returns all of the token's claims when it's valid.
func (v *Validator) Validate(ctx context.Context, token string) (map[string]interface{}, error) {
	const op = "Validator.Validate"
	if token == "" {
		return nil, fmt.Errorf("%s: token is empty: %w", op, ErrInvalidParameter)
	}
	t, err := v.sigVerify.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
	}
	claims := map[string]interface{}{}
	if err := t.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s: unable to decode claims: %w", op, err)
	}

	if t.Issuer != v.issuer {
		return nil, fmt.Errorf("%s: expected %q got %q: %w", op, v.issuer, t.Issuer, ErrInvalidIssuer)
	}
	if err := validateAudience(v.audiences, t.Audience, v.normalize); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := v.now()
	if t.Expiry.IsZero() || now.After(t.Expiry.Add(v.leeway)) {
		return nil, fmt.Errorf("%s: expiry %s: %w", op, t.Expiry, ErrExpiredToken)
	}
	if nbf, ok := claims["nbf"].(float64); ok {
		notBefore := time.Unix(int64(nbf), 0)
		if now.Add(v.leeway).Before(notBefore) {
			return nil, fmt.Errorf("%s: not before %s: %w", op, notBefore, ErrNotYetValid)
		}
	}
	return claims, nil
}

// validateAudience returns an error if audClaim does not contain any
// audiences from expectedAudiences. No expected audiences skips the check.
func validateAudience(expectedAudiences, audClaim []string, normalize bool) error {
	if len(expectedAudiences) == 0 {
		return nil
	}
	n := func(s string) string {
		if normalize {
			return strings.TrimSuffix(s, "/")
		}
		return s
	}
	for _, e := range expectedAudiences {
		for _, a := range audClaim {
			if n(e) == n(a) {
				return nil
			}
		}
	}
	return fmt.Errorf("expected one of %q got %q: %w", expectedAudiences, audClaim, ErrInvalidAudience)
}
