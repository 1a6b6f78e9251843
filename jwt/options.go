// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import "time"

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// validatorOptions is the set of available options for NewValidator
type validatorOptions struct {
	withAudiences            []string
	withSupportedSigningAlgs []Alg
	withNow                  func() time.Time
	withClockSkewLeeway      time.Duration
	withNormalizedAudiences  bool
}

func validatorDefaults() validatorOptions {
	return validatorOptions{
		withSupportedSigningAlgs: []Alg{RS256, ES256},
		withNow:                  time.Now,
		withClockSkewLeeway:      DefaultLeeway,
	}
}

// getValidatorOpts gets the defaults and applies the opt overrides passed
// in.
func getValidatorOpts(opt ...Option) validatorOptions {
	opts := validatorDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithAudiences provides the audiences a token must be issued for. A token
// is valid if its aud claim contains at least one of them. No audiences
// disables the check.
func WithAudiences(aud ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*validatorOptions); ok {
			o.withAudiences = aud
		}
	}
}

// WithSupportedSigningAlgs provides the signing algorithms a token may use.
// Defaults to RS256 and ES256.
func WithSupportedSigningAlgs(alg ...Alg) Option {
	return func(o interface{}) {
		if o, ok := o.(*validatorOptions); ok {
			o.withSupportedSigningAlgs = alg
		}
	}
}

// WithNow provides an optional func for the validator's current time.
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*validatorOptions); ok && now != nil {
			o.withNow = now
		}
	}
}

// WithClockSkewLeeway provides the leeway applied to the exp and nbf claims.
// Defaults to DefaultLeeway; a negative duration disables the leeway.
func WithClockSkewLeeway(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*validatorOptions); ok {
			o.withClockSkewLeeway = d
		}
	}
}

// WithNormalizedAudiences enables removing the trailing slash (if it exists)
// from all expected audiences and aud claims before comparing them.
func WithNormalizedAudiences() Option {
	return func(o interface{}) {
		if o, ok := o.(*validatorOptions); ok {
			o.withNormalizedAudiences = true
		}
	}
}
