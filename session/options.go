// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"net/http"

	"github.com/hashicorp/go-hclog"
)

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

// WithScopes provides an optional list of scopes for a Config. Valid for:
// NewConfig
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithRedirectUrl provides an optional redirect URL for a Config. Valid for:
// NewConfig
func WithRedirectUrl(u string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withRedirectUrl = u
		}
	}
}

// WithLogger provides an optional logger. Valid for: NewManager
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*managerOptions); ok {
			o.withLogger = l
		}
	}
}

// WithIdGenerator provides an optional generator for state tokens and nonces.
// Valid for: NewManager
func WithIdGenerator(fn func(prefix string) (string, error)) Option {
	return func(o interface{}) {
		if o, ok := o.(*managerOptions); ok {
			o.withIdGenerator = fn
		}
	}
}

// WithVisibilityHook provides an optional hook invoked on visibility changes.
// Valid for: NewManager
func WithVisibilityHook(h VisibilityHook) Option {
	return func(o interface{}) {
		if o, ok := o.(*managerOptions); ok {
			o.withVisibilityHook = h
		}
	}
}

// WithProviderCA provides an optional CA cert (PEM) used when sending
// requests to the provider. Valid for: NewManager
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*managerOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithHTTPClient provides an optional http client used when sending requests
// to the provider. It takes precedence over WithProviderCA. Valid for:
// NewManager
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*managerOptions); ok {
			o.withHTTPClient = c
		}
	}
}

// WithPrompt provides an optional prompt which is forwarded verbatim to the
// provider to control re-authentication behavior. Valid for: LoginURL
func WithPrompt(prompt string) Option {
	return func(o interface{}) {
		if o, ok := o.(*loginOptions); ok {
			o.withPrompt = prompt
		}
	}
}
