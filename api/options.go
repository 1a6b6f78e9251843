// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package api

import (
	"github.com/hashicorp/capspa/sdk/id"
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

// handlerOptions is the set of available options for NewHandler
type handlerOptions struct {
	withLogger         hclog.Logger
	withAllowedOrigins []string
	withIdGenerator    func() (string, error)
}

func handlerDefaults() handlerOptions {
	return handlerOptions{
		withLogger:         hclog.NewNullLogger(),
		withAllowedOrigins: []string{"*"},
		withIdGenerator:    func() (string, error) { return id.New("") },
	}
}

// getHandlerOpts gets the defaults and applies the opt overrides passed in.
func getHandlerOpts(opt ...Option) handlerOptions {
	opts := handlerDefaults()
	ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	if len(opts.withAllowedOrigins) == 0 {
		opts.withAllowedOrigins = []string{"*"}
	}
	if opts.withIdGenerator == nil {
		opts.withIdGenerator = handlerDefaults().withIdGenerator
	}
	return opts
}

// WithLogger provides an optional logger. Valid for: NewHandler
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withLogger = l
		}
	}
}

// WithAllowedOrigins provides the origins allowed to make cross-origin
// requests. Defaults to "*". Valid for: NewHandler
func WithAllowedOrigins(origins ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withAllowedOrigins = origins
		}
	}
}

// WithIdGenerator provides an optional generator for response ids. Valid
// for: NewHandler
func WithIdGenerator(fn func() (string, error)) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withIdGenerator = fn
		}
	}
}
