// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ScopeOpenID is the required scope for all oidc flows and the default scope
// of a Config.
const ScopeOpenID = "openid"

// Config represents the configuration for an oidc implicit flow client.
type Config struct {
	// Issuer is the base URL of the provider. The authorize and logout
	// endpoints are derived from it ({issuer}/v1/authorize and
	// {issuer}/v1/logout)
	Issuer string

	// ClientId is the relying party id
	ClientId string

	// Scopes is the ordered list of scopes requested of the provider.
	Scopes []string

	// RedirectUrl is where the provider sends its response.  When empty, the
	// Manager uses the root of its current location.
	RedirectUrl string
}

// NewConfig composes a new config for an implicit flow client.
// Supported options:
//
//	WithScopes
//	WithRedirectUrl
func NewConfig(issuer, clientId string, opt ...Option) (*Config, error) {
	const op = "session.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		Issuer:      issuer,
		ClientId:    clientId,
		Scopes:      opts.withScopes,
		RedirectUrl: opts.withRedirectUrl,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}
	return c, nil
}

// Validate the config. It verifies the issuer is an http(s) URL but doesn't
// verify the issuer is reachable.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	if c.ClientId == "" {
		return fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	}
	if c.Issuer == "" {
		return fmt.Errorf("%s: issuer is empty: %w", op, ErrInvalidParameter)
	}
	u, err := url.Parse(c.Issuer)
	if err != nil {
		return fmt.Errorf("%s: issuer %s is invalid: %w: %w", op, c.Issuer, ErrInvalidParameter, err)
	}
	if !slices.Contains([]string{"https", "http"}, u.Scheme) || u.Host == "" {
		return fmt.Errorf("%s: issuer %s is not an http or https URL: %w", op, c.Issuer, ErrInvalidParameter)
	}
	if len(c.Scopes) == 0 {
		return fmt.Errorf("%s: scopes are empty: %w", op, ErrInvalidParameter)
	}
	if c.RedirectUrl != "" {
		if _, err := url.Parse(c.RedirectUrl); err != nil {
			return fmt.Errorf("%s: redirect URL %s is invalid: %w: %w", op, c.RedirectUrl, ErrInvalidParameter, err)
		}
	}
	return nil
}

// endpoint returns {issuer}/{path}, ignoring any trailing slash on the issuer.
func (c *Config) endpoint(path string) string {
	return strings.TrimSuffix(c.Issuer, "/") + "/" + path
}

// configOptions is the set of available options for NewConfig
type configOptions struct {
	withScopes      []string
	withRedirectUrl string
}

func configDefaults() configOptions {
	return configOptions{
		withScopes: []string{ScopeOpenID},
	}
}

// getConfigOpts gets the defaults and applies the opt overrides passed in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
