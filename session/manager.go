// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	sdkHttp "github.com/hashicorp/capspa/sdk/http"
	"github.com/hashicorp/capspa/sdk/id"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/oauth2"
)

// ResponseTypeImplicit is the response_type requested for every login.
const ResponseTypeImplicit = "token id_token"

// Manager owns the token lifecycle of an oidc implicit flow client: the
// state token, the access/id token pair and the claims derived from the
// access token.
type Manager struct {
	config  *Config
	tab     StorageProvider
	durable StorageProvider
	loc     LocationProvider
	logger  hclog.Logger
	genId   func(prefix string) (string, error)
	hook    VisibilityHook
	client  *http.Client

	mu         sync.RWMutex
	stateToken string
	tk         tokens
	resolveErr error
}

// tokens are always set (or cleared) together.
type tokens struct {
	accessToken string
	idToken     string
	claims      jwt.MapClaims
}

var _ oauth2.TokenSource = (*Manager)(nil)

// NewManager creates a Manager. It resolves the state token and then the
// tokens: first from the location's fragment (a provider redirect), then from
// durable storage. Failing to find tokens is not an error, the Manager is
// simply anonymous; see ResolveError for why each source was skipped.
//
// Supported options:
//
//	WithLogger
//	WithIdGenerator
//	WithVisibilityHook
//	WithProviderCA
//	WithHTTPClient
func NewManager(c *Config, tab, durable StorageProvider, loc LocationProvider, opt ...Option) (*Manager, error) {
	const op = "session.NewManager"
	switch {
	case tab == nil:
		return nil, fmt.Errorf("%s: tab storage is nil: %w", op, ErrNilParameter)
	case durable == nil:
		return nil, fmt.Errorf("%s: durable storage is nil: %w", op, ErrNilParameter)
	case loc == nil:
		return nil, fmt.Errorf("%s: location is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}
	opts := getManagerOpts(opt...)

	cfg := *c
	cfg.Scopes = append([]string(nil), c.Scopes...)
	if cfg.RedirectUrl == "" {
		cfg.RedirectUrl = loc.Origin() + "/"
	}

	client := opts.withHTTPClient
	if client == nil {
		var err error
		if client, err = sdkHttp.NewClient(opts.withProviderCA); err != nil {
			return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
		}
	}

	m := &Manager{
		config:  &cfg,
		tab:     tab,
		durable: durable,
		loc:     loc,
		logger:  opts.withLogger,
		genId:   opts.withIdGenerator,
		hook:    opts.withVisibilityHook,
		client:  client,
	}
	m.StateToken()
	m.resolveTokens()
	return m, nil
}

// Config returns a copy of the Manager's effective config.
func (m *Manager) Config() Config {
	c := *m.config
	c.Scopes = append([]string(nil), m.config.Scopes...)
	return c
}

// StateToken returns the state token, resolving it on first use from tab
// storage or by generating (and storing) a new one. Once resolved, the value
// never changes for the Manager's lifetime. An empty string is returned only
// if a token could not be generated.
func (m *Manager) StateToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stateToken != "" {
		return m.stateToken
	}
	st, ok, err := m.tab.Get(StateKey)
	if err != nil {
		m.logger.Warn("unable to read state token from tab storage", "error", err)
	}
	if ok && st != "" {
		m.stateToken = st
		return st
	}
	st, err = m.genId("st")
	if err != nil || st == "" {
		m.logger.Error("unable to generate state token", "error", err)
		return ""
	}
	if err := m.tab.Set(StateKey, st); err != nil {
		// the token is still usable for this Manager's lifetime
		m.logger.Warn("unable to write state token to tab storage", "error", err)
	}
	m.stateToken = st
	return st
}

// resolveTokens populates the session from the redirect fragment or, failing
// that, from durable storage. It is only called by NewManager.
func (m *Manager) resolveTokens() {
	var merr *multierror.Error
	defer func() {
		m.mu.Lock()
		m.resolveErr = merr.ErrorOrNil()
		m.mu.Unlock()
	}()

	ok, err := m.SetTokensFromURL()
	if err != nil {
		m.logger.Warn("unable to set tokens from url", "error", err)
		merr = multierror.Append(merr, err)
	}
	if ok {
		m.logger.Debug("tokens resolved", "source", "url")
		return
	}

	ok, err = m.SetTokensFromStorage()
	if err != nil {
		m.logger.Warn("unable to set tokens from storage", "error", err)
		merr = multierror.Append(merr, err)
	}
	if ok {
		m.logger.Debug("tokens resolved", "source", "storage")
		return
	}
	m.logger.Debug("no tokens resolved, session is anonymous")
}

// ResolveError returns the errors (if any) from each token source skipped
// during construction. Use errors.Is with ErrProtocol, ErrStateMismatch,
// ErrMissingToken or ErrMalformedToken to see which failed.
func (m *Manager) ResolveError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolveErr
}

// SetTokensFromURL parses a provider response from the location's fragment.
// It returns false with a nil error when the fragment carries no response.
// On success the tokens are persisted to durable storage, the session is
// populated and the fragment is cleared. A fragment with a response is
// cleared even when the response is rejected, so it is only consumed once.
func (m *Manager) SetTokensFromURL() (bool, error) {
	const op = "Manager.SetTokensFromURL"
	params := QueryToMap(m.loc.Fragment())
	if !isResponse(params) {
		return false, nil
	}
	m.loc.SetFragment("")
	if err := m.applyResponse(params); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// SetTokensFromStorage populates the session from the durable "TOKENS"
// entry. It returns false with a nil error when either token is missing.
func (m *Manager) SetTokensFromStorage() (bool, error) {
	const op = "Manager.SetTokensFromStorage"
	v, ok, err := m.durable.Get(TokensKey)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return false, nil
	}
	accessToken, idToken, _ := strings.Cut(v, ",")
	if accessToken == "" || idToken == "" {
		return false, nil
	}
	claims, err := ParseClaims(accessToken)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	m.setTokens(tokens{accessToken: accessToken, idToken: idToken, claims: claims})
	return true, nil
}

// responseParams are the fragment parameters of a provider response.
var responseParams = []string{"state", "access_token", "id_token", "error", "error_description"}

func isResponse(params map[string]string) bool {
	for _, k := range responseParams {
		if _, ok := params[k]; ok {
			return true
		}
	}
	return false
}

// applyResponse validates a provider response and, when valid, persists and
// sets its tokens. The session is unchanged on any error.
func (m *Manager) applyResponse(params map[string]string) error {
	if code := params["error"]; code != "" {
		// The value is already percent-decoded, so an encoded %2B also
		// becomes a space.
		desc := strings.ReplaceAll(params["error_description"], "+", " ")
		if desc == "" {
			desc = "Unknown."
		}
		return &ProtocolError{Code: code, Description: desc, Uri: params["error_uri"]}
	}

	st := m.StateToken()
	if st == "" || params["state"] != st {
		return fmt.Errorf("response state (%s) and state token (%s) are not equal: %w", params["state"], st, ErrStateMismatch)
	}

	accessToken, idToken := params["access_token"], params["id_token"]
	switch {
	case accessToken == "":
		return fmt.Errorf("access_token: %w", ErrMissingToken)
	case idToken == "":
		return fmt.Errorf("id_token: %w", ErrMissingToken)
	}

	claims, err := ParseClaims(accessToken)
	if err != nil {
		return err
	}
	if err := m.durable.Set(TokensKey, accessToken+","+idToken); err != nil {
		return fmt.Errorf("unable to persist tokens: %w", err)
	}
	m.setTokens(tokens{accessToken: accessToken, idToken: idToken, claims: claims})
	return nil
}

func (m *Manager) setTokens(t tokens) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tk = t
}

// AccessToken returns the current access token or "" when anonymous.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tk.accessToken
}

// IdToken returns the current id token or "" when anonymous.
func (m *Manager) IdToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tk.idToken
}

// UserClaims returns a copy of the claims decoded from the access token, or
// nil when anonymous.
func (m *Manager) UserClaims() jwt.MapClaims {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tk.claims == nil {
		return nil
	}
	c := make(jwt.MapClaims, len(m.tk.claims))
	for k, v := range m.tk.claims {
		c[k] = v
	}
	return c
}

// Authenticated returns true when the Manager holds a token pair.
func (m *Manager) Authenticated() bool {
	return m.AccessToken() != ""
}

// Token returns the session's access token as a bearer oauth2.Token, so the
// Manager can be used as an oauth2.TokenSource. The id_token is available
// via the token's Extra("id_token").
func (m *Manager) Token() (*oauth2.Token, error) {
	const op = "Manager.Token"
	m.mu.RLock()
	t := m.tk
	m.mu.RUnlock()
	if t.accessToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}
	tk := &oauth2.Token{
		AccessToken: t.accessToken,
		TokenType:   "Bearer",
	}
	if exp, err := t.claims.GetExpirationTime(); err == nil && exp != nil {
		tk.Expiry = exp.Time
	}
	return tk.WithExtra(map[string]interface{}{"id_token": t.idToken}), nil
}

// Logout clears the session and removes the tokens from durable storage. The
// state token is kept, so a new login from the same tab reuses it.
func (m *Manager) Logout() error {
	const op = "Manager.Logout"
	m.setTokens(tokens{})
	if err := m.durable.Remove(TokensKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LoginURL returns the provider's authorize URL for an implicit flow login.
// Every call generates a new nonce.
//
// Supported options:
//
//	WithPrompt
func (m *Manager) LoginURL(opt ...Option) (string, error) {
	const op = "Manager.LoginURL"
	opts := getLoginOpts(opt...)
	st := m.StateToken()
	if st == "" {
		return "", fmt.Errorf("%s: state token is unavailable: %w", op, ErrIdGeneratorFailed)
	}
	nonce, err := m.genId("n")
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate nonce: %w: %w", op, ErrIdGeneratorFailed, err)
	}
	if nonce == "" || nonce == st {
		return "", fmt.Errorf("%s: nonce is empty or equal to the state token: %w", op, ErrIdGeneratorFailed)
	}
	params := map[string]string{
		"client_id":     m.config.ClientId,
		"response_type": ResponseTypeImplicit,
		"scope":         strings.Join(m.config.Scopes, " "),
		"redirect_uri":  m.config.RedirectUrl,
		"state":         st,
		"nonce":         nonce,
		"prompt":        opts.withPrompt,
	}
	return m.config.endpoint("v1/authorize") + "?" + MapToQuery(params), nil
}

// RefreshURL returns a login URL with prompt=none, for silent
// re-authentication. Issuing the request is the caller's responsibility (see
// Refresh).
func (m *Manager) RefreshURL() (string, error) {
	return m.LoginURL(WithPrompt("none"))
}

// LogoutURL returns the provider's logout URL for the current id token.
func (m *Manager) LogoutURL() string {
	params := map[string]string{
		"id_token_hint":            m.IdToken(),
		"post_logout_redirect_uri": m.config.RedirectUrl,
	}
	return m.config.endpoint("v1/logout") + "?" + MapToQuery(params)
}

// managerOptions is the set of available options for NewManager
type managerOptions struct {
	withLogger         hclog.Logger
	withIdGenerator    func(prefix string) (string, error)
	withVisibilityHook VisibilityHook
	withProviderCA     string
	withHTTPClient     *http.Client
}

func managerDefaults() managerOptions {
	return managerOptions{
		withLogger:         hclog.NewNullLogger(),
		withIdGenerator:    id.New,
		withVisibilityHook: NoopVisibilityHook{},
	}
}

// getManagerOpts gets the defaults and applies the opt overrides passed in.
func getManagerOpts(opt ...Option) managerOptions {
	opts := managerDefaults()
	ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	if opts.withIdGenerator == nil {
		opts.withIdGenerator = id.New
	}
	if opts.withVisibilityHook == nil {
		opts.withVisibilityHook = NoopVisibilityHook{}
	}
	return opts
}

// loginOptions is the set of available options for LoginURL
type loginOptions struct {
	withPrompt string
}

func loginDefaults() loginOptions {
	return loginOptions{}
}

func getLoginOpts(opt ...Option) loginOptions {
	opts := loginDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
