// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"bytes"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// Defaults used by a TestProvider until they're overridden.
const (
	TestClientID = "test-client-id"
	TestAudience = "api://default"
	TestSubject  = "alice@example.com"
)

// TestProvider is a local https server that plays the part of an OIDC
// implicit flow provider. It supports:
//
//	GET /.well-known/openid-configuration  the discovery document
//	GET /v1/authorize  redirects with tokens (or an error) in the fragment
//	GET /v1/keys       the JWKS used to sign tokens
//	GET /v1/logout     redirects to post_logout_redirect_uri
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	jwks *jose.JSONWebKeySet

	mu              sync.Mutex
	clientID        string
	audience        string
	subject         string
	expiry          time.Duration
	customClaims    map[string]interface{}
	authError       string
	authErrorDesc   string
	loginRequired   bool
	lastAuthRequest map[string]string

	ecdsaPublicKey  string
	ecdsaPrivateKey string

	t *testing.T
}

// StartTestProvider creates a disposable TestProvider which is stopped when
// the test completes.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		clientID: TestClientID,
		audience: TestAudience,
		subject:  TestSubject,
		expiry:   5 * time.Minute,
		t:        t,
	}
	p.ecdsaPublicKey, p.ecdsaPrivateKey = TestGenerateKeys(t)
	p.jwks = testJWKS(t, p.ecdsaPublicKey)

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: p.httpServer.Certificate().Raw})
	require.NoError(err)
	p.caCert = buf.String()

	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// Addr returns the provider's base URL, which is also its issuer.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the provider's HTTPS
// server.
func (p *TestProvider) CACert() string { return p.caCert }

// SigningKeys returns the provider's pem-encoded keys used to sign JWTs.
func (p *TestProvider) SigningKeys() (pub, priv string) {
	return p.ecdsaPublicKey, p.ecdsaPrivateKey
}

// SetClientID configures the client id the provider accepts. It's also the
// audience of issued id tokens.
func (p *TestProvider) SetClientID(clientID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
}

// SetAudience configures the audience of issued access tokens.
func (p *TestProvider) SetAudience(aud string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.audience = aud
}

// SetSubject configures the subject of issued tokens.
func (p *TestProvider) SetSubject(sub string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subject = sub
}

// SetExpiry configures how long issued tokens are valid. A negative duration
// issues expired tokens.
func (p *TestProvider) SetExpiry(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expiry = d
}

// SetCustomClaims lets you set additional claims for issued tokens.
func (p *TestProvider) SetCustomClaims(claims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customClaims = claims
}

// SetAuthError forces /v1/authorize to respond with an error. An empty code
// clears it.
func (p *TestProvider) SetAuthError(code, description string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authError, p.authErrorDesc = code, description
}

// SetLoginRequired makes prompt=none requests fail with login_required.
func (p *TestProvider) SetLoginRequired(required bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loginRequired = required
}

// LastAuthRequest returns the query parameters of the most recent
// /v1/authorize request.
func (p *TestProvider) LastAuthRequest() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAuthRequest
}

// AccessToken issues a signed access token for the configured subject,
// audience and expiry, plus any custom and additional claims.
func (p *TestProvider) AccessToken(additional map[string]interface{}) string {
	p.t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signToken(p.audience, map[string]interface{}{"cid": p.clientID}, additional)
}

// IdToken issues a signed id token with the provided nonce.
func (p *TestProvider) IdToken(nonce string) string {
	p.t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signToken(p.clientID, map[string]interface{}{"nonce": nonce}, nil)
}

// signToken requires p.mu to be held.
func (p *TestProvider) signToken(aud string, private ...map[string]interface{}) string {
	now := time.Now()
	claims := jwt.Claims{
		Issuer:    p.Addr(),
		Subject:   p.subject,
		Audience:  jwt.Audience{aud},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
		Expiry:    jwt.NewNumericDate(now.Add(p.expiry)),
	}
	privateClaims := map[string]interface{}{}
	for k, v := range p.customClaims {
		privateClaims[k] = v
	}
	for _, m := range private {
		for k, v := range m {
			privateClaims[k] = v
		}
	}
	return TestSignJWT(p.t, p.ecdsaPrivateKey, claims, privateClaims)
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, status int, out interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(out)
}

func (p *TestProvider) redirectWithFragment(w http.ResponseWriter, req *http.Request, redirectURI string, params map[string]string) {
	http.Redirect(w, req, redirectURI+"#"+MapToQuery(params), http.StatusFound)
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.t.Helper()
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch req.URL.Path {
	case "/.well-known/openid-configuration":
		p.writeJSON(w, http.StatusOK, map[string]interface{}{
			"issuer":                                p.Addr(),
			"authorization_endpoint":                p.Addr() + "/v1/authorize",
			"jwks_uri":                              p.Addr() + "/v1/keys",
			"end_session_endpoint":                  p.Addr() + "/v1/logout",
			"response_types_supported":              []string{ResponseTypeImplicit},
			"id_token_signing_alg_values_supported": []string{"ES256"},
		})

	case "/v1/keys":
		p.writeJSON(w, http.StatusOK, p.jwks)

	case "/v1/logout":
		if u := req.URL.Query().Get("post_logout_redirect_uri"); u != "" {
			http.Redirect(w, req, u, http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)

	case "/v1/authorize":
		p.authorize(w, req)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (p *TestProvider) authorize(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	qv := req.URL.Query()
	p.lastAuthRequest = map[string]string{}
	for k := range qv {
		p.lastAuthRequest[k] = qv.Get(k)
	}

	redirectURI := qv.Get("redirect_uri")
	if redirectURI == "" {
		p.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_request",
			"error_description": "missing redirect_uri parameter",
		})
		return
	}
	state := qv.Get("state")
	fail := func(code, desc string) {
		p.redirectWithFragment(w, req, redirectURI, map[string]string{
			"error":             code,
			"error_description": desc,
			"state":             state,
		})
	}

	switch {
	case qv.Get("client_id") != p.clientID:
		fail("unauthorized_client", "unknown client_id")
	case qv.Get("response_type") != ResponseTypeImplicit:
		fail("unsupported_response_type", "response_type must be "+ResponseTypeImplicit)
	case state == "":
		fail("invalid_request", "missing state parameter")
	case qv.Get("nonce") == "":
		fail("invalid_request", "missing nonce parameter")
	case p.authError != "":
		fail(p.authError, p.authErrorDesc)
	case qv.Get("prompt") == "none" && p.loginRequired:
		fail("login_required", "The client specified not to prompt, but the user is not logged in.")
	default:
		p.redirectWithFragment(w, req, redirectURI, map[string]string{
			"access_token": p.signToken(p.audience, map[string]interface{}{"cid": p.clientID}),
			"id_token":     p.signToken(p.clientID, map[string]interface{}{"nonce": qv.Get("nonce")}),
			"token_type":   "Bearer",
			"expires_in":   strconv.Itoa(int(p.expiry.Seconds())),
			"scope":        qv.Get("scope"),
			"state":        state,
		})
	}
}
