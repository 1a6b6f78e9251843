// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	sdkHttp "github.com/hashicorp/capspa/sdk/http"
	"gopkg.in/square/go-jose.v2"
)

// KeySet represents a set of keys that can be used to verify the signatures
// of JWTs. A KeySet is expected to be backed by a set of local or remote
// keys.
type KeySet = oidc.KeySet

// NewJSONWebKeySet returns a KeySet that verifies JWT signatures using keys
// from the JSON Web Key Set (JWKS) at the given jwksURL. The client used to
// obtain the remote JWKS will verify server certificates using the root
// certificates provided by jwksCAPEM, or the system's roots when it's empty.
//
// Keys are fetched lazily and cached until a token with an unknown key id is
// seen.
func NewJSONWebKeySet(ctx context.Context, jwksURL string, jwksCAPEM string) (KeySet, error) {
	const op = "jwt.NewJSONWebKeySet"
	if jwksURL == "" {
		return nil, fmt.Errorf("%s: jwks URL is empty: %w", op, ErrInvalidParameter)
	}
	client, err := sdkHttp.NewClient(jwksCAPEM)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w: %w", op, ErrInvalidParameter, err)
	}
	return oidc.NewRemoteKeySet(sdkHttp.ClientContext(ctx, client), jwksURL), nil
}

// NewOIDCDiscoveryKeySet returns a KeySet that verifies JWT signatures using
// keys from the JWKS published in the issuer's discovery document
// ({issuer}/.well-known/openid-configuration). The client used to obtain the
// discovery document and the keys will verify server certificates using the
// root certificates provided by discoveryCAPEM, or the system's roots when
// it's empty.
func NewOIDCDiscoveryKeySet(ctx context.Context, issuer string, discoveryCAPEM string) (KeySet, error) {
	const op = "jwt.NewOIDCDiscoveryKeySet"
	if issuer == "" {
		return nil, fmt.Errorf("%s: issuer is empty: %w", op, ErrInvalidParameter)
	}
	client, err := sdkHttp.NewClient(discoveryCAPEM)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w: %w", op, ErrInvalidParameter, err)
	}
	caCtx := sdkHttp.ClientContext(ctx, client)
	provider, err := oidc.NewProvider(caCtx, issuer)
	if err != nil {
		return nil, fmt.Errorf("%s: discovery failed: %w", op, err)
	}
	var discovered struct {
		JWKSURL string `json:"jwks_uri"`
	}
	if err := provider.Claims(&discovered); err != nil {
		return nil, fmt.Errorf("%s: unable to decode discovery document: %w", op, err)
	}
	if discovered.JWKSURL == "" {
		return nil, fmt.Errorf("%s: discovery document has no jwks_uri: %w", op, ErrInvalidParameter)
	}
	return oidc.NewRemoteKeySet(caCtx, discovered.JWKSURL), nil
}

// StaticKeySet verifies JWT signatures using local PEM-encoded public keys.
type StaticKeySet struct {
	publicKeys []crypto.PublicKey
}

var _ KeySet = (*StaticKeySet)(nil)

// NewStaticKeySet returns a KeySet that verifies JWT signatures using
// PEM-encoded public keys. The given publicKeys must be of PEM-encoded x509
// certificate or PKIX public key forms.
func NewStaticKeySet(publicKeys []string) (KeySet, error) {
	const op = "jwt.NewStaticKeySet"
	if len(publicKeys) == 0 {
		return nil, fmt.Errorf("%s: no public keys: %w", op, ErrInvalidParameter)
	}
	parsed := make([]crypto.PublicKey, 0, len(publicKeys))
	for i, k := range publicKeys {
		key, err := parsePublicKeyPEM([]byte(k))
		if err != nil {
			return nil, fmt.Errorf("%s: public key %d: %w", op, i, err)
		}
		parsed = append(parsed, key)
	}
	return &StaticKeySet{publicKeys: parsed}, nil
}

// VerifySignature verifies the token's signature with the first key that
// validates it and returns the token's payload. The token must be of the JWS
// compact serialization form.
func (ks *StaticKeySet) VerifySignature(_ context.Context, token string) ([]byte, error) {
	const op = "StaticKeySet.VerifySignature"
	jws, err := jose.ParseSigned(token)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed jwt: %w: %w", op, ErrInvalidParameter, err)
	}
	for _, key := range ks.publicKeys {
		if payload, err := jws.Verify(key); err == nil {
			return payload, nil
		}
	}
	return nil, fmt.Errorf("%s: no known key successfully validated the token signature: %w", op, ErrInvalidSignature)
}

// parsePublicKeyPEM is used to parse RSA, ECDSA and Ed25519 public keys from
// PEMs.
func parsePublicKeyPEM(data []byte) (crypto.PublicKey, error) {
	const op = "jwt.parsePublicKeyPEM"
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: data is not PEM encoded: %w", op, ErrInvalidParameter)
	}
	rawKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		cert, certErr := x509.ParseCertificate(block.Bytes)
		if certErr != nil {
			return nil, fmt.Errorf("%s: unable to parse public key or certificate: %w: %w", op, ErrInvalidParameter, err)
		}
		rawKey = cert.PublicKey
	}
	switch k := rawKey.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey:
		return k, nil
	default:
		return nil, fmt.Errorf("%s: unsupported public key type %T: %w", op, rawKey, ErrInvalidParameter)
	}
}
