// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package jwt provides signature verification and claims validation for the
bearer access tokens a resource server receives from single page app clients.

Keys come from a remote JWKS (NewJSONWebKeySet), usually {issuer}/v1/keys,
from the JWKS named by the issuer's discovery document
(NewOIDCDiscoveryKeySet), or from local PEM-encoded public keys
(NewStaticKeySet).

A Validator checks a token's signature, issuer, audience and expiry:

	ks, err := jwt.NewJSONWebKeySet(ctx, issuer+"/v1/keys", "")
	v, err := jwt.NewValidator(issuer, ks, jwt.WithAudiences("api://default"))
	claims, err := v.Validate(ctx, token)
*/
package jwt
