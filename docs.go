// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// capspa (client authentication for single page apps) provides a collection of
// related packages for the oidc implicit flow: a client side session manager
// (session), bearer token verification (jwt) and a resource server which
// accepts those tokens (api).
package capspa
