// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package api is a small resource server for single page app clients that
authenticate with an oidc implicit flow. Requests must carry the client's
access token as an "Authorization: Bearer" header, which is verified by a
TokenVerifier (see the jwt package) before any route runs.

	GET /api  {"status":200,"id":"<request id>","user":"<sub claim>"}

Every error, including unknown routes and methods, is returned as JSON:

	{"status":401,"error":"Authentication Error"}

CORS preflight (OPTIONS) requests never require a token.
*/
package api
