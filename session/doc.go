// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
session is a package for the client side of an OIDC implicit flow: acquiring,
validating, persisting and exposing access and id tokens.

Primary types provided by the package

* Manager: owns the token lifecycle. On creation it resolves a state token
(CSRF defense), then reads tokens from a provider redirect's fragment or,
failing that, from durable storage. It builds login, refresh and logout URLs
and is an oauth2.TokenSource for calling a resource server.

* Config: the issuer, client id, scopes and redirect URL of the client.

* StorageProvider: a key/value surface. MemoryStorage is in-process and
SQLiteStorage survives restarts.

* LocationProvider: the host's current URL. StaticLocation wraps a url.URL.

* VisibilityHook: the extension point for tab visibility changes.

Token claims are decoded but never verified here. Resource servers must verify
the signature of every bearer token they accept (see the jwt package).
*/
package session
