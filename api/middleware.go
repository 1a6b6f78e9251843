// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// TokenVerifier verifies a bearer token and returns its claims. A
// *jwt.Validator is a TokenVerifier.
type TokenVerifier interface {
	Validate(ctx context.Context, token string) (map[string]interface{}, error)
}

type claimsKey struct{}

// ClaimsFromContext returns the verified token claims stored by
// RequireBearer.
func ClaimsFromContext(ctx context.Context) (map[string]interface{}, error) {
	const op = "api.ClaimsFromContext"
	claims, ok := ctx.Value(claimsKey{}).(map[string]interface{})
	if !ok || claims == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingClaims)
	}
	return claims, nil
}

// BearerToken returns the token from an "Authorization: Bearer {token}"
// header. The scheme is case insensitive.
func BearerToken(r *http.Request) (string, error) {
	const op = "api.BearerToken"
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%s: %w", op, ErrMissingBearer)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%s: %w", op, ErrMissingBearer)
	}
	return token, nil
}

// RequireBearer returns a middleware that requires a bearer token which v
// accepts. Verified claims are available to next via ClaimsFromContext.
// OPTIONS requests are passed through without a token.
func RequireBearer(v TokenVerifier, logger hclog.Logger) (func(http.Handler) http.Handler, error) {
	const op = "api.RequireBearer"
	if v == nil {
		return nil, fmt.Errorf("%s: token verifier is nil: %w", op, ErrNilParameter)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			token, err := BearerToken(r)
			if err != nil {
				logger.Debug("request rejected", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusUnauthorized, AuthenticationError)
				return
			}
			claims, err := v.Validate(r.Context(), token)
			if err != nil {
				logger.Debug("request rejected", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusUnauthorized, AuthenticationError)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

// Recover returns a middleware that recovers from panics and responds with
// a 500 error.
func Recover(logger hclog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()))
					writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
