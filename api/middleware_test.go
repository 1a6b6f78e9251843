// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubVerifier accepts a single token.
type stubVerifier struct {
	token  string
	claims map[string]interface{}
}

func (s stubVerifier) Validate(_ context.Context, token string) (map[string]interface{}, error) {
	if token != s.token {
		return nil, errors.New("invalid token")
	}
	return s.claims, nil
}

func TestBearerToken(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "lowercase-scheme", header: "bearer abc", want: "abc"},
		{name: "missing"},
		{name: "basic", header: "Basic dXNlcjpwYXNz"},
		{name: "no-token", header: "Bearer "},
		{name: "no-separator", header: "Bearer"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			r := httptest.NewRequest(http.MethodGet, "/api", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := BearerToken(r)
			if tt.want == "" {
				assert.ErrorIs(err, ErrMissingBearer)
				return
			}
			assert.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func TestRequireBearer(t *testing.T) {
	t.Parallel()
	v := stubVerifier{token: "good", claims: map[string]interface{}{"sub": "alice"}}
	mw, err := RequireBearer(v, nil)
	require.NoError(t, err)

	var gotClaims map[string]interface{}
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		name       string
		method     string
		header     string
		wantStatus int
		wantClaims map[string]interface{}
	}{
		{name: "valid", method: http.MethodGet, header: "Bearer good", wantStatus: http.StatusTeapot, wantClaims: v.claims},
		{name: "invalid", method: http.MethodGet, header: "Bearer bad", wantStatus: http.StatusUnauthorized},
		{name: "missing", method: http.MethodGet, wantStatus: http.StatusUnauthorized},
		{name: "options-pass-through", method: http.MethodOptions, wantStatus: http.StatusTeapot},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			gotClaims = nil
			r := httptest.NewRequest(tt.method, "/api", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(tt.wantStatus, w.Code)
			assert.Equal(tt.wantClaims, gotClaims)
			if tt.wantStatus == http.StatusUnauthorized {
				var body ErrorResponse
				require.NoError(json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(ErrorResponse{Status: http.StatusUnauthorized, Error: AuthenticationError}, body)
			}
		})
	}

	t.Run("nil-verifier", func(t *testing.T) {
		_, err := RequireBearer(nil, nil)
		assert.ErrorIs(t, err, ErrNilParameter)
	})
}

func TestClaimsFromContext(t *testing.T) {
	t.Parallel()
	_, err := ClaimsFromContext(context.Background())
	assert.ErrorIs(t, err, ErrMissingClaims)
}

func TestRecover(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	h := Recover(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api", nil))
	assert.Equal(http.StatusInternalServerError, w.Code)
	var body ErrorResponse
	require.NoError(json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(ErrorResponse{Status: 500, Error: "Internal Server Error"}, body)
}
