// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"encoding/base64"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	josejwt "gopkg.in/square/go-jose.v2/jwt"
)

func TestParseClaims(t *testing.T) {
	t.Parallel()
	enc := base64.RawURLEncoding.EncodeToString
	_, priv := TestGenerateKeys(t)

	tests := []struct {
		name      string
		token     string
		want      jwt.MapClaims
		wantIsErr error
	}{
		{
			name:  "unsigned",
			token: TestUnsignedJWT(t, map[string]interface{}{"sub": "u1"}),
			want:  jwt.MapClaims{"sub": "u1"},
		},
		{
			name:  "two-segments",
			token: enc([]byte(`{}`)) + "." + enc([]byte(`{"sub":"u1","admin":true}`)),
			want:  jwt.MapClaims{"sub": "u1", "admin": true},
		},
		{
			name:  "signed",
			token: TestSignJWT(t, priv, josejwt.Claims{Issuer: testIssuer, Subject: "alice"}, map[string]interface{}{"groups": []string{"eng"}}),
			want: jwt.MapClaims{
				"sub":    "alice",
				"iss":    testIssuer,
				"groups": []interface{}{"eng"},
			},
		},
		{name: "empty", token: "", wantIsErr: ErrMalformedToken},
		{name: "one-segment", token: "abc", wantIsErr: ErrMalformedToken},
		{name: "bad-base64", token: "a.!!!.c", wantIsErr: ErrMalformedToken},
		{name: "not-json", token: "a." + enc([]byte("hello")) + ".c", wantIsErr: ErrMalformedToken},
		{name: "json-array", token: "a." + enc([]byte(`["sub"]`)) + ".c", wantIsErr: ErrMalformedToken},
		{name: "json-null", token: "a." + enc([]byte(`null`)) + ".c", wantIsErr: ErrMalformedToken},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := ParseClaims(tt.token)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				assert.Nil(got)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}
