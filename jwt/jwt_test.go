// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/capspa/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	josejwt "gopkg.in/square/go-jose.v2/jwt"
)

const (
	testIssuer   = "https://issuer.example.com/oauth2/default"
	testAudience = "api://default"
)

// testClaims returns registered claims for alice, valid for an hour from now.
func testClaims(issuer string, now time.Time) josejwt.Claims {
	return josejwt.Claims{
		Issuer:    issuer,
		Subject:   "alice",
		Audience:  josejwt.Audience{testAudience},
		IssuedAt:  josejwt.NewNumericDate(now),
		NotBefore: josejwt.NewNumericDate(now),
		Expiry:    josejwt.NewNumericDate(now.Add(time.Hour)),
	}
}

func TestNewValidator(t *testing.T) {
	t.Parallel()
	pub, _ := session.TestGenerateKeys(t)
	ks, err := NewStaticKeySet([]string{pub})
	require.NoError(t, err)

	tests := []struct {
		name      string
		issuer    string
		ks        KeySet
		opts      []Option
		wantIsErr error
	}{
		{name: "valid", issuer: testIssuer, ks: ks},
		{name: "valid-with-options", issuer: testIssuer, ks: ks, opts: []Option{WithAudiences(testAudience), WithSupportedSigningAlgs(ES256, EdDSA)}},
		{name: "missing-issuer", ks: ks, wantIsErr: ErrInvalidParameter},
		{name: "nil-key-set", issuer: testIssuer, wantIsErr: ErrNilParameter},
		{name: "no-algs", issuer: testIssuer, ks: ks, opts: []Option{WithSupportedSigningAlgs()}, wantIsErr: ErrInvalidParameter},
		{name: "unsupported-alg", issuer: testIssuer, ks: ks, opts: []Option{WithSupportedSigningAlgs("none")}, wantIsErr: ErrUnsupportedAlg},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			v, err := NewValidator(tt.issuer, tt.ks, tt.opts...)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				assert.Nil(v)
				return
			}
			require.NoError(err)
			assert.NotNil(v)
		})
	}
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()
	pub, priv := session.TestGenerateKeys(t)
	_, otherPriv := session.TestGenerateKeys(t)
	ks, err := NewStaticKeySet([]string{pub})
	require.NoError(t, err)

	now := time.Now()
	sign := func(c josejwt.Claims) string {
		return session.TestSignJWT(t, priv, c, map[string]interface{}{"scp": []string{"openid"}})
	}

	tests := []struct {
		name      string
		token     func() string
		opts      []Option
		wantIsErr error
	}{
		{
			name:  "valid",
			token: func() string { return sign(testClaims(testIssuer, now)) },
			opts:  []Option{WithAudiences(testAudience)},
		},
		{
			name:  "no-expected-audience",
			token: func() string { return sign(testClaims(testIssuer, now)) },
		},
		{
			name: "one-of-many-audiences",
			token: func() string {
				c := testClaims(testIssuer, now)
				c.Audience = josejwt.Audience{"other", testAudience}
				return sign(c)
			},
			opts: []Option{WithAudiences("unknown", testAudience)},
		},
		{
			name:      "wrong-audience",
			token:     func() string { return sign(testClaims(testIssuer, now)) },
			opts:      []Option{WithAudiences("api://other")},
			wantIsErr: ErrInvalidAudience,
		},
		{
			name:      "audience-trailing-slash",
			token:     func() string { return sign(testClaims(testIssuer, now)) },
			opts:      []Option{WithAudiences(testAudience + "/")},
			wantIsErr: ErrInvalidAudience,
		},
		{
			name:  "normalized-audience",
			token: func() string { return sign(testClaims(testIssuer, now)) },
			opts:  []Option{WithAudiences(testAudience + "/"), WithNormalizedAudiences()},
		},
		{
			name:      "wrong-issuer",
			token:     func() string { return sign(testClaims("https://evil.example.com", now)) },
			wantIsErr: ErrInvalidIssuer,
		},
		{
			name: "expired",
			token: func() string {
				c := testClaims(testIssuer, now.Add(-2*time.Hour))
				return sign(c)
			},
			wantIsErr: ErrExpiredToken,
		},
		{
			name: "expired-within-leeway",
			token: func() string {
				c := testClaims(testIssuer, now.Add(-time.Hour-DefaultLeeway/2))
				return sign(c)
			},
		},
		{
			name: "expired-without-leeway",
			token: func() string {
				c := testClaims(testIssuer, now.Add(-time.Hour-DefaultLeeway/2))
				return sign(c)
			},
			opts:      []Option{WithClockSkewLeeway(-1)},
			wantIsErr: ErrExpiredToken,
		},
		{
			name: "missing-exp",
			token: func() string {
				c := testClaims(testIssuer, now)
				c.Expiry = nil
				return sign(c)
			},
			wantIsErr: ErrExpiredToken,
		},
		{
			name: "not-yet-valid",
			token: func() string {
				c := testClaims(testIssuer, now)
				c.NotBefore = josejwt.NewNumericDate(now.Add(2 * DefaultLeeway))
				return sign(c)
			},
			wantIsErr: ErrNotYetValid,
		},
		{
			name:  "valid-at-a-fixed-time",
			token: func() string { return sign(testClaims(testIssuer, now.Add(-24*time.Hour))) },
			opts:  []Option{WithNow(func() time.Time { return now.Add(-23 * time.Hour) })},
		},
		{
			name: "wrong-key",
			token: func() string {
				return session.TestSignJWT(t, otherPriv, testClaims(testIssuer, now), nil)
			},
			wantIsErr: ErrInvalidSignature,
		},
		{
			name:      "unsupported-alg",
			token:     func() string { return sign(testClaims(testIssuer, now)) },
			opts:      []Option{WithSupportedSigningAlgs(RS256)},
			wantIsErr: ErrInvalidSignature,
		},
		{
			name: "unsigned",
			token: func() string {
				return session.TestUnsignedJWT(t, map[string]interface{}{"iss": testIssuer, "sub": "alice"})
			},
			wantIsErr: ErrInvalidSignature,
		},
		{
			name: "stripped-signature",
			token: func() string {
				parts := strings.Split(sign(testClaims(testIssuer, now)), ".")
				return parts[0] + "." + parts[1] + "."
			},
			wantIsErr: ErrInvalidSignature,
		},
		{
			name:      "malformed",
			token:     func() string { return "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9" },
			wantIsErr: ErrInvalidSignature,
		},
		{
			name:      "empty",
			token:     func() string { return "" },
			wantIsErr: ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			v, err := NewValidator(testIssuer, ks, tt.opts...)
			require.NoError(err)
			claims, err := v.Validate(context.Background(), tt.token())
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				assert.Nil(claims)
				return
			}
			require.NoError(err)
			assert.Equal("alice", claims["sub"])
			assert.Equal(testIssuer, claims["iss"])
			assert.Equal([]interface{}{"openid"}, claims["scp"])
		})
	}
}

func TestValidator_Validate_remoteKeySet(t *testing.T) {
	t.Parallel()
	tp := session.StartTestProvider(t)
	ctx := context.Background()
	ks, err := NewJSONWebKeySet(ctx, tp.Addr()+"/v1/keys", tp.CACert())
	require.NoError(t, err)
	v, err := NewValidator(tp.Addr(), ks, WithAudiences(session.TestAudience), WithSupportedSigningAlgs(ES256))
	require.NoError(t, err)

	t.Run("access-token", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		claims, err := v.Validate(ctx, tp.AccessToken(map[string]interface{}{"uid": "00u1"}))
		require.NoError(err)
		assert.Equal(session.TestSubject, claims["sub"])
		assert.Equal(session.TestClientID, claims["cid"])
		assert.Equal("00u1", claims["uid"])
	})
	t.Run("id-token-audience", func(t *testing.T) {
		_, err := v.Validate(ctx, tp.IdToken("n_1"))
		assert.ErrorIs(t, err, ErrInvalidAudience)
	})
}

func Test_validateAudience(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		expected  []string
		audClaim  []string
		normalize bool
		wantErr   bool
	}{
		{
			name:     "skip validation for empty audiences",
			expected: []string{},
			audClaim: []string{"aud1"},
		},
		{
			name:     "at least one valid audience",
			expected: []string{"aud11", "aud1", "aud12", "aud13"},
			audClaim: []string{"aud0", "aud100", "aud1"},
		},
		{
			name:     "no valid audience",
			expected: []string{"aud11", "aud15", "aud12"},
			audClaim: []string{"aud0", "aud100", "aud13"},
			wantErr:  true,
		},
		{
			name:     "missing aud claim",
			expected: []string{"aud1"},
			wantErr:  true,
		},
		{
			name:      "normalized expected audience with trailing slash matches aud claim",
			expected:  []string{"aud11/", "aud13"},
			audClaim:  []string{"aud11", "aud0", "aud100"},
			normalize: true,
		},
		{
			name:      "normalized aud claim with trailing slash",
			expected:  []string{"aud11"},
			audClaim:  []string{"aud11/"},
			normalize: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := validateAudience(tt.expected, tt.audClaim, tt.normalize)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAudience)
				return
			}
			require.NoError(t, err)
		})
	}
}
