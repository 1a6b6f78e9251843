// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProviderManager(t *testing.T, tp *TestProvider, durable StorageProvider, opt ...Option) *Manager {
	t.Helper()
	require := require.New(t)
	c, err := NewConfig(tp.Addr(), TestClientID, WithScopes("openid", "profile"))
	require.NoError(err)
	loc, err := NewStaticLocation("https://app.example.com/")
	require.NoError(err)
	opts := append([]Option{WithProviderCA(tp.CACert())}, opt...)
	m, err := NewManager(c, NewMemoryStorage(), durable, loc, opts...)
	require.NoError(err)
	return m
}

func TestManager_Refresh(t *testing.T) {
	t.Parallel()
	tp := StartTestProvider(t)

	t.Run("success", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		durable := NewMemoryStorage()
		m := testProviderManager(t, tp, durable)
		require.False(m.Authenticated())

		require.NoError(m.Refresh(context.Background()))
		assert.True(m.Authenticated())
		assert.Equal(TestSubject, m.UserClaims()["sub"])
		// go-jose always encodes aud as an array
		assert.Equal([]interface{}{TestAudience}, m.UserClaims()["aud"])
		aud, err := m.UserClaims().GetAudience()
		require.NoError(err)
		assert.Equal([]string{TestAudience}, []string(aud))

		stored, ok, err := durable.Get(TokensKey)
		require.NoError(err)
		assert.True(ok)
		assert.Equal(m.AccessToken()+","+m.IdToken(), stored)

		req := tp.LastAuthRequest()
		assert.Equal("none", req["prompt"])
		assert.Equal(m.StateToken(), req["state"])
		assert.Equal(ResponseTypeImplicit, req["response_type"])
		assert.Equal("openid profile", req["scope"])
		assert.Equal("https://app.example.com/", req["redirect_uri"])

		nonce := req["nonce"]
		idClaims, err := ParseClaims(m.IdToken())
		require.NoError(err)
		assert.Equal(nonce, idClaims["nonce"])

		tk, err := m.Token()
		require.NoError(err)
		assert.True(tk.Valid())
	})
	t.Run("provider-error", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetLoginRequired(true)
		durable := NewMemoryStorage()
		prev := testAccessToken(t, "bob") + "," + testIdToken(t, "bob")
		require.NoError(durable.Set(TokensKey, prev))
		m := testProviderManager(t, tp, durable)

		err := m.Refresh(context.Background())
		require.Error(err)
		var pErr *ProtocolError
		require.True(errors.As(err, &pErr))
		assert.Equal("login_required", pErr.Code)
		assert.Equal("bob", m.UserClaims()["sub"])
		stored, _, _ := durable.Get(TokensKey)
		assert.Equal(prev, stored)
	})
	t.Run("forced-error-description", func(t *testing.T) {
		assert := assert.New(t)
		tp := StartTestProvider(t)
		tp.SetAuthError("access_denied", "User did not consent")
		m := testProviderManager(t, tp, NewMemoryStorage())
		err := m.Refresh(context.Background())
		var pErr *ProtocolError
		require.True(t, errors.As(err, &pErr))
		assert.Equal("access_denied: User did not consent", pErr.Error())
	})
	t.Run("unknown-client", func(t *testing.T) {
		tp := StartTestProvider(t)
		tp.SetClientID("someone-else")
		m := testProviderManager(t, tp, NewMemoryStorage())
		err := m.Refresh(context.Background())
		assert.ErrorIs(t, err, ErrProtocol)
		assert.False(t, m.Authenticated())
	})
	t.Run("no-redirect", func(t *testing.T) {
		require := require.New(t)
		c, err := NewConfig(tp.Addr()+"/missing", TestClientID)
		require.NoError(err)
		loc, err := NewStaticLocation("https://app.example.com/")
		require.NoError(err)
		m, err := NewManager(c, NewMemoryStorage(), NewMemoryStorage(), loc, WithProviderCA(tp.CACert()))
		require.NoError(err)
		assert.ErrorIs(t, m.Refresh(context.Background()), ErrRefreshFailed)
	})
	t.Run("untrusted-provider", func(t *testing.T) {
		m := testProviderManager(t, tp, NewMemoryStorage(), WithProviderCA(""))
		assert.ErrorIs(t, m.Refresh(context.Background()), ErrRefreshFailed)
	})
	t.Run("canceled", func(t *testing.T) {
		m := testProviderManager(t, tp, NewMemoryStorage())
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()
		assert.ErrorIs(t, m.Refresh(ctx), ErrRefreshFailed)
	})
}
