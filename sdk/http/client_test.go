// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package http

import (
	"bytes"
	"context"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewClient(t *testing.T) {
	t.Parallel()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	require.NoError(t, pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw}))

	t.Run("with-ca", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := NewClient(buf.String())
		require.NoError(err)
		assert.Equal(DefaultTimeout, c.Timeout)
		resp, err := c.Get(srv.URL)
		require.NoError(err)
		defer resp.Body.Close()
		assert.Equal(http.StatusNoContent, resp.StatusCode)
	})
	t.Run("system-ca-rejects-test-cert", func(t *testing.T) {
		require := require.New(t)
		c, err := NewClient("")
		require.NoError(err)
		_, err = c.Get(srv.URL)
		require.Error(err)
	})
	t.Run("invalid-pem", func(t *testing.T) {
		assert := assert.New(t)
		c, err := NewClient("not a certificate")
		assert.ErrorIs(err, ErrInvalidCertificatePem)
		assert.Nil(c)
	})
}

func TestClientContext(t *testing.T) {
	t.Parallel()
	c := &http.Client{}
	ctx := ClientContext(context.Background(), c)
	assert.Same(t, c, ctx.Value(oauth2.HTTPClient))
}
