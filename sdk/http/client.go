// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds every request made by a client from NewClient.
const DefaultTimeout = 30 * time.Second

var ErrInvalidCertificatePem = errors.New("invalid certificate PEM")

// NewClient returns a pooled http client for requests to an oidc provider
// (authorize and keys endpoints). Server certificates are verified with the
// optional CA certificate PEM, otherwise with the system's CA chain.
func NewClient(caPEM string) (*http.Client, error) {
	const op = "http.NewClient"
	tr := cleanhttp.DefaultPooledTransport()
	if caPEM != "" {
		pool, err := certPool(caPEM)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tr.TLSClientConfig = &tls.Config{
			RootCAs:    pool,
			MinVersion: tls.VersionTLS12,
		}
	}
	return &http.Client{
		Transport: tr,
		Timeout:   DefaultTimeout,
	}, nil
}

func certPool(caPEM string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM([]byte(caPEM)); !ok {
		return nil, ErrInvalidCertificatePem
	}
	return pool, nil
}

// ClientContext returns a new Context that carries the provided HTTP client
// under the golang.org/x/oauth2 context key, which is also the key
// github.com/coreos/go-oidc reads when fetching remote keys.
func ClientContext(ctx context.Context, client *http.Client) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}
