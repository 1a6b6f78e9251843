// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Refresh attempts a silent re-authentication by requesting RefreshURL from
// the provider without following its redirect. When the redirect's fragment
// carries a response, it's applied just like SetTokensFromURL (state check,
// persistence) without touching the Manager's location. There are no
// retries; retry policy belongs to the caller.
func (m *Manager) Refresh(ctx context.Context) error {
	const op = "Manager.Refresh"
	u, err := m.RefreshURL()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%s: unable to create request: %w: %w", op, ErrRefreshFailed, err)
	}

	client := *m.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w: %w", op, ErrRefreshFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	loc := resp.Header.Get("Location")
	if resp.StatusCode < 300 || resp.StatusCode > 399 || loc == "" {
		return fmt.Errorf("%s: provider responded with %s and no redirect: %w", op, resp.Status, ErrRefreshFailed)
	}
	redirect, err := url.Parse(loc)
	if err != nil {
		return fmt.Errorf("%s: unable to parse redirect: %w: %w", op, ErrRefreshFailed, err)
	}
	params := QueryToMap(redirect.EscapedFragment())
	if !isResponse(params) {
		return fmt.Errorf("%s: redirect carried no response: %w", op, ErrRefreshFailed)
	}
	if err := m.applyResponse(params); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.logger.Debug("tokens refreshed")
	return nil
}
