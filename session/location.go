// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"fmt"
	"net/url"
	"sync"
)

// LocationProvider gives the Manager access to the host's current URL.
type LocationProvider interface {
	// Fragment returns the raw, still percent-encoded, fragment without the
	// leading "#".
	Fragment() string

	// SetFragment replaces the fragment. An empty fragment clears it.
	SetFragment(fragment string)

	// Origin returns scheme://host[:port] of the current URL.
	Origin() string
}

// StaticLocation is a LocationProvider over a parsed URL. It is concurrently
// safe.
type StaticLocation struct {
	mu sync.Mutex
	u  *url.URL
}

var _ LocationProvider = (*StaticLocation)(nil)

// NewStaticLocation parses rawURL into a StaticLocation.
func NewStaticLocation(rawURL string) (*StaticLocation, error) {
	const op = "session.NewStaticLocation"
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to parse %q: %w: %w", op, rawURL, ErrInvalidParameter, err)
	}
	return &StaticLocation{u: u}, nil
}

// Fragment implements LocationProvider.Fragment
func (l *StaticLocation) Fragment() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.u.EscapedFragment()
}

// SetFragment implements LocationProvider.SetFragment
func (l *StaticLocation) SetFragment(fragment string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fragment == "" {
		l.u.Fragment, l.u.RawFragment = "", ""
		return
	}
	if unescaped, err := url.PathUnescape(fragment); err == nil {
		l.u.Fragment, l.u.RawFragment = unescaped, fragment
		return
	}
	l.u.Fragment, l.u.RawFragment = fragment, ""
}

// Origin implements LocationProvider.Origin
func (l *StaticLocation) Origin() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return (&url.URL{Scheme: l.u.Scheme, Host: l.u.Host}).String()
}

// String returns the full current URL.
func (l *StaticLocation) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.u.String()
}
