// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"net/url"
	"sort"
	"strings"
)

// QueryToMap parses a query string (or URL fragment) into a map. Keys and
// values are percent-decoded ("+" is not treated as a space). Pairs with an
// empty key or value, and pairs that fail to decode, are dropped.
func QueryToMap(query string) map[string]string {
	m := map[string]string{}
	for _, pair := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if k == "" || v == "" {
			continue
		}
		dk, err := url.PathUnescape(k)
		if err != nil {
			continue
		}
		dv, err := url.PathUnescape(v)
		if err != nil {
			continue
		}
		m[dk] = dv
	}
	return m
}

// MapToQuery encodes m as a query string with keys in sorted order. Keys and
// values are percent-encoded (spaces become %20). Entries with an empty key
// or value are dropped.
func MapToQuery(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if k == "" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(m[k]))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
