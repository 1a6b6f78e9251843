// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import "sync"

const (
	// TokensKey is the durable storage key holding "{accessToken},{idToken}"
	TokensKey = "TOKENS"

	// StateKey is the tab-scoped storage key holding the state token
	StateKey = "STATE"
)

// StorageProvider is a synchronous key/value surface. The Manager uses one
// provider that survives reloads (durable) and one scoped to a single tab or
// client session. Implementations are assumed atomic per key.
type StorageProvider interface {
	// Get returns the value for key and whether it was found.
	Get(key string) (value string, ok bool, err error)

	// Set stores value for key, overwriting any existing value.
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// MemoryStorage is an in-process StorageProvider. It is concurrently safe.
type MemoryStorage struct {
	mu sync.RWMutex
	m  map[string]string
}

var _ StorageProvider = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{m: map[string]string{}}
}

// Get implements StorageProvider.Get
func (s *MemoryStorage) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

// Set implements StorageProvider.Set
func (s *MemoryStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

// Remove implements StorageProvider.Remove
func (s *MemoryStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

// Clear removes every key.
func (s *MemoryStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = map[string]string{}
}
