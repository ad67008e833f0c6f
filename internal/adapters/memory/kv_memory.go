// Package memory implements the key/value store port in process memory.
// Nothing survives a restart; it backs embedded use and tests.
package memory

import (
	"context"
	"sync"

	"github.com/bft-labs/fishdiary/internal/ports"
)

var _ ports.KVStore = (*KVStore)(nil)

// KVStore is a map guarded by a mutex.
type KVStore struct {
	mu     sync.RWMutex
	values map[string]string
	writes int
}

// NewKVStore returns an empty store.
func NewKVStore() *KVStore {
	return &KVStore{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.writes++
	return nil
}

// Writes returns how many Set calls succeeded.
func (s *KVStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
