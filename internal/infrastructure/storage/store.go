// Package storage provides durable key-value persistence for whole
// collections. Every collection is one serialized JSON array under one
// key; every save overwrites the whole value. There is no append-only
// log and no partial update.
package storage

import (
	"context"
	"sync"
)

// Collection keys. The names are part of the on-disk format.
const (
	KeyMaterials    = "inventory_materials"
	KeyTransactions = "inventory_transactions"
	KeyWorkers      = "inventory_workers"
	KeySofaModels   = "inventory_sofa_models"
)

// Store is the durable key-value backend.
type Store interface {
	// Load returns the value stored under key, or nil if the key has
	// never been saved.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save overwrites the value stored under key.
	Save(ctx context.Context, key string, data []byte) error
}

// MemStore is an in-memory Store for tests and seeding.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

// Load returns a copy of the stored value, or nil when absent.
func (s *MemStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Save overwrites the stored value.
func (s *MemStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(data))
	copy(v, data)
	s.data[key] = v
	return nil
}

var _ Store = (*MemStore)(nil)
