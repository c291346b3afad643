package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection binds one record type to one store key and handles the
// JSON array codec. Encoding is deterministic (struct field order), so
// load-then-save of an unchanged collection reproduces identical bytes.
type Collection[T any] struct {
	store Store
	key   string
}

// NewCollection creates a collection over the given store key.
func NewCollection[T any](store Store, key string) *Collection[T] {
	return &Collection[T]{store: store, key: key}
}

// Key returns the store key of this collection.
func (c *Collection[T]) Key() string { return c.key }

// LoadAll reads and decodes the whole collection.
// A missing key decodes to an empty slice.
func (c *Collection[T]) LoadAll(ctx context.Context) ([]T, error) {
	raw, err := c.store.Load(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.key, err)
	}
	if len(raw) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.key, err)
	}
	return items, nil
}

// SaveAll encodes and overwrites the whole collection.
func (c *Collection[T]) SaveAll(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.store.Save(ctx, c.key, raw); err != nil {
		return fmt.Errorf("save %s: %w", c.key, err)
	}
	return nil
}
