// Package entity provides base record types shared by catalogs and the ledger.
package entity

import (
	"context"
	"time"

	"stockbook/internal/core/id"
)

// Validatable is implemented by records that support self-validation.
// Validation checks internal invariants only, without storage access.
type Validatable interface {
	// Validate returns nil if valid, an AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Base contains common fields for mutable records (materials, workers,
// product models).
type Base struct {
	// ID is the stable identity (UUIDv7)
	ID id.ID `json:"id"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewBase creates a Base with a generated ID and both timestamps set to now.
func NewBase() Base {
	now := time.Now().UTC()
	return Base{
		ID:        id.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch refreshes UpdatedAt. Every update path must call it.
func (b *Base) Touch() {
	b.UpdatedAt = time.Now().UTC()
}
