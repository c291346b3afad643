// Package tx provides transaction management abstractions.
// Domain services depend on the Manager interface, not on a concrete
// database implementation.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
//
// The ledger saves two collections (materials, transactions) per
// mutation. When the backing store supports it, both saves run inside
// one transaction; Manager is the seam that makes that possible.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Nop is a pass-through Manager for stores without multi-key atomicity
// (the file store). With Nop, the two collection saves remain two
// sequential writes; a crash between them leaves the quantity invariant
// violated. Known limitation of the file backend.
type Nop struct{}

// RunInTransaction runs fn directly.
func (Nop) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ Manager = Nop{}
