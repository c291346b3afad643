package ledger

import (
	"context"
)

// Repository defines whole-collection persistence for the ledger.
// Same model as the material repository: load everything, mutate in
// memory, overwrite everything.
type Repository interface {
	LoadAll(ctx context.Context) ([]StockTransaction, error)
	SaveAll(ctx context.Context, items []StockTransaction) error
}
