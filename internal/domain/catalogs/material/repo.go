package material

import (
	"context"
)

// Repository defines persistence for the material collection.
//
// Persistence is whole-collection: every mutation is a load of the full
// collection, an in-memory change, and a save of the full collection.
// There are no row-level operations at the storage boundary.
type Repository interface {
	// LoadAll reads the whole collection; missing key yields an empty slice.
	LoadAll(ctx context.Context) ([]Material, error)

	// SaveAll overwrites the whole collection.
	SaveAll(ctx context.Context, items []Material) error
}
