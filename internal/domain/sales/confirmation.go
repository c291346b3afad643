// Package sales specifies the sale-confirmation boundary.
//
// The sales subsystem itself (payment states, receipts, printing) lives
// outside this core. What crosses the boundary is a list of material
// consumptions applied through the unaudited adjustment channel: the
// decrements mutate material quantities directly and write no ledger
// entries, so they are invisible to rollback. Keeping this path named
// and separate from the ledger is intentional; do not quietly unify the
// two.
package sales

import (
	"context"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// Consumption is one material decrement computed by sale confirmation.
// QuantityChange is signed; consumption is negative.
type Consumption struct {
	MaterialID     id.ID
	QuantityChange types.Quantity
}

// Adjuster is the unaudited adjustment channel the sales subsystem
// consumes. Implemented by the ledger service.
type Adjuster interface {
	AdjustWithoutRecord(ctx context.Context, materialID id.ID, change types.Quantity) error
}

// Confirm applies the consumptions of one confirmed sale. Items
// referencing unknown materials are silent no-ops, matching the rest of
// the core's failure taxonomy.
func Confirm(ctx context.Context, adjuster Adjuster, items []Consumption) error {
	for _, item := range items {
		if err := adjuster.AdjustWithoutRecord(ctx, item.MaterialID, item.QuantityChange); err != nil {
			return err
		}
	}
	return nil
}
