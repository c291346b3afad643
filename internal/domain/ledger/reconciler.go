package ledger

import (
	"stockbook/internal/core/types"
	"stockbook/internal/domain/catalogs/material"
)

// Reconciler is the single primitive through which every audited
// quantity mutation flows. Creating, editing and deleting transactions
// all reduce to Apply and Undo calls; nothing else in the audited path
// writes Material.Quantity.
//
// Clamping: with AllowNegative false (the compatible default), a result
// below zero is floored at zero and the overflow is discarded. The
// forward operation is then not exactly invertible: once a clamp fires,
// applying the inverse delta cannot recover the pre-clamp value, because
// "how negative" was lost. Deleting an out-movement that was clamped
// therefore leaves the material HIGHER than before the movement was
// logged. This drift is accepted, logged, and repairable via Rebuild or
// a manual override.
//
// With AllowNegative true, the floor is removed, stock may go negative
// (back-orders), and Apply/Undo become exact inverses.
type Reconciler struct {
	// AllowNegative removes the clamp-at-zero floor.
	AllowNegative bool
}

// Delta returns the signed quantity change for a movement.
func (r Reconciler) Delta(t MovementType, quantity types.Quantity) types.Quantity {
	if t == MovementOut {
		return quantity.Neg()
	}
	return quantity
}

// Apply adds the movement's delta to the material's quantity and
// refreshes UpdatedAt. The returned value is the overflow discarded by
// the clamp: zero when no clamping occurred.
func (r Reconciler) Apply(m *material.Material, t MovementType, quantity types.Quantity) types.Quantity {
	return r.ApplySigned(m, r.Delta(t, quantity))
}

// Undo reverses a movement previously applied with the same type and
// quantity. Equivalent to applying the inverted movement, including the
// clamp.
func (r Reconciler) Undo(m *material.Material, t MovementType, quantity types.Quantity) types.Quantity {
	return r.Apply(m, t.Invert(), quantity)
}

// ApplySigned adds an already-signed delta. This is also the primitive
// behind the unaudited adjustment channel.
func (r Reconciler) ApplySigned(m *material.Material, delta types.Quantity) types.Quantity {
	next := m.Quantity + delta

	var lost types.Quantity
	if next.IsNegative() && !r.AllowNegative {
		lost = next.Neg()
		next = 0
	}

	m.Quantity = next
	m.Touch()
	return lost
}

// Fold replays movements in order against a starting quantity and
// returns the final value, clamping at each step exactly as Apply
// would. Used by Rebuild to recompute what the materialized quantity
// should be from ledger history alone.
func (r Reconciler) Fold(start types.Quantity, movements []StockTransaction) types.Quantity {
	total := start
	for i := range movements {
		next := total + movements[i].SignedQuantity()
		if next.IsNegative() && !r.AllowNegative {
			next = 0
		}
		total = next
	}
	return total
}
