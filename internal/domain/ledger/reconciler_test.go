package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockbook/internal/core/types"
	"stockbook/internal/domain/catalogs/material"
)

func testMaterial(quantity float64) *material.Material {
	m := material.New("Oak plank", "Wood", "pcs")
	m.Quantity = types.NewQuantityFromFloat64(quantity)
	return m
}

func TestReconcilerApply(t *testing.T) {
	tests := []struct {
		name     string
		start    float64
		typ      MovementType
		quantity float64
		want     float64
		wantLost float64
	}{
		{"in adds", 10, MovementIn, 3, 13, 0},
		{"out subtracts", 10, MovementOut, 4, 6, 0},
		{"out to exactly zero", 5, MovementOut, 5, 0, 0},
		{"out past zero clamps", 3, MovementOut, 5, 0, 2},
		{"out from zero clamps fully", 0, MovementOut, 7, 0, 7},
		{"fractional", 2.5, MovementOut, 1.25, 1.25, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Reconciler
			m := testMaterial(tt.start)
			lost := rec.Apply(m, tt.typ, types.NewQuantityFromFloat64(tt.quantity))
			assert.Equal(t, types.NewQuantityFromFloat64(tt.want), m.Quantity)
			assert.Equal(t, types.NewQuantityFromFloat64(tt.wantLost), lost)
		})
	}
}

func TestReconcilerUndoInvertsApply(t *testing.T) {
	var rec Reconciler
	m := testMaterial(10)
	q := types.NewQuantityFromFloat64(3.5)

	rec.Apply(m, MovementOut, q)
	rec.Undo(m, MovementOut, q)
	assert.Equal(t, types.NewQuantityFromFloat64(10), m.Quantity)

	rec.Apply(m, MovementIn, q)
	rec.Undo(m, MovementIn, q)
	assert.Equal(t, types.NewQuantityFromFloat64(10), m.Quantity)
}

// Once a clamp fires, undo cannot recover the pre-clamp value: the
// overflow was discarded. The material ends up higher than it started.
func TestReconcilerClampIsLossy(t *testing.T) {
	var rec Reconciler
	m := testMaterial(3)

	lost := rec.Apply(m, MovementOut, types.NewQuantityFromInt(5))
	assert.Equal(t, types.Quantity(0), m.Quantity)
	assert.Equal(t, types.NewQuantityFromInt(2), lost)

	rec.Undo(m, MovementOut, types.NewQuantityFromInt(5))
	assert.Equal(t, types.NewQuantityFromInt(5), m.Quantity, "undo restores the full magnitude, not the lost 3")
}

func TestReconcilerAllowNegative(t *testing.T) {
	rec := Reconciler{AllowNegative: true}
	m := testMaterial(3)

	lost := rec.Apply(m, MovementOut, types.NewQuantityFromInt(5))
	assert.Equal(t, types.NewQuantityFromInt(-2), m.Quantity)
	assert.True(t, lost.IsZero())

	rec.Undo(m, MovementOut, types.NewQuantityFromInt(5))
	assert.Equal(t, types.NewQuantityFromInt(3), m.Quantity, "without the clamp, undo is exact")
}

func TestReconcilerApplySigned(t *testing.T) {
	var rec Reconciler
	m := testMaterial(4)

	lost := rec.ApplySigned(m, types.NewQuantityFromFloat64(-1.5))
	assert.Equal(t, types.NewQuantityFromFloat64(2.5), m.Quantity)
	assert.True(t, lost.IsZero())

	lost = rec.ApplySigned(m, types.NewQuantityFromInt(-10))
	assert.Equal(t, types.Quantity(0), m.Quantity)
	assert.Equal(t, types.NewQuantityFromFloat64(7.5), lost)
}

func TestReconcilerFold(t *testing.T) {
	var rec Reconciler
	movements := []StockTransaction{
		{Type: MovementIn, Quantity: types.NewQuantityFromInt(10)},
		{Type: MovementOut, Quantity: types.NewQuantityFromInt(4)},
		{Type: MovementOut, Quantity: types.NewQuantityFromInt(9)},
		{Type: MovementIn, Quantity: types.NewQuantityFromInt(2)},
	}

	// 0 +10 -4 -9(clamped to 0) +2
	assert.Equal(t, types.NewQuantityFromInt(2), rec.Fold(0, movements))

	// AllowNegative removes the per-step floor.
	loose := Reconciler{AllowNegative: true}
	assert.Equal(t, types.NewQuantityFromInt(-1), loose.Fold(0, movements))
}
