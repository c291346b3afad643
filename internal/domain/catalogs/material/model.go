// Package material provides the raw-material catalog.
// A material carries its current stock level as a materialized value;
// keeping that value consistent with the ledger is the reconciler's job,
// not this package's.
package material

import (
	"context"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/entity"
	"stockbook/internal/core/types"
)

// Material represents a tracked inventory item.
type Material struct {
	entity.Base

	Name     string `json:"name"`
	Category string `json:"category"`
	Unit     string `json:"unit"`

	// Quantity is the current stock level. It is a materialized derived
	// value: the ledger is the source of truth, and this field is patched
	// incrementally on every movement. Mutate it only through the
	// reconciler or the named manual-override operation.
	Quantity types.Quantity `json:"quantity"`

	// MinStock is the reorder threshold. Display and reporting only;
	// nothing in the core enforces it.
	MinStock types.Quantity `json:"minStock"`

	CostPerUnit types.Money `json:"costPerUnit"`
	Supplier    *string     `json:"supplier,omitempty"`
}

// New creates a material with a generated ID and timestamps.
func New(name, category, unit string) *Material {
	return &Material{
		Base:     entity.NewBase(),
		Name:     name,
		Category: category,
		Unit:     unit,
	}
}

// Validate implements entity.Validatable.
func (m *Material) Validate(ctx context.Context) error {
	if m.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if m.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}
	if m.Quantity.IsNegative() {
		return apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity")
	}
	if m.MinStock.IsNegative() {
		return apperror.NewValidation("minStock cannot be negative").
			WithDetail("field", "minStock")
	}
	if m.CostPerUnit.IsNegative() {
		return apperror.NewValidation("costPerUnit cannot be negative").
			WithDetail("field", "costPerUnit")
	}
	return nil
}

// IsLowStock reports whether current stock is at or below the reorder
// threshold.
func (m *Material) IsLowStock() bool {
	return m.Quantity <= m.MinStock
}
