// Package ledger provides the stock ledger: the history of stock
// movements and the reconciliation logic that keeps each material's
// materialized quantity consistent with that history.
package ledger

import (
	"context"
	"fmt"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// MovementType is the direction of a stock movement.
type MovementType string

const (
	// MovementIn increases stock.
	MovementIn MovementType = "in"
	// MovementOut decreases stock.
	MovementOut MovementType = "out"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut
}

// Invert returns the opposite direction.
func (t MovementType) Invert() MovementType {
	if t == MovementIn {
		return MovementOut
	}
	return MovementIn
}

// StockTransaction is one recorded movement against one material.
//
// The record stores everything rollback needs: its own type, quantity
// and material reference. Rollback always reads these stored values,
// never the material's current state, so it stays correct even after
// the material's other fields change.
//
// Worker, model and material names are snapshotted at write time.
// Renaming the source record later does not rewrite history; that is an
// audit-trail property, not a bug.
type StockTransaction struct {
	ID id.ID `json:"id"`

	// MaterialID is a plain reference; there is no cascading delete. If
	// the material record is removed, this transaction becomes an orphan
	// and its rollback degrades to a no-op on the quantity step.
	MaterialID   id.ID  `json:"materialId"`
	MaterialName string `json:"materialName"`

	Type MovementType `json:"type"`

	// Quantity is a positive magnitude; direction is carried by Type.
	Quantity types.Quantity `json:"quantity"`

	// Date is the business-effective date, independent of CreatedAt.
	Date time.Time `json:"date"`

	WorkerID   *id.ID  `json:"workerId,omitempty"`
	WorkerName *string `json:"workerName,omitempty"`

	SofaModelID   *id.ID  `json:"sofaModelId,omitempty"`
	SofaModelName *string `json:"sofaModelName,omitempty"`

	// SofaDetails is a derived display string ("Model (3 units)").
	// Recomputed whenever the model reference or the note changes.
	SofaDetails *string `json:"sofaDetails,omitempty"`

	// Note replaces the historically overloaded free-text/number field
	// with a tagged value.
	Note *Note `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// SignedQuantity returns the quantity with its direction applied:
// positive for in, negative for out.
func (t *StockTransaction) SignedQuantity() types.Quantity {
	if t.Type == MovementOut {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

// Validate implements entity.Validatable.
func (t *StockTransaction) Validate(ctx context.Context) error {
	if id.IsNil(t.MaterialID) {
		return apperror.NewValidation("materialId is required").
			WithDetail("field", "materialId")
	}
	if !t.Type.Valid() {
		return apperror.NewValidation(fmt.Sprintf("invalid movement type %q", t.Type)).
			WithDetail("field", "type")
	}
	if !t.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if t.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// deriveSofaDetails builds the display string from a model name snapshot
// and the units-produced note. Returns nil when there is no model.
func deriveSofaDetails(modelName *string, note *Note) *string {
	if modelName == nil || *modelName == "" {
		return nil
	}
	details := *modelName
	if note != nil && note.Kind == NoteCount && note.Count > 0 {
		unit := "units"
		if note.Count == 1 {
			unit = "unit"
		}
		details = fmt.Sprintf("%s (%d %s)", details, note.Count, unit)
	}
	return &details
}
