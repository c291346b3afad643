// Package audit records quantity mutations that bypass the stock ledger.
//
// Two such channels exist: the manual quantity override on the material
// registry and the unaudited sale-decrement adjustment. Neither writes a
// ledger entry, so neither is reachable by rollback; the adjustment
// journal is the only trace they leave. The journal is write-only from
// the core's point of view and is never consulted by the reconciler.
package audit

import (
	"context"
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// Kind classifies the bypass channel.
type Kind string

const (
	// KindManualOverride is a raw quantity edit on the material registry.
	KindManualOverride Kind = "manual_override"
	// KindUnauditedAdjustment is a signed delta applied without a ledger
	// entry (sale confirmation).
	KindUnauditedAdjustment Kind = "unaudited_adjustment"
)

// Entry is one journal record.
type Entry struct {
	ID         id.ID          `json:"id"`
	Kind       Kind           `json:"kind"`
	MaterialID id.ID          `json:"materialId"`
	Before     types.Quantity `json:"before"`
	After      types.Quantity `json:"after"`

	// Payload carries free-form context (caller, reason). Serialized as
	// JSON by the recorder implementation.
	Payload map[string]any `json:"payload,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewEntry creates an entry with a generated ID and timestamp.
func NewEntry(kind Kind, materialID id.ID, before, after types.Quantity) Entry {
	return Entry{
		ID:         id.New(),
		Kind:       kind,
		MaterialID: materialID,
		Before:     before,
		After:      after,
		CreatedAt:  time.Now().UTC(),
	}
}

// Recorder persists journal entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop discards entries. Used with the file store, which has no journal
// table.
type Nop struct{}

// Record discards the entry.
func (Nop) Record(context.Context, Entry) error { return nil }

var _ Recorder = Nop{}
