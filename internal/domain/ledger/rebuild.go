package ledger

import (
	"context"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/pkg/logger"
)

// DriftEntry compares a material's stored quantity against the value a
// clean replay of its ledger history produces.
type DriftEntry struct {
	MaterialID   id.ID          `json:"materialId"`
	MaterialName string         `json:"materialName"`
	Stored       types.Quantity `json:"stored"`
	Computed     types.Quantity `json:"computed"`
}

// Drift returns stored minus computed.
func (d DriftEntry) Drift() types.Quantity {
	return d.Stored - d.Computed
}

// HasDrift reports whether the stored value diverges from the replay.
func (d DriftEntry) HasDrift() bool {
	return d.Stored != d.Computed
}

// Rebuild recomputes every material's quantity by replaying its ledger
// rows from zero, clamping at each step the way live application would
// have. The result is compared with the stored materialized value.
//
// Drift accumulates from two sources: clamp-then-rollback sequences and
// the unaudited adjustment channel, which moves stock without leaving a
// ledger row. With repair true, stored quantities are overwritten with
// the replayed values; unaudited adjustments are lost in that case,
// which is exactly what makes them unaudited.
func (s *Service) Rebuild(ctx context.Context, repair bool) ([]DriftEntry, error) {
	var report []DriftEntry

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		materials, err := s.materials.LoadAll(ctx)
		if err != nil {
			return err
		}
		ledger, err := s.transactions.LoadAll(ctx)
		if err != nil {
			return err
		}

		byMaterial := make(map[id.ID][]StockTransaction)
		for _, t := range ledger {
			byMaterial[t.MaterialID] = append(byMaterial[t.MaterialID], t)
		}

		changed := false
		for i := range materials {
			m := &materials[i]
			computed := s.rec.Fold(0, byMaterial[m.ID])

			entry := DriftEntry{
				MaterialID:   m.ID,
				MaterialName: m.Name,
				Stored:       m.Quantity,
				Computed:     computed,
			}
			report = append(report, entry)

			if entry.HasDrift() {
				logger.Warn(ctx, "materialized quantity drift detected",
					"material_id", m.ID,
					"stored", entry.Stored,
					"computed", entry.Computed,
				)
				if repair {
					m.Quantity = computed
					m.Touch()
					changed = true
				}
			}
		}

		if changed {
			if err := s.materials.SaveAll(ctx, materials); err != nil {
				return err
			}
			logger.Info(ctx, "materialized quantities repaired from ledger")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
