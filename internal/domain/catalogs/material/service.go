package material

import (
	"context"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/audit"
	"stockbook/pkg/logger"
)

// Service provides CRUD over the material registry.
//
// No operation here enforces the ledger invariant; that responsibility
// belongs to the reconciler. OverrideQuantity is the one registry
// operation that touches Quantity directly, and it is a manual override,
// not an audited movement.
type Service struct {
	repo    Repository
	txm     tx.Manager
	journal audit.Recorder
}

// NewService creates a material service. journal may be nil.
func NewService(repo Repository, txm tx.Manager, journal audit.Recorder) *Service {
	if journal == nil {
		journal = audit.Nop{}
	}
	return &Service{repo: repo, txm: txm, journal: journal}
}

// Patch carries partial updates for a material. Nil fields keep their
// prior value (merge semantics). Quantity is deliberately absent: stock
// levels change through the ledger or through OverrideQuantity.
type Patch struct {
	Name        *string
	Category    *string
	Unit        *string
	MinStock    *types.Quantity
	CostPerUnit *types.Money
	Supplier    *string
}

// Create validates and appends a new material.
func (s *Service) Create(ctx context.Context, m *Material) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.repo.LoadAll(ctx)
		if err != nil {
			return err
		}
		items = append(items, *m)
		if err := s.repo.SaveAll(ctx, items); err != nil {
			return err
		}
		logger.Info(ctx, "material created", "id", m.ID, "name", m.Name)
		return nil
	})
}

// GetByID retrieves a material.
func (s *Service) GetByID(ctx context.Context, materialID id.ID) (Material, error) {
	items, err := s.repo.LoadAll(ctx)
	if err != nil {
		return Material{}, err
	}
	for _, m := range items {
		if m.ID == materialID {
			return m, nil
		}
	}
	return Material{}, apperror.NewNotFound("material", materialID.String())
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]Material, error) {
	return s.repo.LoadAll(ctx)
}

// FindLowStock returns materials at or below their reorder threshold.
func (s *Service) FindLowStock(ctx context.Context) ([]Material, error) {
	items, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	var low []Material
	for _, m := range items {
		if m.IsLowStock() {
			low = append(low, m)
		}
	}
	return low, nil
}

// Update applies a partial update and refreshes UpdatedAt.
func (s *Service) Update(ctx context.Context, materialID id.ID, patch Patch) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.repo.LoadAll(ctx)
		if err != nil {
			return err
		}

		idx := indexOf(items, materialID)
		if idx < 0 {
			return apperror.NewNotFound("material", materialID.String())
		}

		m := &items[idx]
		if patch.Name != nil {
			m.Name = *patch.Name
		}
		if patch.Category != nil {
			m.Category = *patch.Category
		}
		if patch.Unit != nil {
			m.Unit = *patch.Unit
		}
		if patch.MinStock != nil {
			m.MinStock = *patch.MinStock
		}
		if patch.CostPerUnit != nil {
			m.CostPerUnit = *patch.CostPerUnit
		}
		if patch.Supplier != nil {
			m.Supplier = patch.Supplier
		}
		m.Touch()

		if err := m.Validate(ctx); err != nil {
			return err
		}
		return s.repo.SaveAll(ctx, items)
	})
}

// OverrideQuantity sets the stock level directly, bypassing the ledger.
// This is the sanctioned way to correct drift between the materialized
// quantity and ledger history. The change is journaled but produces no
// stock transaction, so it cannot be rolled back.
func (s *Service) OverrideQuantity(ctx context.Context, materialID id.ID, quantity types.Quantity) error {
	if quantity.IsNegative() {
		return apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity")
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.repo.LoadAll(ctx)
		if err != nil {
			return err
		}

		idx := indexOf(items, materialID)
		if idx < 0 {
			return apperror.NewNotFound("material", materialID.String())
		}

		m := &items[idx]
		before := m.Quantity
		m.Quantity = quantity
		m.Touch()

		if err := s.repo.SaveAll(ctx, items); err != nil {
			return err
		}

		entry := audit.NewEntry(audit.KindManualOverride, materialID, before, quantity)
		if err := s.journal.Record(ctx, entry); err != nil {
			logger.Warn(ctx, "adjustment journal write failed", "error", err)
		}

		logger.Info(ctx, "manual quantity override",
			"material_id", materialID,
			"before", before,
			"after", quantity,
		)
		return nil
	})
}

// Delete removes a material. Ledger entries referencing it become
// orphans; rolling them back later degrades to removing the entry
// without a quantity step.
func (s *Service) Delete(ctx context.Context, materialID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.repo.LoadAll(ctx)
		if err != nil {
			return err
		}

		idx := indexOf(items, materialID)
		if idx < 0 {
			return apperror.NewNotFound("material", materialID.String())
		}

		items = append(items[:idx], items[idx+1:]...)
		if err := s.repo.SaveAll(ctx, items); err != nil {
			return err
		}
		logger.Info(ctx, "material deleted", "id", materialID)
		return nil
	})
}

func indexOf(items []Material, materialID id.ID) int {
	for i := range items {
		if items[i].ID == materialID {
			return i
		}
	}
	return -1
}
