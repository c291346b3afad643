package ledger

import (
	"context"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/audit"
	"stockbook/internal/domain/catalogs/material"
	"stockbook/internal/domain/catalogs/sofamodel"
	"stockbook/internal/domain/catalogs/worker"
	"stockbook/pkg/logger"
)

// Service orchestrates the stock ledger and the reconciler.
//
// The failure modes here are deliberately quiet: unresolved materials in
// a batch are skipped, missing rollback or edit targets are no-ops, and
// the clamp discards overflow without raising. Nothing in this service
// aborts the process. Callers validate input before invoking it.
type Service struct {
	transactions Repository
	materials    material.Repository
	workers      worker.Repository
	sofaModels   sofamodel.Repository
	rec          Reconciler
	txm          tx.Manager
	journal      audit.Recorder
}

// NewService creates a ledger service. journal may be nil.
func NewService(
	transactions Repository,
	materials material.Repository,
	workers worker.Repository,
	sofaModels sofamodel.Repository,
	rec Reconciler,
	txm tx.Manager,
	journal audit.Recorder,
) *Service {
	if journal == nil {
		journal = audit.Nop{}
	}
	return &Service{
		transactions: transactions,
		materials:    materials,
		workers:      workers,
		sofaModels:   sofaModels,
		rec:          rec,
		txm:          txm,
		journal:      journal,
	}
}

// Reconciler returns the configured reconciler.
func (s *Service) Reconciler() Reconciler { return s.rec }

// LineItem is one line of a batch stock operation.
type LineItem struct {
	MaterialID  id.ID
	Quantity    types.Quantity
	WorkerID    *id.ID
	SofaModelID *id.ID
	SofaDetails *string
}

// LogStock records a batch of stock movements sharing one direction and
// one business date.
//
// Per-line behavior: the material is resolved; if it does not exist the
// line is skipped silently and the batch continues. Worker and model
// names are resolved and snapshotted into the new transaction. The
// units-produced note attaches only to the first line of the input list;
// if that line is skipped, the note is dropped with it. Lines hitting
// the same material apply in list order, each clamped independently;
// deltas are not aggregated first.
//
// If no line resolves, nothing is written at all. Otherwise the new
// transactions and the updated materials are saved together.
func (s *Service) LogStock(
	ctx context.Context,
	items []LineItem,
	movementType MovementType,
	unitsProduced int64,
	date *time.Time,
) ([]StockTransaction, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if !movementType.Valid() {
		return nil, apperror.NewValidation("invalid movement type").
			WithDetail("type", string(movementType))
	}

	businessDate := time.Now().UTC()
	if date != nil {
		businessDate = date.UTC()
	}

	var created []StockTransaction
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		materials, err := s.materials.LoadAll(ctx)
		if err != nil {
			return err
		}
		workerNames, err := s.workerNames(ctx)
		if err != nil {
			return err
		}
		modelNames, err := s.modelNames(ctx)
		if err != nil {
			return err
		}

		for idx, item := range items {
			mi := materialIndex(materials, item.MaterialID)
			if mi < 0 {
				logger.Debug(ctx, "batch line skipped: material not found",
					"material_id", item.MaterialID, "line", idx)
				continue
			}
			m := &materials[mi]

			txn := StockTransaction{
				ID:           id.New(),
				MaterialID:   m.ID,
				MaterialName: m.Name,
				Type:         movementType,
				Quantity:     item.Quantity,
				Date:         businessDate,
				WorkerID:     item.WorkerID,
				SofaModelID:  item.SofaModelID,
				SofaDetails:  item.SofaDetails,
				CreatedAt:    time.Now().UTC(),
			}
			if idx == 0 {
				txn.Note = CountNote(unitsProduced)
			}
			if item.WorkerID != nil {
				if name, ok := workerNames[*item.WorkerID]; ok {
					txn.WorkerName = &name
				}
			}
			if item.SofaModelID != nil {
				if name, ok := modelNames[*item.SofaModelID]; ok {
					txn.SofaModelName = &name
				}
			}
			if txn.SofaDetails == nil {
				txn.SofaDetails = deriveSofaDetails(txn.SofaModelName, txn.Note)
			}

			if lost := s.rec.Apply(m, movementType, item.Quantity); lost.IsPositive() {
				logger.Warn(ctx, "stock clamped at zero, overflow discarded",
					"material_id", m.ID, "lost", lost)
			}

			created = append(created, txn)
		}

		if len(created) == 0 {
			return nil
		}

		ledger, err := s.transactions.LoadAll(ctx)
		if err != nil {
			return err
		}
		if err := s.materials.SaveAll(ctx, materials); err != nil {
			return err
		}
		return s.transactions.SaveAll(ctx, append(ledger, created...))
	})
	if err != nil {
		return nil, err
	}

	if len(created) > 0 {
		logger.Info(ctx, "stock batch recorded",
			"type", movementType,
			"lines", len(items),
			"recorded", len(created),
		)
	}
	return created, nil
}

// TransactionPatch carries partial updates for a transaction. Nil fields
// keep their prior value (merge, not replace).
type TransactionPatch struct {
	Quantity    *types.Quantity
	Type        *MovementType
	Date        *time.Time
	WorkerID    *id.ID
	SofaModelID *id.ID
	Note        *Note
}

// EditTransaction updates a transaction in place with a two-phase
// quantity reconciliation: first the prior recorded delta is undone,
// then the new delta, computed from the merged old-plus-patch values,
// is applied. Using merged values is the load-bearing detail: applying
// the raw patch would treat absent fields as zero.
//
// A missing transaction or a missing referenced material makes the whole
// operation a silent no-op.
func (s *Service) EditTransaction(ctx context.Context, txnID id.ID, patch TransactionPatch) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		ledger, err := s.transactions.LoadAll(ctx)
		if err != nil {
			return err
		}
		ti := transactionIndex(ledger, txnID)
		if ti < 0 {
			logger.Debug(ctx, "edit skipped: transaction not found", "id", txnID)
			return nil
		}
		txn := &ledger[ti]

		materials, err := s.materials.LoadAll(ctx)
		if err != nil {
			return err
		}
		mi := materialIndex(materials, txn.MaterialID)
		if mi < 0 {
			logger.Debug(ctx, "edit skipped: material not found",
				"id", txnID, "material_id", txn.MaterialID)
			return nil
		}
		m := &materials[mi]

		// Merge old values with the patch before touching anything.
		newType := txn.Type
		if patch.Type != nil {
			newType = *patch.Type
		}
		newQuantity := txn.Quantity
		if patch.Quantity != nil {
			newQuantity = *patch.Quantity
		}
		if !newType.Valid() {
			return apperror.NewValidation("invalid movement type").
				WithDetail("type", string(newType))
		}
		if !newQuantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "quantity")
		}

		// Phase 1: undo the prior recorded delta.
		if lost := s.rec.Undo(m, txn.Type, txn.Quantity); lost.IsPositive() {
			logger.Warn(ctx, "stock clamped at zero during undo, overflow discarded",
				"material_id", m.ID, "lost", lost)
		}
		// Phase 2: apply the merged new delta.
		if lost := s.rec.Apply(m, newType, newQuantity); lost.IsPositive() {
			logger.Warn(ctx, "stock clamped at zero, overflow discarded",
				"material_id", m.ID, "lost", lost)
		}

		txn.Type = newType
		txn.Quantity = newQuantity
		if patch.Date != nil {
			txn.Date = patch.Date.UTC()
		}
		if patch.WorkerID != nil {
			txn.WorkerID = patch.WorkerID
			txn.WorkerName = nil
			workerNames, err := s.workerNames(ctx)
			if err != nil {
				return err
			}
			if name, ok := workerNames[*patch.WorkerID]; ok {
				txn.WorkerName = &name
			}
		}
		if patch.SofaModelID != nil {
			txn.SofaModelID = patch.SofaModelID
			txn.SofaModelName = nil
			modelNames, err := s.modelNames(ctx)
			if err != nil {
				return err
			}
			if name, ok := modelNames[*patch.SofaModelID]; ok {
				txn.SofaModelName = &name
			}
		}
		if patch.Note != nil {
			txn.Note = patch.Note
		}
		// The display string derives from model name and note; refresh it
		// whenever either input moved.
		if patch.SofaModelID != nil || patch.Note != nil {
			txn.SofaDetails = deriveSofaDetails(txn.SofaModelName, txn.Note)
		}

		if err := s.materials.SaveAll(ctx, materials); err != nil {
			return err
		}
		if err := s.transactions.SaveAll(ctx, ledger); err != nil {
			return err
		}

		logger.Info(ctx, "transaction edited",
			"id", txnID, "material_id", m.ID,
			"type", newType, "quantity", newQuantity,
		)
		return nil
	})
}

// DeleteWithRollback reverses a transaction's quantity effect and then
// removes it from the ledger.
//
// The inverse delta comes from the transaction's own stored type and
// quantity, never from recomputation. If the referenced material no
// longer exists, the quantity step is skipped but the transaction is
// still removed (orphan-safe delete). A missing transaction is a silent
// no-op.
func (s *Service) DeleteWithRollback(ctx context.Context, txnID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		ledger, err := s.transactions.LoadAll(ctx)
		if err != nil {
			return err
		}
		ti := transactionIndex(ledger, txnID)
		if ti < 0 {
			logger.Debug(ctx, "delete skipped: transaction not found", "id", txnID)
			return nil
		}
		txn := ledger[ti]

		materials, err := s.materials.LoadAll(ctx)
		if err != nil {
			return err
		}
		if mi := materialIndex(materials, txn.MaterialID); mi >= 0 {
			m := &materials[mi]
			if lost := s.rec.Undo(m, txn.Type, txn.Quantity); lost.IsPositive() {
				logger.Warn(ctx, "stock clamped at zero during rollback, overflow discarded",
					"material_id", m.ID, "lost", lost)
			}
			if err := s.materials.SaveAll(ctx, materials); err != nil {
				return err
			}
		} else {
			logger.Debug(ctx, "orphaned transaction removed without quantity step",
				"id", txnID, "material_id", txn.MaterialID)
		}

		ledger = append(ledger[:ti], ledger[ti+1:]...)
		if err := s.transactions.SaveAll(ctx, ledger); err != nil {
			return err
		}

		logger.Info(ctx, "transaction deleted with rollback",
			"id", txnID, "material_id", txn.MaterialID,
			"type", txn.Type, "quantity", txn.Quantity,
		)
		return nil
	})
}

// AdjustWithoutRecord applies a signed quantity change to a material
// without writing a ledger entry. This is the unaudited adjustment
// channel consumed by sale confirmation: it shares the reconciler's
// clamp but leaves no movement to roll back. The only trace is the
// adjustment journal.
//
// A missing material is a silent no-op.
func (s *Service) AdjustWithoutRecord(ctx context.Context, materialID id.ID, change types.Quantity) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		materials, err := s.materials.LoadAll(ctx)
		if err != nil {
			return err
		}
		mi := materialIndex(materials, materialID)
		if mi < 0 {
			logger.Debug(ctx, "adjustment skipped: material not found", "material_id", materialID)
			return nil
		}
		m := &materials[mi]

		before := m.Quantity
		if lost := s.rec.ApplySigned(m, change); lost.IsPositive() {
			logger.Warn(ctx, "stock clamped at zero during adjustment, overflow discarded",
				"material_id", m.ID, "lost", lost)
		}

		if err := s.materials.SaveAll(ctx, materials); err != nil {
			return err
		}

		entry := audit.NewEntry(audit.KindUnauditedAdjustment, materialID, before, m.Quantity)
		if err := s.journal.Record(ctx, entry); err != nil {
			logger.Warn(ctx, "adjustment journal write failed", "error", err)
		}

		logger.Info(ctx, "unaudited adjustment applied",
			"material_id", materialID, "change", change,
			"before", before, "after", m.Quantity,
		)
		return nil
	})
}

// GetByID retrieves a transaction.
func (s *Service) GetByID(ctx context.Context, txnID id.ID) (StockTransaction, error) {
	ledger, err := s.transactions.LoadAll(ctx)
	if err != nil {
		return StockTransaction{}, err
	}
	if ti := transactionIndex(ledger, txnID); ti >= 0 {
		return ledger[ti], nil
	}
	return StockTransaction{}, apperror.NewNotFound("transaction", txnID.String())
}

// List returns the whole ledger in record order.
func (s *Service) List(ctx context.Context) ([]StockTransaction, error) {
	return s.transactions.LoadAll(ctx)
}

// ListByMaterial returns the ledger rows for one material in record order.
func (s *Service) ListByMaterial(ctx context.Context, materialID id.ID) ([]StockTransaction, error) {
	ledger, err := s.transactions.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []StockTransaction
	for _, t := range ledger {
		if t.MaterialID == materialID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Service) workerNames(ctx context.Context) (map[id.ID]string, error) {
	workers, err := s.workers.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[id.ID]string, len(workers))
	for _, w := range workers {
		names[w.ID] = w.Name
	}
	return names, nil
}

func (s *Service) modelNames(ctx context.Context) (map[id.ID]string, error) {
	models, err := s.sofaModels.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[id.ID]string, len(models))
	for _, m := range models {
		names[m.ID] = m.Name
	}
	return names, nil
}

func materialIndex(items []material.Material, materialID id.ID) int {
	for i := range items {
		if items[i].ID == materialID {
			return i
		}
	}
	return -1
}

func transactionIndex(items []StockTransaction, txnID id.ID) int {
	for i := range items {
		if items[i].ID == txnID {
			return i
		}
	}
	return -1
}
