// Package sofamodel provides the product model catalog. Like workers,
// model names are snapshotted into ledger entries at write time.
package sofamodel

import (
	"context"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
)

// SofaModel is a produced furniture model.
type SofaModel struct {
	ID        id.ID     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// New creates a model.
func New(name string) *SofaModel {
	return &SofaModel{
		ID:        id.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// Repository defines whole-collection persistence for models.
type Repository interface {
	LoadAll(ctx context.Context) ([]SofaModel, error)
	SaveAll(ctx context.Context, items []SofaModel) error
}

// Service provides model CRUD.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a model service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Create appends a new model.
func (s *Service) Create(ctx context.Context, m *SofaModel) error {
	if m.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.repo.LoadAll(ctx)
		if err != nil {
			return err
		}
		return s.repo.SaveAll(ctx, append(items, *m))
	})
}

// GetByID retrieves a model.
func (s *Service) GetByID(ctx context.Context, modelID id.ID) (SofaModel, error) {
	items, err := s.repo.LoadAll(ctx)
	if err != nil {
		return SofaModel{}, err
	}
	for _, m := range items {
		if m.ID == modelID {
			return m, nil
		}
	}
	return SofaModel{}, apperror.NewNotFound("sofa model", modelID.String())
}

// List returns all models.
func (s *Service) List(ctx context.Context) ([]SofaModel, error) {
	return s.repo.LoadAll(ctx)
}

// Rename changes a model's name. Ledger snapshots keep the old name.
func (s *Service) Rename(ctx context.Context, modelID id.ID, name string) error {
	if name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.repo.LoadAll(ctx)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == modelID {
				items[i].Name = name
				return s.repo.SaveAll(ctx, items)
			}
		}
		return apperror.NewNotFound("sofa model", modelID.String())
	})
}

// Delete removes a model. Ledger snapshots are unaffected.
func (s *Service) Delete(ctx context.Context, modelID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.repo.LoadAll(ctx)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == modelID {
				return s.repo.SaveAll(ctx, append(items[:i], items[i+1:]...))
			}
		}
		return apperror.NewNotFound("sofa model", modelID.String())
	})
}
