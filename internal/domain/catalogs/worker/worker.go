// Package worker provides the worker catalog. Workers are referenced by
// stock transactions; their names are snapshotted into the ledger at
// write time, so renaming a worker never rewrites history.
package worker

import (
	"context"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
)

// Worker is a production worker.
type Worker struct {
	ID        id.ID     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// New creates an active worker.
func New(name string) *Worker {
	return &Worker{
		ID:        id.New(),
		Name:      name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
}

// Repository defines whole-collection persistence for workers.
type Repository interface {
	LoadAll(ctx context.Context) ([]Worker, error)
	SaveAll(ctx context.Context, items []Worker) error
}

// Service provides worker CRUD.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a worker service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Create appends a new worker.
func (s *Service) Create(ctx context.Context, w *Worker) error {
	if w.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.repo.LoadAll(ctx)
		if err != nil {
			return err
		}
		return s.repo.SaveAll(ctx, append(items, *w))
	})
}

// GetByID retrieves a worker.
func (s *Service) GetByID(ctx context.Context, workerID id.ID) (Worker, error) {
	items, err := s.repo.LoadAll(ctx)
	if err != nil {
		return Worker{}, err
	}
	for _, w := range items {
		if w.ID == workerID {
			return w, nil
		}
	}
	return Worker{}, apperror.NewNotFound("worker", workerID.String())
}

// List returns all workers.
func (s *Service) List(ctx context.Context) ([]Worker, error) {
	return s.repo.LoadAll(ctx)
}

// Rename changes a worker's name. Ledger snapshots keep the old name.
func (s *Service) Rename(ctx context.Context, workerID id.ID, name string) error {
	if name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.repo.LoadAll(ctx)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == workerID {
				items[i].Name = name
				return s.repo.SaveAll(ctx, items)
			}
		}
		return apperror.NewNotFound("worker", workerID.String())
	})
}

// SetActive toggles the active flag.
func (s *Service) SetActive(ctx context.Context, workerID id.ID, active bool) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.repo.LoadAll(ctx)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == workerID {
				items[i].Active = active
				return s.repo.SaveAll(ctx, items)
			}
		}
		return apperror.NewNotFound("worker", workerID.String())
	})
}

// Delete removes a worker. Ledger snapshots are unaffected.
func (s *Service) Delete(ctx context.Context, workerID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.repo.LoadAll(ctx)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == workerID {
				return s.repo.SaveAll(ctx, append(items[:i], items[i+1:]...))
			}
		}
		return apperror.NewNotFound("worker", workerID.String())
	})
}
