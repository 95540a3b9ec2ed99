package stores

import (
	"context"

	"stockdocs/internal/core/id"
	"stockdocs/internal/core/tx"
	"stockdocs/pkg/logger"
)

// Service provides store catalog operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a store service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create persists a new store.
func (s *Service) Create(ctx context.Context, store *Store) error {
	if err := store.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, store)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "store created", "id", store.ID, "name", store.Name)
	return nil
}

// GetByID retrieves a store.
func (s *Service) GetByID(ctx context.Context, storeID id.ID) (*Store, error) {
	return s.repo.GetByID(ctx, storeID)
}

// Update modifies a store.
func (s *Service) Update(ctx context.Context, store *Store) error {
	if err := store.Validate(ctx); err != nil {
		return err
	}
	store.Touch()

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, store)
	})
}

// Delete removes a store.
func (s *Service) Delete(ctx context.Context, storeID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, storeID)
	})
}

// List returns all stores ordered by name.
func (s *Service) List(ctx context.Context) ([]Store, error) {
	return s.repo.List(ctx)
}
