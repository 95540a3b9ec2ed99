package reservations

import (
	"context"

	"stockdocs/internal/core/id"
	"stockdocs/internal/core/tx"
	"stockdocs/internal/core/types"
	"stockdocs/pkg/logger"
)

// Service provides reservation operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a reservation service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create persists a new reservation.
func (s *Service) Create(ctx context.Context, res *Reservation) error {
	if err := res.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, res)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "reservation created",
		"id", res.ID,
		"product", res.ExternalProductID,
		"quantity", res.Quantity,
	)
	return nil
}

// GetByID retrieves a reservation.
func (s *Service) GetByID(ctx context.Context, resID id.ID) (*Reservation, error) {
	return s.repo.GetByID(ctx, resID)
}

// Update modifies a reservation.
func (s *Service) Update(ctx context.Context, res *Reservation) error {
	if err := res.Validate(ctx); err != nil {
		return err
	}
	res.Touch()

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, res)
	})
}

// Delete removes a reservation.
func (s *Service) Delete(ctx context.Context, resID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, resID)
	})
}

// List returns reservations matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Reservation, error) {
	return s.repo.List(ctx, filter)
}

// Reserved returns the total quantity of a product held by
// reservations in a store.
func (s *Service) Reserved(ctx context.Context, storeID id.ID, productID int64) (types.Quantity, error) {
	return s.repo.SumReserved(ctx, storeID, productID)
}
