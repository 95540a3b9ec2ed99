package reservations

import (
	"context"

	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
)

// ListFilter narrows reservation listings.
type ListFilter struct {
	StoreID   *id.ID
	ProductID *int64
	DealID    *int64
}

// Repository defines persistence for reservations.
type Repository interface {
	Create(ctx context.Context, res *Reservation) error
	GetByID(ctx context.Context, resID id.ID) (*Reservation, error)
	Update(ctx context.Context, res *Reservation) error
	Delete(ctx context.Context, resID id.ID) error
	List(ctx context.Context, filter ListFilter) ([]Reservation, error)
	// SumReserved returns the total reserved quantity for a product
	// in a store across all reservations.
	SumReserved(ctx context.Context, storeID id.ID, productID int64) (types.Quantity, error)
}
