package stores

import (
	"context"

	"stockdocs/internal/core/id"
)

// Repository defines persistence for the store catalog.
type Repository interface {
	Create(ctx context.Context, store *Store) error
	GetByID(ctx context.Context, storeID id.ID) (*Store, error)
	Update(ctx context.Context, store *Store) error
	Delete(ctx context.Context, storeID id.ID) error
	List(ctx context.Context) ([]Store, error)
}
