package stores

import (
	"context"
	"time"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/core/id"
)

// Store is a physical or logical warehouse location that documents
// move stock in and out of.
type Store struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address,omitempty"`
	IsDefault bool      `db:"is_default" json:"isDefault"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a store with a generated identifier.
func New(name string) *Store {
	now := time.Now().UTC()
	return &Store{
		ID:        id.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks required fields.
func (s *Store) Validate(_ context.Context) error {
	if s.Name == "" {
		return apperror.NewValidation("store name is required")
	}
	return nil
}

// Touch updates the modification timestamp.
func (s *Store) Touch() {
	s.UpdatedAt = time.Now().UTC()
}
