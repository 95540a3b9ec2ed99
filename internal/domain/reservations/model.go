package reservations

import (
	"context"
	"time"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
)

// Reservation holds a quantity of a product aside for an external
// deal without moving it out of the store balance.
type Reservation struct {
	ID                id.ID          `db:"id" json:"id"`
	StoreID           id.ID          `db:"store_id" json:"storeId"`
	ExternalProductID int64          `db:"external_product_id" json:"productId"`
	ProductName       string         `db:"product_name" json:"productName"`
	Quantity          types.Quantity `db:"quantity" json:"quantity"`
	ExternalDealID    *int64         `db:"external_deal_id" json:"dealId,omitempty"`
	Comment           string         `db:"comment" json:"comment,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`
}

// New creates a reservation with a generated identifier.
func New(storeID id.ID, productID int64, quantity types.Quantity) *Reservation {
	now := time.Now().UTC()
	return &Reservation{
		ID:                id.New(),
		StoreID:           storeID,
		ExternalProductID: productID,
		Quantity:          quantity,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Validate checks required fields.
func (r *Reservation) Validate(_ context.Context) error {
	if id.IsNil(r.StoreID) {
		return apperror.NewValidation("store is required")
	}
	if r.ExternalProductID == 0 {
		return apperror.NewValidation("product is required")
	}
	if !r.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive")
	}
	return nil
}

// Touch updates the modification timestamp.
func (r *Reservation) Touch() {
	r.UpdatedAt = time.Now().UTC()
}
