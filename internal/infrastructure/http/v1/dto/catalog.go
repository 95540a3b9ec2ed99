package dto

import (
	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
	"stockdocs/internal/domain/reservations"
	"stockdocs/internal/domain/stores"
)

// StoreRequest is the create/update payload for a store.
type StoreRequest struct {
	Name      string `json:"name" binding:"required"`
	Address   string `json:"address"`
	IsDefault bool   `json:"isDefault"`
}

// ToModel converts the request into a new store.
func (r StoreRequest) ToModel() *stores.Store {
	store := stores.New(r.Name)
	store.Address = r.Address
	store.IsDefault = r.IsDefault
	return store
}

// Apply copies the request onto an existing store.
func (r StoreRequest) Apply(store *stores.Store) {
	store.Name = r.Name
	store.Address = r.Address
	store.IsDefault = r.IsDefault
}

// ReservationRequest is the create/update payload for a reservation.
type ReservationRequest struct {
	StoreID           string         `json:"storeId" binding:"required"`
	ExternalProductID int64          `json:"productId" binding:"required"`
	ProductName       string         `json:"productName"`
	Quantity          types.Quantity `json:"quantity" binding:"required"`
	ExternalDealID    *int64         `json:"dealId"`
	Comment           string         `json:"comment"`
}

// ToModel converts the request into a new reservation.
func (r ReservationRequest) ToModel() (*reservations.Reservation, error) {
	storeID, err := id.Parse(r.StoreID)
	if err != nil {
		return nil, err
	}

	res := reservations.New(storeID, r.ExternalProductID, r.Quantity)
	res.ProductName = r.ProductName
	res.ExternalDealID = r.ExternalDealID
	res.Comment = r.Comment
	return res, nil
}

// Apply copies the request onto an existing reservation.
func (r ReservationRequest) Apply(res *reservations.Reservation) error {
	storeID, err := id.Parse(r.StoreID)
	if err != nil {
		return err
	}

	res.StoreID = storeID
	res.ExternalProductID = r.ExternalProductID
	res.ProductName = r.ProductName
	res.Quantity = r.Quantity
	res.ExternalDealID = r.ExternalDealID
	res.Comment = r.Comment
	return nil
}
