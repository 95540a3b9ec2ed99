// Package stock provides the balance calculator and the stock
// validator guarding document conduction.
package stock

import (
	"context"
	"time"

	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
)

// SumFilter scopes an aggregate quantity query over posted lines.
type SumFilter struct {
	ProductID int64
	StoreID   id.ID

	// ExcludeDocumentID removes one document's contribution
	ExcludeDocumentID *id.ID

	// AsOf keeps only lines with conductedAt <= AsOf
	// (or < AsOf when AsOfExclusive is set).
	AsOf         *time.Time
	AsOfExclusive bool
}

// Repository aggregates quantities over Posted movement lines.
type Repository interface {
	// SumPostedQuantity sums line quantities over all posted documents
	// of the given direction matching the filter.
	SumPostedQuantity(ctx context.Context, direction Direction, f SumFilter) (types.Quantity, error)
}
