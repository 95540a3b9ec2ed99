package stock

import (
	"context"
	"fmt"
	"time"

	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
)

// BalanceOptions refine a balance computation.
type BalanceOptions struct {
	// AsOf limits the sum to lines conducted at or before the cutoff
	AsOf *time.Time

	// AsOfExclusive makes the cutoff strict (conductedAt < AsOf)
	AsOfExclusive bool

	// ExcludeDocumentID removes one document's contribution
	ExcludeDocumentID *id.ID
}

// Calculator computes signed on-hand balances from posted movements.
// Pure aggregation, no side effects.
type Calculator struct {
	repo Repository
}

// NewCalculator creates a balance calculator.
func NewCalculator(repo Repository) *Calculator {
	return &Calculator{repo: repo}
}

// Balance returns sum(posted inbound) - sum(posted outbound) for the
// product within the store. The result is an exact decimal; callers
// compare at 3-decimal granularity via types.RoundQuantity.
func (c *Calculator) Balance(ctx context.Context, productID int64, storeID id.ID, opts BalanceOptions) (types.Quantity, error) {
	f := SumFilter{
		ProductID:         productID,
		StoreID:           storeID,
		ExcludeDocumentID: opts.ExcludeDocumentID,
		AsOf:              opts.AsOf,
		AsOfExclusive:     opts.AsOfExclusive,
	}

	in, err := c.repo.SumPostedQuantity(ctx, Inbound, f)
	if err != nil {
		return types.Zero(), fmt.Errorf("sum inbound: %w", err)
	}

	out, err := c.repo.SumPostedQuantity(ctx, Outbound, f)
	if err != nil {
		return types.Zero(), fmt.Errorf("sum outbound: %w", err)
	}

	return in.Sub(out), nil
}
