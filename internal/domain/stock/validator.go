package stock

import (
	"context"
	"fmt"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
)

// CandidateLine is one line of a document transition under validation.
type CandidateLine struct {
	ProductID   int64
	ProductName string
	Quantity    types.Quantity
}

// FailedProduct identifies a product whose projected balance would go
// negative.
type FailedProduct struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Result aggregates every failing line of a validation pass. Call
// sites decide the severity: conducting treats a non-ok result as a
// hard error, un-posting downgrades it to a warning list.
type Result struct {
	OK     bool
	Failed []FailedProduct
}

// Err converts a non-ok result into the hard-fail stock error.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	ids := make([]int64, 0, len(r.Failed))
	names := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.ID)
		names = append(names, f.Name)
	}
	return apperror.NewInsufficientStock(ids, names)
}

// Warnings returns the failing products as a warning list.
func (r Result) Warnings() []FailedProduct {
	if r.OK {
		return nil
	}
	return r.Failed
}

// Validator checks whether a candidate document transition would drive
// any product's projected balance negative.
type Validator struct {
	calc *Calculator
}

// NewValidator creates a stock validator.
func NewValidator(calc *Calculator) *Validator {
	return &Validator{calc: calc}
}

// Check projects each candidate line onto the current balance and
// collects every line whose projected balance rounds below zero.
// Inbound candidates add their quantity, outbound candidates subtract
// it; a projected balance of exactly zero after 3-decimal rounding is
// accepted. The excluded document's existing contribution is removed
// from the base so that re-conducting or un-posting is judged against
// the rest of the ledger.
func (v *Validator) Check(ctx context.Context, storeID id.ID, direction Direction, lines []CandidateLine, excludeDocID *id.ID) (Result, error) {
	result := Result{OK: true}

	for _, line := range lines {
		base, err := v.calc.Balance(ctx, line.ProductID, storeID, BalanceOptions{
			ExcludeDocumentID: excludeDocID,
		})
		if err != nil {
			return Result{}, fmt.Errorf("balance for product %d: %w", line.ProductID, err)
		}

		var projected types.Quantity
		if direction == Outbound {
			projected = base.Sub(line.Quantity)
		} else {
			projected = base.Add(line.Quantity)
		}

		if types.IsNegativeBalance(projected) {
			result.OK = false
			result.Failed = append(result.Failed, FailedProduct{
				ID:   line.ProductID,
				Name: line.ProductName,
			})
		}
	}

	return result, nil
}

// UnpostProbe checks whether removing the document's contribution
// leaves every touched product non-negative for the remaining
// consumers. Implemented as a zero-quantity check with the document
// excluded: the base balance without the document must itself stay
// above zero.
func (v *Validator) UnpostProbe(ctx context.Context, storeID id.ID, lines []CandidateLine, docID id.ID) (Result, error) {
	probes := make([]CandidateLine, 0, len(lines))
	for _, l := range lines {
		probes = append(probes, CandidateLine{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    types.Zero(),
		})
	}
	return v.Check(ctx, storeID, Inbound, probes, &docID)
}
