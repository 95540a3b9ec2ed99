package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockdocs/internal/core/types"
	"stockdocs/internal/domain/documents"
	"stockdocs/internal/domain/stock"
)

// StockRepo implements stock.Repository with a single aggregate over
// the shared line table.
type StockRepo struct {
	txm *TxManager
}

// NewStockRepo creates a stock repository.
func NewStockRepo(txm *TxManager) *StockRepo {
	return &StockRepo{txm: txm}
}

// SumPostedQuantity sums posted line quantities for one movement
// direction.
func (r *StockRepo) SumPostedQuantity(ctx context.Context, direction stock.Direction, f stock.SumFilter) (types.Quantity, error) {
	var kinds []documents.Kind
	for _, k := range documents.Kinds() {
		if k.Direction() == direction {
			kinds = append(kinds, k)
		}
	}

	where := squirrel.And{
		squirrel.Eq{"d.kind": kinds},
		squirrel.Eq{"d.status": documents.StatusPosted},
		squirrel.Eq{"d.store_id": f.StoreID},
		squirrel.Eq{"l.external_product_id": f.ProductID},
	}
	if f.ExcludeDocumentID != nil {
		where = append(where, squirrel.NotEq{"d.id": *f.ExcludeDocumentID})
	}
	if f.AsOf != nil {
		if f.AsOfExclusive {
			where = append(where, squirrel.Lt{"d.conducted_at": *f.AsOf})
		} else {
			where = append(where, squirrel.LtOrEq{"d.conducted_at": *f.AsOf})
		}
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("COALESCE(SUM(l.quantity), 0)").
		From(linesTable + " l").
		Join(documentsTable + " d ON d.id = l.document_id").
		Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build sum: %w", err)
	}

	var sum types.Quantity
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return types.Zero(), fmt.Errorf("sum posted quantity: %w", err)
	}

	return sum, nil
}
