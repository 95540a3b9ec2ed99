package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockdocs/internal/domain/documents"
	"stockdocs/internal/domain/reports"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm *TxManager
}

// NewReportRepo creates a report repository.
func NewReportRepo(txm *TxManager) *ReportRepo {
	return &ReportRepo{txm: txm}
}

// PostedLines reads posted document lines joined with their headers,
// ordered by conduction time for deterministic replay.
func (r *ReportRepo) PostedLines(ctx context.Context, q reports.LineQuery) ([]reports.LineFact, error) {
	where := squirrel.And{
		squirrel.Eq{"d.status": documents.StatusPosted},
		squirrel.Eq{"d.store_id": q.StoreID},
	}
	if len(q.Kinds) > 0 {
		where = append(where, squirrel.Eq{"d.kind": q.Kinds})
	}
	if q.ProductID != nil {
		where = append(where, squirrel.Eq{"l.external_product_id": *q.ProductID})
	}
	if q.DocDateFrom != nil {
		where = append(where, squirrel.GtOrEq{"d.date": *q.DocDateFrom})
	}
	if q.DocDateTo != nil {
		where = append(where, squirrel.LtOrEq{"d.date": *q.DocDateTo})
	}
	if q.ConductedFrom != nil {
		where = append(where, squirrel.GtOrEq{"d.conducted_at": *q.ConductedFrom})
	}
	if q.ConductedTo != nil {
		where = append(where, squirrel.LtOrEq{"d.conducted_at": *q.ConductedTo})
	}
	if q.ConductedBefore != nil {
		where = append(where, squirrel.Lt{"d.conducted_at": *q.ConductedBefore})
	}

	sq := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(
			"l.document_id", "d.kind", "d.number", "d.partner_name",
			"d.date", "d.conducted_at",
			"l.external_product_id", "l.product_name", "l.unit",
			"l.quantity", "l.unit_price",
		).
		From(linesTable + " l").
		Join(documentsTable + " d ON d.id = l.document_id").
		Where(where).
		OrderBy("d.conducted_at", "d.number", "l.line_no")

	sql, args, err := sq.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var facts []reports.LineFact
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &facts, sql, args...); err != nil {
		return nil, fmt.Errorf("select posted lines: %w", err)
	}

	return facts, nil
}
