package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
	"stockdocs/internal/domain/documents"
)

const (
	documentsTable = "documents"
	linesTable     = "document_lines"
)

var documentColumns = []string{
	"id", "kind", "number", "date", "conducted_at", "status",
	"store_id", "responsible", "external_org_id", "external_org_name",
	"external_partner_id", "partner_name", "external_deal_id",
	"total_sum", "version", "created_at", "updated_at",
}

var lineColumns = []string{
	"line_id", "line_no", "external_product_id", "product_name",
	"quantity", "unit", "unit_price", "location_count",
}

// DocumentRepo implements documents.Repository over the shared
// documents and document_lines tables. All four kinds live in one
// table discriminated by the kind column.
type DocumentRepo struct {
	txm *TxManager
}

// NewDocumentRepo creates a document repository.
func NewDocumentRepo(txm *TxManager) *DocumentRepo {
	return &DocumentRepo{txm: txm}
}

func (r *DocumentRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a document header.
func (r *DocumentRepo) Create(ctx context.Context, doc *documents.Document) error {
	q := r.builder().
		Insert(documentsTable).
		Columns(documentColumns...).
		Values(
			doc.ID, doc.Kind, doc.Number, doc.Date, doc.ConductedAt, doc.Status,
			doc.StoreID, doc.Responsible, doc.ExternalOrgID, doc.ExternalOrgName,
			doc.ExternalPartnerID, doc.PartnerName, doc.ExternalDealID,
			doc.TotalSum, doc.Version, doc.CreatedAt, doc.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetByID retrieves a document header by kind and id.
func (r *DocumentRepo) GetByID(ctx context.Context, kind documents.Kind, docID id.ID) (*documents.Document, error) {
	q := r.builder().
		Select(documentColumns...).
		From(documentsTable).
		Where(squirrel.Eq{"id": docID, "kind": kind})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var doc documents.Document
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &doc, sql, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound(kind.EntityName(), docID)
		}
		return nil, fmt.Errorf("select document: %w", err)
	}

	return &doc, nil
}

// Update rewrites a document header with optimistic locking on the
// version column.
func (r *DocumentRepo) Update(ctx context.Context, doc *documents.Document) error {
	q := r.builder().
		Update(documentsTable).
		SetMap(map[string]any{
			"number":              doc.Number,
			"date":                doc.Date,
			"conducted_at":        doc.ConductedAt,
			"status":              doc.Status,
			"store_id":            doc.StoreID,
			"responsible":         doc.Responsible,
			"external_org_id":     doc.ExternalOrgID,
			"external_org_name":   doc.ExternalOrgName,
			"external_partner_id": doc.ExternalPartnerID,
			"partner_name":        doc.PartnerName,
			"external_deal_id":    doc.ExternalDealID,
			"total_sum":           doc.TotalSum,
			"version":             doc.Version + 1,
			"updated_at":          doc.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": doc.ID, "kind": doc.Kind, "version": doc.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConflict(fmt.Sprintf("%s %s was modified concurrently", doc.Kind.EntityName(), doc.ID))
	}

	doc.Version++
	return nil
}

// Delete removes a document; lines go with it via cascade.
func (r *DocumentRepo) Delete(ctx context.Context, kind documents.Kind, docID id.ID) error {
	q := r.builder().
		Delete(documentsTable).
		Where(squirrel.Eq{"id": docID, "kind": kind})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(kind.EntityName(), docID)
	}
	return nil
}

// GetLines retrieves a document's lines ordered by line number.
func (r *DocumentRepo) GetLines(ctx context.Context, docID id.ID) ([]documents.Line, error) {
	q := r.builder().
		Select(lineColumns...).
		From(linesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var lines []documents.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select lines: %w", err)
	}

	return lines, nil
}

// SaveLines replaces a document's full line set.
func (r *DocumentRepo) SaveLines(ctx context.Context, docID id.ID, lines []documents.Line) error {
	del := r.builder().
		Delete(linesTable).
		Where(squirrel.Eq{"document_id": docID})

	sql, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	ins := r.builder().
		Insert(linesTable).
		Columns(append([]string{"document_id"}, lineColumns...)...)

	for i, line := range lines {
		lineID := line.LineID
		if id.IsNil(lineID) {
			lineID = id.New()
		}
		lineNo := line.LineNo
		if lineNo == 0 {
			lineNo = i + 1
		}
		ins = ins.Values(
			docID, lineID, lineNo, line.ExternalProductID, line.ProductName,
			line.Quantity, line.Unit, line.UnitPrice, line.LocationCount,
		)
	}

	sql, args, err = ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// List retrieves documents of one kind with filtering and pagination.
func (r *DocumentRepo) List(ctx context.Context, kind documents.Kind, filter documents.ListFilter) (documents.ListResult, error) {
	where := squirrel.And{squirrel.Eq{"kind": kind}}

	if filter.Status != "" {
		where = append(where, squirrel.Eq{"status": filter.Status})
	}
	if filter.StoreID != nil {
		where = append(where, squirrel.Eq{"store_id": *filter.StoreID})
	}
	if filter.DateFrom != nil {
		where = append(where, squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		where = append(where, squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.ConductedFrom != nil {
		where = append(where, squirrel.GtOrEq{"conducted_at": *filter.ConductedFrom})
	}
	if filter.ConductedTo != nil {
		where = append(where, squirrel.LtOrEq{"conducted_at": *filter.ConductedTo})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"partner_name": pattern},
		})
	}

	countQ := r.builder().
		Select("COUNT(*)").
		From(documentsTable).
		Where(where)

	sql, args, err := countQ.ToSql()
	if err != nil {
		return documents.ListResult{}, fmt.Errorf("build count: %w", err)
	}

	var total int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return documents.ListResult{}, fmt.Errorf("count documents: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	listQ := r.builder().
		Select(documentColumns...).
		From(documentsTable).
		Where(where).
		OrderBy("date DESC", "number DESC").
		Limit(uint64(limit)).
		Offset(uint64(filter.Offset))

	sql, args, err = listQ.ToSql()
	if err != nil {
		return documents.ListResult{}, fmt.Errorf("build select: %w", err)
	}

	var items []*documents.Document
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return documents.ListResult{}, fmt.Errorf("select documents: %w", err)
	}

	return documents.ListResult{
		Items:      items,
		TotalCount: total,
		Limit:      limit,
		Offset:     filter.Offset,
	}, nil
}

// LastReceiptPrice returns the unit price from the most recently
// conducted receipt line for the partner and product pair.
func (r *DocumentRepo) LastReceiptPrice(ctx context.Context, partnerID, productID int64) (types.Money, bool, error) {
	q := r.builder().
		Select("l.unit_price").
		From(linesTable + " l").
		Join(documentsTable + " d ON d.id = l.document_id").
		Where(squirrel.Eq{
			"d.kind":                documents.KindReceipt,
			"d.status":              documents.StatusPosted,
			"d.external_partner_id": partnerID,
			"l.external_product_id": productID,
		}).
		OrderBy("d.conducted_at DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return types.Zero(), false, fmt.Errorf("build select: %w", err)
	}

	var price types.Money
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Zero(), false, nil
		}
		return types.Zero(), false, fmt.Errorf("select last price: %w", err)
	}

	return price, true, nil
}
