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
	"stockdocs/internal/domain/reservations"
	"stockdocs/internal/domain/stores"
)

const (
	storesTable       = "stores"
	reservationsTable = "reservations"
)

// StoreRepo implements stores.Repository.
type StoreRepo struct {
	txm *TxManager
}

// NewStoreRepo creates a store repository.
func NewStoreRepo(txm *TxManager) *StoreRepo {
	return &StoreRepo{txm: txm}
}

func (r *StoreRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *StoreRepo) Create(ctx context.Context, store *stores.Store) error {
	q := r.builder().
		Insert(storesTable).
		Columns("id", "name", "address", "is_default", "created_at", "updated_at").
		Values(store.ID, store.Name, store.Address, store.IsDefault, store.CreatedAt, store.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert store: %w", err)
	}
	return nil
}

func (r *StoreRepo) GetByID(ctx context.Context, storeID id.ID) (*stores.Store, error) {
	q := r.builder().
		Select("id", "name", "address", "is_default", "created_at", "updated_at").
		From(storesTable).
		Where(squirrel.Eq{"id": storeID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var store stores.Store
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &store, sql, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("store", storeID)
		}
		return nil, fmt.Errorf("select store: %w", err)
	}
	return &store, nil
}

func (r *StoreRepo) Update(ctx context.Context, store *stores.Store) error {
	q := r.builder().
		Update(storesTable).
		SetMap(map[string]any{
			"name":       store.Name,
			"address":    store.Address,
			"is_default": store.IsDefault,
			"updated_at": store.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": store.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update store: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("store", store.ID)
	}
	return nil
}

func (r *StoreRepo) Delete(ctx context.Context, storeID id.ID) error {
	q := r.builder().
		Delete(storesTable).
		Where(squirrel.Eq{"id": storeID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("store", storeID)
	}
	return nil
}

func (r *StoreRepo) List(ctx context.Context) ([]stores.Store, error) {
	q := r.builder().
		Select("id", "name", "address", "is_default", "created_at", "updated_at").
		From(storesTable).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var out []stores.Store
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select stores: %w", err)
	}
	return out, nil
}

// ReservationRepo implements reservations.Repository.
type ReservationRepo struct {
	txm *TxManager
}

// NewReservationRepo creates a reservation repository.
func NewReservationRepo(txm *TxManager) *ReservationRepo {
	return &ReservationRepo{txm: txm}
}

func (r *ReservationRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

var reservationColumns = []string{
	"id", "store_id", "external_product_id", "product_name",
	"quantity", "external_deal_id", "comment", "created_at", "updated_at",
}

func (r *ReservationRepo) Create(ctx context.Context, res *reservations.Reservation) error {
	q := r.builder().
		Insert(reservationsTable).
		Columns(reservationColumns...).
		Values(
			res.ID, res.StoreID, res.ExternalProductID, res.ProductName,
			res.Quantity, res.ExternalDealID, res.Comment, res.CreatedAt, res.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepo) GetByID(ctx context.Context, resID id.ID) (*reservations.Reservation, error) {
	q := r.builder().
		Select(reservationColumns...).
		From(reservationsTable).
		Where(squirrel.Eq{"id": resID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var res reservations.Reservation
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &res, sql, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("reservation", resID)
		}
		return nil, fmt.Errorf("select reservation: %w", err)
	}
	return &res, nil
}

func (r *ReservationRepo) Update(ctx context.Context, res *reservations.Reservation) error {
	q := r.builder().
		Update(reservationsTable).
		SetMap(map[string]any{
			"store_id":            res.StoreID,
			"external_product_id": res.ExternalProductID,
			"product_name":        res.ProductName,
			"quantity":            res.Quantity,
			"external_deal_id":    res.ExternalDealID,
			"comment":             res.Comment,
			"updated_at":          res.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": res.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("reservation", res.ID)
	}
	return nil
}

func (r *ReservationRepo) Delete(ctx context.Context, resID id.ID) error {
	q := r.builder().
		Delete(reservationsTable).
		Where(squirrel.Eq{"id": resID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("reservation", resID)
	}
	return nil
}

func (r *ReservationRepo) List(ctx context.Context, filter reservations.ListFilter) ([]reservations.Reservation, error) {
	where := squirrel.And{}
	if filter.StoreID != nil {
		where = append(where, squirrel.Eq{"store_id": *filter.StoreID})
	}
	if filter.ProductID != nil {
		where = append(where, squirrel.Eq{"external_product_id": *filter.ProductID})
	}
	if filter.DealID != nil {
		where = append(where, squirrel.Eq{"external_deal_id": *filter.DealID})
	}

	q := r.builder().
		Select(reservationColumns...).
		From(reservationsTable).
		OrderBy("created_at DESC")
	if len(where) > 0 {
		q = q.Where(where)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var out []reservations.Reservation
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select reservations: %w", err)
	}
	return out, nil
}

func (r *ReservationRepo) SumReserved(ctx context.Context, storeID id.ID, productID int64) (types.Quantity, error) {
	q := r.builder().
		Select("COALESCE(SUM(quantity), 0)").
		From(reservationsTable).
		Where(squirrel.Eq{"store_id": storeID, "external_product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build sum: %w", err)
	}

	var sum types.Quantity
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return types.Zero(), fmt.Errorf("sum reserved: %w", err)
	}
	return sum, nil
}
