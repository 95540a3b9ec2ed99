package dto

import (
	"time"

	"stockdocs/internal/core/id"
	"stockdocs/internal/domain/reports"
)

// StockReportQuery binds the stock report request.
type StockReportQuery struct {
	StoreID     string     `form:"storeId" binding:"required"`
	AsOf        *time.Time `form:"asOf" time_format:"2006-01-02T15:04:05Z07:00"`
	IncludeZero bool       `form:"includeZero"`
}

// ToFilter converts the query into a report filter.
func (q StockReportQuery) ToFilter() (reports.StockFilter, error) {
	storeID, err := id.Parse(q.StoreID)
	if err != nil {
		return reports.StockFilter{}, err
	}
	return reports.StockFilter{
		StoreID:     storeID,
		AsOf:        q.AsOf,
		IncludeZero: q.IncludeZero,
	}, nil
}

// SalesReportQuery binds the sales report request.
type SalesReportQuery struct {
	StoreID  string    `form:"storeId" binding:"required"`
	DateFrom time.Time `form:"dateFrom" binding:"required" time_format:"2006-01-02"`
	DateTo   time.Time `form:"dateTo" binding:"required" time_format:"2006-01-02"`
}

// ToFilter converts the query into a report filter.
func (q SalesReportQuery) ToFilter() (reports.SalesFilter, error) {
	storeID, err := id.Parse(q.StoreID)
	if err != nil {
		return reports.SalesFilter{}, err
	}
	return reports.SalesFilter{
		StoreID:  storeID,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
	}, nil
}

// MovementReportQuery binds the movement history request.
type MovementReportQuery struct {
	StoreID   string    `form:"storeId" binding:"required"`
	ProductID int64     `form:"productId" binding:"required"`
	From      time.Time `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To        time.Time `form:"to" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ToFilter converts the query into a report filter.
func (q MovementReportQuery) ToFilter() (reports.MovementFilter, error) {
	storeID, err := id.Parse(q.StoreID)
	if err != nil {
		return reports.MovementFilter{}, err
	}
	return reports.MovementFilter{
		StoreID:   storeID,
		ProductID: q.ProductID,
		From:      q.From,
		To:        q.To,
	}, nil
}
