// Package reports builds stock, sales, movement and price reports
// from the posted document history.
package reports

import (
	"time"

	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
	"stockdocs/internal/domain/documents"
)

// LineFact is one posted document line joined with its header, the
// unit of replay for every report in this package.
type LineFact struct {
	DocumentID  id.ID          `db:"document_id"`
	Kind        documents.Kind `db:"kind"`
	DocNumber   string         `db:"number"`
	PartnerName string         `db:"partner_name"`
	DocDate     time.Time      `db:"date"`
	ConductedAt time.Time      `db:"conducted_at"`
	ProductID   int64          `db:"external_product_id"`
	ProductName string         `db:"product_name"`
	Unit        string         `db:"unit"`
	Quantity    types.Quantity `db:"quantity"`
	UnitPrice   types.Money    `db:"unit_price"`
}

// LineQuery narrows which posted lines a report replays.
type LineQuery struct {
	StoreID   id.ID
	Kinds     []documents.Kind
	ProductID *int64

	// Document-date window (sales report).
	DocDateFrom *time.Time
	DocDateTo   *time.Time

	// Conduction-time window. ConductedTo is inclusive,
	// ConductedBefore is exclusive.
	ConductedFrom   *time.Time
	ConductedTo     *time.Time
	ConductedBefore *time.Time
}

// --- Stock report ---

// StockFilter defines the stock balance report request.
type StockFilter struct {
	StoreID id.ID
	AsOf    *time.Time

	// Include products with zero balance.
	IncludeZero bool
}

// StockItem is one product row in the stock report.
type StockItem struct {
	ProductID   int64          `json:"productId"`
	ProductName string         `json:"productName"`
	Unit        string         `json:"unit"`
	SectionName string         `json:"sectionName,omitempty"`
	Quantity    types.Quantity `json:"quantity"`
	AvgCost     types.Money    `json:"avgCost"`
	TotalCost   types.Money    `json:"totalCost"`
}

// StockReport is the full stock balance report.
type StockReport struct {
	StoreID   id.ID       `json:"storeId"`
	AsOf      time.Time   `json:"asOf"`
	Items     []StockItem `json:"items"`
	TotalCost types.Money `json:"totalCost"`
}

// --- Residues ---

// Residue is a bare product balance, the lightweight variant of the
// stock report used by pickers.
type Residue struct {
	ProductID int64          `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
}

// --- Sales report ---

// SalesFilter defines the sales and profitability report request.
// The window filters on document date, not conduction time.
type SalesFilter struct {
	StoreID  id.ID
	DateFrom time.Time
	DateTo   time.Time
}

// SalesItem is one product row in the sales report.
type SalesItem struct {
	ProductID   int64          `json:"productId"`
	ProductName string         `json:"productName"`
	Unit        string         `json:"unit"`
	SectionName string         `json:"sectionName,omitempty"`
	QtySold     types.Quantity `json:"qtySold"`
	RetailPrice types.Money    `json:"retailPrice"`
	Revenue     types.Money    `json:"revenue"`
	Cost        types.Money    `json:"cost"`
	Profit      types.Money    `json:"profit"`
	// MarkupPercent is profit over cost, zero when cost is zero.
	MarkupPercent types.Money `json:"markupPercent"`
}

// SalesReport is the full sales report.
type SalesReport struct {
	StoreID      id.ID       `json:"storeId"`
	DateFrom     time.Time   `json:"dateFrom"`
	DateTo       time.Time   `json:"dateTo"`
	Items        []SalesItem `json:"items"`
	TotalRevenue types.Money `json:"totalRevenue"`
	TotalCost    types.Money `json:"totalCost"`
	TotalProfit  types.Money `json:"totalProfit"`
}

// --- Movement report ---

// MovementFilter defines the movement history request for one
// product. The window filters on conduction time.
type MovementFilter struct {
	StoreID   id.ID
	ProductID int64
	From      time.Time
	To        time.Time
}

// Movement is one posted document line in the product's history with
// the running balance after it.
type Movement struct {
	DocumentID  id.ID          `json:"documentId"`
	Kind        documents.Kind `json:"kind"`
	DocNumber   string         `json:"documentNumber"`
	PartnerName string         `json:"partnerName,omitempty"`
	ConductedAt time.Time      `json:"conductedAt"`
	Direction   string         `json:"direction"`
	Quantity    types.Quantity `json:"quantity"`
	UnitPrice   types.Money    `json:"unitPrice"`
	Balance     types.Quantity `json:"balance"`
}

// MovementReport is the full movement history for one product.
type MovementReport struct {
	StoreID        id.ID          `json:"storeId"`
	ProductID      int64          `json:"productId"`
	ProductName    string         `json:"productName"`
	Unit           string         `json:"unit"`
	From           time.Time      `json:"from"`
	To             time.Time      `json:"to"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	ClosingBalance types.Quantity `json:"closingBalance"`
	Movements      []Movement     `json:"movements"`
}

// --- Price report ---

// PriceItem is one product row in the price list.
type PriceItem struct {
	ProductID   int64       `json:"productId"`
	ProductName string      `json:"productName"`
	Unit        string      `json:"unit"`
	SectionName string      `json:"sectionName,omitempty"`
	SalePrice   types.Money `json:"salePrice"`
	AvgCost     types.Money `json:"avgCost"`
}

// PriceReport is the full price list.
type PriceReport struct {
	StoreID id.ID       `json:"storeId"`
	Items   []PriceItem `json:"items"`
}
