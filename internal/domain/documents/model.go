// Package documents provides the warehouse document model and the
// lifecycle service shared by all four document kinds.
package documents

import (
	"context"
	"time"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
	"stockdocs/internal/domain/stock"
)

// Kind identifies a warehouse document type.
type Kind string

const (
	// KindReceipt - goods received from a supplier (приход)
	KindReceipt Kind = "Receipt"
	// KindPosting - surplus goods entered into stock (оприходование)
	KindPosting Kind = "Posting"
	// KindSalesInvoice - goods shipped to a customer (реализация)
	KindSalesInvoice Kind = "SalesInvoice"
	// KindWriteOffAct - spoiled or lost goods written off (акт списания)
	KindWriteOffAct Kind = "WriteOffAct"
)

// Kinds lists every document kind in ledger order.
func Kinds() []Kind {
	return []Kind{KindReceipt, KindPosting, KindSalesInvoice, KindWriteOffAct}
}

// Valid reports whether k is a known document kind.
func (k Kind) Valid() bool {
	switch k {
	case KindReceipt, KindPosting, KindSalesInvoice, KindWriteOffAct:
		return true
	}
	return false
}

// Direction returns the polarity of the kind's contribution to stock.
func (k Kind) Direction() stock.Direction {
	switch k {
	case KindSalesInvoice, KindWriteOffAct:
		return stock.Outbound
	default:
		return stock.Inbound
	}
}

// EntityName returns the display name used in error messages.
func (k Kind) EntityName() string {
	switch k {
	case KindReceipt:
		return "receipt"
	case KindPosting:
		return "posting"
	case KindSalesInvoice:
		return "sales invoice"
	case KindWriteOffAct:
		return "write-off act"
	}
	return "document"
}

// Status is the document lifecycle status. The payload contract accepts
// arbitrary strings for storage/display parity; only the two literal
// values below drive lifecycle and stock logic.
type Status string

const (
	StatusDraft  Status = "Draft"
	StatusPosted Status = "Posted"
)

// IsPosted reports whether the status is the literal Posted value.
func (s Status) IsPosted() bool { return s == StatusPosted }

// IsDraft reports whether the status is the literal Draft value.
func (s Status) IsDraft() bool { return s == StatusDraft }

// Document is the header record shared by all four kinds.
// Lines are owned exclusively by their document; replacing the line set
// is an atomic delete-then-recreate, never a partial merge.
type Document struct {
	ID id.ID `db:"id" json:"id"`

	// Kind discriminates the four document types in one table
	Kind Kind `db:"kind" json:"kind"`

	// Number is the caller-supplied document number
	Number string `db:"number" json:"documentNumber"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"documentDate"`

	// ConductedAt is present if and only if Status == Posted
	ConductedAt *time.Time `db:"conducted_at" json:"conductedAt,omitempty"`

	Status Status `db:"status" json:"status"`

	StoreID id.ID `db:"store_id" json:"storeId"`

	Responsible string `db:"responsible" json:"responsible"`

	// External CRM references. Ids live in the CRM system; names are
	// denormalized snapshots taken at entry time.
	ExternalOrgID     int64  `db:"external_org_id" json:"externalOrgId"`
	ExternalOrgName   string `db:"external_org_name" json:"externalOrgName"`
	ExternalPartnerID *int64 `db:"external_partner_id" json:"externalPartnerId,omitempty"`
	PartnerName       string `db:"partner_name" json:"partnerName,omitempty"`
	ExternalDealID    *int64 `db:"external_deal_id" json:"externalDealId,omitempty"`

	// TotalSum is a client-supplied cache of sum(quantity * unitPrice).
	// Stored as given, not recomputed.
	TotalSum types.Money `db:"total_sum" json:"totalSum"`

	// Version for optimistic locking
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one product quantity entry belonging to a document.
// ProductName and Unit are point-in-time copies, deliberately not
// dereferencing the live CRM catalog: historical documents must render
// correctly even if the catalog entry changes or is deleted later.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ExternalProductID int64          `db:"external_product_id" json:"externalProductId"`
	ProductName       string         `db:"product_name" json:"productName"`
	Quantity          types.Quantity `db:"quantity" json:"quantity"`
	Unit              string         `db:"unit" json:"unit"`
	UnitPrice         types.Money    `db:"unit_price" json:"unitPrice"`
	LocationCount     int            `db:"location_count" json:"locationCount"`
}

// New creates a document of the given kind in the given store.
func New(kind Kind, storeID id.ID) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:        id.New(),
		Kind:      kind,
		Date:      now,
		Status:    StatusDraft,
		StoreID:   storeID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Lines:     make([]Line, 0),
	}
}

// Validate checks document invariants.
func (d *Document) Validate(ctx context.Context) error {
	if !d.Kind.Valid() {
		return apperror.NewValidation("unknown document kind").
			WithDetail("field", "kind").
			WithDetail("value", string(d.Kind))
	}

	if id.IsNil(d.StoreID) {
		return apperror.NewValidation("store is required").
			WithDetail("field", "storeId")
	}

	if d.Date.IsZero() {
		return apperror.NewValidation("document date is required").
			WithDetail("field", "documentDate")
	}

	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range d.Lines {
		if line.ExternalProductID == 0 {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// AddLine appends a line with the next line number.
func (d *Document) AddLine(productID int64, name string, qty types.Quantity, unit string, price types.Money, locations int) {
	d.Lines = append(d.Lines, Line{
		LineID:            id.New(),
		LineNo:            len(d.Lines) + 1,
		ExternalProductID: productID,
		ProductName:       name,
		Quantity:          qty,
		Unit:              unit,
		UnitPrice:         price,
		LocationCount:     locations,
	})
}

// MarkConducted flips the document into the posted state.
// Keeps an already present conduction timestamp on re-affirmation.
func (d *Document) MarkConducted(at time.Time) {
	d.Status = StatusPosted
	if d.ConductedAt == nil {
		t := at.UTC()
		d.ConductedAt = &t
	}
	d.Touch()
}

// MarkDraft reverts the document to draft and clears the conduction
// timestamp.
func (d *Document) MarkDraft() {
	d.Status = StatusDraft
	d.ConductedAt = nil
	d.Touch()
}

// Touch updates the audit timestamp. The version counter belongs to
// the repository: Update matches on the loaded version and increments
// it in the same statement.
func (d *Document) Touch() {
	d.UpdatedAt = time.Now().UTC()
}

// DisplayNumber returns the number shown in reports, falling back to a
// kind-prefixed id fragment when the caller left the number empty.
func (d *Document) DisplayNumber() string {
	if d.Number != "" {
		return d.Number
	}
	return d.Kind.EntityName() + " " + d.ID.String()[:8]
}
