package documents

import (
	"context"
	"time"

	"stockdocs/internal/core/id"
	"stockdocs/internal/core/types"
)

// ListFilter narrows document listings.
type ListFilter struct {
	// Status filters on the stored status string as-is
	Status string

	StoreID *id.ID

	// Business date range (inclusive)
	DateFrom *time.Time
	DateTo   *time.Time

	// Conduction timestamp range (inclusive)
	ConductedFrom *time.Time
	ConductedTo   *time.Time

	// Search matches the document number
	Search string

	Limit  int
	Offset int
}

// ListResult contains paginated documents.
type ListResult struct {
	Items      []*Document `json:"items"`
	TotalCount int64       `json:"totalCount"`
	Limit      int         `json:"limit"`
	Offset     int         `json:"offset"`
}

// Repository defines persistence for documents of one kind.
// Implementations are kind-scoped: GetByID on a foreign kind's id
// behaves as not found.
type Repository interface {
	// Create inserts the document header
	Create(ctx context.Context, doc *Document) error

	// GetByID retrieves the header of the given kind (without lines)
	GetByID(ctx context.Context, kind Kind, docID id.ID) (*Document, error)

	// Update modifies the header
	Update(ctx context.Context, doc *Document) error

	// Delete removes the document and its lines
	Delete(ctx context.Context, kind Kind, docID id.ID) error

	// GetLines retrieves the ordered line set
	GetLines(ctx context.Context, docID id.ID) ([]Line, error)

	// SaveLines replaces the line set atomically (delete-then-recreate)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// List retrieves documents of the given kind with filtering
	List(ctx context.Context, kind Kind, filter ListFilter) (ListResult, error)

	// LastReceiptPrice returns the unit price from the most recent
	// receipt line for a partner/product pair, ok=false when none exists.
	LastReceiptPrice(ctx context.Context, partnerID, productID int64) (types.Money, bool, error)
}
