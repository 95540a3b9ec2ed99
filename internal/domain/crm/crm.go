// Package crm defines the external CRM collaborator contracts.
// The core is read-only towards the CRM: it resolves deal stages for
// the lifecycle guard and product info for the report engine.
package crm

import (
	"context"

	"stockdocs/internal/core/types"
)

// ProductInfo is the live catalog view of a product.
type ProductInfo struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Unit        string      `json:"unit"`
	Price       types.Money `json:"price"`
	SectionName string      `json:"sectionName"`
}

// Organization is a company owned by the portal account.
type Organization struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Deals resolves deal ids to their current pipeline stage.
type Deals interface {
	// DealStage returns the stage identifier of the deal.
	// Errors are fatal for guard decisions and must propagate.
	DealStage(ctx context.Context, dealID int64) (string, error)
}

// Catalog resolves product ids to live display info.
type Catalog interface {
	// ProductsInfo resolves the given ids; absent ids are simply
	// missing from the result map.
	ProductsInfo(ctx context.Context, ids []int64) (map[int64]ProductInfo, error)

	// AllProducts lists the whole price-list catalog.
	AllProducts(ctx context.Context) (map[int64]ProductInfo, error)

	// Organizations lists companies marked as "my company".
	Organizations(ctx context.Context) ([]Organization, error)
}

// PlaceholderProduct stands in for catalog entries that no longer
// resolve; historical reports must still render.
func PlaceholderProduct(id int64) ProductInfo {
	return ProductInfo{
		ID:   id,
		Name: "Removed product",
		Unit: "pcs",
	}
}

// StageConfig carries the pipeline stage constants used by the
// lifecycle deal guard.
type StageConfig struct {
	// StageNew is the only stage in which a linked document may be
	// un-posted or deleted.
	StageNew string

	// StageWon marks a successfully closed deal; it gets its own error
	// message variant.
	StageWon string
}

// DefaultStageConfig returns the portal's pipeline constants.
func DefaultStageConfig() StageConfig {
	return StageConfig{
		StageNew: "C72:NEW",
		StageWon: "C72:WON",
	}
}
