package handlers

import (
	"github.com/gin-gonic/gin"

	"stockdocs/internal/domain/crm"
)

// CRMHandler exposes read-only CRM catalog lookups for document
// entry forms.
type CRMHandler struct {
	*BaseHandler
	catalog crm.Catalog
}

// NewCRMHandler creates a CRM handler.
func NewCRMHandler(catalog crm.Catalog) *CRMHandler {
	return &CRMHandler{BaseHandler: NewBaseHandler(), catalog: catalog}
}

// Register mounts the CRM routes on the given group.
func (h *CRMHandler) Register(g *gin.RouterGroup) {
	g.GET("/products", h.Products)
	g.GET("/organizations", h.Organizations)
}

// Products handles GET /products.
func (h *CRMHandler) Products(c *gin.Context) {
	products, err := h.catalog.AllProducts(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]crm.ProductInfo, 0, len(products))
	for _, p := range products {
		out = append(out, p)
	}
	h.OK(c, out)
}

// Organizations handles GET /organizations.
func (h *CRMHandler) Organizations(c *gin.Context) {
	orgs, err := h.catalog.Organizations(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, orgs)
}
