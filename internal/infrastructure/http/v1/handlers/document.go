package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/domain/documents"
	"stockdocs/internal/infrastructure/http/v1/dto"
)

// DocumentHandler serves one document kind's endpoints. The four
// kinds mount the same handler against their own lifecycle service.
type DocumentHandler struct {
	*BaseHandler
	svc *documents.Service
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(svc *documents.Service) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler: NewBaseHandler(),
		svc:         svc,
	}
}

// Register mounts the document routes on the given group.
func (h *DocumentHandler) Register(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)

	if h.svc.Kind() == documents.KindReceipt {
		g.GET("/last-price", h.LastPrice)
	}
}

// Create handles POST /.
func (h *DocumentHandler) Create(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := req.ToModel(h.svc.Kind())
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid store id").WithCause(err))
		return
	}

	if err := h.svc.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, doc.ID.String())
}

// GetByID handles GET /:id.
func (h *DocumentHandler) GetByID(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.svc.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// List handles GET /.
func (h *DocumentHandler) List(c *gin.Context) {
	var query dto.ListDocumentsQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid store id").WithCause(err))
		return
	}

	result, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Update handles PATCH /:id. Un-posting returns the document together
// with any negative-balance warnings.
func (h *DocumentHandler) Update(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	patch, err := req.ToPatch()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid store id").WithCause(err))
		return
	}

	result, err := h.svc.Update(c.Request.Context(), docID, patch)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Delete handles DELETE /:id.
func (h *DocumentHandler) Delete(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// LastPrice handles GET /last-price?partnerId=&productId= on the
// receipt routes.
func (h *DocumentHandler) LastPrice(c *gin.Context) {
	partnerID, err := strconv.ParseInt(c.Query("partnerId"), 10, 64)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid partnerId"))
		return
	}
	productID, err := strconv.ParseInt(c.Query("productId"), 10, 64)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId"))
		return
	}

	price, err := h.svc.LastProductPrice(c.Request.Context(), partnerID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"price": price})
}
