package handlers

import (
	"github.com/gin-gonic/gin"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/domain/reports"
	"stockdocs/internal/infrastructure/http/v1/dto"
)

// ReportsHandler serves the report endpoints.
type ReportsHandler struct {
	*BaseHandler
	svc *reports.Service
}

// NewReportsHandler creates a reports handler.
func NewReportsHandler(svc *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: NewBaseHandler(), svc: svc}
}

// Register mounts the report routes on the given group.
func (h *ReportsHandler) Register(g *gin.RouterGroup) {
	g.GET("/stock", h.Stock)
	g.GET("/residues", h.Residues)
	g.GET("/sales", h.Sales)
	g.GET("/movement", h.Movement)
	g.GET("/prices", h.Prices)
}

// Stock handles GET /stock.
func (h *ReportsHandler) Stock(c *gin.Context) {
	var query dto.StockReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid storeId").WithCause(err))
		return
	}

	report, err := h.svc.Stock(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Residues handles GET /residues.
func (h *ReportsHandler) Residues(c *gin.Context) {
	var query dto.StockReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid storeId").WithCause(err))
		return
	}

	out, err := h.svc.Residues(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, out)
}

// Sales handles GET /sales.
func (h *ReportsHandler) Sales(c *gin.Context) {
	var query dto.SalesReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid storeId").WithCause(err))
		return
	}

	report, err := h.svc.Sales(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Movement handles GET /movement.
func (h *ReportsHandler) Movement(c *gin.Context) {
	var query dto.MovementReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid storeId").WithCause(err))
		return
	}

	report, err := h.svc.Movement(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Prices handles GET /prices.
func (h *ReportsHandler) Prices(c *gin.Context) {
	var query dto.StockReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid storeId").WithCause(err))
		return
	}

	report, err := h.svc.Prices(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
