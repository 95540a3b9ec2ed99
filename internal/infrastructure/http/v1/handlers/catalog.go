package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"stockdocs/internal/core/apperror"
	"stockdocs/internal/core/id"
	"stockdocs/internal/domain/reservations"
	"stockdocs/internal/domain/stores"
	"stockdocs/internal/infrastructure/http/v1/dto"
)

// StoreHandler serves the store catalog endpoints.
type StoreHandler struct {
	*BaseHandler
	svc *stores.Service
}

// NewStoreHandler creates a store handler.
func NewStoreHandler(svc *stores.Service) *StoreHandler {
	return &StoreHandler{BaseHandler: NewBaseHandler(), svc: svc}
}

// Register mounts the store routes on the given group.
func (h *StoreHandler) Register(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *StoreHandler) Create(c *gin.Context) {
	var req dto.StoreRequest
	if !h.BindJSON(c, &req) {
		return
	}

	store := req.ToModel()
	if err := h.svc.Create(c.Request.Context(), store); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, store.ID.String())
}

func (h *StoreHandler) List(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, out)
}

func (h *StoreHandler) GetByID(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	store, err := h.svc.GetByID(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, store)
}

func (h *StoreHandler) Update(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.StoreRequest
	if !h.BindJSON(c, &req) {
		return
	}

	store, err := h.svc.GetByID(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.Apply(store)
	if err := h.svc.Update(c.Request.Context(), store); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, store)
}

func (h *StoreHandler) Delete(c *gin.Context) {
	storeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), storeID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ReservationHandler serves the reservation endpoints.
type ReservationHandler struct {
	*BaseHandler
	svc *reservations.Service
}

// NewReservationHandler creates a reservation handler.
func NewReservationHandler(svc *reservations.Service) *ReservationHandler {
	return &ReservationHandler{BaseHandler: NewBaseHandler(), svc: svc}
}

// Register mounts the reservation routes on the given group.
func (h *ReservationHandler) Register(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *ReservationHandler) Create(c *gin.Context) {
	var req dto.ReservationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	res, err := req.ToModel()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid store id").WithCause(err))
		return
	}

	if err := h.svc.Create(c.Request.Context(), res); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, res.ID.String())
}

func (h *ReservationHandler) List(c *gin.Context) {
	var filter reservations.ListFilter

	if v := c.Query("storeId"); v != "" {
		storeID, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid storeId"))
			return
		}
		filter.StoreID = &storeID
	}
	if v := c.Query("productId"); v != "" {
		productID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId"))
			return
		}
		filter.ProductID = &productID
	}
	if v := c.Query("dealId"); v != "" {
		dealID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dealId"))
			return
		}
		filter.DealID = &dealID
	}

	out, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, out)
}

func (h *ReservationHandler) GetByID(c *gin.Context) {
	resID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	res, err := h.svc.GetByID(c.Request.Context(), resID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

func (h *ReservationHandler) Update(c *gin.Context) {
	resID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReservationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	res, err := h.svc.GetByID(c.Request.Context(), resID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.Apply(res); err != nil {
		h.Error(c, apperror.NewValidation("invalid store id").WithCause(err))
		return
	}
	if err := h.svc.Update(c.Request.Context(), res); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

func (h *ReservationHandler) Delete(c *gin.Context) {
	resID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), resID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
