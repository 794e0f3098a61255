package handler

import (
	"github.com/gin-gonic/gin"

	orderapp "github.com/partsdesk/backend/internal/application/order"
	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/interfaces/http/dto"
	"github.com/partsdesk/backend/internal/interfaces/http/middleware"
)

// OrderHandler handles order capture and fulfillment endpoints
type OrderHandler struct {
	BaseHandler
	orders *orderapp.Service
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *orderapp.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create captures a new order. Works for both guests and authenticated
// callers; a salesperson caller is recorded on the order.
func (h *OrderHandler) Create(c *gin.Context) {
	var req orderapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orders.Create(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get returns one order scoped to the caller
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.orders.Get(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns the caller's page of orders
func (h *OrderHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := req.ToFilter()

	resp, err := h.orders.List(c.Request.Context(), middleware.GetIdentity(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, resp.Orders, resp.Total, resp.Page, resp.PageSize)
}

// Update applies operator changes to status and tracking
func (h *OrderHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req orderapp.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orders.Update(c.Request.Context(), middleware.GetIdentity(c), id, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Sync manually pushes an order to one external ledger. Retrying an
// already linked order succeeds without touching the provider.
func (h *OrderHandler) Sync(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	target := order.LedgerTarget(c.Param("target"))
	if !target.IsValid() {
		h.BadRequest(c, "Unknown sync target: "+string(target))
		return
	}

	resp, err := h.orders.Sync(c.Request.Context(), id, target)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// TrackRequest carries the public tracking lookup parameters
type TrackRequest struct {
	Reference string `form:"reference" binding:"required"`
	Email     string `form:"email" binding:"required,email"`
}

// Track resolves a public tracking lookup by reference and email
func (h *OrderHandler) Track(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orders.Track(c.Request.Context(), req.Reference, req.Email)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
