package handler

import (
	"github.com/gin-gonic/gin"

	quoteapp "github.com/partsdesk/backend/internal/application/quote"
	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/interfaces/http/dto"
)

// QuoteHandler handles quote request endpoints
type QuoteHandler struct {
	BaseHandler
	quotes *quoteapp.Service
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quotes *quoteapp.Service) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// Create captures a public quote request
func (h *QuoteHandler) Create(c *gin.Context) {
	var req quoteapp.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.quotes.Create(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get returns one quote
func (h *QuoteHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	resp, err := h.quotes.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns a page of quotes
func (h *QuoteHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := req.ToFilter()

	resp, err := h.quotes.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, resp.Quotes, resp.Total, resp.Page, resp.PageSize)
}

// Update applies a review status change
func (h *QuoteHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	var req quoteapp.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.quotes.UpdateStatus(c.Request.Context(), id, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Sync manually pushes a quote to one external ledger
func (h *QuoteHandler) Sync(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	target := order.LedgerTarget(c.Param("target"))
	if !target.IsValid() {
		h.BadRequest(c, "Unknown sync target: "+string(target))
		return
	}

	resp, err := h.quotes.Sync(c.Request.Context(), id, target)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
