package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
)

// QuoteHandler handles quotes
type QuoteHandler struct {
	BaseHandler
	quotes QuoteService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quotes QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// ListQuotesQuery are the query parameters of the quote list
type ListQuotesQuery struct {
	dto.PageRequest
	Status     []string `form:"status"`
	CustomerID string   `form:"customer_id" binding:"omitempty,uuid"`
}

// Create creates a DRAFT quote
func (h *QuoteHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appinv.QuoteInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	view, err := h.quotes.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toQuoteResponse(view))
}

// List returns a page of quotes
func (h *QuoteHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q ListQuotesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.handleBindError(c, err)
		return
	}

	filter := invoicing.QuoteFilter{Filter: q.Filter()}
	for _, raw := range splitList(q.Status) {
		status := invoicing.QuoteStatus(strings.ToUpper(raw))
		if !status.IsValid() {
			h.BadRequest(c, "Unknown quote status "+raw)
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if q.CustomerID != "" {
		id, err := uuid.Parse(q.CustomerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID format")
			return
		}
		filter.CustomerID = &id
	}

	page, err := h.quotes.List(c.Request.Context(), actor.TenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toQuoteResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// Get returns a quote with its totals
func (h *QuoteHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "quote")
	if !ok {
		return
	}

	view, err := h.quotes.Get(c.Request.Context(), actor.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toQuoteResponse(view))
}

// Update replaces the content of an editable quote
func (h *QuoteHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "quote")
	if !ok {
		return
	}
	var req appinv.QuoteInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	view, err := h.quotes.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toQuoteResponse(view))
}

// Delete removes a DRAFT quote
func (h *QuoteHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "quote")
	if !ok {
		return
	}

	if err := h.quotes.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Send sends the quote to the customer
func (h *QuoteHandler) Send(c *gin.Context) {
	h.transition(c, h.quotes.Send)
}

// Accept records the customer's acceptance
func (h *QuoteHandler) Accept(c *gin.Context) {
	h.transition(c, h.quotes.Accept)
}

// Void cancels the quote
func (h *QuoteHandler) Void(c *gin.Context) {
	h.transition(c, h.quotes.Void)
}

// Convert turns the quote into a DRAFT invoice and returns the invoice
func (h *QuoteHandler) Convert(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "quote")
	if !ok {
		return
	}

	invoice, err := h.quotes.Convert(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInvoiceResponse(invoice))
}

// ExpireSweep expires every sent quote past its expiry date
func (h *QuoteHandler) ExpireSweep(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.quotes.ExpireDue(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *QuoteHandler) transition(c *gin.Context, fn func(context.Context, appinv.Actor, uuid.UUID) (*appinv.QuoteView, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "quote")
	if !ok {
		return
	}

	view, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toQuoteResponse(view))
}
