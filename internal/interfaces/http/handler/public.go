package handler

import (
	"github.com/gin-gonic/gin"
)

// PublicHandler serves the hosted invoice page. Requests are authorized by the invoice token alone.
type PublicHandler struct {
	BaseHandler
	invoices InvoiceService
	disputes DisputeService
}

// NewPublicHandler creates a new PublicHandler
func NewPublicHandler(invoices InvoiceService, disputes DisputeService) *PublicHandler {
	return &PublicHandler{invoices: invoices, disputes: disputes}
}

// maxTokenLength bounds the token path segment before it reaches the database
const maxTokenLength = 128

func (h *PublicHandler) token(c *gin.Context) (string, bool) {
	token := c.Param("token")
	if token == "" || len(token) > maxTokenLength {
		h.NotFound(c, "Invoice not found")
		return "", false
	}
	return token, true
}

// ViewInvoice shows the invoice to the buyer and records the first view
func (h *PublicHandler) ViewInvoice(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}

	view, err := h.invoices.ViewByToken(c.Request.Context(), token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	h.Success(c, toPublicInvoiceResponse(view))
}

// OpenDispute lets the buyer dispute the invoice from the hosted page
func (h *PublicHandler) OpenDispute(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	var req DisputeRequest
	if !h.bindJSON(c, &req, false) {
		return
	}

	dispute, err := h.disputes.OpenByToken(c.Request.Context(), token, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toDisputeResponse(dispute))
}
