package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
)

// InvoiceHandler handles invoices and the money recorded against them
type InvoiceHandler struct {
	BaseHandler
	invoices  InvoiceService
	recorder  PaymentRecorder
	disputes  DisputeService
	documents DocumentService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices InvoiceService, recorder PaymentRecorder, disputes DisputeService, documents DocumentService) *InvoiceHandler {
	return &InvoiceHandler{
		invoices:  invoices,
		recorder:  recorder,
		disputes:  disputes,
		documents: documents,
	}
}

// ListInvoicesQuery are the query parameters of the invoice list
type ListInvoicesQuery struct {
	dto.PageRequest
	// Status may repeat or hold a comma separated list
	Status     []string `form:"status"`
	CustomerID string   `form:"customer_id" binding:"omitempty,uuid"`
	DueBefore  string   `form:"due_before" binding:"omitempty,datetime=2006-01-02"`
}

// VoidRequest carries the optional reason of a void
type VoidRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// DisputeRequest opens a dispute
type DisputeRequest struct {
	Reason string `json:"reason" binding:"required,max=2000"`
}

// Create creates a DRAFT invoice with the next number of the organization
func (h *InvoiceHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appinv.InvoiceInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	view, err := h.invoices.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInvoiceResponse(view))
}

// List returns a page of invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q ListInvoicesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.handleBindError(c, err)
		return
	}

	filter := invoicing.InvoiceFilter{Filter: q.Filter()}
	for _, raw := range splitList(q.Status) {
		status := invoicing.InvoiceStatus(strings.ToUpper(raw))
		if !status.IsValid() {
			h.BadRequest(c, "Unknown invoice status "+raw)
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
	if q.DueBefore != "" {
		due, _ := time.Parse(time.DateOnly, q.DueBefore)
		filter.DueBefore = &due
	}

	page, err := h.invoices.List(c.Request.Context(), actor.TenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toInvoiceResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// Get returns an invoice with its balance
func (h *InvoiceHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	view, err := h.invoices.Get(c.Request.Context(), actor.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(view))
}

// Update replaces the content of a DRAFT invoice
func (h *InvoiceHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}
	var req appinv.InvoiceInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	view, err := h.invoices.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(view))
}

// Send issues the invoice to the customer
func (h *InvoiceHandler) Send(c *gin.Context) {
	h.transition(c, h.invoices.Send)
}

// Duplicate copies the invoice into a new DRAFT
func (h *InvoiceHandler) Duplicate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	view, err := h.invoices.Duplicate(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInvoiceResponse(view))
}

// Void cancels an unpaid invoice
func (h *InvoiceHandler) Void(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}
	var req VoidRequest
	if !h.bindJSON(c, &req, true) {
		return
	}

	view, err := h.invoices.Void(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(view))
}

// MarkOverdue moves a past-due invoice to OVERDUE. An invoice that is not past due is returned unchanged.
func (h *InvoiceHandler) MarkOverdue(c *gin.Context) {
	h.transition(c, func(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.InvoiceView, error) {
		view, _, err := h.invoices.MarkOverdue(ctx, actor, id)
		return view, err
	})
}

// ComplianceSnapshot returns the e-invoicing snapshot of an issued invoice
func (h *InvoiceHandler) ComplianceSnapshot(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	snapshot, err := h.invoices.ComplianceSnapshot(c.Request.Context(), actor.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, snapshot)
}

// RecordPayment records a payment and reconciles the invoice.
// A repeated provider reference answers 200 with the original payment.
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}
	var req appinv.PaymentInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	result, err := h.recorder.RecordPayment(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := PaymentResultResponse{
		Payment:   toPaymentResponse(result.Payment),
		Invoice:   toInvoiceResponse(result.Invoice),
		Duplicate: result.Duplicate,
	}
	if result.Duplicate {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// IssueCreditNote credits part of an invoice
func (h *InvoiceHandler) IssueCreditNote(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}
	var req appinv.CreditNoteInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	result, err := h.recorder.IssueCreditNote(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCreditNoteResult(result))
}

// OpenDispute records a dispute raised on behalf of the buyer
func (h *InvoiceHandler) OpenDispute(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}
	var req DisputeRequest
	if !h.bindJSON(c, &req, false) {
		return
	}

	dispute, err := h.disputes.Open(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toDisputeResponse(dispute))
}

// ListDisputes returns the disputes of an invoice
func (h *InvoiceHandler) ListDisputes(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	disputes, err := h.disputes.ListForInvoice(c.Request.Context(), actor.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]DisputeResponse, 0, len(disputes))
	for i := range disputes {
		out = append(out, toDisputeResponse(&disputes[i]))
	}
	h.Success(c, out)
}

// Receipt returns the receipt of a paid invoice with a link to its PDF
func (h *InvoiceHandler) Receipt(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	view, err := h.documents.Receipt(c.Request.Context(), actor.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReceiptResponse(view))
}

// BatchVoid voids up to 100 invoices and reports the outcome per id
func (h *InvoiceHandler) BatchVoid(c *gin.Context) {
	h.batch(c, func(ctx context.Context, actor appinv.Actor, ids []uuid.UUID, req dto.BatchRequest) (*appinv.BatchResult, error) {
		return h.invoices.BatchVoid(ctx, actor, ids, req.Reason)
	})
}

// BatchReminders re-sends up to 100 outstanding invoices
func (h *InvoiceHandler) BatchReminders(c *gin.Context) {
	h.batch(c, func(ctx context.Context, actor appinv.Actor, ids []uuid.UUID, _ dto.BatchRequest) (*appinv.BatchResult, error) {
		return h.invoices.SendReminders(ctx, actor, ids)
	})
}

// OverdueSweep marks every past-due invoice of the organization OVERDUE
func (h *InvoiceHandler) OverdueSweep(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.invoices.SweepOverdue(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *InvoiceHandler) transition(c *gin.Context, fn func(context.Context, appinv.Actor, uuid.UUID) (*appinv.InvoiceView, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	view, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(view))
}

func (h *InvoiceHandler) batch(c *gin.Context, fn func(context.Context, appinv.Actor, []uuid.UUID, dto.BatchRequest) (*appinv.BatchResult, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.BatchRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid invoice ID format")
			return
		}
		ids = append(ids, id)
	}

	result, err := fn(c.Request.Context(), actor, ids, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// splitList flattens repeated and comma separated query values
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
