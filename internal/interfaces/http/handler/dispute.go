package handler

import (
	"github.com/gin-gonic/gin"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
)

// DisputeHandler resolves disputes raised by buyers
type DisputeHandler struct {
	BaseHandler
	disputes DisputeService
}

// NewDisputeHandler creates a new DisputeHandler
func NewDisputeHandler(disputes DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

// RejectDisputeRequest carries the seller's answer
type RejectDisputeRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

// Get returns one dispute
func (h *DisputeHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "dispute")
	if !ok {
		return
	}

	dispute, err := h.disputes.Get(c.Request.Context(), actor.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDisputeResponse(dispute))
}

// Approve accepts the dispute and issues a credit note for the given amount
func (h *DisputeHandler) Approve(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "dispute")
	if !ok {
		return
	}
	var req appinv.ApproveDisputeInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	dispute, credit, err := h.disputes.Approve(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := DisputeResolutionResponse{Dispute: toDisputeResponse(dispute)}
	if credit != nil {
		cr := toCreditNoteResult(credit)
		resp.Credit = &cr
	}
	h.Success(c, resp)
}

// Reject closes the dispute with the seller's message
func (h *DisputeHandler) Reject(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "dispute")
	if !ok {
		return
	}
	var req RejectDisputeRequest
	if !h.bindJSON(c, &req, false) {
		return
	}

	dispute, err := h.disputes.Reject(c.Request.Context(), actor, id, req.Message)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDisputeResponse(dispute))
}
