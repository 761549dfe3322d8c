package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
)

func TestDisputeHandler_Approve(t *testing.T) {
	disputes := new(MockDisputeService)
	h := NewDisputeHandler(disputes)
	actor := appinv.Actor{TenantID: uuid.New(), UserID: uuid.New()}
	r, _ := newTestRouter(actor.TenantID, actor.UserID)
	r.POST("/disputes/:id/approve", h.Approve)

	invoice := testInvoiceView(actor.TenantID)
	dispute := testDispute(actor.TenantID, invoice.Invoice.ID)
	cn, err := invoicing.NewCreditNote(actor.TenantID, invoice.Invoice.ID, "CN-2024-000001", 5000, "double billing", testNow)
	require.NoError(t, err)
	require.NoError(t, dispute.Approve(cn, testNow))
	input := appinv.ApproveDisputeInput{AmountCents: 5000, Reason: "double billing"}

	disputes.On("Approve", mock.Anything, actor, dispute.ID, input).
		Return(dispute, &appinv.CreditNoteResult{CreditNote: cn, Invoice: invoice}, nil)

	w := doRequest(r, http.MethodPost, "/disputes/"+dispute.ID.String()+"/approve", input)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeData[DisputeResolutionResponse](t, w)
	assert.Equal(t, "APPROVED", got.Dispute.Status)
	require.NotNil(t, got.Dispute.CreditNoteID)
	assert.Equal(t, cn.ID, *got.Dispute.CreditNoteID)
	require.NotNil(t, got.Credit)
	assert.Equal(t, int64(5000), got.Credit.CreditNote.AmountCents)
	disputes.AssertExpectations(t)
}

func TestDisputeHandler_Approve_ClosedDispute(t *testing.T) {
	disputes := new(MockDisputeService)
	h := NewDisputeHandler(disputes)
	actor := appinv.Actor{TenantID: uuid.New(), UserID: uuid.New()}
	r, _ := newTestRouter(actor.TenantID, actor.UserID)
	r.POST("/disputes/:id/approve", h.Approve)

	id := uuid.New()
	disputes.On("Approve", mock.Anything, actor, id, mock.Anything).
		Return(nil, nil, shared.InvalidStateError("dispute is REJECTED"))

	w := doRequest(r, http.MethodPost, "/disputes/"+id.String()+"/approve", map[string]any{"amount_cents": 100})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	disputes.AssertExpectations(t)
}

func TestDisputeHandler_GetAndReject(t *testing.T) {
	disputes := new(MockDisputeService)
	h := NewDisputeHandler(disputes)
	actor := appinv.Actor{TenantID: uuid.New(), UserID: uuid.New()}
	r, _ := newTestRouter(actor.TenantID, actor.UserID)
	r.GET("/disputes/:id", h.Get)
	r.POST("/disputes/:id/reject", h.Reject)

	dispute := testDispute(actor.TenantID, uuid.New())
	disputes.On("Get", mock.Anything, actor.TenantID, dispute.ID).Return(dispute, nil)
	w := doRequest(r, http.MethodGet, "/disputes/"+dispute.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hours were billed twice", decodeData[DisputeResponse](t, w).Reason)

	rejected := testDispute(actor.TenantID, dispute.InvoiceID)
	require.NoError(t, rejected.Reject("Hours match the timesheet", testNow))
	disputes.On("Reject", mock.Anything, actor, dispute.ID, "Hours match the timesheet").Return(rejected, nil)
	w = doRequest(r, http.MethodPost, "/disputes/"+dispute.ID.String()+"/reject", RejectDisputeRequest{Message: "Hours match the timesheet"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeData[DisputeResponse](t, w)
	assert.Equal(t, "REJECTED", got.Status)
	assert.Equal(t, "Hours match the timesheet", got.SellerResponse)

	w = doRequest(r, http.MethodPost, "/disputes/"+dispute.ID.String()+"/reject", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	disputes.AssertExpectations(t)
}

func TestPublicHandler_ViewInvoice(t *testing.T) {
	invoices := new(MockInvoiceService)
	h := NewPublicHandler(invoices, new(MockDisputeService))
	r, _ := newTestRouter(uuid.Nil, uuid.Nil)
	r.GET("/public/invoices/:token", h.ViewInvoice)

	view := testInvoiceView(uuid.New())
	invoices.On("ViewByToken", mock.Anything, "tok-abc").Return(view, nil)
	invoices.On("ViewByToken", mock.Anything, "unknown").Return(nil, shared.NotFoundError("invoice", uuid.Nil))

	w := doRequest(r, http.MethodGet, "/public/invoices/tok-abc", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.NotContains(t, w.Body.String(), view.Invoice.ID.String())
	assert.NotContains(t, w.Body.String(), view.Invoice.CustomerID.String())
	got := decodeData[PublicInvoiceResponse](t, w)
	assert.Equal(t, "INV-2024-000001", got.Number)
	assert.Equal(t, int64(11000), got.Balance.DueCents)

	w = doRequest(r, http.MethodGet, "/public/invoices/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodGet, "/public/invoices/"+strings.Repeat("a", 200), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	invoices.AssertExpectations(t)
}

func TestPublicHandler_OpenDispute(t *testing.T) {
	disputes := new(MockDisputeService)
	h := NewPublicHandler(new(MockInvoiceService), disputes)
	r, _ := newTestRouter(uuid.Nil, uuid.Nil)
	r.POST("/public/invoices/:token/disputes", h.OpenDispute)

	dispute := testDispute(uuid.New(), uuid.New())
	disputes.On("OpenByToken", mock.Anything, "tok-abc", "Hours were billed twice").Return(dispute, nil)

	w := doRequest(r, http.MethodPost, "/public/invoices/tok-abc/disputes", DisputeRequest{Reason: "Hours were billed twice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, dispute.ID, decodeData[DisputeResponse](t, w).ID)

	w = doRequest(r, http.MethodPost, "/public/invoices/tok-abc/disputes", `{"reason":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	disputes.AssertExpectations(t)
}
