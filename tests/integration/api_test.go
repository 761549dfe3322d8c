package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/invoicer/backend/tests/testutil"
)

func init() {
	middleware.SetupValidator()
}

func TestAPI_PaymentEndpoint(t *testing.T) {
	stack := NewBillingStack(t, NewSharedTestDB(t), nil)
	tenant := stack.CreateTenant(t, "API Co", "EUR")
	other := stack.CreateTenant(t, "API Other", "EUR")
	view := stack.SentInvoice(t, tenant)
	h := handler.NewInvoiceHandler(stack.Invoices, stack.Recorder, stack.Disputes, stack.Documents)

	paid := testutil.NewMockEventHandler(invoicing.EventTypePaymentRecorded, invoicing.EventTypeInvoicePaid)
	stack.Events.Subscribe(paid, paid.EventTypes()...)

	params := gin.Params{{Key: "id", Value: view.Invoice.ID.String()}}
	body := map[string]any{"provider": "STRIPE", "provider_reference": "pi_api", "amount_cents": 50000}

	testutil.RunHTTPTestCases(t, h.RecordPayment, []HTTPTestCase{
		{
			Name:           "records and settles",
			Method:         http.MethodPost,
			Params:         params,
			Body:           body,
			Actor:          &tenant.Actor,
			ExpectedStatus: http.StatusCreated,
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				data, _ := testutil.DecodeResponse[handler.PaymentResultResponse](t, tc)
				assert.False(t, data.Duplicate)
				assert.Equal(t, string(invoicing.InvoiceStatusPaid), data.Invoice.Status)
				assert.Zero(t, data.Invoice.Balance.DueCents)
			},
		},
		{
			Name:           "replay answers with the original payment",
			Method:         http.MethodPost,
			Params:         params,
			Body:           body,
			Actor:          &tenant.Actor,
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				data, _ := testutil.DecodeResponse[handler.PaymentResultResponse](t, tc)
				assert.True(t, data.Duplicate)
			},
		},
		{
			Name:           "other organization",
			Method:         http.MethodPost,
			Params:         params,
			Body:           map[string]any{"amount_cents": 100},
			Actor:          &other.Actor,
			ExpectedStatus: http.StatusNotFound,
			ExpectedCode:   dto.ErrCodeNotFound,
		},
		{
			Name:           "zero amount",
			Method:         http.MethodPost,
			Params:         params,
			Body:           map[string]any{"amount_cents": 0},
			Actor:          &tenant.Actor,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeValidation,
		},
	})

	// events are published once, after the transaction commits
	testutil.RequireEventually(t, func() bool { return paid.HandledCount() == 2 }, time.Second, 10*time.Millisecond)
	for _, evt := range paid.Handled() {
		assert.Equal(t, tenant.Actor.TenantID, evt.TenantID())
	}
}

func TestAPI_PublicInvoicePage(t *testing.T) {
	stack := NewBillingStack(t, NewSharedTestDB(t), nil)
	tenant := stack.CreateTenant(t, "Public Co", "EUR")
	view := stack.SentInvoice(t, tenant)
	h := handler.NewPublicHandler(stack.Invoices, stack.Disputes)

	testutil.RunHTTPTestCases(t, h.ViewInvoice, []HTTPTestCase{
		{
			Name:           "known token",
			Params:         gin.Params{{Key: "token", Value: view.Invoice.Token}},
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				assert.Equal(t, "no-store", tc.Recorder.Header().Get("Cache-Control"))
				data, _ := testutil.DecodeResponse[map[string]any](t, tc)
				assert.Equal(t, view.Invoice.Number, data["number"])
			},
		},
		{
			Name:           "unknown token",
			Params:         gin.Params{{Key: "token", Value: "does-not-exist"}},
			ExpectedStatus: http.StatusNotFound,
		},
	})

	got, err := stack.Invoices.Get(t.Context(), tenant.Actor.TenantID, view.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicing.InvoiceStatusViewed, got.Invoice.Status)
}

// HTTPTestCase shortens the testutil type in tables
type HTTPTestCase = testutil.HTTPTestCase
