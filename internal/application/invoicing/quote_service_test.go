package invoicing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
)

func (h *harness) quoteInput() appinv.QuoteInput {
	price := int64(150000)
	expiry := testStart.AddDate(0, 0, 14)
	return appinv.QuoteInput{
		CustomerID: h.customer.ID,
		ExpiryDate: &expiry,
		Notes:      "Website redesign\nPhase one only",
		Items: []appinv.LineItemInput{
			{Description: "Design", Quantity: decimal.NewFromInt(1), UnitPriceCents: &price},
		},
	}
}

func (h *harness) createQuote(t *testing.T) *appinv.QuoteView {
	t.Helper()
	view, err := h.quotes.Create(context.Background(), h.actor, h.quoteInput())
	require.NoError(t, err)
	return view
}

func TestQuoteService_Create(t *testing.T) {
	h := newHarness(t)

	first := h.createQuote(t)
	second := h.createQuote(t)

	assert.Equal(t, "QTE-2024-000001", first.Quote.Number)
	assert.Equal(t, "QTE-2024-000002", second.Quote.Number)
	assert.Equal(t, invoicing.QuoteStatusDraft, first.Quote.Status)
	assert.Equal(t, int64(150000), first.Totals.TotalCents)
	assert.Equal(t, 1, h.audit.count(invoicing.AuditActionQuoteCreated, first.Quote.ID))
}

func TestQuoteService_Lifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	view := h.createQuote(t)
	id := view.Quote.ID

	_, err := h.quotes.Accept(ctx, h.actor, id)
	assert.True(t, shared.IsInvalidState(err), "a draft cannot be accepted")

	sent, err := h.quotes.Send(ctx, h.actor, id)
	require.NoError(t, err)
	assert.Equal(t, invoicing.QuoteStatusSent, sent.Quote.Status)
	emails := h.email.byTemplate(appinv.EmailTemplateQuote)
	require.Len(t, emails, 1)
	assert.Equal(t, "Quote QTE-2024-000001 from Acme Ltd", emails[0].Subject)

	accepted, err := h.quotes.Accept(ctx, h.actor, id)
	require.NoError(t, err)
	assert.Equal(t, invoicing.QuoteStatusAccepted, accepted.Quote.Status)

	// re-sending keeps the acceptance
	resent, err := h.quotes.Send(ctx, h.actor, id)
	require.NoError(t, err)
	assert.Equal(t, invoicing.QuoteStatusAccepted, resent.Quote.Status)

	err = h.quotes.Delete(ctx, h.actor, id)
	assert.True(t, shared.IsInvalidState(err), "only drafts can be deleted")
}

func TestQuoteService_Convert(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	view := h.createQuote(t)
	_, err := h.quotes.Send(ctx, h.actor, view.Quote.ID)
	require.NoError(t, err)

	inv, err := h.quotes.Convert(ctx, h.actor, view.Quote.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-000001", inv.Invoice.Number)
	assert.Equal(t, invoicing.InvoiceStatusDraft, inv.Invoice.Status)
	require.NotNil(t, inv.Invoice.QuoteID)
	assert.Equal(t, view.Quote.ID, *inv.Invoice.QuoteID)
	assert.Equal(t, view.Totals.TotalCents, inv.Balance.TotalCents)
	assert.Equal(t, "Tax", inv.Invoice.TaxLabel)

	quote, err := h.quotes.Get(ctx, h.actor.TenantID, view.Quote.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicing.QuoteStatusConverted, quote.Quote.Status)
	require.NotNil(t, quote.Quote.ConvertedInvoiceID)
	assert.Equal(t, inv.Invoice.ID, *quote.Quote.ConvertedInvoiceID)

	_, err = h.quotes.Convert(ctx, h.actor, view.Quote.ID)
	assert.True(t, shared.IsInvalidState(err))

	// the rejected conversion did not consume an invoice number
	next := h.createInvoice(t)
	assert.Equal(t, "INV-2024-000002", next.Invoice.Number)
}

func TestQuoteService_ConvertEmptyQuote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := h.quoteInput()
	in.Items = nil
	view, err := h.quotes.Create(ctx, h.actor, in)
	require.NoError(t, err)

	inv, err := h.quotes.Convert(ctx, h.actor, view.Quote.ID)
	require.NoError(t, err)
	require.Len(t, inv.Invoice.Items, 1)
	assert.Equal(t, "Website redesign", inv.Invoice.Items[0].Description)
	assert.Zero(t, inv.Balance.TotalCents)
}

func TestQuoteService_ConvertVoidQuote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	view := h.createQuote(t)
	_, err := h.quotes.Void(ctx, h.actor, view.Quote.ID)
	require.NoError(t, err)

	_, err = h.quotes.Convert(ctx, h.actor, view.Quote.ID)
	assert.True(t, shared.IsInvalidState(err))
}

func TestQuoteService_ExpireDue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sent := h.createQuote(t)
	_, err := h.quotes.Send(ctx, h.actor, sent.Quote.ID)
	require.NoError(t, err)
	draft := h.createQuote(t)

	result, err := h.quotes.ExpireDue(ctx, h.actor)
	require.NoError(t, err)
	assert.Zero(t, result.Succeeded, "nothing has expired yet")

	h.clock.Advance(15 * 24 * time.Hour)

	_, err = h.quotes.Accept(ctx, h.actor, sent.Quote.ID)
	assert.True(t, shared.IsInvalidState(err), "an expired quote cannot be accepted")

	result, err = h.quotes.ExpireDue(ctx, h.actor)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	require.Len(t, result.Items, 1)
	assert.Equal(t, sent.Quote.ID, result.Items[0].ID)

	got, err := h.quotes.Get(ctx, h.actor.TenantID, sent.Quote.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicing.QuoteStatusExpired, got.Quote.Status)
	got, err = h.quotes.Get(ctx, h.actor.TenantID, draft.Quote.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicing.QuoteStatusDraft, got.Quote.Status)
}

func TestQuoteService_UpdateAndDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	view := h.createQuote(t)

	in := h.quoteInput()
	in.Discount = &appinv.DiscountInput{Type: invoicing.DiscountTypePercent, Value: decimal.NewFromInt(10)}
	updated, err := h.quotes.Update(ctx, h.actor, view.Quote.ID, in)
	require.NoError(t, err)
	assert.Equal(t, int64(135000), updated.Totals.TotalCents)

	require.NoError(t, h.quotes.Delete(ctx, h.actor, view.Quote.ID))
	_, err = h.quotes.Get(ctx, h.actor.TenantID, view.Quote.ID)
	assert.True(t, shared.IsNotFound(err))

	page, err := h.quotes.List(ctx, h.actor.TenantID, invoicing.QuoteFilter{Filter: shared.Filter{Page: 1, PageSize: 10}})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}
