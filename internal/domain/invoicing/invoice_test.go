package invoicing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicer/backend/internal/domain/shared"
)

func TestNewInvoice(t *testing.T) {
	tenantID := uuid.New()

	t.Run("created as draft with due date from terms", func(t *testing.T) {
		inv := newTestInvoice(tenantID, mustLine("Consulting", "2", 250000, Tax(7)))
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
		assert.Equal(t, tenantID, inv.TenantID)
		assert.Equal(t, testNow.AddDate(0, 0, 30), inv.DueDate)
		assert.Equal(t, 1, inv.Items[0].Position)
		require.Len(t, inv.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeInvoiceCreated, inv.GetDomainEvents()[0].EventType())
	})

	t.Run("requires customer", func(t *testing.T) {
		_, err := NewInvoice(tenantID, "INV-1", "tok", InvoiceDraft{Currency: "USD", IssueDate: testNow})
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects due date before issue date", func(t *testing.T) {
		due := testNow.AddDate(0, 0, -1)
		_, err := NewInvoice(tenantID, "INV-1", "tok", InvoiceDraft{
			CustomerID: uuid.New(), Currency: "USD", IssueDate: testNow, DueDate: &due,
		})
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects invalid discount", func(t *testing.T) {
		_, err := NewInvoice(tenantID, "INV-1", "tok", InvoiceDraft{
			CustomerID: uuid.New(), Currency: "USD", IssueDate: testNow, Discount: FixedDiscount(-5),
		})
		assert.True(t, shared.IsValidation(err))
	})
}

func TestInvoiceLifecycle(t *testing.T) {
	tenantID := uuid.New()

	t.Run("send requires customer email", func(t *testing.T) {
		inv := newTestInvoice(tenantID)
		err := inv.Send("", testNow)
		assert.True(t, shared.IsValidation(err))
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
	})

	t.Run("send sets sentAt", func(t *testing.T) {
		inv := newTestInvoice(tenantID)
		require.NoError(t, inv.Send("buyer@example.com", testNow))
		assert.Equal(t, InvoiceStatusSent, inv.Status)
		require.NotNil(t, inv.SentAt)
		assert.Equal(t, testNow, *inv.SentAt)
	})

	t.Run("view is idempotent", func(t *testing.T) {
		inv := newTestInvoice(tenantID)
		assert.False(t, inv.MarkViewed(testNow), "draft is not viewable")
		require.NoError(t, inv.Send("buyer@example.com", testNow))
		assert.True(t, inv.MarkViewed(testNow))
		assert.False(t, inv.MarkViewed(testNow.Add(time.Hour)))
		assert.Equal(t, InvoiceStatusViewed, inv.Status)
		assert.Equal(t, testNow, *inv.ViewedAt)
	})

	t.Run("overdue only when past due with balance", func(t *testing.T) {
		inv := newTestInvoice(tenantID, mustLine("Work", "1", 1000, NoTax))
		require.NoError(t, inv.Send("buyer@example.com", testNow))

		assert.False(t, inv.MarkOverdue(1000, testNow), "not yet due")
		later := inv.DueDate.Add(time.Hour)
		assert.False(t, inv.MarkOverdue(0, later), "nothing due")
		assert.True(t, inv.MarkOverdue(1000, later))
		assert.Equal(t, InvoiceStatusOverdue, inv.Status)
	})

	t.Run("overdue never overrides paid or void", func(t *testing.T) {
		later := testNow.AddDate(1, 0, 0)
		paid := newTestInvoice(tenantID)
		require.NoError(t, paid.MarkPaid(Balance{}, nil, uuid.Nil, testNow))
		assert.False(t, paid.MarkOverdue(100, later))

		void := newTestInvoice(tenantID)
		require.NoError(t, void.Void("mistake", testNow))
		assert.False(t, void.MarkOverdue(100, later))
		assert.Equal(t, InvoiceStatusVoid, void.Status)
	})

	t.Run("void allowed from draft and sent", func(t *testing.T) {
		draft := newTestInvoice(tenantID)
		require.NoError(t, draft.Void("", testNow))
		assert.Equal(t, InvoiceStatusVoid, draft.Status)

		sent := newTestInvoice(tenantID)
		require.NoError(t, sent.Send("buyer@example.com", testNow))
		require.NoError(t, sent.Void("customer cancelled", testNow))
		assert.Equal(t, "customer cancelled", sent.VoidReason)
	})

	t.Run("void of paid invoice fails", func(t *testing.T) {
		inv := newTestInvoice(tenantID)
		require.NoError(t, inv.MarkPaid(Balance{}, nil, uuid.Nil, testNow))
		err := inv.Void("", testNow)
		assert.True(t, shared.IsInvalidState(err))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
	})

	t.Run("mark paid requires zero due", func(t *testing.T) {
		inv := newTestInvoice(tenantID)
		err := inv.MarkPaid(Balance{DueCents: 1}, nil, uuid.Nil, testNow)
		assert.True(t, shared.IsInvalidState(err))
	})

	t.Run("void invoice refuses funds", func(t *testing.T) {
		inv := newTestInvoice(tenantID)
		require.NoError(t, inv.Void("", testNow))
		assert.True(t, shared.IsInvalidState(inv.EnsureAcceptsFunds()))
	})

	t.Run("update only while draft", func(t *testing.T) {
		inv := newTestInvoice(tenantID)
		draft := InvoiceDraft{
			CustomerID: inv.CustomerID, Currency: "USD", IssueDate: testNow,
			Items: []LineItem{mustLine("New", "1", 10, NoTax)},
		}
		require.NoError(t, inv.Update(draft))
		assert.Len(t, inv.Items, 1)

		require.NoError(t, inv.Send("buyer@example.com", testNow))
		assert.True(t, shared.IsInvalidState(inv.Update(draft)))
	})
}

func TestInvoiceDuplicate(t *testing.T) {
	tenantID := uuid.New()
	src := newTestInvoice(tenantID,
		mustLine("Design", "2", 250000, Tax(7)),
		mustLine("Hosting", "1", 9900, NoTax),
	)
	src.Discount = PercentDiscount(qty("10"))
	require.NoError(t, src.Send("buyer@example.com", testNow))

	later := testNow.AddDate(0, 0, 3)
	dup, err := src.Duplicate("INV-2024-000002", "tok-2", later)
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusDraft, dup.Status)
	assert.NotEqual(t, src.ID, dup.ID)
	assert.NotEqual(t, src.Number, dup.Number)
	assert.NotEqual(t, src.Token, dup.Token)
	assert.Equal(t, later, dup.IssueDate)
	assert.Equal(t, src.DueDate, dup.DueDate)
	assert.Equal(t, src.PONumber, dup.PONumber)
	assert.Equal(t, src.Totals(), dup.Totals())
	require.Len(t, dup.Items, 2)
	assert.NotEqual(t, src.Items[0].ID, dup.Items[0].ID)
	assert.Equal(t, src.Items[0].Description, dup.Items[0].Description)

	assert.Equal(t, InvoiceStatusSent, src.Status, "source is untouched")
}

func TestInvoiceDuplicate_PastDueDateIsCopied(t *testing.T) {
	src := newTestInvoice(uuid.New(), mustLine("Design", "1", 1000, NoTax))
	later := src.DueDate.AddDate(0, 2, 0)

	dup, err := src.Duplicate("INV-2024-000002", "tok-2", later)
	require.NoError(t, err)
	assert.Equal(t, src.DueDate, dup.DueDate)
	assert.Equal(t, later, dup.IssueDate)
	assert.True(t, dup.DueDate.Before(dup.IssueDate))
}
