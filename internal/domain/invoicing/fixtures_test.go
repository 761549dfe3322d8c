package invoicing

import (
	"time"

	"github.com/google/uuid"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func mustLine(description string, quantity string, unitPriceCents int64, tax TaxPercent) LineItem {
	item, err := NewLineItem(description, qty(quantity), unitPriceCents, "pcs", tax)
	if err != nil {
		panic(err)
	}
	return item
}

func newTestInvoice(tenantID uuid.UUID, items ...LineItem) *Invoice {
	inv, err := NewInvoice(tenantID, "INV-2024-000001", "tok-1", InvoiceDraft{
		CustomerID:       uuid.New(),
		Currency:         "USD",
		IssueDate:        testNow,
		PaymentTermsDays: 30,
		TaxPercent:       Tax(7),
		Discount:         NoDiscount(),
		PONumber:         "PO-77",
		Items:            items,
	})
	if err != nil {
		panic(err)
	}
	return inv
}
