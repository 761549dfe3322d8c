package invoicing

// Balance is the reconciled state of an invoice. DueCents is never stored; it is derived
// from line items, payments and credit notes every time.
type Balance struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TotalCents    int64 `json:"total_cents"`
	PaidCents     int64 `json:"paid_cents"`
	CreditedCents int64 `json:"credited_cents"`
	DueCents      int64 `json:"due_cents"`
}

// AmountDue floors the outstanding amount at zero. Total itself is never floored.
func AmountDue(totalCents, paidCents, creditedCents int64) int64 {
	due := totalCents - paidCents - creditedCents
	if due < 0 {
		return 0
	}
	return due
}

// Reconcile combines invoice totals with succeeded payments and credit notes
func Reconcile(inv *Invoice, payments []Payment, credits []CreditNote) Balance {
	totals := inv.Totals()
	b := Balance{
		SubtotalCents: totals.SubtotalCents,
		TaxCents:      totals.TaxCents,
		DiscountCents: totals.DiscountCents,
		TotalCents:    totals.TotalCents,
	}
	for i := range payments {
		if payments[i].Counts() {
			b.PaidCents += payments[i].AmountCents
		}
	}
	for i := range credits {
		b.CreditedCents += credits[i].AmountCents
	}
	b.DueCents = AmountDue(b.TotalCents, b.PaidCents, b.CreditedCents)
	return b
}

// ShouldMarkPaid reports whether the reconciled invoice must transition to PAID
func ShouldMarkPaid(inv *Invoice, b Balance) bool {
	return b.DueCents == 0 && !inv.Status.IsTerminal()
}
