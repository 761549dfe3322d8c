package invoicing

import (
	"time"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/shared"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"
	InvoiceStatusSent    InvoiceStatus = "SENT"
	InvoiceStatusViewed  InvoiceStatus = "VIEWED"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusVoid    InvoiceStatus = "VOID"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusViewed,
		InvoiceStatusOverdue, InvoiceStatusPaid, InvoiceStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true for PAID and VOID
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusVoid
}

// CanVoid returns true unless the invoice is paid or already void
func (s InvoiceStatus) CanVoid() bool {
	return !s.IsTerminal()
}

// IsOutstanding returns true for invoices the customer has been asked to pay
func (s InvoiceStatus) IsOutstanding() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusViewed || s == InvoiceStatusOverdue
}

// InvoiceDraft carries the editable content of an invoice.
type InvoiceDraft struct {
	CustomerID       uuid.UUID
	Currency         string
	IssueDate        time.Time
	DueDate          *time.Time
	PaymentTermsDays int
	TaxLabel         string
	TaxPercent       TaxPercent
	Discount         Discount
	PONumber         string
	Notes            string
	Items            []LineItem
}

func (d InvoiceDraft) validate() error {
	if d.CustomerID == uuid.Nil {
		return shared.ValidationError("customer is required")
	}
	if len(d.Currency) != 3 {
		return shared.ValidationError("currency must be a 3-letter ISO code")
	}
	if d.PaymentTermsDays < 0 {
		return shared.ValidationError("payment terms cannot be negative")
	}
	if err := d.TaxPercent.Validate(); err != nil {
		return shared.ValidationError("%s", err.Error())
	}
	if err := d.Discount.Validate(); err != nil {
		return shared.ValidationError("%s", err.Error())
	}
	if d.DueDate != nil && d.DueDate.Before(d.IssueDate) {
		return shared.ValidationError("due date cannot be before issue date")
	}
	return nil
}

func (d InvoiceDraft) dueDate() time.Time {
	if d.DueDate != nil {
		return *d.DueDate
	}
	return d.IssueDate.AddDate(0, 0, d.PaymentTermsDays)
}

// Invoice is the invoice aggregate root.
// It is created DRAFT and is never deleted; VOID is its cancellation.
type Invoice struct {
	shared.TenantAggregateRoot
	Number           string
	Token            string
	CustomerID       uuid.UUID
	QuoteID          *uuid.UUID
	Currency         string
	Status           InvoiceStatus
	IssueDate        time.Time
	DueDate          time.Time
	PaymentTermsDays int
	TaxLabel         string
	TaxPercent       TaxPercent
	Discount         Discount
	PONumber         string
	Notes            string
	Items            []LineItem
	SentAt           *time.Time
	ViewedAt         *time.Time
	OverdueAt        *time.Time
	PaidAt           *time.Time
	VoidedAt         *time.Time
	VoidReason       string
}

// NewInvoice creates a DRAFT invoice with the given number and public token
func NewInvoice(tenantID uuid.UUID, number, token string, draft InvoiceDraft) (*Invoice, error) {
	if number == "" {
		return nil, shared.ValidationError("invoice number cannot be empty")
	}
	if token == "" {
		return nil, shared.ValidationError("invoice token cannot be empty")
	}
	if err := draft.validate(); err != nil {
		return nil, err
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		Token:               token,
		Status:              InvoiceStatusDraft,
	}
	inv.apply(draft)
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

func (i *Invoice) apply(d InvoiceDraft) {
	i.CustomerID = d.CustomerID
	i.Currency = d.Currency
	i.IssueDate = d.IssueDate
	i.DueDate = d.dueDate()
	i.PaymentTermsDays = d.PaymentTermsDays
	i.TaxLabel = d.TaxLabel
	i.TaxPercent = d.TaxPercent
	i.Discount = d.Discount
	i.PONumber = d.PONumber
	i.Notes = d.Notes
	i.Items = numberItems(d.Items)
}

// Totals computes the invoice totals from its line items
func (i *Invoice) Totals() Totals {
	return CalculateTotals(lineInputs(i.Items), i.TaxPercent, i.Discount)
}

// Update replaces the editable content. Only DRAFT invoices can be edited.
func (i *Invoice) Update(draft InvoiceDraft) error {
	if i.Status != InvoiceStatusDraft {
		return shared.InvalidStateError("cannot edit invoice in %s status", i.Status)
	}
	if err := draft.validate(); err != nil {
		return err
	}
	i.apply(draft)
	i.Touch()
	i.AddDomainEvent(NewInvoiceUpdatedEvent(i))
	return nil
}

// Send marks the invoice SENT. The customer must have an email address.
func (i *Invoice) Send(customerEmail string, now time.Time) error {
	if i.Status.IsTerminal() {
		return shared.InvalidStateError("cannot send invoice in %s status", i.Status)
	}
	if customerEmail == "" {
		return shared.ValidationError("customer email is required to send an invoice")
	}
	i.Status = InvoiceStatusSent
	i.SentAt = &now
	i.Touch()
	i.AddDomainEvent(NewInvoiceSentEvent(i, customerEmail))
	return nil
}

// MarkViewed records a hosted page view. Only SENT moves to VIEWED; every other state is a no-op.
func (i *Invoice) MarkViewed(now time.Time) bool {
	if i.Status != InvoiceStatusSent {
		return false
	}
	i.Status = InvoiceStatusViewed
	i.ViewedAt = &now
	i.Touch()
	i.AddDomainEvent(NewInvoiceViewedEvent(i))
	return true
}

// MarkOverdue moves a SENT or VIEWED invoice to OVERDUE when its due date has passed
// and a balance remains. It reports whether the status changed.
func (i *Invoice) MarkOverdue(dueCents int64, now time.Time) bool {
	if i.Status != InvoiceStatusSent && i.Status != InvoiceStatusViewed {
		return false
	}
	if !i.DueDate.Before(now) || dueCents <= 0 {
		return false
	}
	i.Status = InvoiceStatusOverdue
	i.OverdueAt = &now
	i.Touch()
	i.AddDomainEvent(NewInvoiceOverdueEvent(i, dueCents))
	return true
}

// EnsureAcceptsFunds fails for invoices that can no longer take payments or credits.
func (i *Invoice) EnsureAcceptsFunds() error {
	if i.Status == InvoiceStatusVoid {
		return shared.InvalidStateError("invoice %s is void", i.Number)
	}
	return nil
}

// MarkPaid moves any non-terminal invoice to PAID. paymentID is the payment that settled
// the balance, nil when a credit note did.
func (i *Invoice) MarkPaid(balance Balance, paymentID *uuid.UUID, actorID uuid.UUID, now time.Time) error {
	if i.Status.IsTerminal() {
		return shared.InvalidStateError("cannot mark invoice %s paid in %s status", i.Number, i.Status)
	}
	if balance.DueCents != 0 {
		return shared.InvalidStateError("invoice %s still has %d due", i.Number, balance.DueCents)
	}
	i.Status = InvoiceStatusPaid
	i.PaidAt = &now
	i.Touch()
	event := NewInvoicePaidEvent(i, balance)
	event.PaymentID = paymentID
	event.ActorID = actorID
	i.AddDomainEvent(event)
	return nil
}

// Void cancels the invoice. A paid invoice cannot be voided.
func (i *Invoice) Void(reason string, now time.Time) error {
	if !i.Status.CanVoid() {
		return shared.InvalidStateError("cannot void invoice in %s status", i.Status)
	}
	i.Status = InvoiceStatusVoid
	i.VoidedAt = &now
	i.VoidReason = reason
	i.Touch()
	i.AddDomainEvent(NewInvoiceVoidedEvent(i))
	return nil
}

// Duplicate copies the invoice into a new DRAFT with a fresh number, token and issue date.
// The due date is copied as is, even when it is already past. The source invoice is not modified.
func (i *Invoice) Duplicate(number, token string, now time.Time) (*Invoice, error) {
	dup, err := NewInvoice(i.TenantID, number, token, InvoiceDraft{
		CustomerID:       i.CustomerID,
		Currency:         i.Currency,
		IssueDate:        now,
		PaymentTermsDays: i.PaymentTermsDays,
		TaxLabel:         i.TaxLabel,
		TaxPercent:       i.TaxPercent,
		Discount:         i.Discount,
		PONumber:         i.PONumber,
		Notes:            i.Notes,
		Items:            cloneItems(i.Items),
	})
	if err != nil {
		return nil, err
	}
	dup.DueDate = i.DueDate
	return dup, nil
}
