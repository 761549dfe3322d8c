package invoicing

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/shared"
)

// QuoteStatus represents the status of a quote
type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "DRAFT"
	QuoteStatusSent      QuoteStatus = "SENT"
	QuoteStatusAccepted  QuoteStatus = "ACCEPTED"
	QuoteStatusExpired   QuoteStatus = "EXPIRED"
	QuoteStatusConverted QuoteStatus = "CONVERTED"
	QuoteStatusVoid      QuoteStatus = "VOID"
)

// IsValid checks if the status is a valid QuoteStatus
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted,
		QuoteStatusExpired, QuoteStatusConverted, QuoteStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of QuoteStatus
func (s QuoteStatus) String() string {
	return string(s)
}

// IsTerminal returns true for CONVERTED and VOID
func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteStatusConverted || s == QuoteStatusVoid
}

// CanEdit returns true while the quote is neither converted nor void
func (s QuoteStatus) CanEdit() bool {
	return !s.IsTerminal()
}

// QuoteDraft carries the editable content of a quote.
type QuoteDraft struct {
	CustomerID uuid.UUID
	Currency   string
	IssueDate  time.Time
	ExpiryDate *time.Time
	TaxPercent TaxPercent
	Discount   Discount
	Notes      string
	Items      []LineItem
}

func (d QuoteDraft) validate() error {
	if d.CustomerID == uuid.Nil {
		return shared.ValidationError("customer is required")
	}
	if len(d.Currency) != 3 {
		return shared.ValidationError("currency must be a 3-letter ISO code")
	}
	if err := d.TaxPercent.Validate(); err != nil {
		return shared.ValidationError("%s", err.Error())
	}
	if err := d.Discount.Validate(); err != nil {
		return shared.ValidationError("%s", err.Error())
	}
	if d.ExpiryDate != nil && d.ExpiryDate.Before(d.IssueDate) {
		return shared.ValidationError("expiry date cannot be before issue date")
	}
	return nil
}

// Quote is the quote aggregate root. It has its own numbering series.
type Quote struct {
	shared.TenantAggregateRoot
	Number             string
	CustomerID         uuid.UUID
	Currency           string
	Status             QuoteStatus
	IssueDate          time.Time
	ExpiryDate         *time.Time
	TaxPercent         TaxPercent
	Discount           Discount
	Notes              string
	Items              []LineItem
	SentAt             *time.Time
	AcceptedAt         *time.Time
	ConvertedAt        *time.Time
	ConvertedInvoiceID *uuid.UUID
	VoidedAt           *time.Time
}

// NewQuote creates a DRAFT quote
func NewQuote(tenantID uuid.UUID, number string, draft QuoteDraft) (*Quote, error) {
	if number == "" {
		return nil, shared.ValidationError("quote number cannot be empty")
	}
	if err := draft.validate(); err != nil {
		return nil, err
	}
	q := &Quote{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		Status:              QuoteStatusDraft,
	}
	q.apply(draft)
	q.AddDomainEvent(NewQuoteEvent(EventTypeQuoteCreated, q))
	return q, nil
}

func (q *Quote) apply(d QuoteDraft) {
	q.CustomerID = d.CustomerID
	q.Currency = d.Currency
	q.IssueDate = d.IssueDate
	q.ExpiryDate = d.ExpiryDate
	q.TaxPercent = d.TaxPercent
	q.Discount = d.Discount
	q.Notes = d.Notes
	q.Items = numberItems(d.Items)
}

// Totals computes the quote totals from its line items
func (q *Quote) Totals() Totals {
	return CalculateTotals(lineInputs(q.Items), q.TaxPercent, q.Discount)
}

// Update replaces the editable content, including line items
func (q *Quote) Update(draft QuoteDraft) error {
	if !q.Status.CanEdit() {
		return shared.InvalidStateError("cannot edit quote in %s status", q.Status)
	}
	if err := draft.validate(); err != nil {
		return err
	}
	q.apply(draft)
	q.Touch()
	q.AddDomainEvent(NewQuoteEvent(EventTypeQuoteUpdated, q))
	return nil
}

// Send marks the quote SENT. An accepted quote stays ACCEPTED when re-sent.
func (q *Quote) Send(now time.Time) error {
	if q.Status.IsTerminal() {
		return shared.InvalidStateError("cannot send quote in %s status", q.Status)
	}
	if q.Status != QuoteStatusAccepted {
		q.Status = QuoteStatusSent
	}
	q.SentAt = &now
	q.Touch()
	q.AddDomainEvent(NewQuoteEvent(EventTypeQuoteSent, q))
	return nil
}

// Accept records the customer's acceptance of a sent quote
func (q *Quote) Accept(now time.Time) error {
	if q.Status != QuoteStatusSent {
		return shared.InvalidStateError("cannot accept quote in %s status", q.Status)
	}
	if q.ExpiryDate != nil && q.ExpiryDate.Before(now) {
		return shared.InvalidStateError("quote %s expired on %s", q.Number, q.ExpiryDate.Format("2006-01-02"))
	}
	q.Status = QuoteStatusAccepted
	q.AcceptedAt = &now
	q.Touch()
	q.AddDomainEvent(NewQuoteEvent(EventTypeQuoteAccepted, q))
	return nil
}

// Expire moves a SENT quote past its expiry date to EXPIRED. It reports whether the status changed.
func (q *Quote) Expire(now time.Time) bool {
	if q.Status != QuoteStatusSent || q.ExpiryDate == nil || !q.ExpiryDate.Before(now) {
		return false
	}
	q.Status = QuoteStatusExpired
	q.Touch()
	q.AddDomainEvent(NewQuoteEvent(EventTypeQuoteExpired, q))
	return true
}

// Void cancels the quote. A converted quote cannot be voided.
func (q *Quote) Void(now time.Time) error {
	if q.Status.IsTerminal() {
		return shared.InvalidStateError("cannot void quote in %s status", q.Status)
	}
	q.Status = QuoteStatusVoid
	q.VoidedAt = &now
	q.Touch()
	q.AddDomainEvent(NewQuoteEvent(EventTypeQuoteVoided, q))
	return nil
}

// EnsureDeletable fails unless the quote is still a DRAFT
func (q *Quote) EnsureDeletable() error {
	if q.Status != QuoteStatusDraft {
		return shared.InvalidStateError("only draft quotes can be deleted, quote is %s", q.Status)
	}
	return nil
}

// ConversionDraft builds the content of the invoice a quote converts into.
// A quote without lines yields one zero-priced placeholder line.
func (q *Quote) ConversionDraft(org *Organization, terms int, now time.Time) (InvoiceDraft, error) {
	if q.Status == QuoteStatusConverted {
		return InvoiceDraft{}, shared.InvalidStateError("quote %s is already converted", q.Number)
	}
	if q.Status == QuoteStatusVoid {
		return InvoiceDraft{}, shared.InvalidStateError("cannot convert void quote %s", q.Number)
	}

	items := cloneItems(q.Items)
	if len(items) == 0 {
		placeholder, err := NewLineItem(q.placeholderDescription(), decimal.NewFromInt(1), 0, "", NoTax)
		if err != nil {
			return InvoiceDraft{}, err
		}
		placeholder.Position = 1
		items = []LineItem{placeholder}
	}

	taxLabel := ""
	if org != nil {
		taxLabel = org.TaxLabel
	}
	return InvoiceDraft{
		CustomerID:       q.CustomerID,
		Currency:         q.Currency,
		IssueDate:        now,
		PaymentTermsDays: terms,
		TaxLabel:         taxLabel,
		TaxPercent:       q.TaxPercent,
		Discount:         q.Discount,
		Notes:            q.Notes,
		Items:            items,
	}, nil
}

func (q *Quote) placeholderDescription() string {
	notes := strings.TrimSpace(q.Notes)
	if notes == "" {
		return fmt.Sprintf("Converted from quote %s", q.Number)
	}
	if line, _, found := strings.Cut(notes, "\n"); found {
		notes = strings.TrimSpace(line)
	}
	if utf8.RuneCountInString(notes) > maxDescriptionLength {
		notes = string([]rune(notes)[:maxDescriptionLength])
	}
	return notes
}

// MarkConverted links the quote to the invoice created from it
func (q *Quote) MarkConverted(invoiceID uuid.UUID, now time.Time) error {
	if q.Status.IsTerminal() {
		return shared.InvalidStateError("cannot convert quote in %s status", q.Status)
	}
	q.Status = QuoteStatusConverted
	q.ConvertedInvoiceID = &invoiceID
	q.ConvertedAt = &now
	q.Touch()
	q.AddDomainEvent(NewQuoteConvertedEvent(q))
	return nil
}
