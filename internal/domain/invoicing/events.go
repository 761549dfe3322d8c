package invoicing

import (
	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeInvoice    = "Invoice"
	AggregateTypeQuote      = "Quote"
	AggregateTypePayment    = "Payment"
	AggregateTypeCreditNote = "CreditNote"
	AggregateTypeDispute    = "Dispute"
)

// Event type constants
const (
	EventTypeInvoiceCreated   = "InvoiceCreated"
	EventTypeInvoiceUpdated   = "InvoiceUpdated"
	EventTypeInvoiceSent      = "InvoiceSent"
	EventTypeInvoiceViewed    = "InvoiceViewed"
	EventTypeInvoiceOverdue   = "InvoiceOverdue"
	EventTypeInvoicePaid      = "InvoicePaid"
	EventTypeInvoiceVoided    = "InvoiceVoided"
	EventTypeQuoteCreated     = "QuoteCreated"
	EventTypeQuoteUpdated     = "QuoteUpdated"
	EventTypeQuoteSent        = "QuoteSent"
	EventTypeQuoteAccepted    = "QuoteAccepted"
	EventTypeQuoteExpired     = "QuoteExpired"
	EventTypeQuoteVoided      = "QuoteVoided"
	EventTypeQuoteConverted   = "QuoteConverted"
	EventTypePaymentRecorded  = "PaymentRecorded"
	EventTypeCreditNoteIssued = "CreditNoteIssued"
	EventTypeDisputeOpened    = "DisputeOpened"
	EventTypeDisputeApproved  = "DisputeApproved"
	EventTypeDisputeRejected  = "DisputeRejected"
)

// InvoiceEvent is raised on every invoice status change
type InvoiceEvent struct {
	shared.BaseDomainEvent
	InvoiceID  uuid.UUID     `json:"invoice_id"`
	Number     string        `json:"number"`
	CustomerID uuid.UUID     `json:"customer_id"`
	Status     InvoiceStatus `json:"status"`
}

func newInvoiceEvent(eventType string, inv *Invoice) InvoiceEvent {
	return InvoiceEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		Number:          inv.Number,
		CustomerID:      inv.CustomerID,
		Status:          inv.Status,
	}
}

// InvoiceCreatedEvent is raised when an invoice is created, duplicated or converted from a quote
type InvoiceCreatedEvent struct {
	InvoiceEvent
	QuoteID *uuid.UUID `json:"quote_id,omitempty"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{InvoiceEvent: newInvoiceEvent(EventTypeInvoiceCreated, inv), QuoteID: inv.QuoteID}
}

// NewInvoiceUpdatedEvent creates an event for a draft edit
func NewInvoiceUpdatedEvent(inv *Invoice) *InvoiceEvent {
	e := newInvoiceEvent(EventTypeInvoiceUpdated, inv)
	return &e
}

// InvoiceSentEvent is raised when an invoice is sent to the customer
type InvoiceSentEvent struct {
	InvoiceEvent
	RecipientEmail string `json:"recipient_email"`
}

// NewInvoiceSentEvent creates a new InvoiceSentEvent
func NewInvoiceSentEvent(inv *Invoice, email string) *InvoiceSentEvent {
	return &InvoiceSentEvent{InvoiceEvent: newInvoiceEvent(EventTypeInvoiceSent, inv), RecipientEmail: email}
}

// NewInvoiceViewedEvent creates an event for a hosted page view
func NewInvoiceViewedEvent(inv *Invoice) *InvoiceEvent {
	e := newInvoiceEvent(EventTypeInvoiceViewed, inv)
	return &e
}

// InvoiceOverdueEvent is raised when an invoice passes its due date unpaid
type InvoiceOverdueEvent struct {
	InvoiceEvent
	DueCents int64 `json:"due_cents"`
}

// NewInvoiceOverdueEvent creates a new InvoiceOverdueEvent
func NewInvoiceOverdueEvent(inv *Invoice, dueCents int64) *InvoiceOverdueEvent {
	return &InvoiceOverdueEvent{InvoiceEvent: newInvoiceEvent(EventTypeInvoiceOverdue, inv), DueCents: dueCents}
}

// InvoicePaidEvent is raised once, when reconciliation brings the amount due to zero.
// Its handlers run after the transition has committed.
type InvoicePaidEvent struct {
	InvoiceEvent
	Balance   Balance    `json:"balance"`
	PaymentID *uuid.UUID `json:"payment_id,omitempty"`
	ActorID   uuid.UUID  `json:"actor_id"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice, balance Balance) *InvoicePaidEvent {
	return &InvoicePaidEvent{InvoiceEvent: newInvoiceEvent(EventTypeInvoicePaid, inv), Balance: balance}
}

// InvoiceVoidedEvent is raised when an invoice is voided
type InvoiceVoidedEvent struct {
	InvoiceEvent
	Reason string `json:"reason"`
}

// NewInvoiceVoidedEvent creates a new InvoiceVoidedEvent
func NewInvoiceVoidedEvent(inv *Invoice) *InvoiceVoidedEvent {
	return &InvoiceVoidedEvent{InvoiceEvent: newInvoiceEvent(EventTypeInvoiceVoided, inv), Reason: inv.VoidReason}
}

// QuoteEvent is raised on quote lifecycle changes
type QuoteEvent struct {
	shared.BaseDomainEvent
	QuoteID uuid.UUID   `json:"quote_id"`
	Number  string      `json:"number"`
	Status  QuoteStatus `json:"status"`
}

// NewQuoteEvent creates a quote event of the given type
func NewQuoteEvent(eventType string, q *Quote) *QuoteEvent {
	return &QuoteEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		Number:          q.Number,
		Status:          q.Status,
	}
}

// QuoteConvertedEvent is raised when a quote becomes an invoice
type QuoteConvertedEvent struct {
	QuoteEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
}

// NewQuoteConvertedEvent creates a new QuoteConvertedEvent
func NewQuoteConvertedEvent(q *Quote) *QuoteConvertedEvent {
	e := &QuoteConvertedEvent{QuoteEvent: *NewQuoteEvent(EventTypeQuoteConverted, q)}
	if q.ConvertedInvoiceID != nil {
		e.InvoiceID = *q.ConvertedInvoiceID
	}
	return e
}

// PaymentRecordedEvent is raised when a payment is recorded
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID   uuid.UUID       `json:"payment_id"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Provider    PaymentProvider `json:"provider"`
	Status      PaymentStatus   `json:"status"`
	AmountCents int64           `json:"amount_cents"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		InvoiceID:       p.InvoiceID,
		Provider:        p.Provider,
		Status:          p.Status,
		AmountCents:     p.AmountCents,
	}
}

// CreditNoteIssuedEvent is raised when a credit note is issued
type CreditNoteIssuedEvent struct {
	shared.BaseDomainEvent
	CreditNoteID uuid.UUID `json:"credit_note_id"`
	Number       string    `json:"number"`
	InvoiceID    uuid.UUID `json:"invoice_id"`
	AmountCents  int64     `json:"amount_cents"`
}

// NewCreditNoteIssuedEvent creates a new CreditNoteIssuedEvent
func NewCreditNoteIssuedEvent(cn *CreditNote) *CreditNoteIssuedEvent {
	return &CreditNoteIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditNoteIssued, AggregateTypeCreditNote, cn.ID, cn.TenantID),
		CreditNoteID:    cn.ID,
		Number:          cn.Number,
		InvoiceID:       cn.InvoiceID,
		AmountCents:     cn.AmountCents,
	}
}

// DisputeEvent is raised on dispute lifecycle changes
type DisputeEvent struct {
	shared.BaseDomainEvent
	DisputeID    uuid.UUID     `json:"dispute_id"`
	InvoiceID    uuid.UUID     `json:"invoice_id"`
	Status       DisputeStatus `json:"status"`
	CreditNoteID *uuid.UUID    `json:"credit_note_id,omitempty"`
}

// NewDisputeEvent creates a dispute event of the given type
func NewDisputeEvent(eventType string, d *Dispute) *DisputeEvent {
	return &DisputeEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeDispute, d.ID, d.TenantID),
		DisputeID:       d.ID,
		InvoiceID:       d.InvoiceID,
		Status:          d.Status,
		CreditNoteID:    d.CreditNoteID,
	}
}
