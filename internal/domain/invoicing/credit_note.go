package invoicing

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/shared"
)

// CreditNote reduces the amount due of an invoice without being a payment
type CreditNote struct {
	shared.TenantAggregateRoot
	Number      string
	InvoiceID   uuid.UUID
	AmountCents int64
	Reason      string
	DisputeID   *uuid.UUID
	IssuedAt    time.Time
}

// NewCreditNote creates a credit note against an invoice
func NewCreditNote(tenantID, invoiceID uuid.UUID, number string, amountCents int64, reason string, now time.Time) (*CreditNote, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.ValidationError("invoice is required")
	}
	if number == "" {
		return nil, shared.ValidationError("credit note number cannot be empty")
	}
	if amountCents <= 0 {
		return nil, shared.ValidationError("credit note amount must be positive")
	}
	cn := &CreditNote{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		InvoiceID:           invoiceID,
		AmountCents:         amountCents,
		Reason:              strings.TrimSpace(reason),
		IssuedAt:            now,
	}
	cn.AddDomainEvent(NewCreditNoteIssuedEvent(cn))
	return cn, nil
}
