package invoicing

import (
	"time"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/shared"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSucceeded, PaymentStatusFailed,
		PaymentStatusRefunded, PaymentStatusCancelled:
		return true
	}
	return false
}

// PaymentProvider identifies where a payment came from
type PaymentProvider string

const (
	PaymentProviderManual       PaymentProvider = "MANUAL"
	PaymentProviderStripe       PaymentProvider = "STRIPE"
	PaymentProviderBankTransfer PaymentProvider = "BANK_TRANSFER"
	PaymentProviderOther        PaymentProvider = "OTHER"
)

// IsValid checks if the provider is known
func (p PaymentProvider) IsValid() bool {
	switch p {
	case PaymentProviderManual, PaymentProviderStripe, PaymentProviderBankTransfer, PaymentProviderOther:
		return true
	}
	return false
}

// Payment is money received (or attempted) against an invoice.
// Only SUCCEEDED payments reduce the amount due.
type Payment struct {
	shared.TenantAggregateRoot
	InvoiceID         uuid.UUID
	Provider          PaymentProvider
	ProviderReference string
	Status            PaymentStatus
	AmountCents       int64
	PaidAt            *time.Time
}

// NewPayment creates a payment record against an invoice
func NewPayment(tenantID, invoiceID uuid.UUID, provider PaymentProvider, reference string, status PaymentStatus, amountCents int64, now time.Time) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.ValidationError("invoice is required")
	}
	if amountCents <= 0 {
		return nil, shared.ValidationError("payment amount must be positive")
	}
	if !provider.IsValid() {
		return nil, shared.ValidationError("unknown payment provider %q", provider)
	}
	if !status.IsValid() {
		return nil, shared.ValidationError("unknown payment status %q", status)
	}
	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceID:           invoiceID,
		Provider:            provider,
		ProviderReference:   reference,
		Status:              status,
		AmountCents:         amountCents,
	}
	if status == PaymentStatusSucceeded {
		p.PaidAt = &now
	}
	p.AddDomainEvent(NewPaymentRecordedEvent(p))
	return p, nil
}

// Counts reports whether the payment reduces the invoice balance
func (p *Payment) Counts() bool {
	return p.Status == PaymentStatusSucceeded
}
