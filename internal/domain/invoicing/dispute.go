package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/shared"
)

// DisputeStatus represents the status of a dispute
type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "OPEN"
	DisputeStatusApproved DisputeStatus = "APPROVED"
	DisputeStatusRejected DisputeStatus = "REJECTED"
	// DisputeStatusClosed is set by an external closure, never by approve or reject.
	DisputeStatusClosed DisputeStatus = "CLOSED"
)

// IsValid checks if the status is a valid DisputeStatus
func (s DisputeStatus) IsValid() bool {
	switch s {
	case DisputeStatusOpen, DisputeStatusApproved, DisputeStatusRejected, DisputeStatusClosed:
		return true
	}
	return false
}

// Dispute is a customer's challenge of an invoice
type Dispute struct {
	shared.TenantAggregateRoot
	InvoiceID      uuid.UUID
	Status         DisputeStatus
	Reason         string
	SellerResponse string
	CreditNoteID   *uuid.UUID
	ResolvedAt     *time.Time
}

// NewDispute opens a dispute against an invoice
func NewDispute(tenantID, invoiceID uuid.UUID, reason string) (*Dispute, error) {
	reason = strings.TrimSpace(reason)
	if invoiceID == uuid.Nil {
		return nil, shared.ValidationError("invoice is required")
	}
	if reason == "" {
		return nil, shared.ValidationError("dispute reason cannot be empty")
	}
	d := &Dispute{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceID:           invoiceID,
		Status:              DisputeStatusOpen,
		Reason:              reason,
	}
	d.AddDomainEvent(NewDisputeEvent(EventTypeDisputeOpened, d))
	return d, nil
}

// EnsureOpen fails unless the dispute can still be resolved
func (d *Dispute) EnsureOpen() error {
	if d.Status != DisputeStatusOpen {
		return shared.InvalidStateError("dispute is %s, only OPEN disputes can be resolved", d.Status)
	}
	return nil
}

// ValidateApproval checks an approval before any credit is issued
func (d *Dispute) ValidateApproval(amountCents int64) error {
	if err := d.EnsureOpen(); err != nil {
		return err
	}
	if amountCents <= 0 {
		return shared.ValidationError("approved amount must be positive")
	}
	return nil
}

// Approve resolves the dispute in the customer's favour with the issued credit note
func (d *Dispute) Approve(creditNote *CreditNote, now time.Time) error {
	if err := d.ValidateApproval(creditNote.AmountCents); err != nil {
		return err
	}
	d.Status = DisputeStatusApproved
	d.CreditNoteID = &creditNote.ID
	d.SellerResponse = fmt.Sprintf("Approved: credit note %s issued", creditNote.Number)
	d.ResolvedAt = &now
	d.Touch()
	d.AddDomainEvent(NewDisputeEvent(EventTypeDisputeApproved, d))
	return nil
}

// Reject resolves the dispute with the seller's response. The invoice balance is untouched.
func (d *Dispute) Reject(message string, now time.Time) error {
	if err := d.EnsureOpen(); err != nil {
		return err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return shared.ValidationError("rejection message cannot be empty")
	}
	d.Status = DisputeStatusRejected
	d.SellerResponse = message
	d.ResolvedAt = &now
	d.Touch()
	d.AddDomainEvent(NewDisputeEvent(EventTypeDisputeRejected, d))
	return nil
}
