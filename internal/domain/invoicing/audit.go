package invoicing

import (
	"context"

	"github.com/google/uuid"
)

// Audit actions
const (
	AuditActionInvoiceCreated    = "invoice.created"
	AuditActionInvoiceUpdated    = "invoice.updated"
	AuditActionInvoiceSent       = "invoice.sent"
	AuditActionInvoiceViewed     = "invoice.viewed"
	AuditActionInvoiceOverdue    = "invoice.overdue"
	AuditActionInvoiceVoided     = "invoice.voided"
	AuditActionInvoiceDuplicated = "invoice.duplicated"
	AuditActionInvoicePaid       = "invoice.paid"
	AuditActionReminderSent      = "invoice.reminder_sent"
	AuditActionPaymentRecorded   = "payment.recorded"
	AuditActionCreditNoteIssued  = "credit_note.issued"
	AuditActionQuoteCreated      = "quote.created"
	AuditActionQuoteUpdated      = "quote.updated"
	AuditActionQuoteSent         = "quote.sent"
	AuditActionQuoteAccepted     = "quote.accepted"
	AuditActionQuoteExpired      = "quote.expired"
	AuditActionQuoteVoided       = "quote.voided"
	AuditActionQuoteDeleted      = "quote.deleted"
	AuditActionQuoteConverted    = "quote.converted"
	AuditActionDisputeOpened     = "dispute.opened"
	AuditActionDisputeApproved   = "dispute.approved"
	AuditActionDisputeRejected   = "dispute.rejected"
	AuditActionOrgCreated        = "organization.created"
	AuditActionOrgUpdated        = "organization.updated"
	AuditActionCustomerCreated   = "customer.created"
	AuditActionProductCreated    = "product.created"
)

// Audited entity types
const (
	EntityTypeInvoice    = "invoice"
	EntityTypeQuote      = "quote"
	EntityTypePayment    = "payment"
	EntityTypeCreditNote = "credit_note"
	EntityTypeDispute    = "dispute"
	EntityTypeOrg        = "organization"
	EntityTypeCustomer   = "customer"
	EntityTypeProduct    = "product"
)

// AuditRecord is one append-only audit entry
type AuditRecord struct {
	OrgID      uuid.UUID
	ActorID    uuid.UUID // uuid.Nil for system and public actions
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Data       map[string]any
}

// AuditSink persists audit records. It is called after the audited mutation commits.
type AuditSink interface {
	Record(ctx context.Context, record AuditRecord) (uuid.UUID, error)
}
