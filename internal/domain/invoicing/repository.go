package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/shared"
)

// OrganizationRepository defines persistence for organizations
type OrganizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	Save(ctx context.Context, org *Organization) error
	// NextInvoiceSequence atomically increments the organization's invoice counter and
	// returns the sequence it reserved. It must run inside the invoice-creating transaction.
	NextInvoiceSequence(ctx context.Context, orgID uuid.UUID) (int64, error)
}

// CustomerRepository defines persistence for customers
type CustomerRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
}

// ProductRepository defines persistence for catalog products
type ProductRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	Save(ctx context.Context, product *Product) error
}

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Statuses   []InvoiceStatus
	DueBefore  *time.Time
}

// InvoiceRepository defines persistence for invoices and their line items
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	// FindByToken resolves a hosted-page token. It is the only lookup not scoped by tenant.
	FindByToken(ctx context.Context, token string) (*Invoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, int64, error)
	// Create inserts a new invoice. A duplicate number or token returns CONCURRENCY_CONFLICT.
	Create(ctx context.Context, inv *Invoice) error
	// SaveWithLock updates an invoice with an optimistic version check
	SaveWithLock(ctx context.Context, inv *Invoice) error
}

// QuoteFilter defines filtering options for quote queries
type QuoteFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Statuses   []QuoteStatus
}

// QuoteRepository defines persistence for quotes and their line items
type QuoteRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Quote, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter QuoteFilter) ([]Quote, int64, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
	ExistsByNumber(ctx context.Context, tenantID uuid.UUID, number string) (bool, error)
	Create(ctx context.Context, q *Quote) error
	SaveWithLock(ctx context.Context, q *Quote) error
	// DeleteForTenant hard deletes a quote and its line items
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// PaymentRepository defines persistence for payments
type PaymentRepository interface {
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Payment, error)
	FindByProviderReference(ctx context.Context, tenantID uuid.UUID, provider PaymentProvider, reference string) (*Payment, error)
	Create(ctx context.Context, p *Payment) error
}

// CreditNoteRepository defines persistence for credit notes
type CreditNoteRepository interface {
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]CreditNote, error)
	Create(ctx context.Context, cn *CreditNote) error
}

// ReceiptRepository defines persistence for receipts
type ReceiptRepository interface {
	// FindByInvoice returns the receipt of an invoice, or NOT_FOUND
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*Receipt, error)
	// Create inserts a receipt. A second receipt for the same invoice returns CONCURRENCY_CONFLICT.
	Create(ctx context.Context, r *Receipt) error
	Save(ctx context.Context, r *Receipt) error
}

// ArtifactRepository defines persistence for rendered document references
type ArtifactRepository interface {
	Create(ctx context.Context, a *Artifact) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Artifact, error)
}

// DisputeRepository defines persistence for disputes
type DisputeRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Dispute, error)
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Dispute, error)
	Create(ctx context.Context, d *Dispute) error
	SaveWithLock(ctx context.Context, d *Dispute) error
}
