package handler

import (
	"context"

	"github.com/google/uuid"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
)

// The handlers depend on these narrow views of the application services.

// DirectoryService manages organizations, customers and products
type DirectoryService interface {
	CreateOrganization(ctx context.Context, actorID uuid.UUID, in appinv.OrganizationInput) (*invoicing.Organization, error)
	UpdateOrganization(ctx context.Context, actor appinv.Actor, in appinv.OrganizationInput) (*invoicing.Organization, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*invoicing.Organization, error)
	CreateCustomer(ctx context.Context, actor appinv.Actor, in appinv.CustomerInput) (*invoicing.Customer, error)
	GetCustomer(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Customer, error)
	CreateProduct(ctx context.Context, actor appinv.Actor, in appinv.ProductInput) (*invoicing.Product, error)
	GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Product, error)
}

// InvoiceService runs the invoice lifecycle
type InvoiceService interface {
	Create(ctx context.Context, actor appinv.Actor, in appinv.InvoiceInput) (*appinv.InvoiceView, error)
	Update(ctx context.Context, actor appinv.Actor, id uuid.UUID, in appinv.InvoiceInput) (*appinv.InvoiceView, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*appinv.InvoiceView, error)
	List(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) (*shared.Paginated[appinv.InvoiceView], error)
	Send(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.InvoiceView, error)
	ViewByToken(ctx context.Context, token string) (*appinv.InvoiceView, error)
	MarkOverdue(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.InvoiceView, bool, error)
	SweepOverdue(ctx context.Context, actor appinv.Actor) (*appinv.BatchResult, error)
	Void(ctx context.Context, actor appinv.Actor, id uuid.UUID, reason string) (*appinv.InvoiceView, error)
	Duplicate(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.InvoiceView, error)
	ComplianceSnapshot(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.ComplianceSnapshot, error)
	BatchVoid(ctx context.Context, actor appinv.Actor, ids []uuid.UUID, reason string) (*appinv.BatchResult, error)
	SendReminders(ctx context.Context, actor appinv.Actor, ids []uuid.UUID) (*appinv.BatchResult, error)
}

// PaymentRecorder records payments and credit notes
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, actor appinv.Actor, invoiceID uuid.UUID, in appinv.PaymentInput) (*appinv.PaymentResult, error)
	IssueCreditNote(ctx context.Context, actor appinv.Actor, invoiceID uuid.UUID, in appinv.CreditNoteInput) (*appinv.CreditNoteResult, error)
}

// QuoteService runs the quote lifecycle
type QuoteService interface {
	Create(ctx context.Context, actor appinv.Actor, in appinv.QuoteInput) (*appinv.QuoteView, error)
	Update(ctx context.Context, actor appinv.Actor, id uuid.UUID, in appinv.QuoteInput) (*appinv.QuoteView, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*appinv.QuoteView, error)
	List(ctx context.Context, tenantID uuid.UUID, filter invoicing.QuoteFilter) (*shared.Paginated[appinv.QuoteView], error)
	Send(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.QuoteView, error)
	Accept(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.QuoteView, error)
	Void(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.QuoteView, error)
	Delete(ctx context.Context, actor appinv.Actor, id uuid.UUID) error
	ExpireDue(ctx context.Context, actor appinv.Actor) (*appinv.BatchResult, error)
	Convert(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.InvoiceView, error)
}

// DisputeService opens and resolves disputes
type DisputeService interface {
	Open(ctx context.Context, actor appinv.Actor, invoiceID uuid.UUID, reason string) (*invoicing.Dispute, error)
	OpenByToken(ctx context.Context, token, reason string) (*invoicing.Dispute, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Dispute, error)
	ListForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.Dispute, error)
	Approve(ctx context.Context, actor appinv.Actor, id uuid.UUID, in appinv.ApproveDisputeInput) (*invoicing.Dispute, *appinv.CreditNoteResult, error)
	Reject(ctx context.Context, actor appinv.Actor, id uuid.UUID, message string) (*invoicing.Dispute, error)
}

// DocumentService serves receipts and stored artifacts
type DocumentService interface {
	Receipt(ctx context.Context, tenantID, invoiceID uuid.UUID) (*appinv.ReceiptView, error)
	Download(ctx context.Context, tenantID, artifactID uuid.UUID) (*appinv.ArtifactDownload, error)
}

var (
	_ DirectoryService = (*appinv.DirectoryService)(nil)
	_ InvoiceService   = (*appinv.InvoiceService)(nil)
	_ PaymentRecorder  = (*appinv.Recorder)(nil)
	_ QuoteService     = (*appinv.QuoteService)(nil)
	_ DisputeService   = (*appinv.DisputeService)(nil)
	_ DocumentService  = (*appinv.DocumentService)(nil)
)
