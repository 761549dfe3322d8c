package persistence

import (
	"context"

	"gorm.io/gorm"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/invoicing"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. The repositories handed to fn
// all share that transaction; an error from fn rolls it back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// GormRepositories hands out repositories bound to one *gorm.DB, either the
// connection pool or an open transaction.
type GormRepositories struct {
	db *gorm.DB
}

// NewRepositories creates repositories bound to db
func NewRepositories(db *gorm.DB) *GormRepositories {
	return &GormRepositories{db: db}
}

// Organizations returns the organization repository
func (r *GormRepositories) Organizations() invoicing.OrganizationRepository {
	return NewGormOrganizationRepository(r.db)
}

// Customers returns the customer repository
func (r *GormRepositories) Customers() invoicing.CustomerRepository {
	return NewGormCustomerRepository(r.db)
}

// Products returns the product repository
func (r *GormRepositories) Products() invoicing.ProductRepository {
	return NewGormProductRepository(r.db)
}

// Invoices returns the invoice repository
func (r *GormRepositories) Invoices() invoicing.InvoiceRepository {
	return NewGormInvoiceRepository(r.db)
}

// Quotes returns the quote repository
func (r *GormRepositories) Quotes() invoicing.QuoteRepository {
	return NewGormQuoteRepository(r.db)
}

// Payments returns the payment repository
func (r *GormRepositories) Payments() invoicing.PaymentRepository {
	return NewGormPaymentRepository(r.db)
}

// CreditNotes returns the credit note repository
func (r *GormRepositories) CreditNotes() invoicing.CreditNoteRepository {
	return NewGormCreditNoteRepository(r.db)
}

// Receipts returns the receipt repository
func (r *GormRepositories) Receipts() invoicing.ReceiptRepository {
	return NewGormReceiptRepository(r.db)
}

// Artifacts returns the artifact repository
func (r *GormRepositories) Artifacts() invoicing.ArtifactRepository {
	return NewGormArtifactRepository(r.db)
}

// Disputes returns the dispute repository
func (r *GormRepositories) Disputes() invoicing.DisputeRepository {
	return NewGormDisputeRepository(r.db)
}

var (
	_ appinv.TransactionScope = (*GormTransactionScope)(nil)
	_ appinv.Repositories     = (*GormRepositories)(nil)
)
