package invoicing

import (
	"context"

	"github.com/invoicer/backend/internal/domain/invoicing"
)

// Repositories gives access to every invoicing repository.
// Inside TransactionScope.Execute all of them share one database transaction.
type Repositories interface {
	Organizations() invoicing.OrganizationRepository
	Customers() invoicing.CustomerRepository
	Products() invoicing.ProductRepository
	Invoices() invoicing.InvoiceRepository
	Quotes() invoicing.QuoteRepository
	Payments() invoicing.PaymentRepository
	CreditNotes() invoicing.CreditNoteRepository
	Receipts() invoicing.ReceiptRepository
	Artifacts() invoicing.ArtifactRepository
	Disputes() invoicing.DisputeRepository
}

// TransactionScope runs a unit of work atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
