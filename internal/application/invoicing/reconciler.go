package invoicing

import (
	"context"
	"fmt"

	"github.com/invoicer/backend/internal/domain/invoicing"
)

// balanceOf loads payments and credit notes of an invoice and reconciles them.
// Within a transaction it sees the rows written earlier in the same transaction.
func balanceOf(ctx context.Context, repos Repositories, inv *invoicing.Invoice) (invoicing.Balance, error) {
	payments, err := repos.Payments().FindByInvoice(ctx, inv.TenantID, inv.ID)
	if err != nil {
		return invoicing.Balance{}, fmt.Errorf("failed to load payments: %w", err)
	}
	credits, err := repos.CreditNotes().FindByInvoice(ctx, inv.TenantID, inv.ID)
	if err != nil {
		return invoicing.Balance{}, fmt.Errorf("failed to load credit notes: %w", err)
	}
	return invoicing.Reconcile(inv, payments, credits), nil
}
