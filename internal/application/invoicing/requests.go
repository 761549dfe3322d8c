package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
)

// LineItemInput describes a line. When ProductID is set the product supplies the defaults
// and any explicitly given field overrides them.
type LineItemInput struct {
	ProductID      *uuid.UUID      `json:"product_id"`
	Description    string          `json:"description" validate:"required_without=ProductID,max=500"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceCents *int64          `json:"unit_price_cents" validate:"omitempty,gte=0"`
	Unit           string          `json:"unit" validate:"max=32"`
	TaxPercent     *int            `json:"tax_percent" validate:"omitempty,gte=0,lte=100"`
}

// DiscountInput is the wire form of a discount: PERCENT takes a percentage, FIXED takes cents
type DiscountInput struct {
	Type  invoicing.DiscountType `json:"type" validate:"omitempty,oneof=NONE PERCENT FIXED"`
	Value decimal.Decimal        `json:"value"`
}

// InvoiceInput is the editable content of an invoice
type InvoiceInput struct {
	CustomerID       uuid.UUID       `json:"customer_id" validate:"required"`
	Currency         string          `json:"currency" validate:"omitempty,iso4217"`
	IssueDate        *time.Time      `json:"issue_date"`
	DueDate          *time.Time      `json:"due_date"`
	PaymentTermsDays *int            `json:"payment_terms_days" validate:"omitempty,gte=0,lte=365"`
	TaxLabel         string          `json:"tax_label" validate:"max=32"`
	TaxPercent       *int            `json:"tax_percent" validate:"omitempty,gte=0,lte=100"`
	Discount         *DiscountInput  `json:"discount"`
	PONumber         string          `json:"po_number" validate:"max=64"`
	Notes            string          `json:"notes" validate:"max=2000"`
	Items            []LineItemInput `json:"items" validate:"dive"`
}

// QuoteInput is the editable content of a quote
type QuoteInput struct {
	CustomerID uuid.UUID       `json:"customer_id" validate:"required"`
	Currency   string          `json:"currency" validate:"omitempty,iso4217"`
	IssueDate  *time.Time      `json:"issue_date"`
	ExpiryDate *time.Time      `json:"expiry_date"`
	TaxPercent *int            `json:"tax_percent" validate:"omitempty,gte=0,lte=100"`
	Discount   *DiscountInput  `json:"discount"`
	Notes      string          `json:"notes" validate:"max=2000"`
	Items      []LineItemInput `json:"items" validate:"dive"`
}

func (d *DiscountInput) toDomain() (invoicing.Discount, error) {
	if d == nil {
		return invoicing.NoDiscount(), nil
	}
	discount, err := invoicing.ParseDiscount(d.Type, d.Value)
	if err != nil {
		return invoicing.Discount{}, shared.ValidationError("discount: %v", err)
	}
	return discount, nil
}

// buildLineItems resolves product defaults and validates each line
func buildLineItems(ctx context.Context, repos Repositories, tenantID uuid.UUID, inputs []LineItemInput) ([]invoicing.LineItem, error) {
	items := make([]invoicing.LineItem, 0, len(inputs))
	for i, in := range inputs {
		description := in.Description
		var price int64
		unit := in.Unit
		tax := invoicing.TaxFromPtr(in.TaxPercent)

		if in.ProductID != nil {
			product, err := repos.Products().FindByIDForTenant(ctx, tenantID, *in.ProductID)
			if err != nil {
				return nil, err
			}
			if description == "" {
				description = product.Description
				if description == "" {
					description = product.Name
				}
			}
			price = product.UnitPriceCents
			if unit == "" {
				unit = product.Unit
			}
			if in.TaxPercent == nil {
				tax = product.TaxPercent
			}
		}
		if in.UnitPriceCents != nil {
			price = *in.UnitPriceCents
		}

		item, err := invoicing.NewLineItem(description, in.Quantity, price, unit, tax)
		if err != nil {
			return nil, shared.ValidationError("items[%d]: %s", i, err.Error())
		}
		items = append(items, item)
	}
	return items, nil
}

// invoiceDraft resolves organization and customer defaults into a domain draft
func invoiceDraft(ctx context.Context, repos Repositories, org *invoicing.Organization, customer *invoicing.Customer, in InvoiceInput, now time.Time) (invoicing.InvoiceDraft, error) {
	items, err := buildLineItems(ctx, repos, org.ID, in.Items)
	if err != nil {
		return invoicing.InvoiceDraft{}, err
	}
	discount, err := in.Discount.toDomain()
	if err != nil {
		return invoicing.InvoiceDraft{}, err
	}

	draft := invoicing.InvoiceDraft{
		CustomerID:       customer.ID,
		Currency:         org.Currency,
		IssueDate:        now,
		DueDate:          in.DueDate,
		PaymentTermsDays: paymentTerms(org, customer),
		TaxLabel:         org.TaxLabel,
		TaxPercent:       org.DefaultTaxPercent,
		Discount:         discount,
		PONumber:         in.PONumber,
		Notes:            in.Notes,
		Items:            items,
	}
	if in.Currency != "" {
		draft.Currency = in.Currency
	}
	if in.IssueDate != nil {
		draft.IssueDate = in.IssueDate.UTC()
	}
	if in.PaymentTermsDays != nil {
		draft.PaymentTermsDays = *in.PaymentTermsDays
	}
	if in.TaxLabel != "" {
		draft.TaxLabel = in.TaxLabel
	}
	if in.TaxPercent != nil {
		draft.TaxPercent = invoicing.Tax(*in.TaxPercent)
	}
	return draft, nil
}

func quoteDraft(ctx context.Context, repos Repositories, org *invoicing.Organization, customer *invoicing.Customer, in QuoteInput, now time.Time) (invoicing.QuoteDraft, error) {
	items, err := buildLineItems(ctx, repos, org.ID, in.Items)
	if err != nil {
		return invoicing.QuoteDraft{}, err
	}
	discount, err := in.Discount.toDomain()
	if err != nil {
		return invoicing.QuoteDraft{}, err
	}
	draft := invoicing.QuoteDraft{
		CustomerID: customer.ID,
		Currency:   org.Currency,
		IssueDate:  now,
		ExpiryDate: in.ExpiryDate,
		TaxPercent: org.DefaultTaxPercent,
		Discount:   discount,
		Notes:      in.Notes,
		Items:      items,
	}
	if in.Currency != "" {
		draft.Currency = in.Currency
	}
	if in.IssueDate != nil {
		draft.IssueDate = in.IssueDate.UTC()
	}
	if in.TaxPercent != nil {
		draft.TaxPercent = invoicing.Tax(*in.TaxPercent)
	}
	return draft, nil
}

func paymentTerms(org *invoicing.Organization, customer *invoicing.Customer) int {
	if customer != nil && customer.PaymentTermsDays != nil {
		return *customer.PaymentTermsDays
	}
	return org.PaymentTermsDays
}

// loadParties loads the organization and one of its customers
func loadParties(ctx context.Context, repos Repositories, tenantID, customerID uuid.UUID) (*invoicing.Organization, *invoicing.Customer, error) {
	org, err := repos.Organizations().FindByID(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	customer, err := repos.Customers().FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, nil, err
	}
	return org, customer, nil
}

// createNumberedInvoice reserves the next invoice number and inserts the invoice in the
// caller's transaction. quoteID links an invoice converted from a quote.
func createNumberedInvoice(ctx context.Context, repos Repositories, seq *Sequencer, org *invoicing.Organization, actorID uuid.UUID, draft invoicing.InvoiceDraft, quoteID *uuid.UUID) (*invoicing.Invoice, error) {
	number, err := seq.NextInvoiceNumber(ctx, repos, org)
	if err != nil {
		return nil, err
	}
	inv, err := invoicing.NewInvoice(org.ID, number, seq.Token(), draft)
	if err != nil {
		return nil, err
	}
	inv.SetCreatedBy(actorID)
	inv.QuoteID = quoteID
	if err := repos.Invoices().Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invoice %s: %w", number, err)
	}
	return inv, nil
}
