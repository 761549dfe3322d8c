package invoicing

import (
	"strings"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/shared"
)

// DefaultInvoicePrefix is used when an organization has not configured one.
const DefaultInvoicePrefix = "INV"

// Organization is the tenant. Its ID is the tenant id of every child entity.
type Organization struct {
	shared.BaseAggregateRoot
	Name              string
	Email             string
	CountryCode       string
	TaxID             string
	Currency          string
	TaxLabel          string
	DefaultTaxPercent TaxPercent
	InvoicePrefix     string
	// InvoiceNextNumber is the next invoice sequence to hand out.
	InvoiceNextNumber int64
	PaymentTermsDays  int
}

// NewOrganization creates an organization with its invoice counter at 1
func NewOrganization(name, currency string) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ValidationError("organization name cannot be empty")
	}
	if len(currency) != 3 {
		return nil, shared.ValidationError("currency must be a 3-letter ISO code")
	}
	return &Organization{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: shared.NewBaseEntity(), Version: 1},
		Name:              name,
		Currency:          strings.ToUpper(currency),
		TaxLabel:          "Tax",
		InvoicePrefix:     DefaultInvoicePrefix,
		InvoiceNextNumber: 1,
		PaymentTermsDays:  30,
	}, nil
}

// Prefix returns the invoice number prefix, falling back to the default.
func (o *Organization) Prefix() string {
	if o.InvoicePrefix == "" {
		return DefaultInvoicePrefix
	}
	return o.InvoicePrefix
}

// Customer belongs to one organization.
type Customer struct {
	shared.TenantAggregateRoot
	Name        string
	Email       string
	CountryCode string
	TaxID       string
	// PaymentTermsDays overrides the organization default when set.
	PaymentTermsDays *int
}

// NewCustomer creates a new customer
func NewCustomer(tenantID uuid.UUID, name, email string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ValidationError("customer name cannot be empty")
	}
	return &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Email:               strings.TrimSpace(email),
	}, nil
}

// HasEmail reports whether the customer can receive documents.
func (c *Customer) HasEmail() bool {
	return strings.Contains(c.Email, "@")
}

// Product is a catalog entry that supplies line item defaults at entry time.
type Product struct {
	shared.TenantAggregateRoot
	Name           string
	Description    string
	UnitPriceCents int64
	Unit           string
	TaxPercent     TaxPercent
}

// NewProduct creates a new catalog product
func NewProduct(tenantID uuid.UUID, name string, unitPriceCents int64, unit string, tax TaxPercent) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ValidationError("product name cannot be empty")
	}
	if unitPriceCents < 0 {
		return nil, shared.ValidationError("product price cannot be negative")
	}
	if err := tax.Validate(); err != nil {
		return nil, shared.ValidationError("%s", err.Error())
	}
	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		UnitPriceCents:      unitPriceCents,
		Unit:                unit,
		TaxPercent:          tax,
	}, nil
}
