package invoicing

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// OrganizationInput creates or updates an organization
type OrganizationInput struct {
	Name              string `json:"name" validate:"required,max=200"`
	Email             string `json:"email" validate:"omitempty,email"`
	CountryCode       string `json:"country_code" validate:"omitempty,len=2"`
	TaxID             string `json:"tax_id" validate:"max=64"`
	Currency          string `json:"currency" validate:"required,iso4217"`
	TaxLabel          string `json:"tax_label" validate:"max=32"`
	DefaultTaxPercent *int   `json:"default_tax_percent" validate:"omitempty,gte=0,lte=100"`
	InvoicePrefix     string `json:"invoice_prefix" validate:"omitempty,alphanum,max=10"`
	PaymentTermsDays  *int   `json:"payment_terms_days" validate:"omitempty,gte=0,lte=365"`
}

// CustomerInput creates a customer
type CustomerInput struct {
	Name             string `json:"name" validate:"required,max=200"`
	Email            string `json:"email" validate:"omitempty,email"`
	CountryCode      string `json:"country_code" validate:"omitempty,len=2"`
	TaxID            string `json:"tax_id" validate:"max=64"`
	PaymentTermsDays *int   `json:"payment_terms_days" validate:"omitempty,gte=0,lte=365"`
}

// ProductInput creates a catalog product
type ProductInput struct {
	Name           string `json:"name" validate:"required,max=200"`
	Description    string `json:"description" validate:"max=500"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"gte=0"`
	Unit           string `json:"unit" validate:"max=32"`
	TaxPercent     *int   `json:"tax_percent" validate:"omitempty,gte=0,lte=100"`
}

// DirectoryService manages organizations, customers and products
type DirectoryService struct {
	deps Dependencies
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(deps Dependencies) *DirectoryService {
	return &DirectoryService{deps: deps.withDefaults()}
}

// CreateOrganization creates a tenant. Its invoice counter starts at 1.
func (s *DirectoryService) CreateOrganization(ctx context.Context, actorID uuid.UUID, in OrganizationInput) (*invoicing.Organization, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "organization", "create")
	defer span.End()

	if err := s.deps.Validator.Struct(in); err != nil {
		return nil, err
	}
	org, err := invoicing.NewOrganization(in.Name, in.Currency)
	if err != nil {
		return nil, err
	}
	applyOrganization(org, in)
	if err := s.deps.Repos.Organizations().Save(ctx, org); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.deps.Audit.Emit(ctx, Actor{TenantID: org.ID, UserID: actorID}, invoicing.AuditActionOrgCreated, invoicing.EntityTypeOrg, org.ID, map[string]any{
		"name": org.Name,
	})
	return org, nil
}

// UpdateOrganization changes the settings of an organization. The invoice counter is untouched.
func (s *DirectoryService) UpdateOrganization(ctx context.Context, actor Actor, in OrganizationInput) (*invoicing.Organization, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "organization", "update")
	defer span.End()

	if err := s.deps.Validator.Struct(in); err != nil {
		return nil, err
	}
	var org *invoicing.Organization
	err := s.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		var err error
		org, err = repos.Organizations().FindByID(ctx, actor.TenantID)
		if err != nil {
			return err
		}
		org.Name = strings.TrimSpace(in.Name)
		org.Currency = strings.ToUpper(in.Currency)
		applyOrganization(org, in)
		org.Touch()
		return repos.Organizations().Save(ctx, org)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionOrgUpdated, invoicing.EntityTypeOrg, org.ID, nil)
	return org, nil
}

func applyOrganization(org *invoicing.Organization, in OrganizationInput) {
	org.Email = in.Email
	org.CountryCode = strings.ToUpper(in.CountryCode)
	org.TaxID = in.TaxID
	if in.TaxLabel != "" {
		org.TaxLabel = in.TaxLabel
	}
	org.DefaultTaxPercent = invoicing.TaxFromPtr(in.DefaultTaxPercent)
	if in.InvoicePrefix != "" {
		org.InvoicePrefix = strings.ToUpper(in.InvoicePrefix)
	}
	if in.PaymentTermsDays != nil {
		org.PaymentTermsDays = *in.PaymentTermsDays
	}
}

// GetOrganization returns an organization
func (s *DirectoryService) GetOrganization(ctx context.Context, id uuid.UUID) (*invoicing.Organization, error) {
	return s.deps.Repos.Organizations().FindByID(ctx, id)
}

// CreateCustomer adds a customer to the organization
func (s *DirectoryService) CreateCustomer(ctx context.Context, actor Actor, in CustomerInput) (*invoicing.Customer, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "create")
	defer span.End()

	if err := s.deps.Validator.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.deps.Repos.Organizations().FindByID(ctx, actor.TenantID); err != nil {
		return nil, err
	}
	customer, err := invoicing.NewCustomer(actor.TenantID, in.Name, in.Email)
	if err != nil {
		return nil, err
	}
	customer.CountryCode = strings.ToUpper(in.CountryCode)
	customer.TaxID = in.TaxID
	customer.PaymentTermsDays = in.PaymentTermsDays
	customer.SetCreatedBy(actor.UserID)
	if err := s.deps.Repos.Customers().Save(ctx, customer); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionCustomerCreated, invoicing.EntityTypeCustomer, customer.ID, map[string]any{
		"name": customer.Name,
	})
	return customer, nil
}

// GetCustomer returns a customer of the organization
func (s *DirectoryService) GetCustomer(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Customer, error) {
	return s.deps.Repos.Customers().FindByIDForTenant(ctx, tenantID, id)
}

// CreateProduct adds a product to the organization's catalog
func (s *DirectoryService) CreateProduct(ctx context.Context, actor Actor, in ProductInput) (*invoicing.Product, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "create")
	defer span.End()

	if err := s.deps.Validator.Struct(in); err != nil {
		return nil, err
	}
	product, err := invoicing.NewProduct(actor.TenantID, in.Name, in.UnitPriceCents, in.Unit, invoicing.TaxFromPtr(in.TaxPercent))
	if err != nil {
		return nil, err
	}
	product.Description = in.Description
	product.SetCreatedBy(actor.UserID)
	if err := s.deps.Repos.Products().Save(ctx, product); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionProductCreated, invoicing.EntityTypeProduct, product.ID, map[string]any{
		"name":             product.Name,
		"unit_price_cents": product.UnitPriceCents,
	})
	return product, nil
}

// GetProduct returns a product of the organization
func (s *DirectoryService) GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Product, error) {
	return s.deps.Repos.Products().FindByIDForTenant(ctx, tenantID, id)
}
