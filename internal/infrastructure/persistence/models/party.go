package models

import (
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
)

// OrganizationModel is the persistence model for the Organization aggregate
type OrganizationModel struct {
	AggregateModel
	Name              string `gorm:"type:varchar(200);not null"`
	Email             string `gorm:"type:varchar(255)"`
	CountryCode       string `gorm:"type:varchar(2)"`
	TaxID             string `gorm:"type:varchar(64)"`
	Currency          string `gorm:"type:varchar(3);not null"`
	TaxLabel          string `gorm:"type:varchar(32);not null;default:'Tax'"`
	DefaultTaxPercent *int
	InvoicePrefix     string `gorm:"type:varchar(10);not null;default:'INV'"`
	InvoiceNextNumber int64  `gorm:"not null;default:1"`
	PaymentTermsDays  int    `gorm:"not null;default:30"`
}

// TableName returns the table name for GORM
func (OrganizationModel) TableName() string {
	return "organizations"
}

// ToDomain converts the persistence model to a domain Organization
func (m *OrganizationModel) ToDomain() *invoicing.Organization {
	return &invoicing.Organization{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		Name:              m.Name,
		Email:             m.Email,
		CountryCode:       m.CountryCode,
		TaxID:             m.TaxID,
		Currency:          m.Currency,
		TaxLabel:          m.TaxLabel,
		DefaultTaxPercent: invoicing.TaxFromPtr(m.DefaultTaxPercent),
		InvoicePrefix:     m.InvoicePrefix,
		InvoiceNextNumber: m.InvoiceNextNumber,
		PaymentTermsDays:  m.PaymentTermsDays,
	}
}

// FromDomain populates the persistence model from a domain Organization
func (m *OrganizationModel) FromDomain(o *invoicing.Organization) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.Name = o.Name
	m.Email = o.Email
	m.CountryCode = o.CountryCode
	m.TaxID = o.TaxID
	m.Currency = o.Currency
	m.TaxLabel = o.TaxLabel
	m.DefaultTaxPercent = o.DefaultTaxPercent.Ptr()
	m.InvoicePrefix = o.InvoicePrefix
	m.InvoiceNextNumber = o.InvoiceNextNumber
	m.PaymentTermsDays = o.PaymentTermsDays
}

// OrganizationModelFromDomain creates a persistence model from a domain Organization
func OrganizationModelFromDomain(o *invoicing.Organization) *OrganizationModel {
	m := &OrganizationModel{}
	m.FromDomain(o)
	return m
}

// CustomerModel is the persistence model for the Customer aggregate
type CustomerModel struct {
	TenantAggregateModel
	Name             string `gorm:"type:varchar(200);not null"`
	Email            string `gorm:"type:varchar(255)"`
	CountryCode      string `gorm:"type:varchar(2)"`
	TaxID            string `gorm:"type:varchar(64)"`
	PaymentTermsDays *int
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *invoicing.Customer {
	c := &invoicing.Customer{
		Name:             m.Name,
		Email:            m.Email,
		CountryCode:      m.CountryCode,
		TaxID:            m.TaxID,
		PaymentTermsDays: m.PaymentTermsDays,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *invoicing.Customer) *CustomerModel {
	m := &CustomerModel{
		Name:             c.Name,
		Email:            c.Email,
		CountryCode:      c.CountryCode,
		TaxID:            c.TaxID,
		PaymentTermsDays: c.PaymentTermsDays,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// ProductModel is the persistence model for catalog products
type ProductModel struct {
	TenantAggregateModel
	Name           string `gorm:"type:varchar(200);not null"`
	Description    string `gorm:"type:varchar(500)"`
	UnitPriceCents int64  `gorm:"not null;default:0"`
	Unit           string `gorm:"type:varchar(32)"`
	TaxPercent     *int
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *invoicing.Product {
	p := &invoicing.Product{
		Name:           m.Name,
		Description:    m.Description,
		UnitPriceCents: m.UnitPriceCents,
		Unit:           m.Unit,
		TaxPercent:     invoicing.TaxFromPtr(m.TaxPercent),
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *invoicing.Product) *ProductModel {
	m := &ProductModel{
		Name:           p.Name,
		Description:    p.Description,
		UnitPriceCents: p.UnitPriceCents,
		Unit:           p.Unit,
		TaxPercent:     p.TaxPercent.Ptr(),
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}
