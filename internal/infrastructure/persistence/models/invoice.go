package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/invoicing"
)

// InvoiceModel is the persistence model for the Invoice aggregate
type InvoiceModel struct {
	TenantAggregateModel
	Number           string                  `gorm:"type:varchar(50);not null"`
	Token            string                  `gorm:"type:varchar(64);not null;uniqueIndex"`
	CustomerID       uuid.UUID               `gorm:"type:uuid;not null;index"`
	QuoteID          *uuid.UUID              `gorm:"type:uuid"`
	Currency         string                  `gorm:"type:varchar(3);not null"`
	Status           invoicing.InvoiceStatus `gorm:"type:varchar(20);not null;index"`
	IssueDate        time.Time               `gorm:"not null"`
	DueDate          time.Time               `gorm:"not null;index"`
	PaymentTermsDays int                     `gorm:"not null;default:0"`
	TaxLabel         string                  `gorm:"type:varchar(32)"`
	TaxPercent       *int
	DiscountType     string          `gorm:"type:varchar(10);not null;default:'NONE'"`
	DiscountValue    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PONumber         string          `gorm:"column:po_number;type:varchar(64)"`
	Notes            string          `gorm:"type:text"`
	SentAt           *time.Time
	ViewedAt         *time.Time
	OverdueAt        *time.Time
	PaidAt           *time.Time
	VoidedAt         *time.Time
	VoidReason       string             `gorm:"type:varchar(500)"`
	Items            []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceItemModel is a line item of an invoice
type InvoiceItemModel struct {
	LineItemColumns
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		Number:           m.Number,
		Token:            m.Token,
		CustomerID:       m.CustomerID,
		QuoteID:          m.QuoteID,
		Currency:         m.Currency,
		Status:           m.Status,
		IssueDate:        m.IssueDate,
		DueDate:          m.DueDate,
		PaymentTermsDays: m.PaymentTermsDays,
		TaxLabel:         m.TaxLabel,
		TaxPercent:       invoicing.TaxFromPtr(m.TaxPercent),
		Discount:         discountFromColumns(m.DiscountType, m.DiscountValue),
		PONumber:         m.PONumber,
		Notes:            m.Notes,
		SentAt:           m.SentAt,
		ViewedAt:         m.ViewedAt,
		OverdueAt:        m.OverdueAt,
		PaidAt:           m.PaidAt,
		VoidedAt:         m.VoidedAt,
		VoidReason:       m.VoidReason,
		Items:            make([]invoicing.LineItem, 0, len(m.Items)),
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	for _, item := range m.Items {
		inv.Items = append(inv.Items, item.toDomain())
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Number:           inv.Number,
		Token:            inv.Token,
		CustomerID:       inv.CustomerID,
		QuoteID:          inv.QuoteID,
		Currency:         inv.Currency,
		Status:           inv.Status,
		IssueDate:        inv.IssueDate,
		DueDate:          inv.DueDate,
		PaymentTermsDays: inv.PaymentTermsDays,
		TaxLabel:         inv.TaxLabel,
		TaxPercent:       inv.TaxPercent.Ptr(),
		DiscountType:     string(inv.Discount.Type()),
		DiscountValue:    inv.Discount.Value(),
		PONumber:         inv.PONumber,
		Notes:            inv.Notes,
		SentAt:           inv.SentAt,
		ViewedAt:         inv.ViewedAt,
		OverdueAt:        inv.OverdueAt,
		PaidAt:           inv.PaidAt,
		VoidedAt:         inv.VoidedAt,
		VoidReason:       inv.VoidReason,
		Items:            make([]InvoiceItemModel, 0, len(inv.Items)),
	}
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	for _, item := range inv.Items {
		m.Items = append(m.Items, InvoiceItemModel{LineItemColumns: lineItemColumns(item), InvoiceID: inv.ID})
	}
	return m
}
