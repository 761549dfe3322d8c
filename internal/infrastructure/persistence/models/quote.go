package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/invoicing"
)

// QuoteModel is the persistence model for the Quote aggregate
type QuoteModel struct {
	TenantAggregateModel
	Number             string                `gorm:"type:varchar(50);not null"`
	CustomerID         uuid.UUID             `gorm:"type:uuid;not null;index"`
	Currency           string                `gorm:"type:varchar(3);not null"`
	Status             invoicing.QuoteStatus `gorm:"type:varchar(20);not null;index"`
	IssueDate          time.Time             `gorm:"not null"`
	ExpiryDate         *time.Time
	TaxPercent         *int
	DiscountType       string          `gorm:"type:varchar(10);not null;default:'NONE'"`
	DiscountValue      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes              string          `gorm:"type:text"`
	SentAt             *time.Time
	AcceptedAt         *time.Time
	ConvertedAt        *time.Time
	ConvertedInvoiceID *uuid.UUID `gorm:"type:uuid"`
	VoidedAt           *time.Time
	Items              []QuoteItemModel `gorm:"foreignKey:QuoteID;references:ID"`
}

// TableName returns the table name for GORM
func (QuoteModel) TableName() string {
	return "quotes"
}

// QuoteItemModel is a line item of a quote
type QuoteItemModel struct {
	LineItemColumns
	QuoteID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (QuoteItemModel) TableName() string {
	return "quote_items"
}

// ToDomain converts the persistence model to a domain Quote
func (m *QuoteModel) ToDomain() *invoicing.Quote {
	q := &invoicing.Quote{
		Number:             m.Number,
		CustomerID:         m.CustomerID,
		Currency:           m.Currency,
		Status:             m.Status,
		IssueDate:          m.IssueDate,
		ExpiryDate:         m.ExpiryDate,
		TaxPercent:         invoicing.TaxFromPtr(m.TaxPercent),
		Discount:           discountFromColumns(m.DiscountType, m.DiscountValue),
		Notes:              m.Notes,
		SentAt:             m.SentAt,
		AcceptedAt:         m.AcceptedAt,
		ConvertedAt:        m.ConvertedAt,
		ConvertedInvoiceID: m.ConvertedInvoiceID,
		VoidedAt:           m.VoidedAt,
		Items:              make([]invoicing.LineItem, 0, len(m.Items)),
	}
	m.PopulateTenantAggregateRoot(&q.TenantAggregateRoot)
	for _, item := range m.Items {
		q.Items = append(q.Items, item.toDomain())
	}
	return q
}

// QuoteModelFromDomain creates a persistence model from a domain Quote
func QuoteModelFromDomain(q *invoicing.Quote) *QuoteModel {
	m := &QuoteModel{
		Number:             q.Number,
		CustomerID:         q.CustomerID,
		Currency:           q.Currency,
		Status:             q.Status,
		IssueDate:          q.IssueDate,
		ExpiryDate:         q.ExpiryDate,
		TaxPercent:         q.TaxPercent.Ptr(),
		DiscountType:       string(q.Discount.Type()),
		DiscountValue:      q.Discount.Value(),
		Notes:              q.Notes,
		SentAt:             q.SentAt,
		AcceptedAt:         q.AcceptedAt,
		ConvertedAt:        q.ConvertedAt,
		ConvertedInvoiceID: q.ConvertedInvoiceID,
		VoidedAt:           q.VoidedAt,
		Items:              make([]QuoteItemModel, 0, len(q.Items)),
	}
	m.FromDomainTenantAggregateRoot(q.TenantAggregateRoot)
	for _, item := range q.Items {
		m.Items = append(m.Items, QuoteItemModel{LineItemColumns: lineItemColumns(item), QuoteID: q.ID})
	}
	return m
}
