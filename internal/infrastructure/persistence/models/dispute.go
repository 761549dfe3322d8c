package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/invoicing"
)

// DisputeModel is the persistence model for the Dispute aggregate
type DisputeModel struct {
	TenantAggregateModel
	InvoiceID      uuid.UUID               `gorm:"type:uuid;not null;index"`
	Status         invoicing.DisputeStatus `gorm:"type:varchar(20);not null"`
	Reason         string                  `gorm:"type:text;not null"`
	SellerResponse string                  `gorm:"type:text"`
	CreditNoteID   *uuid.UUID              `gorm:"type:uuid"`
	ResolvedAt     *time.Time
}

// TableName returns the table name for GORM
func (DisputeModel) TableName() string {
	return "disputes"
}

// ToDomain converts the persistence model to a domain Dispute
func (m *DisputeModel) ToDomain() *invoicing.Dispute {
	d := &invoicing.Dispute{
		InvoiceID:      m.InvoiceID,
		Status:         m.Status,
		Reason:         m.Reason,
		SellerResponse: m.SellerResponse,
		CreditNoteID:   m.CreditNoteID,
		ResolvedAt:     m.ResolvedAt,
	}
	m.PopulateTenantAggregateRoot(&d.TenantAggregateRoot)
	return d
}

// DisputeModelFromDomain creates a persistence model from a domain Dispute
func DisputeModelFromDomain(d *invoicing.Dispute) *DisputeModel {
	m := &DisputeModel{
		InvoiceID:      d.InvoiceID,
		Status:         d.Status,
		Reason:         d.Reason,
		SellerResponse: d.SellerResponse,
		CreditNoteID:   d.CreditNoteID,
		ResolvedAt:     d.ResolvedAt,
	}
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	return m
}
