package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/invoicing"
)

// PaymentModel is the persistence model for payments
type PaymentModel struct {
	TenantAggregateModel
	InvoiceID         uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Provider          invoicing.PaymentProvider `gorm:"type:varchar(20);not null"`
	ProviderReference string                    `gorm:"type:varchar(255)"`
	Status            invoicing.PaymentStatus   `gorm:"type:varchar(20);not null"`
	AmountCents       int64                     `gorm:"not null"`
	PaidAt            *time.Time
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *invoicing.Payment {
	p := &invoicing.Payment{
		InvoiceID:         m.InvoiceID,
		Provider:          m.Provider,
		ProviderReference: m.ProviderReference,
		Status:            m.Status,
		AmountCents:       m.AmountCents,
		PaidAt:            m.PaidAt,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *invoicing.Payment) *PaymentModel {
	m := &PaymentModel{
		InvoiceID:         p.InvoiceID,
		Provider:          p.Provider,
		ProviderReference: p.ProviderReference,
		Status:            p.Status,
		AmountCents:       p.AmountCents,
		PaidAt:            p.PaidAt,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}

// CreditNoteModel is the persistence model for credit notes
type CreditNoteModel struct {
	TenantAggregateModel
	Number      string     `gorm:"type:varchar(50);not null"`
	InvoiceID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	AmountCents int64      `gorm:"not null"`
	Reason      string     `gorm:"type:text"`
	DisputeID   *uuid.UUID `gorm:"type:uuid"`
	IssuedAt    time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CreditNoteModel) TableName() string {
	return "credit_notes"
}

// ToDomain converts the persistence model to a domain CreditNote
func (m *CreditNoteModel) ToDomain() *invoicing.CreditNote {
	cn := &invoicing.CreditNote{
		Number:      m.Number,
		InvoiceID:   m.InvoiceID,
		AmountCents: m.AmountCents,
		Reason:      m.Reason,
		DisputeID:   m.DisputeID,
		IssuedAt:    m.IssuedAt,
	}
	m.PopulateTenantAggregateRoot(&cn.TenantAggregateRoot)
	return cn
}

// CreditNoteModelFromDomain creates a persistence model from a domain CreditNote
func CreditNoteModelFromDomain(cn *invoicing.CreditNote) *CreditNoteModel {
	m := &CreditNoteModel{
		Number:      cn.Number,
		InvoiceID:   cn.InvoiceID,
		AmountCents: cn.AmountCents,
		Reason:      cn.Reason,
		DisputeID:   cn.DisputeID,
		IssuedAt:    cn.IssuedAt,
	}
	m.FromDomainTenantAggregateRoot(cn.TenantAggregateRoot)
	return m
}

// ReceiptModel is the persistence model for receipts. One receipt per invoice.
type ReceiptModel struct {
	TenantAggregateModel
	Number      string     `gorm:"type:varchar(50);not null"`
	InvoiceID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	PaymentID   *uuid.UUID `gorm:"type:uuid"`
	AmountCents int64      `gorm:"not null"`
	IssuedAt    time.Time  `gorm:"not null"`
	ArtifactID  *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "receipts"
}

// ToDomain converts the persistence model to a domain Receipt
func (m *ReceiptModel) ToDomain() *invoicing.Receipt {
	r := &invoicing.Receipt{
		Number:      m.Number,
		InvoiceID:   m.InvoiceID,
		PaymentID:   m.PaymentID,
		AmountCents: m.AmountCents,
		IssuedAt:    m.IssuedAt,
		ArtifactID:  m.ArtifactID,
	}
	m.PopulateTenantAggregateRoot(&r.TenantAggregateRoot)
	return r
}

// ReceiptModelFromDomain creates a persistence model from a domain Receipt
func ReceiptModelFromDomain(r *invoicing.Receipt) *ReceiptModel {
	m := &ReceiptModel{
		Number:      r.Number,
		InvoiceID:   r.InvoiceID,
		PaymentID:   r.PaymentID,
		AmountCents: r.AmountCents,
		IssuedAt:    r.IssuedAt,
		ArtifactID:  r.ArtifactID,
	}
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	return m
}

// ArtifactModel references a stored document
type ArtifactModel struct {
	BaseModel
	TenantID  uuid.UUID              `gorm:"type:uuid;not null;index"`
	Kind      invoicing.ArtifactKind `gorm:"type:varchar(20);not null"`
	OwnerID   uuid.UUID              `gorm:"type:uuid;not null;index"`
	Path      string                 `gorm:"type:varchar(500);not null"`
	MimeType  string                 `gorm:"type:varchar(100);not null"`
	SizeBytes int64                  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ArtifactModel) TableName() string {
	return "artifacts"
}

// ToDomain converts the persistence model to a domain Artifact
func (m *ArtifactModel) ToDomain() *invoicing.Artifact {
	return &invoicing.Artifact{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		Kind:       m.Kind,
		OwnerID:    m.OwnerID,
		Path:       m.Path,
		MimeType:   m.MimeType,
		SizeBytes:  m.SizeBytes,
	}
}

// ArtifactModelFromDomain creates a persistence model from a domain Artifact
func ArtifactModelFromDomain(a *invoicing.Artifact) *ArtifactModel {
	m := &ArtifactModel{
		TenantID:  a.TenantID,
		Kind:      a.Kind,
		OwnerID:   a.OwnerID,
		Path:      a.Path,
		MimeType:  a.MimeType,
		SizeBytes: a.SizeBytes,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}
