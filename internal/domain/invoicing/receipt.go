package invoicing

import (
	"time"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/shared"
)

// Receipt is the proof of payment issued once when an invoice becomes PAID
type Receipt struct {
	shared.TenantAggregateRoot
	Number      string
	InvoiceID   uuid.UUID
	PaymentID   *uuid.UUID
	AmountCents int64
	IssuedAt    time.Time
	ArtifactID  *uuid.UUID
}

// NewReceipt creates a receipt for a paid invoice
func NewReceipt(tenantID, invoiceID uuid.UUID, paymentID *uuid.UUID, number string, amountCents int64, now time.Time) (*Receipt, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.ValidationError("invoice is required")
	}
	if number == "" {
		return nil, shared.ValidationError("receipt number cannot be empty")
	}
	return &Receipt{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		InvoiceID:           invoiceID,
		PaymentID:           paymentID,
		AmountCents:         amountCents,
		IssuedAt:            now,
	}, nil
}

// AttachArtifact links the rendered document
func (r *Receipt) AttachArtifact(artifactID uuid.UUID) {
	r.ArtifactID = &artifactID
	r.Touch()
}

// ArtifactKind identifies what a stored document is
type ArtifactKind string

const (
	ArtifactKindReceiptPDF ArtifactKind = "RECEIPT_PDF"
	ArtifactKindInvoicePDF ArtifactKind = "INVOICE_PDF"
)

// Artifact is a reference to a rendered document kept in object storage
type Artifact struct {
	shared.BaseEntity
	TenantID  uuid.UUID
	Kind      ArtifactKind
	OwnerID   uuid.UUID
	Path      string
	MimeType  string
	SizeBytes int64
}

// NewArtifact creates an artifact reference
func NewArtifact(tenantID, ownerID uuid.UUID, kind ArtifactKind, path, mimeType string, size int64) *Artifact {
	return &Artifact{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Kind:       kind,
		OwnerID:    ownerID,
		Path:       path,
		MimeType:   mimeType,
		SizeBytes:  size,
	}
}
