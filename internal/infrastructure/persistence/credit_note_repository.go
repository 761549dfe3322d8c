package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormCreditNoteRepository implements CreditNoteRepository using GORM
type GormCreditNoteRepository struct {
	db *gorm.DB
}

// NewGormCreditNoteRepository creates a new GormCreditNoteRepository
func NewGormCreditNoteRepository(db *gorm.DB) *GormCreditNoteRepository {
	return &GormCreditNoteRepository{db: db}
}

// FindByInvoice lists the credit notes issued against an invoice
func (r *GormCreditNoteRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.CreditNote, error) {
	var noteModels []models.CreditNoteModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("issued_at ASC").
		Find(&noteModels).Error; err != nil {
		return nil, err
	}

	notes := make([]invoicing.CreditNote, len(noteModels))
	for i := range noteModels {
		notes[i] = *noteModels[i].ToDomain()
	}
	return notes, nil
}

// Create inserts a credit note
func (r *GormCreditNoteRepository) Create(ctx context.Context, cn *invoicing.CreditNote) error {
	model := models.CreditNoteModelFromDomain(cn)
	return writeError(r.db.WithContext(ctx).Create(model).Error, "Credit note")
}

var _ invoicing.CreditNoteRepository = (*GormCreditNoteRepository)(nil)
