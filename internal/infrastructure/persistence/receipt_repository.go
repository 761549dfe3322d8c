package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormReceiptRepository implements ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByInvoice finds the receipt of an invoice
func (r *GormReceiptRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoicing.Receipt, error) {
	var model models.ReceiptModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "receipt not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a receipt. The unique invoice_id index rejects a second receipt.
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *invoicing.Receipt) error {
	model := models.ReceiptModelFromDomain(receipt)
	return writeError(r.db.WithContext(ctx).Create(model).Error, "Receipt")
}

// Save updates a receipt
func (r *GormReceiptRepository) Save(ctx context.Context, receipt *invoicing.Receipt) error {
	model := models.ReceiptModelFromDomain(receipt)
	model.UpdatedAt = time.Now()
	return writeError(r.db.WithContext(ctx).Save(model).Error, "Receipt")
}

var _ invoicing.ReceiptRepository = (*GormReceiptRepository)(nil)

// GormArtifactRepository implements ArtifactRepository using GORM
type GormArtifactRepository struct {
	db *gorm.DB
}

// NewGormArtifactRepository creates a new GormArtifactRepository
func NewGormArtifactRepository(db *gorm.DB) *GormArtifactRepository {
	return &GormArtifactRepository{db: db}
}

// Create inserts an artifact reference
func (r *GormArtifactRepository) Create(ctx context.Context, a *invoicing.Artifact) error {
	model := models.ArtifactModelFromDomain(a)
	return writeError(r.db.WithContext(ctx).Create(model).Error, "Artifact")
}

// FindByIDForTenant finds an artifact by ID within a tenant
func (r *GormArtifactRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Artifact, error) {
	var model models.ArtifactModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findError(err, "Artifact", id)
	}
	return model.ToDomain(), nil
}

var _ invoicing.ArtifactRepository = (*GormArtifactRepository)(nil)
