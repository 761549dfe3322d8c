package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormDisputeRepository implements DisputeRepository using GORM
type GormDisputeRepository struct {
	db *gorm.DB
}

// NewGormDisputeRepository creates a new GormDisputeRepository
func NewGormDisputeRepository(db *gorm.DB) *GormDisputeRepository {
	return &GormDisputeRepository{db: db}
}

// FindByIDForTenant finds a dispute by ID within a tenant
func (r *GormDisputeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Dispute, error) {
	var model models.DisputeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findError(err, "Dispute", id)
	}
	return model.ToDomain(), nil
}

// FindByInvoice lists the disputes of an invoice, newest first
func (r *GormDisputeRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.Dispute, error) {
	var disputeModels []models.DisputeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("created_at DESC").
		Find(&disputeModels).Error; err != nil {
		return nil, err
	}

	disputes := make([]invoicing.Dispute, len(disputeModels))
	for i := range disputeModels {
		disputes[i] = *disputeModels[i].ToDomain()
	}
	return disputes, nil
}

// Create inserts a dispute
func (r *GormDisputeRepository) Create(ctx context.Context, d *invoicing.Dispute) error {
	model := models.DisputeModelFromDomain(d)
	return writeError(r.db.WithContext(ctx).Create(model).Error, "Dispute")
}

// SaveWithLock updates a dispute when its version is unchanged
func (r *GormDisputeRepository) SaveWithLock(ctx context.Context, d *invoicing.Dispute) error {
	model := models.DisputeModelFromDomain(d)
	expected := d.Version
	model.Version = expected + 1
	model.UpdatedAt = time.Now()
	if err := updateVersioned(r.db.WithContext(ctx), model, "Dispute", d.ID, expected); err != nil {
		return err
	}
	d.Version = model.Version
	d.UpdatedAt = model.UpdatedAt
	return nil
}

var _ invoicing.DisputeRepository = (*GormDisputeRepository)(nil)
