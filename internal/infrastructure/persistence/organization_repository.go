package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormOrganizationRepository implements OrganizationRepository using GORM
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewGormOrganizationRepository creates a new GormOrganizationRepository
func NewGormOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// FindByID finds an organization by its ID
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Organization, error) {
	var model models.OrganizationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, findError(err, "Organization", id)
	}
	return model.ToDomain(), nil
}

// Save creates or updates an organization. The invoice counter is owned by
// NextInvoiceSequence and is never written from here.
func (r *GormOrganizationRepository) Save(ctx context.Context, org *invoicing.Organization) error {
	model := models.OrganizationModelFromDomain(org)
	return writeError(r.db.WithContext(ctx).Omit("invoice_next_number").Save(model).Error, "Organization")
}

// NextInvoiceSequence increments the counter and returns the value it held before.
// The row stays locked by the UPDATE until the surrounding transaction ends, so
// concurrent creators for the same organization serialize here.
func (r *GormOrganizationRepository) NextInvoiceSequence(ctx context.Context, orgID uuid.UUID) (int64, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.OrganizationModel{}).
		Where("id = ?", orgID).
		UpdateColumn("invoice_next_number", gorm.Expr("invoice_next_number + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, findError(gorm.ErrRecordNotFound, "Organization", orgID)
	}

	var next int64
	if err := db.Model(&models.OrganizationModel{}).
		Where("id = ?", orgID).
		Select("invoice_next_number").
		Scan(&next).Error; err != nil {
		return 0, err
	}
	return next - 1, nil
}

var _ invoicing.OrganizationRepository = (*GormOrganizationRepository)(nil)
