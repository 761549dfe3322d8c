package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormQuoteRepository implements QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByIDForTenant finds a quote with its items by ID within a tenant
func (r *GormQuoteRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Quote, error) {
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, findError(err, "Quote", id)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists quotes of a tenant and returns the total match count
func (r *GormQuoteRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter invoicing.QuoteFilter) ([]invoicing.Quote, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.QuoteModel{}).Where("tenant_id = ?", tenantID)
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(number) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quoteModels []models.QuoteModel
	if err := applyPage(query, filter.Filter, QuoteSortFields).
		Preload("Items", orderedItems).
		Find(&quoteModels).Error; err != nil {
		return nil, 0, err
	}

	quotes := make([]invoicing.Quote, len(quoteModels))
	for i := range quoteModels {
		quotes[i] = *quoteModels[i].ToDomain()
	}
	return quotes, total, nil
}

// CountForTenant counts every quote a tenant has created and not deleted
func (r *GormQuoteRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.QuoteModel{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

// ExistsByNumber reports whether a quote number is taken within a tenant
func (r *GormQuoteRepository) ExistsByNumber(ctx context.Context, tenantID uuid.UUID, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.QuoteModel{}).
		Where("tenant_id = ? AND number = ?", tenantID, number).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a quote together with its items
func (r *GormQuoteRepository) Create(ctx context.Context, q *invoicing.Quote) error {
	model := models.QuoteModelFromDomain(q)
	return writeError(r.db.WithContext(ctx).Create(model).Error, "Quote")
}

// SaveWithLock updates a quote when its version is unchanged and replaces its items
func (r *GormQuoteRepository) SaveWithLock(ctx context.Context, q *invoicing.Quote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.QuoteModelFromDomain(q)
		expected := q.Version
		model.Version = expected + 1
		model.UpdatedAt = time.Now()
		if err := updateVersioned(tx, model, "Quote", q.ID, expected); err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", q.ID).Delete(&models.QuoteItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return writeError(err, "Quote item")
			}
		}
		q.Version = model.Version
		q.UpdatedAt = model.UpdatedAt
		return nil
	})
}

// DeleteForTenant removes a quote and its items
func (r *GormQuoteRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.QuoteModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return findError(gorm.ErrRecordNotFound, "Quote", id)
		}
		return tx.Where("quote_id = ?", id).Delete(&models.QuoteItemModel{}).Error
	})
}

var _ invoicing.QuoteRepository = (*GormQuoteRepository)(nil)
