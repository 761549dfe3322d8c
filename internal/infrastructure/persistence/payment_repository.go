package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByInvoice lists the payments of an invoice in recording order
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]invoicing.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = *paymentModels[i].ToDomain()
	}
	return payments, nil
}

// FindByProviderReference finds a payment by its provider reference within a tenant
func (r *GormPaymentRepository) FindByProviderReference(ctx context.Context, tenantID uuid.UUID, provider invoicing.PaymentProvider, reference string) (*invoicing.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ? AND provider_reference = ?", tenantID, provider, reference).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "payment not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a payment. A reused provider reference returns CONCURRENCY_CONFLICT.
func (r *GormPaymentRepository) Create(ctx context.Context, p *invoicing.Payment) error {
	model := models.PaymentModelFromDomain(p)
	return writeError(r.db.WithContext(ctx).Create(model).Error, "Payment")
}

var _ invoicing.PaymentRepository = (*GormPaymentRepository)(nil)
