package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormAuditSink appends audit records to the audit_events table
type GormAuditSink struct {
	db *gorm.DB
}

// NewGormAuditSink creates a new GormAuditSink
func NewGormAuditSink(db *gorm.DB) *GormAuditSink {
	return &GormAuditSink{db: db}
}

// Record inserts one audit row and returns its ID
func (s *GormAuditSink) Record(ctx context.Context, record invoicing.AuditRecord) (uuid.UUID, error) {
	data := "{}"
	if len(record.Data) > 0 {
		raw, err := json.Marshal(record.Data)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to encode audit data: %w", err)
		}
		data = string(raw)
	}

	model := models.AuditEventModel{
		ID:         uuid.New(),
		OrgID:      record.OrgID,
		Action:     record.Action,
		EntityType: record.EntityType,
		EntityID:   record.EntityID,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}
	if record.ActorID != uuid.Nil {
		actor := record.ActorID
		model.ActorID = &actor
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return uuid.Nil, err
	}
	return model.ID, nil
}

// FindByEntity lists the audit trail of one entity, oldest first
func (s *GormAuditSink) FindByEntity(ctx context.Context, orgID, entityID uuid.UUID) ([]models.AuditEventModel, error) {
	var events []models.AuditEventModel
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND entity_id = ?", orgID, entityID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

var _ invoicing.AuditSink = (*GormAuditSink)(nil)
