package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditEventModel is one row of the append-only audit log.
// Data holds the JSON-encoded payload of the action.
type AuditEventModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	OrgID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ActorID    *uuid.UUID `gorm:"type:uuid"`
	Action     string     `gorm:"type:varchar(64);not null;index"`
	EntityType string     `gorm:"type:varchar(32);not null"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Data       string     `gorm:"type:text"`
	CreatedAt  time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AuditEventModel) TableName() string {
	return "audit_events"
}
