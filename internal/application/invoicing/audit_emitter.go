package invoicing

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/invoicing"
)

// AuditEmitter forwards audit records to the sink after a mutation has committed.
// A failing sink is logged and never fails the audited operation.
type AuditEmitter struct {
	sink   invoicing.AuditSink
	logger *zap.Logger
}

// NewAuditEmitter creates an AuditEmitter. A nil sink discards records.
func NewAuditEmitter(sink invoicing.AuditSink, logger *zap.Logger) *AuditEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditEmitter{sink: sink, logger: logger}
}

// Emit records one audit entry
func (e *AuditEmitter) Emit(ctx context.Context, actor Actor, action, entityType string, entityID uuid.UUID, data map[string]any) {
	if e == nil || e.sink == nil {
		return
	}
	record := invoicing.AuditRecord{
		OrgID:      actor.TenantID,
		ActorID:    actor.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Data:       data,
	}
	if _, err := e.sink.Record(ctx, record); err != nil {
		e.logger.Error("Failed to record audit event",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID.String()),
			zap.Error(err),
		)
	}
}
