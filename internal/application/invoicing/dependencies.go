package invoicing

import (
	"context"

	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// Dependencies are the collaborators shared by every invoicing service
type Dependencies struct {
	Repos     Repositories
	TxScope   TransactionScope
	Events    shared.EventPublisher
	Audit     *AuditEmitter
	IDs       invoicing.IDGenerator
	Clock     Clock
	Validator *Validator
	Metrics   *telemetry.BillingMetrics
	Logger    *zap.Logger
}

func (d Dependencies) withDefaults() Dependencies {
	if d.IDs == nil {
		d.IDs = invoicing.RandomIDGenerator{}
	}
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Validator == nil {
		d.Validator = NewValidator()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Audit == nil {
		d.Audit = NewAuditEmitter(nil, d.Logger)
	}
	return d
}

// publishEvents hands the pending events of committed aggregates to the event bus.
// Handler failures are logged; the mutation is already durable.
func (d Dependencies) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	var events []shared.DomainEvent
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		events = append(events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
	if d.Events == nil || len(events) == 0 {
		return
	}
	if err := d.Events.Publish(ctx, events...); err != nil {
		d.Logger.Warn("Failed to publish domain events", zap.Int("count", len(events)), zap.Error(err))
	}
}
