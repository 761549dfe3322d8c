package invoicing

import (
	"context"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// MaxBatchSize bounds the number of ids accepted by one batch call
const MaxBatchSize = 100

// BatchItemResult is the outcome for one id of a batch
type BatchItemResult struct {
	ID        uuid.UUID `json:"id"`
	Success   bool      `json:"success"`
	ErrorCode string    `json:"error_code,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// BatchResult collects per-id outcomes. One failing id never aborts the others.
type BatchResult struct {
	Items     []BatchItemResult `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

func (r *BatchResult) succeed(id uuid.UUID) {
	r.Items = append(r.Items, BatchItemResult{ID: id, Success: true})
	r.Succeeded++
}

func (r *BatchResult) fail(id uuid.UUID, err error) {
	code := shared.CodeOf(err)
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	r.Items = append(r.Items, BatchItemResult{
		ID:        id,
		ErrorCode: code,
		Error:     err.Error(),
	})
	r.Failed++
}

func validateBatch(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return shared.ValidationError("ids cannot be empty")
	}
	if len(ids) > MaxBatchSize {
		return shared.ValidationError("at most %d ids per batch", MaxBatchSize)
	}
	return nil
}

// BatchVoid voids each invoice in order, each in its own transaction
func (s *InvoiceService) BatchVoid(ctx context.Context, actor Actor, ids []uuid.UUID, reason string) (*BatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "batch_void")
	defer span.End()

	if err := validateBatch(ids); err != nil {
		return nil, err
	}
	result := &BatchResult{}
	for _, id := range ids {
		if _, err := s.Void(ctx, actor, id, reason); err != nil {
			result.fail(id, err)
			continue
		}
		result.succeed(id)
	}
	telemetry.SetAttributes(span, "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

// SendReminders emails a payment reminder for each outstanding invoice in order.
// Unlike Send, a delivery failure is reported for that id.
func (s *InvoiceService) SendReminders(ctx context.Context, actor Actor, ids []uuid.UUID) (*BatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "send_reminders")
	defer span.End()

	if err := validateBatch(ids); err != nil {
		return nil, err
	}
	result := &BatchResult{}
	for _, id := range ids {
		if err := s.sendReminder(ctx, actor, id); err != nil {
			result.fail(id, err)
			continue
		}
		result.succeed(id)
	}
	telemetry.SetAttributes(span, "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

func (s *InvoiceService) sendReminder(ctx context.Context, actor Actor, id uuid.UUID) error {
	view, err := s.Get(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	inv := view.Invoice
	if !inv.Status.IsOutstanding() {
		return shared.InvalidStateError("cannot remind invoice in %s status", inv.Status)
	}
	if view.Balance.DueCents <= 0 {
		return shared.InvalidStateError("invoice %s has nothing due", inv.Number)
	}
	org, customer, err := loadParties(ctx, s.deps.Repos, actor.TenantID, inv.CustomerID)
	if err != nil {
		return err
	}
	if !customer.HasEmail() {
		return shared.ValidationError("customer %s has no email address", customer.Name)
	}
	if s.email == nil {
		return shared.InvalidStateError("email delivery is not configured")
	}
	if err := s.sendInvoiceEmail(ctx, EmailTemplateReminder, org, customer, view); err != nil {
		return err
	}
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionReminderSent, invoicing.EntityTypeInvoice, id, map[string]any{
		"to":        customer.Email,
		"due_cents": view.Balance.DueCents,
	})
	return nil
}
