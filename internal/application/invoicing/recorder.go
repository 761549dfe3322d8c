package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// DefaultIdempotencyTTL is how long a provider reference is remembered by the idempotency store
const DefaultIdempotencyTTL = 72 * time.Hour

// PaymentInput records money received against an invoice
type PaymentInput struct {
	Provider          invoicing.PaymentProvider `json:"provider" validate:"omitempty,oneof=MANUAL STRIPE BANK_TRANSFER OTHER"`
	ProviderReference string                    `json:"provider_reference" validate:"max=255"`
	Status            invoicing.PaymentStatus   `json:"status" validate:"omitempty,oneof=PENDING SUCCEEDED FAILED REFUNDED CANCELLED"`
	AmountCents       int64                     `json:"amount_cents" validate:"gt=0"`
}

// CreditNoteInput issues a credit against an invoice
type CreditNoteInput struct {
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	Reason      string `json:"reason" validate:"max=1000"`
}

// PaymentResult is the recorded payment and the invoice after reconciliation.
// Duplicate is set when the provider reference was already recorded; nothing changed then.
type PaymentResult struct {
	Payment   *invoicing.Payment
	Invoice   *InvoiceView
	Duplicate bool
}

// CreditNoteResult is the issued credit note and the invoice after reconciliation
type CreditNoteResult struct {
	CreditNote *invoicing.CreditNote
	Invoice    *InvoiceView
}

// Recorder records payments and credit notes and moves fully settled invoices to PAID
type Recorder struct {
	deps           Dependencies
	seq            *Sequencer
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
}

// NewRecorder creates a new Recorder. idempotency may be nil; the unique index on
// provider references still rejects duplicates then.
func NewRecorder(deps Dependencies, idempotency shared.IdempotencyStore, ttl time.Duration) *Recorder {
	deps = deps.withDefaults()
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &Recorder{
		deps:           deps,
		seq:            NewSequencer(deps.IDs, deps.Clock),
		idempotency:    idempotency,
		idempotencyTTL: ttl,
	}
}

// RecordPayment stores a payment, reconciles the invoice and marks it PAID when nothing is due
func (r *Recorder) RecordPayment(ctx context.Context, actor Actor, invoiceID uuid.UUID, in PaymentInput) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, actor.TenantID.String(),
		telemetry.SpanAttrInvoiceID, invoiceID.String(),
		telemetry.SpanAttrAmountCents, in.AmountCents,
	)

	if err := r.deps.Validator.Struct(in); err != nil {
		return nil, err
	}
	if in.Provider == "" {
		in.Provider = invoicing.PaymentProviderManual
	}
	if in.Status == "" {
		in.Status = invoicing.PaymentStatusSucceeded
	}

	key := ""
	if in.ProviderReference != "" && r.idempotency != nil {
		key = fmt.Sprintf("payment:%s:%s:%s", actor.TenantID, in.Provider, in.ProviderReference)
		fresh, err := r.idempotency.MarkProcessed(ctx, key, r.idempotencyTTL)
		if err != nil {
			// the unique index still guards the reference
			r.deps.Logger.Warn("Idempotency store unavailable", zap.String("key", key), zap.Error(err))
			key = ""
		} else if !fresh {
			return r.existingPayment(ctx, actor, invoiceID, in)
		}
	}

	var result *PaymentResult
	var inv *invoicing.Invoice
	err := r.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		var err error
		inv, err = repos.Invoices().FindByIDForTenant(ctx, actor.TenantID, invoiceID)
		if err != nil {
			return err
		}
		if in.ProviderReference != "" {
			existing, err := repos.Payments().FindByProviderReference(ctx, actor.TenantID, in.Provider, in.ProviderReference)
			if err != nil && !shared.IsNotFound(err) {
				return err
			}
			if existing != nil {
				if existing.InvoiceID != inv.ID {
					return shared.ConflictError("payment %s was recorded against another invoice", in.ProviderReference)
				}
				balance, err := balanceOf(ctx, repos, inv)
				if err != nil {
					return err
				}
				result = &PaymentResult{Payment: existing, Invoice: &InvoiceView{Invoice: inv, Balance: balance}, Duplicate: true}
				return nil
			}
		}
		if err := inv.EnsureAcceptsFunds(); err != nil {
			return err
		}

		now := r.deps.Clock.Now()
		payment, err := invoicing.NewPayment(actor.TenantID, inv.ID, in.Provider, in.ProviderReference, in.Status, in.AmountCents, now)
		if err != nil {
			return err
		}
		payment.SetCreatedBy(actor.UserID)
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return err
		}
		view, err := reconcileAndSettle(ctx, repos, actor, inv, &payment.ID, now)
		if err != nil {
			return err
		}
		result = &PaymentResult{Payment: payment, Invoice: view}
		return nil
	})
	if err != nil {
		if key != "" {
			if releaseErr := r.idempotency.Release(ctx, key); releaseErr != nil {
				r.deps.Logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(releaseErr))
			}
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	if result.Duplicate {
		return result, nil
	}

	payment := result.Payment
	r.deps.Metrics.RecordPayment(ctx, actor.TenantID, string(payment.Provider), string(payment.Status), payment.AmountCents, payment.Counts())
	r.deps.Audit.Emit(ctx, actor, invoicing.AuditActionPaymentRecorded, invoicing.EntityTypePayment, payment.ID, map[string]any{
		"invoice_id":         inv.ID.String(),
		"amount_cents":       payment.AmountCents,
		"provider":           string(payment.Provider),
		"provider_reference": payment.ProviderReference,
		"status":             string(payment.Status),
	})
	r.afterSettle(ctx, actor, result.Invoice)
	r.deps.publishEvents(ctx, payment, inv)
	return result, nil
}

// existingPayment answers a provider reference the idempotency store has already seen
func (r *Recorder) existingPayment(ctx context.Context, actor Actor, invoiceID uuid.UUID, in PaymentInput) (*PaymentResult, error) {
	existing, err := r.deps.Repos.Payments().FindByProviderReference(ctx, actor.TenantID, in.Provider, in.ProviderReference)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ConflictError("payment %s is already being recorded", in.ProviderReference)
		}
		return nil, err
	}
	inv, err := r.deps.Repos.Invoices().FindByIDForTenant(ctx, actor.TenantID, existing.InvoiceID)
	if err != nil {
		return nil, err
	}
	if existing.InvoiceID != invoiceID {
		return nil, shared.ConflictError("payment %s was recorded against invoice %s", in.ProviderReference, inv.Number)
	}
	balance, err := balanceOf(ctx, r.deps.Repos, inv)
	if err != nil {
		return nil, err
	}
	r.deps.Logger.Info("Ignoring duplicate payment",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("provider_reference", in.ProviderReference),
	)
	return &PaymentResult{Payment: existing, Invoice: &InvoiceView{Invoice: inv, Balance: balance}, Duplicate: true}, nil
}

// IssueCreditNote issues a credit against an invoice and marks it PAID when nothing is due
func (r *Recorder) IssueCreditNote(ctx context.Context, actor Actor, invoiceID uuid.UUID, in CreditNoteInput) (*CreditNoteResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "credit_note", "issue")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, actor.TenantID.String(),
		telemetry.SpanAttrInvoiceID, invoiceID.String(),
		telemetry.SpanAttrAmountCents, in.AmountCents,
	)

	if err := r.deps.Validator.Struct(in); err != nil {
		return nil, err
	}

	var result *CreditNoteResult
	err := r.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		inv, err := repos.Invoices().FindByIDForTenant(ctx, actor.TenantID, invoiceID)
		if err != nil {
			return err
		}
		result, err = issueCredit(ctx, repos, r.seq, actor, inv, in.AmountCents, in.Reason, nil)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	r.creditIssued(ctx, actor, result)
	return result, nil
}

func (r *Recorder) creditIssued(ctx context.Context, actor Actor, result *CreditNoteResult) {
	cn := result.CreditNote
	r.deps.Metrics.RecordCreditNote(ctx, actor.TenantID)
	r.deps.Audit.Emit(ctx, actor, invoicing.AuditActionCreditNoteIssued, invoicing.EntityTypeCreditNote, cn.ID, map[string]any{
		"invoice_id":   cn.InvoiceID.String(),
		"number":       cn.Number,
		"amount_cents": cn.AmountCents,
	})
	r.afterSettle(ctx, actor, result.Invoice)
	r.deps.publishEvents(ctx, cn, result.Invoice.Invoice)
}

// afterSettle counts the PAID transition. Its audit record and receipt come from the
// InvoicePaid handler.
func (r *Recorder) afterSettle(ctx context.Context, actor Actor, view *InvoiceView) {
	if view.Invoice.Status == invoicing.InvoiceStatusPaid && hasPaidEvent(view.Invoice) {
		r.deps.Metrics.RecordInvoicePaid(ctx, actor.TenantID)
	}
}

func hasPaidEvent(inv *invoicing.Invoice) bool {
	for _, e := range inv.GetDomainEvents() {
		if e.EventType() == invoicing.EventTypeInvoicePaid {
			return true
		}
	}
	return false
}

// issueCredit creates a credit note in the caller's transaction and reconciles the invoice
func issueCredit(ctx context.Context, repos Repositories, seq *Sequencer, actor Actor, inv *invoicing.Invoice, amountCents int64, reason string, disputeID *uuid.UUID) (*CreditNoteResult, error) {
	if err := inv.EnsureAcceptsFunds(); err != nil {
		return nil, err
	}
	now := seq.clock.Now()
	cn, err := invoicing.NewCreditNote(actor.TenantID, inv.ID, seq.CreditNoteNumber(), amountCents, reason, now)
	if err != nil {
		return nil, err
	}
	cn.DisputeID = disputeID
	cn.SetCreatedBy(actor.UserID)
	if err := repos.CreditNotes().Create(ctx, cn); err != nil {
		return nil, err
	}
	view, err := reconcileAndSettle(ctx, repos, actor, inv, nil, now)
	if err != nil {
		return nil, err
	}
	return &CreditNoteResult{CreditNote: cn, Invoice: view}, nil
}

// reconcileAndSettle recomputes the balance and moves the invoice to PAID when nothing is due.
// It runs inside the transaction that wrote the payment or credit note.
func reconcileAndSettle(ctx context.Context, repos Repositories, actor Actor, inv *invoicing.Invoice, paymentID *uuid.UUID, now time.Time) (*InvoiceView, error) {
	balance, err := balanceOf(ctx, repos, inv)
	if err != nil {
		return nil, err
	}
	if invoicing.ShouldMarkPaid(inv, balance) {
		if err := inv.MarkPaid(balance, paymentID, actor.UserID, now); err != nil {
			return nil, err
		}
		if err := repos.Invoices().SaveWithLock(ctx, inv); err != nil {
			return nil, err
		}
	}
	return &InvoiceView{Invoice: inv, Balance: balance}, nil
}
