package invoicing

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// ApproveDisputeInput is the credit granted when approving a dispute
type ApproveDisputeInput struct {
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	Reason      string `json:"reason" validate:"max=1000"`
}

// DisputeService opens and resolves invoice disputes
type DisputeService struct {
	deps     Dependencies
	seq      *Sequencer
	recorder *Recorder
}

// NewDisputeService creates a new DisputeService. Approvals issue credit notes the same
// way the recorder does.
func NewDisputeService(deps Dependencies, recorder *Recorder) *DisputeService {
	deps = deps.withDefaults()
	return &DisputeService{deps: deps, seq: NewSequencer(deps.IDs, deps.Clock), recorder: recorder}
}

// Open creates an OPEN dispute against an invoice
func (s *DisputeService) Open(ctx context.Context, actor Actor, invoiceID uuid.UUID, reason string) (*invoicing.Dispute, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dispute", "open")
	defer span.End()

	var d *invoicing.Dispute
	err := s.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		inv, err := repos.Invoices().FindByIDForTenant(ctx, actor.TenantID, invoiceID)
		if err != nil {
			return err
		}
		d, err = s.open(ctx, repos, actor, inv, reason)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.opened(ctx, actor, d)
	return d, nil
}

// OpenByToken lets the customer open a dispute from the hosted invoice page
func (s *DisputeService) OpenByToken(ctx context.Context, token, reason string) (*invoicing.Dispute, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dispute", "open_by_token")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.NewDomainError(shared.CodeNotFound, "invoice not found")
	}
	var d *invoicing.Dispute
	var actor Actor
	err := s.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		inv, err := repos.Invoices().FindByToken(ctx, token)
		if err != nil {
			return err
		}
		actor = Actor{TenantID: inv.TenantID}
		d, err = s.open(ctx, repos, actor, inv, reason)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.opened(ctx, actor, d)
	return d, nil
}

func (s *DisputeService) open(ctx context.Context, repos Repositories, actor Actor, inv *invoicing.Invoice, reason string) (*invoicing.Dispute, error) {
	d, err := invoicing.NewDispute(actor.TenantID, inv.ID, reason)
	if err != nil {
		return nil, err
	}
	d.SetCreatedBy(actor.UserID)
	if err := repos.Disputes().Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DisputeService) opened(ctx context.Context, actor Actor, d *invoicing.Dispute) {
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionDisputeOpened, invoicing.EntityTypeDispute, d.ID, map[string]any{
		"invoice_id": d.InvoiceID.String(),
		"reason":     d.Reason,
	})
	s.deps.publishEvents(ctx, d)
}

// Get returns a dispute
func (s *DisputeService) Get(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Dispute, error) {
	return s.deps.Repos.Disputes().FindByIDForTenant(ctx, tenantID, id)
}

// ListForInvoice returns the disputes of an invoice
func (s *DisputeService) ListForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.Dispute, error) {
	if _, err := s.deps.Repos.Invoices().FindByIDForTenant(ctx, tenantID, invoiceID); err != nil {
		return nil, err
	}
	return s.deps.Repos.Disputes().FindByInvoice(ctx, tenantID, invoiceID)
}

// Approve issues a credit note against the disputed invoice and marks the dispute APPROVED.
// Credit note, reconciliation and dispute transition commit together.
func (s *DisputeService) Approve(ctx context.Context, actor Actor, id uuid.UUID, in ApproveDisputeInput) (*invoicing.Dispute, *CreditNoteResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dispute", "approve")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, actor.TenantID.String(), telemetry.SpanAttrDisputeID, id.String())

	var d *invoicing.Dispute
	var credit *CreditNoteResult
	err := s.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		var err error
		d, err = repos.Disputes().FindByIDForTenant(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if err := d.ValidateApproval(in.AmountCents); err != nil {
			return err
		}
		if err := s.deps.Validator.Struct(in); err != nil {
			return err
		}
		inv, err := repos.Invoices().FindByIDForTenant(ctx, actor.TenantID, d.InvoiceID)
		if err != nil {
			return err
		}
		reason := in.Reason
		if strings.TrimSpace(reason) == "" {
			reason = "Dispute approved: " + d.Reason
		}
		credit, err = issueCredit(ctx, repos, s.seq, actor, inv, in.AmountCents, reason, &d.ID)
		if err != nil {
			return err
		}
		if err := d.Approve(credit.CreditNote, s.deps.Clock.Now()); err != nil {
			return err
		}
		return repos.Disputes().SaveWithLock(ctx, d)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, err
	}

	cn := credit.CreditNote
	s.deps.Metrics.RecordCreditNote(ctx, actor.TenantID)
	if s.recorder != nil {
		s.recorder.afterSettle(ctx, actor, credit.Invoice)
	}
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionDisputeApproved, invoicing.EntityTypeDispute, d.ID, map[string]any{
		"invoice_id":         d.InvoiceID.String(),
		"credit_note_id":     cn.ID.String(),
		"credit_note_number": cn.Number,
		"amount_cents":       cn.AmountCents,
	})
	s.deps.publishEvents(ctx, d, cn, credit.Invoice.Invoice)
	return d, credit, nil
}

// Reject resolves an OPEN dispute with the seller's response
func (s *DisputeService) Reject(ctx context.Context, actor Actor, id uuid.UUID, message string) (*invoicing.Dispute, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dispute", "reject")
	defer span.End()

	var d *invoicing.Dispute
	err := s.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		var err error
		d, err = repos.Disputes().FindByIDForTenant(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if err := d.Reject(message, s.deps.Clock.Now()); err != nil {
			return err
		}
		return repos.Disputes().SaveWithLock(ctx, d)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionDisputeRejected, invoicing.EntityTypeDispute, d.ID, map[string]any{
		"invoice_id": d.InvoiceID.String(),
		"response":   d.SellerResponse,
	})
	s.deps.publishEvents(ctx, d)
	return d, nil
}
