package invoicing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// InvoiceView is an invoice together with its reconciled balance
type InvoiceView struct {
	Invoice *invoicing.Invoice
	Balance invoicing.Balance
}

// InvoiceServiceOptions configures outgoing invoice emails
type InvoiceServiceOptions struct {
	// PublicBaseURL prefixes hosted-page links, e.g. https://pay.example.com/i/
	PublicBaseURL string
}

// InvoiceService implements the invoice lifecycle operations
type InvoiceService struct {
	deps    Dependencies
	seq     *Sequencer
	email   EmailSender
	options InvoiceServiceOptions
}

// NewInvoiceService creates a new InvoiceService. email may be nil.
func NewInvoiceService(deps Dependencies, email EmailSender, options InvoiceServiceOptions) *InvoiceService {
	deps = deps.withDefaults()
	return &InvoiceService{
		deps:    deps,
		seq:     NewSequencer(deps.IDs, deps.Clock),
		email:   email,
		options: options,
	}
}

// Create creates a DRAFT invoice with the next number of the organization
func (s *InvoiceService) Create(ctx context.Context, actor Actor, in InvoiceInput) (*InvoiceView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, actor.TenantID.String(), telemetry.SpanAttrCustomerID, in.CustomerID.String())

	if err := s.deps.Validator.Struct(in); err != nil {
		return nil, err
	}

	var view *InvoiceView
	err := s.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		org, customer, err := loadParties(ctx, repos, actor.TenantID, in.CustomerID)
		if err != nil {
			return err
		}
		draft, err := invoiceDraft(ctx, repos, org, customer, in, s.deps.Clock.Now())
		if err != nil {
			return err
		}
		inv, err := createNumberedInvoice(ctx, repos, s.seq, org, actor.UserID, draft, nil)
		if err != nil {
			return err
		}
		view = &InvoiceView{Invoice: inv, Balance: invoicing.Reconcile(inv, nil, nil)}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	inv := view.Invoice
	s.deps.Logger.Info("Invoice created",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("number", inv.Number),
	)
	s.deps.Metrics.RecordInvoiceCreated(ctx, actor.TenantID, telemetry.InvoiceSourceManual, view.Balance.TotalCents)
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionInvoiceCreated, invoicing.EntityTypeInvoice, inv.ID, map[string]any{
		"number":      inv.Number,
		"total_cents": view.Balance.TotalCents,
	})
	s.deps.publishEvents(ctx, inv)
	return view, nil
}

// Update replaces the content of a DRAFT invoice
func (s *InvoiceService) Update(ctx context.Context, actor Actor, id uuid.UUID, in InvoiceInput) (*InvoiceView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, actor.TenantID.String(), telemetry.SpanAttrInvoiceID, id.String())

	if err := s.deps.Validator.Struct(in); err != nil {
		return nil, err
	}

	view, err := s.mutate(ctx, actor, id, func(repos Repositories, inv *invoicing.Invoice) error {
		org, customer, err := loadParties(ctx, repos, actor.TenantID, in.CustomerID)
		if err != nil {
			return err
		}
		draft, err := invoiceDraft(ctx, repos, org, customer, in, inv.IssueDate)
		if err != nil {
			return err
		}
		return inv.Update(draft)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionInvoiceUpdated, invoicing.EntityTypeInvoice, id, map[string]any{
		"total_cents": view.Balance.TotalCents,
	})
	s.deps.publishEvents(ctx, view.Invoice)
	return view, nil
}

// Get returns an invoice with its balance
func (s *InvoiceService) Get(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "get")
	defer span.End()

	inv, err := s.deps.Repos.Invoices().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	balance, err := balanceOf(ctx, s.deps.Repos, inv)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &InvoiceView{Invoice: inv, Balance: balance}, nil
}

// List returns a page of invoices with their balances
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) (*shared.Paginated[InvoiceView], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "list")
	defer span.End()

	invoices, total, err := s.deps.Repos.Invoices().FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	views := make([]InvoiceView, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		balance, err := balanceOf(ctx, s.deps.Repos, inv)
		if err != nil {
			return nil, err
		}
		views = append(views, InvoiceView{Invoice: inv, Balance: balance})
	}
	page := shared.NewPaginated(views, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Send marks the invoice SENT and emails the hosted-page link to the customer.
// The email is sent after commit; a delivery failure is logged and does not fail the call.
func (s *InvoiceService) Send(ctx context.Context, actor Actor, id uuid.UUID) (*InvoiceView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "send")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, actor.TenantID.String(), telemetry.SpanAttrInvoiceID, id.String())

	var customer *invoicing.Customer
	var org *invoicing.Organization
	view, err := s.mutate(ctx, actor, id, func(repos Repositories, inv *invoicing.Invoice) error {
		var err error
		org, customer, err = loadParties(ctx, repos, actor.TenantID, inv.CustomerID)
		if err != nil {
			return err
		}
		return inv.Send(customer.Email, s.deps.Clock.Now())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	inv := view.Invoice
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionInvoiceSent, invoicing.EntityTypeInvoice, inv.ID, map[string]any{
		"to": customer.Email,
	})
	s.deps.publishEvents(ctx, inv)
	s.sendInvoiceEmail(ctx, EmailTemplateInvoice, org, customer, view)
	return view, nil
}

// ViewByToken resolves a hosted-page token and records the first view of a SENT invoice
func (s *InvoiceService) ViewByToken(ctx context.Context, token string) (*InvoiceView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "view_by_token")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.NewDomainError(shared.CodeNotFound, "invoice not found")
	}

	var viewed bool
	var view *InvoiceView
	err := s.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		inv, err := repos.Invoices().FindByToken(ctx, token)
		if err != nil {
			return err
		}
		viewed = inv.MarkViewed(s.deps.Clock.Now())
		if viewed {
			if err := repos.Invoices().SaveWithLock(ctx, inv); err != nil {
				return err
			}
		}
		balance, err := balanceOf(ctx, repos, inv)
		if err != nil {
			return err
		}
		view = &InvoiceView{Invoice: inv, Balance: balance}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if viewed {
		inv := view.Invoice
		s.deps.Audit.Emit(ctx, Actor{TenantID: inv.TenantID}, invoicing.AuditActionInvoiceViewed, invoicing.EntityTypeInvoice, inv.ID, nil)
		s.deps.publishEvents(ctx, inv)
	}
	return view, nil
}

// MarkOverdue moves a SENT or VIEWED invoice past its due date with a balance to OVERDUE.
// It reports whether the status changed.
func (s *InvoiceService) MarkOverdue(ctx context.Context, actor Actor, id uuid.UUID) (*InvoiceView, bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "mark_overdue")
	defer span.End()

	var changed bool
	view, err := s.mutateIf(ctx, actor, id, func(repos Repositories, inv *invoicing.Invoice, balance invoicing.Balance) (bool, error) {
		changed = inv.MarkOverdue(balance.DueCents, s.deps.Clock.Now())
		return changed, nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, false, err
	}
	if changed {
		s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionInvoiceOverdue, invoicing.EntityTypeInvoice, id, map[string]any{
			"due_cents": view.Balance.DueCents,
		})
		s.deps.publishEvents(ctx, view.Invoice)
	}
	return view, changed, nil
}

// SweepOverdue checks every SENT or VIEWED invoice whose due date has passed.
// Each invoice is handled in its own transaction; the result lists the ones that changed or failed.
func (s *InvoiceService) SweepOverdue(ctx context.Context, actor Actor) (*BatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "sweep_overdue")
	defer span.End()

	now := s.deps.Clock.Now()
	filter := invoicing.InvoiceFilter{
		Filter:    shared.Filter{Page: 1, PageSize: 100, OrderBy: "due_date", OrderDir: "asc"},
		Statuses:  []invoicing.InvoiceStatus{invoicing.InvoiceStatusSent, invoicing.InvoiceStatusViewed},
		DueBefore: &now,
	}

	var candidates []uuid.UUID
	for {
		page, total, err := s.deps.Repos.Invoices().FindAllForTenant(ctx, actor.TenantID, filter)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to list overdue candidates: %w", err)
		}
		for i := range page {
			candidates = append(candidates, page[i].ID)
		}
		if len(page) == 0 || int64(filter.Page*filter.PageSize) >= total {
			break
		}
		filter.Page++
	}

	result := &BatchResult{}
	for _, id := range candidates {
		_, changed, err := s.MarkOverdue(ctx, actor, id)
		if err != nil {
			result.fail(id, err)
			continue
		}
		if changed {
			result.succeed(id)
		}
	}
	telemetry.SetAttributes(span, "candidates", len(candidates), "changed", result.Succeeded)
	return result, nil
}

// Void cancels an invoice that has not been paid
func (s *InvoiceService) Void(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*InvoiceView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "void")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, actor.TenantID.String(), telemetry.SpanAttrInvoiceID, id.String())

	view, err := s.mutate(ctx, actor, id, func(_ Repositories, inv *invoicing.Invoice) error {
		return inv.Void(reason, s.deps.Clock.Now())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionInvoiceVoided, invoicing.EntityTypeInvoice, id, map[string]any{
		"reason": reason,
	})
	s.deps.publishEvents(ctx, view.Invoice)
	return view, nil
}

// Duplicate copies an invoice into a new DRAFT with the next number of the organization
func (s *InvoiceService) Duplicate(ctx context.Context, actor Actor, id uuid.UUID) (*InvoiceView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "duplicate")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, actor.TenantID.String(), telemetry.SpanAttrInvoiceID, id.String())

	var copied *invoicing.Invoice
	err := s.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		source, err := repos.Invoices().FindByIDForTenant(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		org, err := repos.Organizations().FindByID(ctx, actor.TenantID)
		if err != nil {
			return err
		}
		number, err := s.seq.NextInvoiceNumber(ctx, repos, org)
		if err != nil {
			return err
		}
		copied, err = source.Duplicate(number, s.seq.Token(), s.deps.Clock.Now())
		if err != nil {
			return err
		}
		copied.SetCreatedBy(actor.UserID)
		return repos.Invoices().Create(ctx, copied)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	view := &InvoiceView{Invoice: copied, Balance: invoicing.Reconcile(copied, nil, nil)}
	s.deps.Metrics.RecordInvoiceCreated(ctx, actor.TenantID, telemetry.InvoiceSourceDuplicate, view.Balance.TotalCents)
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionInvoiceDuplicated, invoicing.EntityTypeInvoice, copied.ID, map[string]any{
		"source_invoice_id": id.String(),
		"number":            copied.Number,
	})
	s.deps.publishEvents(ctx, copied)
	return view, nil
}

// ComplianceSnapshot builds the e-invoicing snapshot of an invoice
func (s *InvoiceService) ComplianceSnapshot(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.ComplianceSnapshot, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "compliance_snapshot")
	defer span.End()

	inv, err := s.deps.Repos.Invoices().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	org, customer, err := loadParties(ctx, s.deps.Repos, tenantID, inv.CustomerID)
	if err != nil {
		return nil, err
	}
	snapshot := invoicing.BuildComplianceSnapshot(org, customer, inv)
	return &snapshot, nil
}

// mutate loads an invoice in a transaction, applies fn and saves it with a version check
func (s *InvoiceService) mutate(ctx context.Context, actor Actor, id uuid.UUID, fn func(repos Repositories, inv *invoicing.Invoice) error) (*InvoiceView, error) {
	return s.mutateIf(ctx, actor, id, func(repos Repositories, inv *invoicing.Invoice, _ invoicing.Balance) (bool, error) {
		return true, fn(repos, inv)
	})
}

// mutateIf is mutate for changes that may turn out to be no-ops; fn reports whether to save
func (s *InvoiceService) mutateIf(ctx context.Context, actor Actor, id uuid.UUID, fn func(repos Repositories, inv *invoicing.Invoice, balance invoicing.Balance) (bool, error)) (*InvoiceView, error) {
	var view *InvoiceView
	err := s.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		inv, err := repos.Invoices().FindByIDForTenant(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		balance, err := balanceOf(ctx, repos, inv)
		if err != nil {
			return err
		}
		save, err := fn(repos, inv, balance)
		if err != nil {
			return err
		}
		if save {
			if err := repos.Invoices().SaveWithLock(ctx, inv); err != nil {
				return err
			}
		}
		// totals may have changed with the content
		balance, err = balanceOf(ctx, repos, inv)
		if err != nil {
			return err
		}
		view = &InvoiceView{Invoice: inv, Balance: balance}
		return nil
	})
	return view, err
}

// sendInvoiceEmail delivers an invoice or reminder email. Failures are logged only.
func (s *InvoiceService) sendInvoiceEmail(ctx context.Context, template string, org *invoicing.Organization, customer *invoicing.Customer, view *InvoiceView) error {
	if s.email == nil || customer == nil || !customer.HasEmail() {
		return nil
	}
	inv := view.Invoice
	subject := fmt.Sprintf("Invoice %s from %s", inv.Number, org.Name)
	if template == EmailTemplateReminder {
		subject = fmt.Sprintf("Reminder: invoice %s is due", inv.Number)
	}
	msg := EmailMessage{
		To:       customer.Email,
		Subject:  subject,
		Template: template,
		TemplateData: map[string]any{
			"OrgName":       org.Name,
			"CustomerName":  customer.Name,
			"InvoiceNumber": inv.Number,
			"Currency":      inv.Currency,
			"TotalCents":    view.Balance.TotalCents,
			"DueCents":      view.Balance.DueCents,
			"DueDate":       inv.DueDate,
			"Link":          s.hostedLink(inv),
		},
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.deps.Logger.Error("Failed to send invoice email",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("template", template),
			zap.Error(err),
		)
		s.deps.Metrics.RecordSideEffectFailure(ctx, inv.TenantID, telemetry.SideEffectEmail)
		return err
	}
	return nil
}

func (s *InvoiceService) hostedLink(inv *invoicing.Invoice) string {
	if s.options.PublicBaseURL == "" {
		return inv.Token
	}
	return strings.TrimRight(s.options.PublicBaseURL, "/") + "/" + inv.Token
}
