package invoicing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// QuoteView is a quote together with its computed totals
type QuoteView struct {
	Quote  *invoicing.Quote
	Totals invoicing.Totals
}

func newQuoteView(q *invoicing.Quote) *QuoteView {
	return &QuoteView{Quote: q, Totals: q.Totals()}
}

// QuoteService implements the quote lifecycle and conversion into invoices
type QuoteService struct {
	deps  Dependencies
	seq   *Sequencer
	email EmailSender
}

// NewQuoteService creates a new QuoteService. email may be nil.
func NewQuoteService(deps Dependencies, email EmailSender) *QuoteService {
	deps = deps.withDefaults()
	return &QuoteService{deps: deps, seq: NewSequencer(deps.IDs, deps.Clock), email: email}
}

// Create creates a DRAFT quote
func (s *QuoteService) Create(ctx context.Context, actor Actor, in QuoteInput) (*QuoteView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, actor.TenantID.String())

	if err := s.deps.Validator.Struct(in); err != nil {
		return nil, err
	}

	var q *invoicing.Quote
	err := s.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		org, customer, err := loadParties(ctx, repos, actor.TenantID, in.CustomerID)
		if err != nil {
			return err
		}
		draft, err := quoteDraft(ctx, repos, org, customer, in, s.deps.Clock.Now())
		if err != nil {
			return err
		}
		number, err := s.seq.NextQuoteNumber(ctx, repos, actor.TenantID)
		if err != nil {
			return err
		}
		q, err = invoicing.NewQuote(actor.TenantID, number, draft)
		if err != nil {
			return err
		}
		q.SetCreatedBy(actor.UserID)
		return repos.Quotes().Create(ctx, q)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	view := newQuoteView(q)
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionQuoteCreated, invoicing.EntityTypeQuote, q.ID, map[string]any{
		"number":      q.Number,
		"total_cents": view.Totals.TotalCents,
	})
	s.deps.publishEvents(ctx, q)
	return view, nil
}

// Update replaces the content of a quote that is neither CONVERTED nor VOID
func (s *QuoteService) Update(ctx context.Context, actor Actor, id uuid.UUID, in QuoteInput) (*QuoteView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "update")
	defer span.End()

	if err := s.deps.Validator.Struct(in); err != nil {
		return nil, err
	}
	q, err := s.mutate(ctx, actor, id, func(repos Repositories, q *invoicing.Quote) error {
		org, customer, err := loadParties(ctx, repos, actor.TenantID, in.CustomerID)
		if err != nil {
			return err
		}
		draft, err := quoteDraft(ctx, repos, org, customer, in, q.IssueDate)
		if err != nil {
			return err
		}
		return q.Update(draft)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	view := newQuoteView(q)
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionQuoteUpdated, invoicing.EntityTypeQuote, id, map[string]any{
		"total_cents": view.Totals.TotalCents,
	})
	s.deps.publishEvents(ctx, q)
	return view, nil
}

// Get returns a quote
func (s *QuoteService) Get(ctx context.Context, tenantID, id uuid.UUID) (*QuoteView, error) {
	q, err := s.deps.Repos.Quotes().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return newQuoteView(q), nil
}

// List returns a page of quotes
func (s *QuoteService) List(ctx context.Context, tenantID uuid.UUID, filter invoicing.QuoteFilter) (*shared.Paginated[QuoteView], error) {
	quotes, total, err := s.deps.Repos.Quotes().FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	views := make([]QuoteView, 0, len(quotes))
	for i := range quotes {
		views = append(views, *newQuoteView(&quotes[i]))
	}
	page := shared.NewPaginated(views, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Send marks the quote SENT and emails it to the customer when an address is known
func (s *QuoteService) Send(ctx context.Context, actor Actor, id uuid.UUID) (*QuoteView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "send")
	defer span.End()

	q, err := s.mutate(ctx, actor, id, func(_ Repositories, q *invoicing.Quote) error {
		return q.Send(s.deps.Clock.Now())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	view := newQuoteView(q)
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionQuoteSent, invoicing.EntityTypeQuote, id, nil)
	s.deps.publishEvents(ctx, q)
	s.sendQuoteEmail(ctx, actor, view)
	return view, nil
}

// Accept records the customer's acceptance of a SENT quote
func (s *QuoteService) Accept(ctx context.Context, actor Actor, id uuid.UUID) (*QuoteView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "accept")
	defer span.End()

	q, err := s.mutate(ctx, actor, id, func(_ Repositories, q *invoicing.Quote) error {
		return q.Accept(s.deps.Clock.Now())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionQuoteAccepted, invoicing.EntityTypeQuote, id, nil)
	s.deps.publishEvents(ctx, q)
	return newQuoteView(q), nil
}

// Void cancels a quote that has not been converted
func (s *QuoteService) Void(ctx context.Context, actor Actor, id uuid.UUID) (*QuoteView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "void")
	defer span.End()

	q, err := s.mutate(ctx, actor, id, func(_ Repositories, q *invoicing.Quote) error {
		return q.Void(s.deps.Clock.Now())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionQuoteVoided, invoicing.EntityTypeQuote, id, nil)
	s.deps.publishEvents(ctx, q)
	return newQuoteView(q), nil
}

// Delete removes a DRAFT quote
func (s *QuoteService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "delete")
	defer span.End()

	var number string
	err := s.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		q, err := repos.Quotes().FindByIDForTenant(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if err := q.EnsureDeletable(); err != nil {
			return err
		}
		number = q.Number
		return repos.Quotes().DeleteForTenant(ctx, actor.TenantID, id)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionQuoteDeleted, invoicing.EntityTypeQuote, id, map[string]any{
		"number": number,
	})
	return nil
}

// ExpireDue moves every SENT quote past its expiry date to EXPIRED, one transaction per quote
func (s *QuoteService) ExpireDue(ctx context.Context, actor Actor) (*BatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "expire_due")
	defer span.End()

	filter := invoicing.QuoteFilter{
		Filter:   shared.Filter{Page: 1, PageSize: 100, OrderBy: "created_at", OrderDir: "asc"},
		Statuses: []invoicing.QuoteStatus{invoicing.QuoteStatusSent},
	}
	var candidates []uuid.UUID
	for {
		page, total, err := s.deps.Repos.Quotes().FindAllForTenant(ctx, actor.TenantID, filter)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to list sent quotes: %w", err)
		}
		now := s.deps.Clock.Now()
		for i := range page {
			if page[i].ExpiryDate != nil && page[i].ExpiryDate.Before(now) {
				candidates = append(candidates, page[i].ID)
			}
		}
		if len(page) == 0 || int64(filter.Page*filter.PageSize) >= total {
			break
		}
		filter.Page++
	}

	result := &BatchResult{}
	for _, id := range candidates {
		var changed bool
		q, err := s.mutateIf(ctx, actor, id, func(_ Repositories, q *invoicing.Quote) (bool, error) {
			changed = q.Expire(s.deps.Clock.Now())
			return changed, nil
		})
		if err != nil {
			result.fail(id, err)
			continue
		}
		if changed {
			s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionQuoteExpired, invoicing.EntityTypeQuote, id, nil)
			s.deps.publishEvents(ctx, q)
			result.succeed(id)
		}
	}
	return result, nil
}

// Convert turns a quote into a DRAFT invoice. The invoice counter increment, the invoice
// and the quote transition commit together.
func (s *QuoteService) Convert(ctx context.Context, actor Actor, id uuid.UUID) (*InvoiceView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "convert")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, actor.TenantID.String(), telemetry.SpanAttrQuoteID, id.String())

	var q *invoicing.Quote
	var inv *invoicing.Invoice
	err := s.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		var err error
		q, err = repos.Quotes().FindByIDForTenant(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		org, customer, err := loadParties(ctx, repos, actor.TenantID, q.CustomerID)
		if err != nil {
			return err
		}
		now := s.deps.Clock.Now()
		draft, err := q.ConversionDraft(org, paymentTerms(org, customer), now)
		if err != nil {
			return err
		}
		inv, err = createNumberedInvoice(ctx, repos, s.seq, org, actor.UserID, draft, &q.ID)
		if err != nil {
			return err
		}
		if err := q.MarkConverted(inv.ID, now); err != nil {
			return err
		}
		return repos.Quotes().SaveWithLock(ctx, q)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	view := &InvoiceView{Invoice: inv, Balance: invoicing.Reconcile(inv, nil, nil)}
	s.deps.Logger.Info("Quote converted",
		zap.String("quote_number", q.Number),
		zap.String("invoice_number", inv.Number),
	)
	s.deps.Metrics.RecordInvoiceCreated(ctx, actor.TenantID, telemetry.InvoiceSourceQuote, view.Balance.TotalCents)
	s.deps.Audit.Emit(ctx, actor, invoicing.AuditActionQuoteConverted, invoicing.EntityTypeQuote, q.ID, map[string]any{
		"invoice_id":     inv.ID.String(),
		"invoice_number": inv.Number,
	})
	s.deps.publishEvents(ctx, q, inv)
	return view, nil
}

func (s *QuoteService) mutate(ctx context.Context, actor Actor, id uuid.UUID, fn func(repos Repositories, q *invoicing.Quote) error) (*invoicing.Quote, error) {
	return s.mutateIf(ctx, actor, id, func(repos Repositories, q *invoicing.Quote) (bool, error) {
		return true, fn(repos, q)
	})
}

func (s *QuoteService) mutateIf(ctx context.Context, actor Actor, id uuid.UUID, fn func(repos Repositories, q *invoicing.Quote) (bool, error)) (*invoicing.Quote, error) {
	var q *invoicing.Quote
	err := s.deps.TxScope.Execute(ctx, func(repos Repositories) error {
		var err error
		q, err = repos.Quotes().FindByIDForTenant(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		save, err := fn(repos, q)
		if err != nil || !save {
			return err
		}
		return repos.Quotes().SaveWithLock(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuoteService) sendQuoteEmail(ctx context.Context, actor Actor, view *QuoteView) {
	if s.email == nil {
		return
	}
	q := view.Quote
	org, customer, err := loadParties(ctx, s.deps.Repos, actor.TenantID, q.CustomerID)
	if err != nil {
		s.deps.Logger.Warn("Failed to load quote recipient", zap.String("quote_id", q.ID.String()), zap.Error(err))
		return
	}
	if !customer.HasEmail() {
		return
	}
	data := map[string]any{
		"OrgName":      org.Name,
		"CustomerName": customer.Name,
		"QuoteNumber":  q.Number,
		"Currency":     q.Currency,
		"TotalCents":   view.Totals.TotalCents,
	}
	if q.ExpiryDate != nil {
		data["ExpiryDate"] = *q.ExpiryDate
	}
	err = s.email.Send(ctx, EmailMessage{
		To:           customer.Email,
		Subject:      fmt.Sprintf("Quote %s from %s", q.Number, org.Name),
		Template:     EmailTemplateQuote,
		TemplateData: data,
	})
	if err != nil {
		s.deps.Logger.Error("Failed to send quote email", zap.String("quote_id", q.ID.String()), zap.Error(err))
		s.deps.Metrics.RecordSideEffectFailure(ctx, actor.TenantID, telemetry.SideEffectEmail)
	}
}
