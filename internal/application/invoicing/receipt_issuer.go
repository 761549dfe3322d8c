package invoicing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

const receiptContentType = "application/pdf"

// ReceiptIssuer runs the side effects of an invoice becoming PAID: receipt row, PDF,
// stored artifact, customer email and audit record. It runs after the transition has
// committed. Each failure is logged and counted and never retried.
type ReceiptIssuer struct {
	deps     Dependencies
	seq      *Sequencer
	renderer DocumentRenderer
	store    ArtifactStore
	email    EmailSender
}

// NewReceiptIssuer creates a ReceiptIssuer. renderer, store and email may be nil, which
// skips the corresponding step.
func NewReceiptIssuer(deps Dependencies, renderer DocumentRenderer, store ArtifactStore, email EmailSender) *ReceiptIssuer {
	deps = deps.withDefaults()
	return &ReceiptIssuer{
		deps:     deps,
		seq:      NewSequencer(deps.IDs, deps.Clock),
		renderer: renderer,
		store:    store,
		email:    email,
	}
}

// EventTypes implements shared.EventHandler
func (h *ReceiptIssuer) EventTypes() []string {
	return []string{invoicing.EventTypeInvoicePaid}
}

// Handle implements shared.EventHandler
func (h *ReceiptIssuer) Handle(ctx context.Context, event shared.DomainEvent) error {
	paid, ok := event.(*invoicing.InvoicePaidEvent)
	if !ok {
		return nil
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "issue")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, paid.TenantID().String(), telemetry.SpanAttrInvoiceID, paid.InvoiceID.String())

	if err := h.issue(ctx, paid); err != nil {
		telemetry.RecordError(span, err)
		h.deps.Logger.Error("Failed to issue receipt",
			zap.String("tenant_id", paid.TenantID().String()),
			zap.String("invoice_id", paid.InvoiceID.String()),
			zap.Error(err),
		)
		h.deps.Metrics.RecordSideEffectFailure(ctx, paid.TenantID(), telemetry.SideEffectReceipt)
	}
	return nil
}

func (h *ReceiptIssuer) issue(ctx context.Context, paid *invoicing.InvoicePaidEvent) error {
	tenantID := paid.TenantID()
	repos := h.deps.Repos

	existing, err := repos.Receipts().FindByInvoice(ctx, tenantID, paid.InvoiceID)
	if err == nil && existing != nil {
		h.deps.Logger.Info("Receipt already issued",
			zap.String("invoice_id", paid.InvoiceID.String()),
			zap.String("receipt_number", existing.Number),
		)
		return nil
	}
	if err != nil && !shared.IsNotFound(err) {
		return fmt.Errorf("failed to check existing receipt: %w", err)
	}

	inv, err := repos.Invoices().FindByIDForTenant(ctx, tenantID, paid.InvoiceID)
	if err != nil {
		return err
	}
	org, customer, err := loadParties(ctx, repos, tenantID, inv.CustomerID)
	if err != nil {
		return err
	}

	receipt, err := invoicing.NewReceipt(tenantID, inv.ID, paid.PaymentID, h.seq.ReceiptNumber(), paid.Balance.PaidCents, h.deps.Clock.Now())
	if err != nil {
		return err
	}
	receipt.SetCreatedBy(paid.ActorID)
	if err := repos.Receipts().Create(ctx, receipt); err != nil {
		// a concurrent handler won the unique index on invoice_id
		if shared.IsConcurrencyConflict(err) {
			return nil
		}
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	h.deps.Metrics.RecordReceiptIssued(ctx, tenantID)

	method, details := h.paymentMethod(ctx, paid)
	doc := buildReceiptDocument(org, customer, inv, receipt, paid.Balance, method, details)

	pdf := h.renderAndStore(ctx, receipt, doc)
	h.sendReceipt(ctx, customer, doc, pdf)

	h.deps.Audit.Emit(ctx, Actor{TenantID: tenantID, UserID: paid.ActorID},
		invoicing.AuditActionInvoicePaid, invoicing.EntityTypeInvoice, inv.ID, map[string]any{
			"receipt_id":     receipt.ID.String(),
			"receipt_number": receipt.Number,
			"total_cents":    paid.Balance.TotalCents,
			"paid_cents":     paid.Balance.PaidCents,
			"credited_cents": paid.Balance.CreditedCents,
		})
	return nil
}

// renderAndStore renders the receipt PDF and keeps it as an artifact.
// It returns the PDF bytes, or nil when rendering failed.
func (h *ReceiptIssuer) renderAndStore(ctx context.Context, receipt *invoicing.Receipt, doc ReceiptDocument) []byte {
	if h.renderer == nil {
		return nil
	}
	started := time.Now()
	pdf, err := h.renderer.RenderReceipt(ctx, doc)
	h.deps.Metrics.RecordRender(ctx, string(invoicing.ArtifactKindReceiptPDF), time.Since(started), err)
	if err != nil {
		h.sideEffectFailed(ctx, receipt, telemetry.SideEffectRender, err)
		return nil
	}
	if h.store == nil {
		return pdf
	}

	key := fmt.Sprintf("%s/receipts/%s.pdf", receipt.TenantID, receipt.Number)
	path, err := h.store.Put(ctx, key, pdf, receiptContentType)
	if err != nil {
		h.sideEffectFailed(ctx, receipt, telemetry.SideEffectStorage, err)
		return pdf
	}
	artifact := invoicing.NewArtifact(receipt.TenantID, receipt.ID, invoicing.ArtifactKindReceiptPDF, path, receiptContentType, int64(len(pdf)))
	if err := h.deps.Repos.Artifacts().Create(ctx, artifact); err != nil {
		h.sideEffectFailed(ctx, receipt, telemetry.SideEffectStorage, err)
		return pdf
	}
	receipt.AttachArtifact(artifact.ID)
	if err := h.deps.Repos.Receipts().Save(ctx, receipt); err != nil {
		h.sideEffectFailed(ctx, receipt, telemetry.SideEffectStorage, err)
	}
	return pdf
}

func (h *ReceiptIssuer) sendReceipt(ctx context.Context, customer *invoicing.Customer, doc ReceiptDocument, pdf []byte) {
	if h.email == nil || !customer.HasEmail() {
		return
	}
	msg := EmailMessage{
		To:       customer.Email,
		Subject:  fmt.Sprintf("Receipt %s for invoice %s", doc.ReceiptNumber, doc.InvoiceNumber),
		Template: EmailTemplateReceipt,
		TemplateData: map[string]any{
			"OrgName":       doc.OrgName,
			"CustomerName":  doc.CustomerName,
			"ReceiptNumber": doc.ReceiptNumber,
			"InvoiceNumber": doc.InvoiceNumber,
			"Currency":      doc.Currency,
			"PaidCents":     doc.PaidCents,
			"TotalCents":    doc.TotalCents,
		},
	}
	if pdf != nil {
		msg.Attachments = []Attachment{{
			Filename:    doc.ReceiptNumber + ".pdf",
			ContentType: receiptContentType,
			Data:        pdf,
		}}
	}
	if err := h.email.Send(ctx, msg); err != nil {
		h.deps.Logger.Error("Failed to send receipt email",
			zap.String("receipt_number", doc.ReceiptNumber),
			zap.String("to", customer.Email),
			zap.Error(err),
		)
		h.deps.Metrics.RecordSideEffectFailure(ctx, customer.TenantID, telemetry.SideEffectEmail)
	}
}

// paymentMethod describes what settled the invoice
func (h *ReceiptIssuer) paymentMethod(ctx context.Context, paid *invoicing.InvoicePaidEvent) (string, string) {
	if paid.PaymentID == nil {
		return "CREDIT_NOTE", ""
	}
	payments, err := h.deps.Repos.Payments().FindByInvoice(ctx, paid.TenantID(), paid.InvoiceID)
	if err != nil {
		h.deps.Logger.Warn("Failed to load payments for receipt", zap.Error(err))
		return "", ""
	}
	for i := range payments {
		if payments[i].ID == *paid.PaymentID {
			return string(payments[i].Provider), payments[i].ProviderReference
		}
	}
	return "", ""
}

func (h *ReceiptIssuer) sideEffectFailed(ctx context.Context, receipt *invoicing.Receipt, effect string, err error) {
	h.deps.Logger.Error("Receipt side effect failed",
		zap.String("effect", effect),
		zap.String("receipt_number", receipt.Number),
		zap.String("invoice_id", receipt.InvoiceID.String()),
		zap.Error(err),
	)
	h.deps.Metrics.RecordSideEffectFailure(ctx, receipt.TenantID, effect)
}

func buildReceiptDocument(org *invoicing.Organization, customer *invoicing.Customer, inv *invoicing.Invoice, receipt *invoicing.Receipt, balance invoicing.Balance, method, details string) ReceiptDocument {
	totals := inv.Totals()
	lines := make([]ReceiptLine, 0, len(inv.Items))
	for i, item := range inv.Items {
		amounts := totals.Lines[i]
		lines = append(lines, ReceiptLine{
			Description:    item.Description,
			Quantity:       item.Quantity.String(),
			Unit:           item.Unit,
			UnitPriceCents: item.UnitPriceCents,
			TaxPercent:     amounts.TaxPercent,
			TotalCents:     amounts.TotalCents,
		})
	}
	return ReceiptDocument{
		ReceiptNumber:  receipt.Number,
		IssuedAt:       receipt.IssuedAt,
		OrgName:        org.Name,
		OrgTaxID:       org.TaxID,
		CustomerName:   customer.Name,
		CustomerEmail:  customer.Email,
		InvoiceNumber:  inv.Number,
		InvoiceIssued:  inv.IssueDate,
		Currency:       inv.Currency,
		Lines:          lines,
		SubtotalCents:  balance.SubtotalCents,
		TaxLabel:       inv.TaxLabel,
		TaxCents:       balance.TaxCents,
		DiscountCents:  balance.DiscountCents,
		TotalCents:     balance.TotalCents,
		PaidCents:      balance.PaidCents,
		CreditedCents:  balance.CreditedCents,
		PaymentMethod:  method,
		PaymentDetails: details,
	}
}
