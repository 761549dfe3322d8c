package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// InvoiceSource labels how an invoice came to exist
type InvoiceSource string

const (
	InvoiceSourceManual    InvoiceSource = "manual"
	InvoiceSourceQuote     InvoiceSource = "quote"
	InvoiceSourceDuplicate InvoiceSource = "duplicate"
)

// Side effects that run after an invoice is paid or sent
const (
	SideEffectReceipt = "receipt"
	SideEffectRender  = "render"
	SideEffectStorage = "storage"
	SideEffectEmail   = "email"
	SideEffectAudit   = "audit"
)

// BillingMetrics records billing activity counters.
// A nil *BillingMetrics is valid and records nothing.
type BillingMetrics struct {
	logger *zap.Logger

	invoiceCreatedTotal    *Counter
	invoiceAmountTotal     *Counter
	invoicePaidTotal       *Counter
	paymentTotal           *Counter
	paymentAmountTotal     *Counter
	creditNoteTotal        *Counter
	receiptIssuedTotal     *Counter
	sideEffectFailureTotal *Counter
	renderDuration         *Histogram
}

// BillingMetricsConfig holds configuration for billing metrics.
type BillingMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBillingMetrics creates the billing counters on the given meter.
func NewBillingMetrics(cfg BillingMetricsConfig) (*BillingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BillingMetrics{logger: logger}
	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&bm.invoiceCreatedTotal, "billing_invoice_created_total", "Total number of invoices created", "{invoices}"},
		{&bm.invoiceAmountTotal, "billing_invoice_amount_total", "Total invoiced amount in minor units", "{cents}"},
		{&bm.invoicePaidTotal, "billing_invoice_paid_total", "Total number of invoices that reached PAID", "{invoices}"},
		{&bm.paymentTotal, "billing_payment_total", "Total number of recorded payments", "{payments}"},
		{&bm.paymentAmountTotal, "billing_payment_amount_total", "Total recorded payment amount in minor units", "{cents}"},
		{&bm.creditNoteTotal, "billing_credit_note_total", "Total number of issued credit notes", "{credit_notes}"},
		{&bm.receiptIssuedTotal, "billing_receipt_issued_total", "Total number of issued receipts", "{receipts}"},
		{&bm.sideEffectFailureTotal, "billing_side_effect_failures_total", "Post-commit side effects that failed", "{failures}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	bm.renderDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "billing_document_render_duration_seconds",
		Description: "Time spent rendering PDF documents",
		Unit:        "s",
		Boundaries:  RenderDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordInvoiceCreated counts a new invoice and its total
func (bm *BillingMetrics) RecordInvoiceCreated(ctx context.Context, tenantID uuid.UUID, source InvoiceSource, totalCents int64) {
	if bm == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrTenantID.String(tenantID.String()), AttrInvoiceSource.String(string(source))}
	bm.invoiceCreatedTotal.Inc(ctx, attrs...)
	if totalCents > 0 {
		bm.invoiceAmountTotal.Add(ctx, totalCents, attrs...)
	}
}

// RecordInvoicePaid counts an invoice reaching PAID
func (bm *BillingMetrics) RecordInvoicePaid(ctx context.Context, tenantID uuid.UUID) {
	if bm == nil {
		return
	}
	bm.invoicePaidTotal.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// RecordPayment counts a recorded payment. Only counting payments add to the amount.
func (bm *BillingMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, provider, status string, amountCents int64, counts bool) {
	if bm == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrTenantID.String(tenantID.String()),
		AttrPaymentProvider.String(provider),
		AttrPaymentStatus.String(status),
	}
	bm.paymentTotal.Inc(ctx, attrs...)
	if counts {
		bm.paymentAmountTotal.Add(ctx, amountCents, attrs...)
	}
}

// RecordCreditNote counts an issued credit note
func (bm *BillingMetrics) RecordCreditNote(ctx context.Context, tenantID uuid.UUID) {
	if bm == nil {
		return
	}
	bm.creditNoteTotal.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// RecordReceiptIssued counts a receipt row created for a paid invoice
func (bm *BillingMetrics) RecordReceiptIssued(ctx context.Context, tenantID uuid.UUID) {
	if bm == nil {
		return
	}
	bm.receiptIssuedTotal.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// RecordSideEffectFailure counts a post-commit side effect that failed and was logged
func (bm *BillingMetrics) RecordSideEffectFailure(ctx context.Context, tenantID uuid.UUID, effect string) {
	if bm == nil {
		return
	}
	bm.sideEffectFailureTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrSideEffect.String(effect),
	)
}

// RecordRender records how long a document render took
func (bm *BillingMetrics) RecordRender(ctx context.Context, documentType string, d time.Duration, err error) {
	if bm == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	bm.renderDuration.RecordDuration(ctx, d,
		AttrDocumentType.String(documentType),
		AttrOutcome.String(outcome),
	)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "telemetry", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
