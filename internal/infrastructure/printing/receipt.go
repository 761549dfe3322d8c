package printing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/config"
)

// ReceiptRenderer renders receipts: template to HTML, HTML to PDF
type ReceiptRenderer struct {
	engine        *TemplateEngine
	pdf           PDFRenderer
	paperWidthIn  float64
	paperHeightIn float64
	timeout       time.Duration
	logger        *zap.Logger
}

var _ appinv.DocumentRenderer = (*ReceiptRenderer)(nil)

// ReceiptRendererOption configures a ReceiptRenderer
type ReceiptRendererOption func(*ReceiptRenderer)

// WithPaperSize sets the page size in inches
func WithPaperSize(widthIn, heightIn float64) ReceiptRendererOption {
	return func(r *ReceiptRenderer) {
		if widthIn > 0 && heightIn > 0 {
			r.paperWidthIn, r.paperHeightIn = widthIn, heightIn
		}
	}
}

// WithRenderTimeout bounds a single render
func WithRenderTimeout(d time.Duration) ReceiptRendererOption {
	return func(r *ReceiptRenderer) {
		r.timeout = d
	}
}

// WithRendererLogger sets the logger
func WithRendererLogger(logger *zap.Logger) ReceiptRendererOption {
	return func(r *ReceiptRenderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReceiptRenderer creates a ReceiptRenderer printing through pdf
func NewReceiptRenderer(pdf PDFRenderer, opts ...ReceiptRendererOption) (*ReceiptRenderer, error) {
	r := &ReceiptRenderer{
		engine:        NewTemplateEngine(),
		pdf:           pdf,
		paperWidthIn:  A4WidthIn,
		paperHeightIn: A4HeightIn,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.engine.Parse(receiptTemplateName, receiptTemplate); err != nil {
		return nil, err
	}
	return r, nil
}

// NewFromConfig builds the renderer selected by cfg.Driver
func NewFromConfig(cfg config.PrintingConfig, logger *zap.Logger) (*ReceiptRenderer, error) {
	var pdf PDFRenderer
	switch cfg.Driver {
	case "chromedp", "":
		pdf = NewChromedpRenderer(ChromedpConfig{
			DefaultTimeout: cfg.RenderTimeout,
			ExecPath:       cfg.ChromePath,
			RemoteURL:      cfg.RemoteURL,
			NoSandbox:      cfg.NoSandbox,
			Logger:         logger,
		})
	case "stub":
		pdf = NewStubPDFRenderer()
	default:
		return nil, fmt.Errorf("unknown printing driver %q", cfg.Driver)
	}
	return NewReceiptRenderer(pdf,
		WithPaperSize(cfg.PaperWidthIn, cfg.PaperHeightIn),
		WithRenderTimeout(cfg.RenderTimeout),
		WithRendererLogger(logger),
	)
}

// ReceiptHTML renders the receipt page without printing it
func (r *ReceiptRenderer) ReceiptHTML(doc appinv.ReceiptDocument) (string, error) {
	return r.engine.Execute(receiptTemplateName, doc)
}

// RenderReceipt produces the receipt PDF
func (r *ReceiptRenderer) RenderReceipt(ctx context.Context, doc appinv.ReceiptDocument) ([]byte, error) {
	html, err := r.ReceiptHTML(doc)
	if err != nil {
		return nil, err
	}
	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:          html,
		Title:         "Receipt " + doc.ReceiptNumber,
		PaperWidthIn:  r.paperWidthIn,
		PaperHeightIn: r.paperHeightIn,
		Margins:       DefaultMargins(),
		FooterHTML:    receiptFooter,
		Timeout:       r.timeout,
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Receipt rendered",
		zap.String("receipt_number", doc.ReceiptNumber),
		zap.Int("pages", result.PageCount),
	)
	return result.PDFData, nil
}

// Close releases the PDF backend
func (r *ReceiptRenderer) Close() error {
	return r.pdf.Close()
}
