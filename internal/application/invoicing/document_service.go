package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// DefaultDownloadLinkTTL is how long presigned artifact links stay valid
const DefaultDownloadLinkTTL = 15 * time.Minute

// ArtifactDownload is a stored document ready to hand to a client.
// Either URL is set (the store issued a short-lived link) or Data holds the bytes.
type ArtifactDownload struct {
	Artifact  *invoicing.Artifact
	URL       string
	ExpiresAt time.Time
	Data      []byte
}

// ReceiptView is a receipt with its rendered document, when one was stored
type ReceiptView struct {
	Receipt  *invoicing.Receipt
	Document *ArtifactDownload
}

// DocumentService gives read access to receipts and stored artifacts
type DocumentService struct {
	deps   Dependencies
	reader ArtifactReader
	ttl    time.Duration
}

// NewDocumentService creates a new DocumentService. reader may also implement ArtifactLinker.
func NewDocumentService(deps Dependencies, reader ArtifactReader, linkTTL time.Duration) *DocumentService {
	if linkTTL <= 0 {
		linkTTL = DefaultDownloadLinkTTL
	}
	return &DocumentService{deps: deps.withDefaults(), reader: reader, ttl: linkTTL}
}

// Receipt returns the receipt issued for an invoice.
// A receipt whose PDF was never stored is returned without a document.
func (s *DocumentService) Receipt(ctx context.Context, tenantID, invoiceID uuid.UUID) (*ReceiptView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "get")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceID, invoiceID.String(),
	)

	if _, err := s.deps.Repos.Invoices().FindByIDForTenant(ctx, tenantID, invoiceID); err != nil {
		return nil, err
	}
	receipt, err := s.deps.Repos.Receipts().FindByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	view := &ReceiptView{Receipt: receipt}
	if receipt.ArtifactID == nil {
		return view, nil
	}
	doc, err := s.Download(ctx, tenantID, *receipt.ArtifactID)
	if err != nil {
		if shared.IsNotFound(err) {
			s.deps.Logger.Warn("Receipt document missing from storage",
				zap.String("receipt_number", receipt.Number),
				zap.String("artifact_id", receipt.ArtifactID.String()),
			)
			return view, nil
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	view.Document = doc
	return view, nil
}

// Download resolves an artifact to a presigned link when the store offers one,
// otherwise to its bytes.
func (s *DocumentService) Download(ctx context.Context, tenantID, artifactID uuid.UUID) (*ArtifactDownload, error) {
	artifact, err := s.deps.Repos.Artifacts().FindByIDForTenant(ctx, tenantID, artifactID)
	if err != nil {
		return nil, err
	}
	if s.reader == nil {
		return nil, shared.NotFoundError("Artifact content", artifactID)
	}
	out := &ArtifactDownload{Artifact: artifact}
	if linker, ok := s.reader.(ArtifactLinker); ok {
		url, expiresAt, err := linker.DownloadURL(ctx, artifact.Path, s.ttl)
		if err != nil {
			return nil, err
		}
		out.URL, out.ExpiresAt = url, expiresAt
		return out, nil
	}
	data, err := s.reader.Get(ctx, artifact.Path)
	if err != nil {
		return nil, err
	}
	out.Data = data
	return out, nil
}
