package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/invoicing"
)

// OrganizationResponse is the API form of an organization
type OrganizationResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email,omitempty"`
	CountryCode       string    `json:"country_code,omitempty"`
	TaxID             string    `json:"tax_id,omitempty"`
	Currency          string    `json:"currency"`
	TaxLabel          string    `json:"tax_label,omitempty"`
	DefaultTaxPercent *int      `json:"default_tax_percent"`
	InvoicePrefix     string    `json:"invoice_prefix"`
	InvoiceNextNumber int64     `json:"invoice_next_number"`
	PaymentTermsDays  int       `json:"payment_terms_days"`
	Version           int       `json:"version"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toOrganizationResponse(o *invoicing.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:                o.ID,
		Name:              o.Name,
		Email:             o.Email,
		CountryCode:       o.CountryCode,
		TaxID:             o.TaxID,
		Currency:          o.Currency,
		TaxLabel:          o.TaxLabel,
		DefaultTaxPercent: o.DefaultTaxPercent.Ptr(),
		InvoicePrefix:     o.InvoicePrefix,
		InvoiceNextNumber: o.InvoiceNextNumber,
		PaymentTermsDays:  o.PaymentTermsDays,
		Version:           o.Version,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

// CustomerResponse is the API form of a customer
type CustomerResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email,omitempty"`
	CountryCode      string    `json:"country_code,omitempty"`
	TaxID            string    `json:"tax_id,omitempty"`
	PaymentTermsDays *int      `json:"payment_terms_days"`
	CreatedAt        time.Time `json:"created_at"`
}

func toCustomerResponse(c *invoicing.Customer) CustomerResponse {
	return CustomerResponse{
		ID:               c.ID,
		Name:             c.Name,
		Email:            c.Email,
		CountryCode:      c.CountryCode,
		TaxID:            c.TaxID,
		PaymentTermsDays: c.PaymentTermsDays,
		CreatedAt:        c.CreatedAt,
	}
}

// ProductResponse is the API form of a catalog product
type ProductResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Unit           string    `json:"unit,omitempty"`
	TaxPercent     *int      `json:"tax_percent"`
	CreatedAt      time.Time `json:"created_at"`
}

func toProductResponse(p *invoicing.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		UnitPriceCents: p.UnitPriceCents,
		Unit:           p.Unit,
		TaxPercent:     p.TaxPercent.Ptr(),
		CreatedAt:      p.CreatedAt,
	}
}

// LineItemResponse is one line of an invoice or quote
type LineItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	Position       int             `json:"position"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	Unit           string          `json:"unit,omitempty"`
	TaxPercent     *int            `json:"tax_percent"`
}

func toLineItemResponses(items []invoicing.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, LineItemResponse{
			ID:             it.ID,
			Position:       it.Position,
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			Unit:           it.Unit,
			TaxPercent:     it.TaxPercent.Ptr(),
		})
	}
	return out
}

// DiscountResponse is the wire form of a discount
type DiscountResponse struct {
	Type  invoicing.DiscountType `json:"type"`
	Value decimal.Decimal        `json:"value"`
}

func toDiscountResponse(d invoicing.Discount) DiscountResponse {
	return DiscountResponse{Type: d.Type(), Value: d.Value()}
}

// InvoiceResponse is an invoice with its running balance
type InvoiceResponse struct {
	ID               uuid.UUID          `json:"id"`
	Number           string             `json:"number"`
	Token            string             `json:"token"`
	CustomerID       uuid.UUID          `json:"customer_id"`
	QuoteID          *uuid.UUID         `json:"quote_id,omitempty"`
	Currency         string             `json:"currency"`
	Status           string             `json:"status"`
	IssueDate        time.Time          `json:"issue_date"`
	DueDate          time.Time          `json:"due_date"`
	PaymentTermsDays int                `json:"payment_terms_days"`
	TaxLabel         string             `json:"tax_label,omitempty"`
	TaxPercent       *int               `json:"tax_percent"`
	Discount         DiscountResponse   `json:"discount"`
	PONumber         string             `json:"po_number,omitempty"`
	Notes            string             `json:"notes,omitempty"`
	Items            []LineItemResponse `json:"items"`
	Balance          invoicing.Balance  `json:"balance"`
	SentAt           *time.Time         `json:"sent_at,omitempty"`
	ViewedAt         *time.Time         `json:"viewed_at,omitempty"`
	OverdueAt        *time.Time         `json:"overdue_at,omitempty"`
	PaidAt           *time.Time         `json:"paid_at,omitempty"`
	VoidedAt         *time.Time         `json:"voided_at,omitempty"`
	VoidReason       string             `json:"void_reason,omitempty"`
	Version          int                `json:"version"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func toInvoiceResponse(v *appinv.InvoiceView) InvoiceResponse {
	inv := v.Invoice
	return InvoiceResponse{
		ID:               inv.ID,
		Number:           inv.Number,
		Token:            inv.Token,
		CustomerID:       inv.CustomerID,
		QuoteID:          inv.QuoteID,
		Currency:         inv.Currency,
		Status:           inv.Status.String(),
		IssueDate:        inv.IssueDate,
		DueDate:          inv.DueDate,
		PaymentTermsDays: inv.PaymentTermsDays,
		TaxLabel:         inv.TaxLabel,
		TaxPercent:       inv.TaxPercent.Ptr(),
		Discount:         toDiscountResponse(inv.Discount),
		PONumber:         inv.PONumber,
		Notes:            inv.Notes,
		Items:            toLineItemResponses(inv.Items),
		Balance:          v.Balance,
		SentAt:           inv.SentAt,
		ViewedAt:         inv.ViewedAt,
		OverdueAt:        inv.OverdueAt,
		PaidAt:           inv.PaidAt,
		VoidedAt:         inv.VoidedAt,
		VoidReason:       inv.VoidReason,
		Version:          inv.Version,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}
}

func toInvoiceResponses(views []appinv.InvoiceView) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(views))
	for i := range views {
		out = append(out, toInvoiceResponse(&views[i]))
	}
	return out
}

// PublicInvoiceResponse is what the hosted invoice page shows to the buyer.
// Internal ids and audit fields are left out.
type PublicInvoiceResponse struct {
	Number     string             `json:"number"`
	Currency   string             `json:"currency"`
	Status     string             `json:"status"`
	IssueDate  time.Time          `json:"issue_date"`
	DueDate    time.Time          `json:"due_date"`
	TaxLabel   string             `json:"tax_label,omitempty"`
	TaxPercent *int               `json:"tax_percent"`
	Discount   DiscountResponse   `json:"discount"`
	PONumber   string             `json:"po_number,omitempty"`
	Notes      string             `json:"notes,omitempty"`
	Items      []LineItemResponse `json:"items"`
	Balance    invoicing.Balance  `json:"balance"`
}

func toPublicInvoiceResponse(v *appinv.InvoiceView) PublicInvoiceResponse {
	inv := v.Invoice
	return PublicInvoiceResponse{
		Number:     inv.Number,
		Currency:   inv.Currency,
		Status:     inv.Status.String(),
		IssueDate:  inv.IssueDate,
		DueDate:    inv.DueDate,
		TaxLabel:   inv.TaxLabel,
		TaxPercent: inv.TaxPercent.Ptr(),
		Discount:   toDiscountResponse(inv.Discount),
		PONumber:   inv.PONumber,
		Notes:      inv.Notes,
		Items:      toLineItemResponses(inv.Items),
		Balance:    v.Balance,
	}
}

// QuoteResponse is a quote with its computed totals
type QuoteResponse struct {
	ID                 uuid.UUID          `json:"id"`
	Number             string             `json:"number"`
	CustomerID         uuid.UUID          `json:"customer_id"`
	Currency           string             `json:"currency"`
	Status             string             `json:"status"`
	IssueDate          time.Time          `json:"issue_date"`
	ExpiryDate         *time.Time         `json:"expiry_date,omitempty"`
	TaxPercent         *int               `json:"tax_percent"`
	Discount           DiscountResponse   `json:"discount"`
	Notes              string             `json:"notes,omitempty"`
	Items              []LineItemResponse `json:"items"`
	Totals             invoicing.Totals   `json:"totals"`
	SentAt             *time.Time         `json:"sent_at,omitempty"`
	AcceptedAt         *time.Time         `json:"accepted_at,omitempty"`
	ConvertedAt        *time.Time         `json:"converted_at,omitempty"`
	ConvertedInvoiceID *uuid.UUID         `json:"converted_invoice_id,omitempty"`
	VoidedAt           *time.Time         `json:"voided_at,omitempty"`
	Version            int                `json:"version"`
	CreatedAt          time.Time          `json:"created_at"`
}

func toQuoteResponse(v *appinv.QuoteView) QuoteResponse {
	q := v.Quote
	return QuoteResponse{
		ID:                 q.ID,
		Number:             q.Number,
		CustomerID:         q.CustomerID,
		Currency:           q.Currency,
		Status:             q.Status.String(),
		IssueDate:          q.IssueDate,
		ExpiryDate:         q.ExpiryDate,
		TaxPercent:         q.TaxPercent.Ptr(),
		Discount:           toDiscountResponse(q.Discount),
		Notes:              q.Notes,
		Items:              toLineItemResponses(q.Items),
		Totals:             v.Totals,
		SentAt:             q.SentAt,
		AcceptedAt:         q.AcceptedAt,
		ConvertedAt:        q.ConvertedAt,
		ConvertedInvoiceID: q.ConvertedInvoiceID,
		VoidedAt:           q.VoidedAt,
		Version:            q.Version,
		CreatedAt:          q.CreatedAt,
	}
}

func toQuoteResponses(views []appinv.QuoteView) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(views))
	for i := range views {
		out = append(out, toQuoteResponse(&views[i]))
	}
	return out
}

// PaymentResponse is a recorded payment
type PaymentResponse struct {
	ID                uuid.UUID  `json:"id"`
	InvoiceID         uuid.UUID  `json:"invoice_id"`
	Provider          string     `json:"provider"`
	ProviderReference string     `json:"provider_reference,omitempty"`
	Status            string     `json:"status"`
	AmountCents       int64      `json:"amount_cents"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toPaymentResponse(p *invoicing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		InvoiceID:         p.InvoiceID,
		Provider:          string(p.Provider),
		ProviderReference: p.ProviderReference,
		Status:            string(p.Status),
		AmountCents:       p.AmountCents,
		PaidAt:            p.PaidAt,
		CreatedAt:         p.CreatedAt,
	}
}

// PaymentResultResponse is the payment and the invoice after reconciliation
type PaymentResultResponse struct {
	Payment   PaymentResponse `json:"payment"`
	Invoice   InvoiceResponse `json:"invoice"`
	Duplicate bool            `json:"duplicate"`
}

// CreditNoteResponse is an issued credit note
type CreditNoteResponse struct {
	ID          uuid.UUID  `json:"id"`
	Number      string     `json:"number"`
	InvoiceID   uuid.UUID  `json:"invoice_id"`
	AmountCents int64      `json:"amount_cents"`
	Reason      string     `json:"reason,omitempty"`
	DisputeID   *uuid.UUID `json:"dispute_id,omitempty"`
	IssuedAt    time.Time  `json:"issued_at"`
}

func toCreditNoteResponse(cn *invoicing.CreditNote) CreditNoteResponse {
	return CreditNoteResponse{
		ID:          cn.ID,
		Number:      cn.Number,
		InvoiceID:   cn.InvoiceID,
		AmountCents: cn.AmountCents,
		Reason:      cn.Reason,
		DisputeID:   cn.DisputeID,
		IssuedAt:    cn.IssuedAt,
	}
}

// CreditNoteResultResponse is the credit note and the invoice after reconciliation
type CreditNoteResultResponse struct {
	CreditNote CreditNoteResponse `json:"credit_note"`
	Invoice    InvoiceResponse    `json:"invoice"`
}

func toCreditNoteResult(r *appinv.CreditNoteResult) CreditNoteResultResponse {
	return CreditNoteResultResponse{
		CreditNote: toCreditNoteResponse(r.CreditNote),
		Invoice:    toInvoiceResponse(r.Invoice),
	}
}

// DisputeResponse is a buyer dispute
type DisputeResponse struct {
	ID             uuid.UUID  `json:"id"`
	InvoiceID      uuid.UUID  `json:"invoice_id"`
	Status         string     `json:"status"`
	Reason         string     `json:"reason"`
	SellerResponse string     `json:"seller_response,omitempty"`
	CreditNoteID   *uuid.UUID `json:"credit_note_id,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toDisputeResponse(d *invoicing.Dispute) DisputeResponse {
	return DisputeResponse{
		ID:             d.ID,
		InvoiceID:      d.InvoiceID,
		Status:         string(d.Status),
		Reason:         d.Reason,
		SellerResponse: d.SellerResponse,
		CreditNoteID:   d.CreditNoteID,
		ResolvedAt:     d.ResolvedAt,
		CreatedAt:      d.CreatedAt,
	}
}

// DisputeResolutionResponse is an approved dispute with the credit note it produced
type DisputeResolutionResponse struct {
	Dispute DisputeResponse           `json:"dispute"`
	Credit  *CreditNoteResultResponse `json:"credit,omitempty"`
}

// DocumentResponse points at a stored document
type DocumentResponse struct {
	ArtifactID  uuid.UUID  `json:"artifact_id"`
	Kind        string     `json:"kind"`
	MimeType    string     `json:"mime_type"`
	SizeBytes   int64      `json:"size_bytes"`
	DownloadURL string     `json:"download_url"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// toDocumentResponse prefers the presigned link and falls back to the download route
func toDocumentResponse(d *appinv.ArtifactDownload) *DocumentResponse {
	if d == nil || d.Artifact == nil {
		return nil
	}
	out := &DocumentResponse{
		ArtifactID:  d.Artifact.ID,
		Kind:        string(d.Artifact.Kind),
		MimeType:    d.Artifact.MimeType,
		SizeBytes:   d.Artifact.SizeBytes,
		DownloadURL: "/api/v1/artifacts/" + d.Artifact.ID.String() + "/download",
	}
	if d.URL != "" {
		out.DownloadURL = d.URL
		expires := d.ExpiresAt
		out.ExpiresAt = &expires
	}
	return out
}

// ReceiptResponse is a receipt with its document
type ReceiptResponse struct {
	ID          uuid.UUID         `json:"id"`
	Number      string            `json:"number"`
	InvoiceID   uuid.UUID         `json:"invoice_id"`
	PaymentID   *uuid.UUID        `json:"payment_id,omitempty"`
	AmountCents int64             `json:"amount_cents"`
	IssuedAt    time.Time         `json:"issued_at"`
	Document    *DocumentResponse `json:"document,omitempty"`
}

func toReceiptResponse(v *appinv.ReceiptView) ReceiptResponse {
	r := v.Receipt
	return ReceiptResponse{
		ID:          r.ID,
		Number:      r.Number,
		InvoiceID:   r.InvoiceID,
		PaymentID:   r.PaymentID,
		AmountCents: r.AmountCents,
		IssuedAt:    r.IssuedAt,
		Document:    toDocumentResponse(v.Document),
	}
}
