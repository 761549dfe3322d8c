package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time. Tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Actor identifies who performs an operation and for which organization.
// UserID is uuid.Nil for public (hosted page) and sweep calls.
type Actor struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
}

// ReceiptDocument is the data handed to the renderer for a receipt
type ReceiptDocument struct {
	ReceiptNumber  string
	IssuedAt       time.Time
	OrgName        string
	OrgTaxID       string
	CustomerName   string
	CustomerEmail  string
	InvoiceNumber  string
	InvoiceIssued  time.Time
	Currency       string
	Lines          []ReceiptLine
	SubtotalCents  int64
	TaxLabel       string
	TaxCents       int64
	DiscountCents  int64
	TotalCents     int64
	PaidCents      int64
	CreditedCents  int64
	PaymentMethod  string
	PaymentDetails string
}

// ReceiptLine is one rendered line of a receipt
type ReceiptLine struct {
	Description    string
	Quantity       string
	Unit           string
	UnitPriceCents int64
	TaxPercent     int
	TotalCents     int64
}

// DocumentRenderer turns a document snapshot into PDF bytes
type DocumentRenderer interface {
	RenderReceipt(ctx context.Context, doc ReceiptDocument) ([]byte, error)
}

// ArtifactStore keeps rendered documents and returns the path they are stored at
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ArtifactReader loads a stored document back by the path Put returned
type ArtifactReader interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// ArtifactLinker is implemented by stores that can hand out short-lived download links
type ArtifactLinker interface {
	DownloadURL(ctx context.Context, path string, expiresIn time.Duration) (string, time.Time, error)
}

// Attachment is a file attached to an outgoing email
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Email templates known to the sender
const (
	EmailTemplateInvoice  = "invoice"
	EmailTemplateReminder = "reminder"
	EmailTemplateReceipt  = "receipt"
	EmailTemplateQuote    = "quote"
)

// EmailMessage is a templated outgoing email
type EmailMessage struct {
	To           string
	Subject      string
	Template     string
	TemplateData map[string]any
	Attachments  []Attachment
}

// EmailSender delivers email. Callers treat delivery as best effort.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}
