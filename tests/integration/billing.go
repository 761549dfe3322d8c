package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/cache"
	"github.com/invoicer/backend/internal/infrastructure/event"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/storage"
)

// OutboxEmail records outgoing mail instead of delivering it
type OutboxEmail struct {
	mu       sync.Mutex
	messages []appinv.EmailMessage
}

// Send implements appinv.EmailSender
func (o *OutboxEmail) Send(_ context.Context, msg appinv.EmailMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
	return nil
}

// Count returns how many messages used the given template
func (o *OutboxEmail) Count(template string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, m := range o.messages {
		if m.Template == template {
			n++
		}
	}
	return n
}

// BillingStack is every invoicing service wired against a real Postgres database
type BillingStack struct {
	DB     *TestDB
	Email  *OutboxEmail
	Store  *storage.StubArtifactStore
	Events *event.InMemoryEventBus

	Directory *appinv.DirectoryService
	Invoices  *appinv.InvoiceService
	Quotes    *appinv.QuoteService
	Recorder  *appinv.Recorder
	Disputes  *appinv.DisputeService
	Documents *appinv.DocumentService
}

// NewBillingStack wires the services the same way cmd/server does, with
// in-memory mail and artifact storage.
func NewBillingStack(t *testing.T, tdb *TestDB, idempotency shared.IdempotencyStore) *BillingStack {
	t.Helper()
	logger := zaptest.NewLogger(t)

	if idempotency == nil {
		store := cache.NewInMemoryIdempotencyStore()
		t.Cleanup(func() { _ = store.Close() })
		idempotency = store
	}

	s := &BillingStack{
		DB:     tdb,
		Email:  &OutboxEmail{},
		Store:  storage.NewStubArtifactStore(),
		Events: event.NewInMemoryEventBus(logger),
	}

	deps := appinv.Dependencies{
		Repos:   persistence.NewRepositories(tdb.DB),
		TxScope: persistence.NewGormTransactionScope(tdb.DB),
		Events:  s.Events,
		Audit:   appinv.NewAuditEmitter(persistence.NewGormAuditSink(tdb.DB), logger),
		Logger:  logger,
	}

	renderer, err := printing.NewReceiptRenderer(printing.NewStubPDFRenderer())
	require.NoError(t, err)

	s.Directory = appinv.NewDirectoryService(deps)
	s.Invoices = appinv.NewInvoiceService(deps, s.Email, appinv.InvoiceServiceOptions{PublicBaseURL: "https://pay.example.test/i/"})
	s.Quotes = appinv.NewQuoteService(deps, s.Email)
	s.Recorder = appinv.NewRecorder(deps, idempotency, time.Hour)
	s.Disputes = appinv.NewDisputeService(deps, s.Recorder)
	s.Documents = appinv.NewDocumentService(deps, s.Store, 0)

	issuer := appinv.NewReceiptIssuer(deps, renderer, s.Store, s.Email)
	s.Events.Subscribe(event.NewIdempotentHandler(issuer, idempotency, time.Hour, logger), issuer.EventTypes()...)

	return s
}

// Tenant is an organization, its owner and one customer
type Tenant struct {
	Org      *invoicing.Organization
	Actor    appinv.Actor
	Customer *invoicing.Customer
}

// CreateTenant creates an organization with one customer
func (s *BillingStack) CreateTenant(t *testing.T, name, currency string) *Tenant {
	t.Helper()
	ctx := context.Background()

	owner := uuid.New()
	org, err := s.Directory.CreateOrganization(ctx, owner, appinv.OrganizationInput{Name: name, Currency: currency})
	require.NoError(t, err)
	actor := appinv.Actor{TenantID: org.ID, UserID: owner}

	customer, err := s.Directory.CreateCustomer(ctx, actor, appinv.CustomerInput{
		Name:  name + " Customer",
		Email: "billing@" + uuid.NewString()[:8] + ".example.test",
	})
	require.NoError(t, err)
	return &Tenant{Org: org, Actor: actor, Customer: customer}
}

// InvoiceInput is one line of 500.00 with no tax
func (tn *Tenant) InvoiceInput() appinv.InvoiceInput {
	price := int64(50000)
	return appinv.InvoiceInput{
		CustomerID: tn.Customer.ID,
		Items: []appinv.LineItemInput{
			{Description: "Retainer", Quantity: decimal.NewFromInt(1), UnitPriceCents: &price},
		},
	}
}

// SentInvoice creates and sends an invoice
func (s *BillingStack) SentInvoice(t *testing.T, tn *Tenant) *appinv.InvoiceView {
	t.Helper()
	ctx := context.Background()
	view, err := s.Invoices.Create(ctx, tn.Actor, tn.InvoiceInput())
	require.NoError(t, err)
	sent, err := s.Invoices.Send(ctx, tn.Actor, view.Invoice.ID)
	require.NoError(t, err)
	return sent
}

// AuditCount counts persisted audit rows for an action and entity
func (s *BillingStack) AuditCount(t *testing.T, action string, entityID uuid.UUID) int64 {
	t.Helper()
	var n int64
	err := s.DB.DB.Table("audit_events").
		Where("action = ? AND entity_id = ?", action, entityID).
		Count(&n).Error
	require.NoError(t, err)
	return n
}
