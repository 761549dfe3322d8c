package invoicing_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/cache"
	"github.com/invoicer/backend/internal/infrastructure/event"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/storage"
)

var testStart = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

// =============================================================================
// Fakes
// =============================================================================

// testClock is a settable clock shared by every service of a harness
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingIDs hands out unique, predictable tokens and suffixes
type countingIDs struct {
	mu sync.Mutex
	n  int
}

func (g *countingIDs) next() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.n
}

func (g *countingIDs) Token() string {
	return fmt.Sprintf("tok%08d", g.next())
}

func (g *countingIDs) HexSuffix(n int) string {
	return fmt.Sprintf("%0*X", n, g.next())
}

// recordingEmail keeps every message it is asked to deliver
type recordingEmail struct {
	mu       sync.Mutex
	messages []appinv.EmailMessage
	err      error
}

func (r *recordingEmail) Send(_ context.Context, msg appinv.EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingEmail) byTemplate(template string) []appinv.EmailMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []appinv.EmailMessage
	for _, m := range r.messages {
		if m.Template == template {
			out = append(out, m)
		}
	}
	return out
}

// recordingAudit is an in-memory audit sink
type recordingAudit struct {
	mu      sync.Mutex
	records []invoicing.AuditRecord
}

func (r *recordingAudit) Record(_ context.Context, record invoicing.AuditRecord) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return uuid.New(), nil
}

func (r *recordingAudit) count(action string, entityID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Action == action && rec.EntityID == entityID {
			n++
		}
	}
	return n
}

// =============================================================================
// Harness
// =============================================================================

// harness wires every invoicing service against an in-memory SQLite database,
// the synchronous event bus and the receipt pipeline with stub rendering and storage.
type harness struct {
	db    *gorm.DB
	clock *testClock
	email *recordingEmail
	audit *recordingAudit
	store *storage.StubArtifactStore

	directory *appinv.DirectoryService
	invoices  *appinv.InvoiceService
	quotes    *appinv.QuoteService
	recorder  *appinv.Recorder
	disputes  *appinv.DisputeService
	documents *appinv.DocumentService

	org      *invoicing.Organization
	customer *invoicing.Customer
	actor    appinv.Actor
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, persistence.AutoMigrate(db))
	return db
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	h := &harness{
		db:    setupTestDB(t),
		clock: &testClock{now: testStart},
		email: &recordingEmail{},
		audit: &recordingAudit{},
		store: storage.NewStubArtifactStore(),
	}

	bus := event.NewInMemoryEventBus(logger)
	deps := appinv.Dependencies{
		Repos:   persistence.NewRepositories(h.db),
		TxScope: persistence.NewGormTransactionScope(h.db),
		Events:  bus,
		Audit:   appinv.NewAuditEmitter(h.audit, logger),
		IDs:     &countingIDs{},
		Clock:   h.clock,
		Logger:  logger,
	}

	idempotency := cache.NewInMemoryIdempotencyStore(cache.WithNow(h.clock.Now))
	t.Cleanup(func() { _ = idempotency.Close() })

	renderer, err := printing.NewReceiptRenderer(printing.NewStubPDFRenderer())
	require.NoError(t, err)

	h.directory = appinv.NewDirectoryService(deps)
	h.invoices = appinv.NewInvoiceService(deps, h.email, appinv.InvoiceServiceOptions{PublicBaseURL: "https://pay.example.test/i/"})
	h.quotes = appinv.NewQuoteService(deps, h.email)
	h.recorder = appinv.NewRecorder(deps, idempotency, time.Hour)
	h.disputes = appinv.NewDisputeService(deps, h.recorder)
	h.documents = appinv.NewDocumentService(deps, h.store, 0)

	issuer := appinv.NewReceiptIssuer(deps, renderer, h.store, h.email)
	bus.Subscribe(event.NewIdempotentHandler(issuer, idempotency, time.Hour, logger), issuer.EventTypes()...)

	owner := uuid.New()
	h.org, err = h.directory.CreateOrganization(ctx, owner, appinv.OrganizationInput{Name: "Acme Ltd", Currency: "EUR", TaxID: "DE123456789"})
	require.NoError(t, err)
	h.actor = appinv.Actor{TenantID: h.org.ID, UserID: owner}

	h.customer, err = h.directory.CreateCustomer(ctx, h.actor, appinv.CustomerInput{Name: "Globex", Email: "ap@globex.test"})
	require.NoError(t, err)
	return h
}

// invoiceInput is two consulting days at 100.00 with 10% tax: total 220.00
func (h *harness) invoiceInput() appinv.InvoiceInput {
	tax := 10
	price := int64(10000)
	return appinv.InvoiceInput{
		CustomerID: h.customer.ID,
		TaxPercent: &tax,
		Items: []appinv.LineItemInput{
			{Description: "Consulting", Quantity: decimal.NewFromInt(2), UnitPriceCents: &price, Unit: "day"},
		},
	}
}

func (h *harness) createInvoice(t *testing.T) *appinv.InvoiceView {
	t.Helper()
	view, err := h.invoices.Create(context.Background(), h.actor, h.invoiceInput())
	require.NoError(t, err)
	return view
}

func (h *harness) sentInvoice(t *testing.T) *appinv.InvoiceView {
	t.Helper()
	view := h.createInvoice(t)
	sent, err := h.invoices.Send(context.Background(), h.actor, view.Invoice.ID)
	require.NoError(t, err)
	return sent
}

func (h *harness) pay(t *testing.T, invoiceID uuid.UUID, cents int64, reference string) *appinv.PaymentResult {
	t.Helper()
	result, err := h.recorder.RecordPayment(context.Background(), h.actor, invoiceID, appinv.PaymentInput{
		Provider:          invoicing.PaymentProviderStripe,
		ProviderReference: reference,
		AmountCents:       cents,
	})
	require.NoError(t, err)
	return result
}

// otherTenant creates a second organization with its own customer
func (h *harness) otherTenant(t *testing.T) (appinv.Actor, *invoicing.Customer) {
	t.Helper()
	ctx := context.Background()
	owner := uuid.New()
	org, err := h.directory.CreateOrganization(ctx, owner, appinv.OrganizationInput{Name: "Initech", Currency: "USD"})
	require.NoError(t, err)
	actor := appinv.Actor{TenantID: org.ID, UserID: owner}
	customer, err := h.directory.CreateCustomer(ctx, actor, appinv.CustomerInput{Name: "Umbrella", Email: "ap@umbrella.test"})
	require.NoError(t, err)
	return actor, customer
}
