package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

type billingFixture struct {
	db       *gorm.DB
	org      *invoicing.Organization
	customer *invoicing.Customer
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	db := setupBillingTestDB(t)
	ctx := context.Background()

	org, err := invoicing.NewOrganization("Acme Ltd", "EUR")
	require.NoError(t, err)
	require.NoError(t, NewGormOrganizationRepository(db).Save(ctx, org))

	customer, err := invoicing.NewCustomer(org.ID, "Globex", "billing@globex.test")
	require.NoError(t, err)
	require.NoError(t, NewGormCustomerRepository(db).Save(ctx, customer))

	return &billingFixture{db: db, org: org, customer: customer}
}

func (f *billingFixture) newInvoice(t *testing.T, number string, prices ...int64) *invoicing.Invoice {
	t.Helper()
	items := make([]invoicing.LineItem, 0, len(prices))
	for i, price := range prices {
		item, err := invoicing.NewLineItem(fmt.Sprintf("Line %d", i+1), decimal.NewFromInt(1), price, "pcs", invoicing.TaxPercent{})
		require.NoError(t, err)
		items = append(items, item)
	}
	issue := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inv, err := invoicing.NewInvoice(f.org.ID, number, uuid.NewString(), invoicing.InvoiceDraft{
		CustomerID:       f.customer.ID,
		Currency:         "EUR",
		IssueDate:        issue,
		PaymentTermsDays: 14,
		Discount:         invoicing.NoDiscount(),
		Items:            items,
	})
	require.NoError(t, err)
	return inv
}

func TestOrganizationRepository_NextInvoiceSequence(t *testing.T) {
	f := newBillingFixture(t)
	repo := NewGormOrganizationRepository(f.db)
	ctx := context.Background()

	t.Run("hands out consecutive sequences", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			var got int64
			err := f.db.Transaction(func(tx *gorm.DB) error {
				var err error
				got, err = NewGormOrganizationRepository(tx).NextInvoiceSequence(ctx, f.org.ID)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("saving settings does not rewind the counter", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, f.org.ID)
		require.NoError(t, err)
		stale.InvoiceNextNumber = 1
		stale.InvoicePrefix = "ACM"
		require.NoError(t, repo.Save(ctx, stale))

		next, err := repo.NextInvoiceSequence(ctx, f.org.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), next)

		reloaded, err := repo.FindByID(ctx, f.org.ID)
		require.NoError(t, err)
		assert.Equal(t, "ACM", reloaded.InvoicePrefix)
		assert.Equal(t, int64(5), reloaded.InvoiceNextNumber)
	})

	t.Run("unknown organization", func(t *testing.T) {
		_, err := repo.NextInvoiceSequence(ctx, uuid.New())
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestInvoiceRepository_CreateAndFind(t *testing.T) {
	f := newBillingFixture(t)
	repo := NewGormInvoiceRepository(f.db)
	ctx := context.Background()

	inv := f.newInvoice(t, "INV-2026-00001", 1000, 2500, 300)
	require.NoError(t, repo.Create(ctx, inv))

	t.Run("loads items in position order", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, f.org.ID, inv.ID)
		require.NoError(t, err)
		require.Len(t, found.Items, 3)
		for i, item := range found.Items {
			assert.Equal(t, i+1, item.Position)
		}
		assert.Equal(t, int64(3800), found.Totals().TotalCents)
		assert.Equal(t, invoicing.InvoiceStatusDraft, found.Status)
	})

	t.Run("resolves the hosted token without a tenant", func(t *testing.T) {
		found, err := repo.FindByToken(ctx, inv.Token)
		require.NoError(t, err)
		assert.Equal(t, inv.ID, found.ID)

		_, err = repo.FindByToken(ctx, "missing")
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("other tenants cannot see the invoice", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, uuid.New(), inv.ID)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("duplicate number within a tenant conflicts", func(t *testing.T) {
		dup := f.newInvoice(t, "INV-2026-00001", 100)
		err := repo.Create(ctx, dup)
		assert.True(t, shared.IsConcurrencyConflict(err), "got %v", err)
	})

	t.Run("same number in another tenant is allowed", func(t *testing.T) {
		other := f.newInvoice(t, "INV-2026-00001", 100)
		other.TenantID = uuid.New()
		assert.NoError(t, repo.Create(ctx, other))
	})
}

func TestInvoiceRepository_SaveWithLock(t *testing.T) {
	f := newBillingFixture(t)
	repo := NewGormInvoiceRepository(f.db)
	ctx := context.Background()

	inv := f.newInvoice(t, "INV-2026-00001", 1000, 2000)
	require.NoError(t, repo.Create(ctx, inv))

	first, err := repo.FindByIDForTenant(ctx, f.org.ID, inv.ID)
	require.NoError(t, err)
	second, err := repo.FindByIDForTenant(ctx, f.org.ID, inv.ID)
	require.NoError(t, err)

	item, err := invoicing.NewLineItem("Consulting", decimal.NewFromInt(2), 5000, "h", invoicing.TaxPercent{})
	require.NoError(t, err)
	draft := invoicing.InvoiceDraft{
		CustomerID: first.CustomerID,
		Currency:   first.Currency,
		IssueDate:  first.IssueDate,
		DueDate:    &first.DueDate,
		Discount:   invoicing.NoDiscount(),
		Items:      []invoicing.LineItem{item},
	}
	require.NoError(t, first.Update(draft))
	require.NoError(t, repo.SaveWithLock(ctx, first))
	assert.Equal(t, 2, first.Version)

	reloaded, err := repo.FindByIDForTenant(ctx, f.org.ID, inv.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, "Consulting", reloaded.Items[0].Description)
	assert.Equal(t, int64(10000), reloaded.Totals().TotalCents)

	require.NoError(t, second.Void("stale", time.Now().UTC()))
	err = repo.SaveWithLock(ctx, second)
	assert.True(t, shared.IsConcurrencyConflict(err), "got %v", err)
}

func TestInvoiceRepository_FindAllForTenant(t *testing.T) {
	f := newBillingFixture(t)
	repo := NewGormInvoiceRepository(f.db)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 5; i++ {
		inv := f.newInvoice(t, fmt.Sprintf("INV-2026-%05d", i), int64(i*100))
		if i%2 == 0 {
			require.NoError(t, inv.Send(f.customer.Email, now))
		}
		require.NoError(t, repo.Create(ctx, inv))
	}

	all, total, err := repo.FindAllForTenant(ctx, f.org.ID, invoicing.InvoiceFilter{
		Filter: shared.Filter{Page: 1, PageSize: 2, OrderBy: "number", OrderDir: "asc"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, all, 2)
	assert.Equal(t, "INV-2026-00001", all[0].Number)

	sent, total, err := repo.FindAllForTenant(ctx, f.org.ID, invoicing.InvoiceFilter{
		Filter:    shared.DefaultFilter(),
		Statuses:  []invoicing.InvoiceStatus{invoicing.InvoiceStatusSent},
		DueBefore: &now,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, sent, 2)

	_, total, err = repo.FindAllForTenant(ctx, f.org.ID, invoicing.InvoiceFilter{
		Filter: shared.Filter{Page: 1, PageSize: 10, Search: "00003", OrderBy: "number; DROP TABLE invoices"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestPaymentRepository_ProviderReference(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	inv := f.newInvoice(t, "INV-2026-00001", 10000)
	require.NoError(t, NewGormInvoiceRepository(f.db).Create(ctx, inv))
	repo := NewGormPaymentRepository(f.db)
	now := time.Now().UTC()

	p1, err := invoicing.NewPayment(f.org.ID, inv.ID, invoicing.PaymentProviderStripe, "pi_123", invoicing.PaymentStatusSucceeded, 4000, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, p1))

	found, err := repo.FindByProviderReference(ctx, f.org.ID, invoicing.PaymentProviderStripe, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, p1.ID, found.ID)

	dup, err := invoicing.NewPayment(f.org.ID, inv.ID, invoicing.PaymentProviderStripe, "pi_123", invoicing.PaymentStatusSucceeded, 4000, now)
	require.NoError(t, err)
	assert.True(t, shared.IsConcurrencyConflict(repo.Create(ctx, dup)))

	for range 2 {
		manual, err := invoicing.NewPayment(f.org.ID, inv.ID, invoicing.PaymentProviderManual, "", invoicing.PaymentStatusSucceeded, 1000, now)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, manual), "manual payments without a reference never collide")
	}

	payments, err := repo.FindByInvoice(ctx, f.org.ID, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 3)

	_, err = repo.FindByProviderReference(ctx, f.org.ID, invoicing.PaymentProviderStripe, "pi_999")
	assert.True(t, shared.IsNotFound(err))
}

func TestReceiptRepository_OnePerInvoice(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	inv := f.newInvoice(t, "INV-2026-00001", 10000)
	require.NoError(t, NewGormInvoiceRepository(f.db).Create(ctx, inv))
	repo := NewGormReceiptRepository(f.db)
	now := time.Now().UTC()

	_, err := repo.FindByInvoice(ctx, f.org.ID, inv.ID)
	assert.True(t, shared.IsNotFound(err))

	r1, err := invoicing.NewReceipt(f.org.ID, inv.ID, nil, "RCT-1", 10000, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, r1))

	r2, err := invoicing.NewReceipt(f.org.ID, inv.ID, nil, "RCT-2", 10000, now)
	require.NoError(t, err)
	assert.True(t, shared.IsConcurrencyConflict(repo.Create(ctx, r2)))

	artifact := invoicing.NewArtifact(f.org.ID, r1.ID, invoicing.ArtifactKindReceiptPDF, "tenant/receipts/RCT-1.pdf", "application/pdf", 1024)
	require.NoError(t, NewGormArtifactRepository(f.db).Create(ctx, artifact))
	r1.AttachArtifact(artifact.ID)
	require.NoError(t, repo.Save(ctx, r1))

	found, err := repo.FindByInvoice(ctx, f.org.ID, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, found.ArtifactID)
	assert.Equal(t, artifact.ID, *found.ArtifactID)
}

func TestQuoteRepository_Lifecycle(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	repo := NewGormQuoteRepository(f.db)

	item, err := invoicing.NewLineItem("Design", decimal.NewFromInt(1), 50000, "", invoicing.TaxPercent{})
	require.NoError(t, err)
	q, err := invoicing.NewQuote(f.org.ID, "Q-2026-001", invoicing.QuoteDraft{
		CustomerID: f.customer.ID,
		Currency:   "EUR",
		IssueDate:  time.Now().UTC(),
		Discount:   invoicing.NoDiscount(),
		Items:      []invoicing.LineItem{item},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, q))

	count, err := repo.CountForTenant(ctx, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	exists, err := repo.ExistsByNumber(ctx, f.org.ID, "Q-2026-001")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.DeleteForTenant(ctx, f.org.ID, q.ID))
	_, err = repo.FindByIDForTenant(ctx, f.org.ID, q.ID)
	assert.True(t, shared.IsNotFound(err))

	var items int64
	require.NoError(t, f.db.Table("quote_items").Where("quote_id = ?", q.ID).Count(&items).Error)
	assert.Zero(t, items)

	assert.True(t, shared.IsNotFound(repo.DeleteForTenant(ctx, f.org.ID, q.ID)))
}

func TestGormTransactionScope_RollsBack(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	scope := NewGormTransactionScope(f.db)
	boom := errors.New("boom")

	inv := f.newInvoice(t, "INV-2026-00001", 1000)
	err := scope.Execute(ctx, func(repos appinv.Repositories) error {
		if _, err := repos.Organizations().NextInvoiceSequence(ctx, f.org.ID); err != nil {
			return err
		}
		if err := repos.Invoices().Create(ctx, inv); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = NewGormInvoiceRepository(f.db).FindByIDForTenant(ctx, f.org.ID, inv.ID)
	assert.True(t, shared.IsNotFound(err))

	org, err := NewGormOrganizationRepository(f.db).FindByID(ctx, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), org.InvoiceNextNumber, "rolled back reservations do not consume numbers")
}

func TestGormAuditSink_Record(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	sink := NewGormAuditSink(f.db)
	entityID := uuid.New()

	id, err := sink.Record(ctx, invoicing.AuditRecord{
		OrgID:      f.org.ID,
		Action:     invoicing.AuditActionInvoiceViewed,
		EntityType: invoicing.EntityTypeInvoice,
		EntityID:   entityID,
		Data:       map[string]any{"number": "INV-2026-00001"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	events, err := sink.FindByEntity(ctx, f.org.ID, entityID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].ActorID)
	assert.JSONEq(t, `{"number":"INV-2026-00001"}`, events[0].Data)
}
