package invoicing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/invoicer/backend/internal/domain/invoicing"
)

// =============================================================================
// Mocks
// =============================================================================

// MockAuditSink is a mock implementation of invoicing.AuditSink
type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) Record(ctx context.Context, record invoicing.AuditRecord) (uuid.UUID, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockQuoteRepository is a mock implementation of invoicing.QuoteRepository
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Quote, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter invoicing.QuoteFilter) ([]invoicing.Quote, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]invoicing.Quote), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuoteRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuoteRepository) ExistsByNumber(ctx context.Context, tenantID uuid.UUID, number string) (bool, error) {
	args := m.Called(ctx, tenantID, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuoteRepository) Create(ctx context.Context, q *invoicing.Quote) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockQuoteRepository) SaveWithLock(ctx context.Context, q *invoicing.Quote) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockQuoteRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockOrganizationRepository is a mock implementation of invoicing.OrganizationRepository
type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) Save(ctx context.Context, org *invoicing.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationRepository) NextInvoiceSequence(ctx context.Context, orgID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).(int64), args.Error(1)
}

// stubRepositories serves the mocked repositories; any other accessor panics
type stubRepositories struct {
	Repositories
	orgs   *MockOrganizationRepository
	quotes *MockQuoteRepository
}

func (r stubRepositories) Organizations() invoicing.OrganizationRepository { return r.orgs }
func (r stubRepositories) Quotes() invoicing.QuoteRepository               { return r.quotes }

// =============================================================================
// Fakes
// =============================================================================

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// sequenceIDs hands out predictable tokens and hex suffixes
type sequenceIDs struct {
	mu sync.Mutex
	n  int
}

func (g *sequenceIDs) next() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.n
}

func (g *sequenceIDs) Token() string {
	return "tok" + uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(g.next())}).String()[:8]
}

func (g *sequenceIDs) HexSuffix(n int) string {
	s := "00000" + string(rune('A'+g.next()%6))
	return s[len(s)-n:]
}

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
