package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
)

type MockDirectoryService struct {
	mock.Mock
}

func (m *MockDirectoryService) CreateOrganization(ctx context.Context, actorID uuid.UUID, in appinv.OrganizationInput) (*invoicing.Organization, error) {
	args := m.Called(ctx, actorID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Organization), args.Error(1)
}

func (m *MockDirectoryService) UpdateOrganization(ctx context.Context, actor appinv.Actor, in appinv.OrganizationInput) (*invoicing.Organization, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Organization), args.Error(1)
}

func (m *MockDirectoryService) GetOrganization(ctx context.Context, id uuid.UUID) (*invoicing.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Organization), args.Error(1)
}

func (m *MockDirectoryService) CreateCustomer(ctx context.Context, actor appinv.Actor, in appinv.CustomerInput) (*invoicing.Customer, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Customer), args.Error(1)
}

func (m *MockDirectoryService) GetCustomer(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Customer), args.Error(1)
}

func (m *MockDirectoryService) CreateProduct(ctx context.Context, actor appinv.Actor, in appinv.ProductInput) (*invoicing.Product, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Product), args.Error(1)
}

func (m *MockDirectoryService) GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Product), args.Error(1)
}

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) view(args mock.Arguments) (*appinv.InvoiceView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinv.InvoiceView), args.Error(1)
}

func (m *MockInvoiceService) batch(args mock.Arguments) (*appinv.BatchResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinv.BatchResult), args.Error(1)
}

func (m *MockInvoiceService) Create(ctx context.Context, actor appinv.Actor, in appinv.InvoiceInput) (*appinv.InvoiceView, error) {
	return m.view(m.Called(ctx, actor, in))
}

func (m *MockInvoiceService) Update(ctx context.Context, actor appinv.Actor, id uuid.UUID, in appinv.InvoiceInput) (*appinv.InvoiceView, error) {
	return m.view(m.Called(ctx, actor, id, in))
}

func (m *MockInvoiceService) Get(ctx context.Context, tenantID, id uuid.UUID) (*appinv.InvoiceView, error) {
	return m.view(m.Called(ctx, tenantID, id))
}

func (m *MockInvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) (*shared.Paginated[appinv.InvoiceView], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appinv.InvoiceView]), args.Error(1)
}

func (m *MockInvoiceService) Send(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.InvoiceView, error) {
	return m.view(m.Called(ctx, actor, id))
}

func (m *MockInvoiceService) ViewByToken(ctx context.Context, token string) (*appinv.InvoiceView, error) {
	return m.view(m.Called(ctx, token))
}

func (m *MockInvoiceService) MarkOverdue(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.InvoiceView, bool, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*appinv.InvoiceView), args.Bool(1), args.Error(2)
}

func (m *MockInvoiceService) SweepOverdue(ctx context.Context, actor appinv.Actor) (*appinv.BatchResult, error) {
	return m.batch(m.Called(ctx, actor))
}

func (m *MockInvoiceService) Void(ctx context.Context, actor appinv.Actor, id uuid.UUID, reason string) (*appinv.InvoiceView, error) {
	return m.view(m.Called(ctx, actor, id, reason))
}

func (m *MockInvoiceService) Duplicate(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.InvoiceView, error) {
	return m.view(m.Called(ctx, actor, id))
}

func (m *MockInvoiceService) ComplianceSnapshot(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.ComplianceSnapshot, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.ComplianceSnapshot), args.Error(1)
}

func (m *MockInvoiceService) BatchVoid(ctx context.Context, actor appinv.Actor, ids []uuid.UUID, reason string) (*appinv.BatchResult, error) {
	return m.batch(m.Called(ctx, actor, ids, reason))
}

func (m *MockInvoiceService) SendReminders(ctx context.Context, actor appinv.Actor, ids []uuid.UUID) (*appinv.BatchResult, error) {
	return m.batch(m.Called(ctx, actor, ids))
}

type MockPaymentRecorder struct {
	mock.Mock
}

func (m *MockPaymentRecorder) RecordPayment(ctx context.Context, actor appinv.Actor, invoiceID uuid.UUID, in appinv.PaymentInput) (*appinv.PaymentResult, error) {
	args := m.Called(ctx, actor, invoiceID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinv.PaymentResult), args.Error(1)
}

func (m *MockPaymentRecorder) IssueCreditNote(ctx context.Context, actor appinv.Actor, invoiceID uuid.UUID, in appinv.CreditNoteInput) (*appinv.CreditNoteResult, error) {
	args := m.Called(ctx, actor, invoiceID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinv.CreditNoteResult), args.Error(1)
}

type MockQuoteService struct {
	mock.Mock
}

func (m *MockQuoteService) view(args mock.Arguments) (*appinv.QuoteView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinv.QuoteView), args.Error(1)
}

func (m *MockQuoteService) Create(ctx context.Context, actor appinv.Actor, in appinv.QuoteInput) (*appinv.QuoteView, error) {
	return m.view(m.Called(ctx, actor, in))
}

func (m *MockQuoteService) Update(ctx context.Context, actor appinv.Actor, id uuid.UUID, in appinv.QuoteInput) (*appinv.QuoteView, error) {
	return m.view(m.Called(ctx, actor, id, in))
}

func (m *MockQuoteService) Get(ctx context.Context, tenantID, id uuid.UUID) (*appinv.QuoteView, error) {
	return m.view(m.Called(ctx, tenantID, id))
}

func (m *MockQuoteService) List(ctx context.Context, tenantID uuid.UUID, filter invoicing.QuoteFilter) (*shared.Paginated[appinv.QuoteView], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appinv.QuoteView]), args.Error(1)
}

func (m *MockQuoteService) Send(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.QuoteView, error) {
	return m.view(m.Called(ctx, actor, id))
}

func (m *MockQuoteService) Accept(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.QuoteView, error) {
	return m.view(m.Called(ctx, actor, id))
}

func (m *MockQuoteService) Void(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.QuoteView, error) {
	return m.view(m.Called(ctx, actor, id))
}

func (m *MockQuoteService) Delete(ctx context.Context, actor appinv.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockQuoteService) ExpireDue(ctx context.Context, actor appinv.Actor) (*appinv.BatchResult, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinv.BatchResult), args.Error(1)
}

func (m *MockQuoteService) Convert(ctx context.Context, actor appinv.Actor, id uuid.UUID) (*appinv.InvoiceView, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinv.InvoiceView), args.Error(1)
}

type MockDisputeService struct {
	mock.Mock
}

func (m *MockDisputeService) dispute(args mock.Arguments) (*invoicing.Dispute, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Dispute), args.Error(1)
}

func (m *MockDisputeService) Open(ctx context.Context, actor appinv.Actor, invoiceID uuid.UUID, reason string) (*invoicing.Dispute, error) {
	return m.dispute(m.Called(ctx, actor, invoiceID, reason))
}

func (m *MockDisputeService) OpenByToken(ctx context.Context, token, reason string) (*invoicing.Dispute, error) {
	return m.dispute(m.Called(ctx, token, reason))
}

func (m *MockDisputeService) Get(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Dispute, error) {
	return m.dispute(m.Called(ctx, tenantID, id))
}

func (m *MockDisputeService) ListForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.Dispute, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.Dispute), args.Error(1)
}

func (m *MockDisputeService) Approve(ctx context.Context, actor appinv.Actor, id uuid.UUID, in appinv.ApproveDisputeInput) (*invoicing.Dispute, *appinv.CreditNoteResult, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var credit *appinv.CreditNoteResult
	if v := args.Get(1); v != nil {
		credit = v.(*appinv.CreditNoteResult)
	}
	return args.Get(0).(*invoicing.Dispute), credit, args.Error(2)
}

func (m *MockDisputeService) Reject(ctx context.Context, actor appinv.Actor, id uuid.UUID, message string) (*invoicing.Dispute, error) {
	return m.dispute(m.Called(ctx, actor, id, message))
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Receipt(ctx context.Context, tenantID, invoiceID uuid.UUID) (*appinv.ReceiptView, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinv.ReceiptView), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, tenantID, artifactID uuid.UUID) (*appinv.ArtifactDownload, error) {
	args := m.Called(ctx, tenantID, artifactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinv.ArtifactDownload), args.Error(1)
}
