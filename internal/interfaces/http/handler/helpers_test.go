package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

// newTestRouter returns an engine that authenticates every request as userID in tenantID.
// Pass uuid.Nil as tenantID to simulate a tenant-less token.
func newTestRouter(tenantID, userID uuid.UUID) (*gin.Engine, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(logger.GinMiddleware(zap.New(core)))
	r.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.JWTUserIDKey, userID)
		}
		if tenantID != uuid.Nil {
			c.Set(middleware.JWTTenantIDKey, tenantID)
		}
		c.Next()
	})
	return r, logs
}

// doRequest sends body as JSON. A string body is sent verbatim.
func doRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) testResponse {
	t.Helper()
	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	resp := decodeResponse(t, w)
	require.True(t, resp.Success, w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

func testLine(description string, qty int64, priceCents int64) invoicing.LineItem {
	item, err := invoicing.NewLineItem(description, decimal.NewFromInt(qty), priceCents, "pcs", invoicing.Tax(10))
	if err != nil {
		panic(err)
	}
	return item
}

func testInvoiceView(tenantID uuid.UUID) *appinv.InvoiceView {
	inv, err := invoicing.NewInvoice(tenantID, "INV-2024-000001", "tok-abc", invoicing.InvoiceDraft{
		CustomerID:       uuid.New(),
		Currency:         "USD",
		IssueDate:        testNow,
		PaymentTermsDays: 30,
		TaxPercent:       invoicing.Tax(10),
		Discount:         invoicing.NoDiscount(),
		Items:            []invoicing.LineItem{testLine("Consulting", 2, 5000)},
	})
	if err != nil {
		panic(err)
	}
	return &appinv.InvoiceView{
		Invoice: inv,
		Balance: invoicing.Balance{SubtotalCents: 10000, TaxCents: 1000, TotalCents: 11000, DueCents: 11000},
	}
}

func testQuoteView(tenantID uuid.UUID) *appinv.QuoteView {
	q, err := invoicing.NewQuote(tenantID, "Q-2024-000001", invoicing.QuoteDraft{
		CustomerID: uuid.New(),
		Currency:   "USD",
		IssueDate:  testNow,
		TaxPercent: invoicing.Tax(10),
		Discount:   invoicing.NoDiscount(),
		Items:      []invoicing.LineItem{testLine("Design", 1, 20000)},
	})
	if err != nil {
		panic(err)
	}
	return &appinv.QuoteView{Quote: q, Totals: q.Totals()}
}

func testDispute(tenantID, invoiceID uuid.UUID) *invoicing.Dispute {
	d, err := invoicing.NewDispute(tenantID, invoiceID, "Hours were billed twice")
	if err != nil {
		panic(err)
	}
	return d
}

func doRequestWithHeader(r http.Handler, path, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(header, value)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
