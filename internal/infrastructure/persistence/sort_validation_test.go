package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"github.com/invoicer/backend/tests/testutil"
)

func TestValidateSortOrder(t *testing.T) {
	cases := map[string]string{
		"":        "DESC",
		"asc":     "ASC",
		"  ASC  ": "ASC",
		"desc":    "DESC",
		"upward":  "DESC",
	}
	for input, want := range cases {
		assert.Equal(t, want, ValidateSortOrder(input), "input %q", input)
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		allowed  map[string]bool
		fallback string
		want     string
	}{
		{"invoice due date", "due_date", InvoiceSortFields, "created_at", "due_date"},
		{"quote expiry date", "expiry_date", QuoteSortFields, "created_at", "expiry_date"},
		{"expiry date is not an invoice column", "expiry_date", InvoiceSortFields, "created_at", "created_at"},
		{"blank falls back", "   ", InvoiceSortFields, "created_at", "created_at"},
		{"trimmed", " number ", InvoiceSortFields, "created_at", "number"},
		{"case sensitive", "NUMBER", InvoiceSortFields, "created_at", "created_at"},
		{"tenant column is never sortable", "tenant_id", InvoiceSortFields, "created_at", "created_at"},
		{"empty fallback", "bogus", QuoteSortFields, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, tt.allowed, tt.fallback))
		})
	}
}

func TestSortFieldWhitelists(t *testing.T) {
	for name, whitelist := range map[string]map[string]bool{
		"invoices": InvoiceSortFields,
		"quotes":   QuoteSortFields,
	} {
		t.Run(name, func(t *testing.T) {
			for _, field := range []string{"id", "created_at", "number", "status", "issue_date"} {
				assert.True(t, whitelist[field], "%s should allow %s", name, field)
			}
		})
	}
}

func TestSortInjectionIsRejected(t *testing.T) {
	payloads := []string{
		"number; DROP TABLE invoices;--",
		"number' OR '1'='1",
		"number UNION SELECT token FROM invoices",
		"(SELECT amount_cents FROM payments)",
		"CASE WHEN 1=1 THEN number ELSE status END",
		"number/**/;DROP TABLE quotes",
		"number\n; DROP TABLE quotes",
	}

	for _, payload := range payloads {
		assert.Equal(t, "created_at", ValidateSortField(payload, InvoiceSortFields, "created_at"), "field %q", payload)
		assert.Equal(t, "DESC", ValidateSortOrder(payload), "order %q", payload)
	}
}

func TestApplyPage(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	dry := mockDB.DB.Session(&gorm.Session{DryRun: true})

	build := func(filter shared.Filter, allowed map[string]bool) string {
		var rows []models.InvoiceModel
		return applyPage(dry.Model(&models.InvoiceModel{}), filter, allowed).Find(&rows).Statement.SQL.String()
	}

	t.Run("requested order and page", func(t *testing.T) {
		sql := build(shared.Filter{Page: 3, PageSize: 10, OrderBy: "due_date", OrderDir: "asc"}, InvoiceSortFields)
		assert.Contains(t, sql, "ORDER BY due_date ASC,id ASC")
		assert.Contains(t, sql, "LIMIT $1 OFFSET $2")
	})

	t.Run("unknown field and bad page fall back", func(t *testing.T) {
		sql := build(shared.Filter{Page: 0, PageSize: 0, OrderBy: "token"}, InvoiceSortFields)
		assert.Contains(t, sql, "ORDER BY created_at DESC,id ASC")
		assert.NotContains(t, sql, "token")
	})

	mockDB.ExpectationsWereMet(t)
}
