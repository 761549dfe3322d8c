package invoicing

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fixedGenerator struct{ hex string }

func (g fixedGenerator) Token() string          { return "token" }
func (g fixedGenerator) HexSuffix(n int) string { return g.hex[:n] }

func TestDocumentNumbers(t *testing.T) {
	assert.Equal(t, "INV-2024-000042", FormatInvoiceNumber("INV", 2024, 42))
	assert.Equal(t, "ACME-2025-1234567", FormatInvoiceNumber("ACME", 2025, 1234567))
	assert.Equal(t, "QTE-2024-000001", FormatQuoteNumber(2024, 1))

	now := time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "CN-2024-A1B2C3", CreditNoteNumber(fixedGenerator{hex: "a1b2c3d4"}, now))
	assert.Equal(t, "RCT-2024-A1B2C3", ReceiptNumber(fixedGenerator{hex: "A1B2C3"}, now))
	assert.Equal(t, "QTE-2024-1735689540000", QuoteFallbackNumber(now))
}

func TestRandomIDGenerator(t *testing.T) {
	gen := RandomIDGenerator{}
	hex6 := regexp.MustCompile(`^[0-9A-F]{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s := gen.HexSuffix(6)
		assert.Regexp(t, hex6, s)
		seen[s] = true
	}
	assert.Greater(t, len(seen), 1)
	assert.Len(t, gen.HexSuffix(40), 40)
	assert.NotEqual(t, gen.Token(), gen.Token())
	assert.Regexp(t, `^RCT-\d{4}-[0-9A-F]{6}$`, ReceiptNumber(gen, time.Now()))
}
