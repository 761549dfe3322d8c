package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document number prefixes and limits
const (
	QuotePrefix      = "QTE"
	CreditNotePrefix = "CN"
	ReceiptPrefix    = "RCT"

	// QuoteNumberAttempts is how many sequential quote numbers are probed before the
	// timestamp fallback. Concurrent quote creation in one organization can still collide.
	QuoteNumberAttempts = 5

	randomSuffixLength = 6
)

// FormatInvoiceNumber renders {PREFIX}-{YYYY}-{000000}
func FormatInvoiceNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%06d", prefix, year, seq)
}

// FormatQuoteNumber renders QTE-{YYYY}-{000000}
func FormatQuoteNumber(year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%06d", QuotePrefix, year, seq)
}

// QuoteFallbackNumber is used when every probed quote number is taken
func QuoteFallbackNumber(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("%s-%04d-%d", QuotePrefix, now.Year(), now.UnixMilli())
}

// FormatRandomNumber renders {PREFIX}-{YYYY}-{HEX}
func FormatRandomNumber(prefix string, year int, hex string) string {
	return fmt.Sprintf("%s-%04d-%s", prefix, year, strings.ToUpper(hex))
}

// IDGenerator produces the non-sequential parts of identifiers.
// Production uses random values; tests inject a deterministic generator.
type IDGenerator interface {
	// Token returns an unguessable token for hosted invoice links
	Token() string
	// HexSuffix returns n uppercase hexadecimal characters
	HexSuffix(n int) string
}

// RandomIDGenerator derives tokens and suffixes from random (v4) UUIDs
type RandomIDGenerator struct{}

// Token returns 32 hex characters of randomness
func (RandomIDGenerator) Token() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// HexSuffix returns n uppercase hex characters
func (g RandomIDGenerator) HexSuffix(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(g.Token())
	}
	return strings.ToUpper(b.String()[:n])
}

// CreditNoteNumber renders CN-{YYYY}-{HEX6}
func CreditNoteNumber(gen IDGenerator, now time.Time) string {
	return FormatRandomNumber(CreditNotePrefix, now.UTC().Year(), gen.HexSuffix(randomSuffixLength))
}

// ReceiptNumber renders RCT-{YYYY}-{HEX6}
func ReceiptNumber(gen IDGenerator, now time.Time) string {
	return FormatRandomNumber(ReceiptPrefix, now.UTC().Year(), gen.HexSuffix(randomSuffixLength))
}
