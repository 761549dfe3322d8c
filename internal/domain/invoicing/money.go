package invoicing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// roundCents rounds half away from zero to a whole number of cents.
func roundCents(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// TaxPercent is an optional whole-number tax rate.
// The zero value means "not set" and defers to the next level of configuration.
type TaxPercent struct {
	value int
	set   bool
}

// NoTax is the unset tax rate.
var NoTax = TaxPercent{}

// Tax returns a tax rate that is explicitly set.
func Tax(percent int) TaxPercent {
	return TaxPercent{value: percent, set: true}
}

// TaxFromPtr converts a nullable column value.
func TaxFromPtr(p *int) TaxPercent {
	if p == nil {
		return NoTax
	}
	return Tax(*p)
}

// IsSet reports whether a rate was configured at this level.
func (t TaxPercent) IsSet() bool { return t.set }

// Value returns the configured rate, 0 when unset.
func (t TaxPercent) Value() int { return t.value }

// Ptr returns the rate as a nullable value.
func (t TaxPercent) Ptr() *int {
	if !t.set {
		return nil
	}
	v := t.value
	return &v
}

// Validate checks the rate is within 0..100.
func (t TaxPercent) Validate() error {
	if t.set && (t.value < 0 || t.value > 100) {
		return fmt.Errorf("tax percent must be between 0 and 100, got %d", t.value)
	}
	return nil
}

// ResolveTaxPercent picks the effective rate for a line: line rate, then invoice rate, then 0.
func ResolveTaxPercent(line, document TaxPercent) int {
	if line.set {
		return line.value
	}
	if document.set {
		return document.value
	}
	return 0
}

// DiscountType tags the Discount variant.
type DiscountType string

const (
	DiscountTypeNone    DiscountType = "NONE"
	DiscountTypePercent DiscountType = "PERCENT"
	DiscountTypeFixed   DiscountType = "FIXED"
)

// IsValid checks if the discount type is known
func (t DiscountType) IsValid() bool {
	switch t {
	case DiscountTypeNone, DiscountTypePercent, DiscountTypeFixed:
		return true
	}
	return false
}

// Discount is one of None, Percent(value) or Fixed(cents).
// Construct it with NoDiscount, PercentDiscount or FixedDiscount.
type Discount struct {
	kind    DiscountType
	percent decimal.Decimal
	cents   int64
}

// NoDiscount returns the empty discount.
func NoDiscount() Discount {
	return Discount{kind: DiscountTypeNone}
}

// PercentDiscount returns a discount of the given percentage of the subtotal.
func PercentDiscount(percent decimal.Decimal) Discount {
	return Discount{kind: DiscountTypePercent, percent: percent}
}

// FixedDiscount returns a discount of a fixed amount in cents.
func FixedDiscount(cents int64) Discount {
	return Discount{kind: DiscountTypeFixed, cents: cents}
}

// ParseDiscount builds a discount from its stored type and value.
// For PERCENT the value is a decimal percentage; for FIXED it is cents.
func ParseDiscount(kind DiscountType, value decimal.Decimal) (Discount, error) {
	switch kind {
	case "", DiscountTypeNone:
		return NoDiscount(), nil
	case DiscountTypePercent:
		return PercentDiscount(value), nil
	case DiscountTypeFixed:
		if !value.Equal(value.Truncate(0)) {
			return Discount{}, fmt.Errorf("fixed discount must be whole cents, got %s", value)
		}
		return FixedDiscount(value.IntPart()), nil
	}
	return Discount{}, fmt.Errorf("unknown discount type %q", kind)
}

// Type returns the variant tag.
func (d Discount) Type() DiscountType {
	if d.kind == "" {
		return DiscountTypeNone
	}
	return d.kind
}

// Value returns the stored value: the percentage for PERCENT, cents for FIXED, zero otherwise.
func (d Discount) Value() decimal.Decimal {
	switch d.Type() {
	case DiscountTypePercent:
		return d.percent
	case DiscountTypeFixed:
		return decimal.NewFromInt(d.cents)
	}
	return decimal.Zero
}

// Validate checks the value range of the variant.
func (d Discount) Validate() error {
	switch d.Type() {
	case DiscountTypePercent:
		if d.percent.IsNegative() || d.percent.GreaterThan(hundred) {
			return fmt.Errorf("percent discount must be between 0 and 100, got %s", d.percent)
		}
	case DiscountTypeFixed:
		if d.cents < 0 {
			return fmt.Errorf("fixed discount cannot be negative, got %d", d.cents)
		}
	}
	return nil
}

// AmountCents returns the discount applied to the given subtotal.
func (d Discount) AmountCents(subtotalCents int64) int64 {
	switch d.Type() {
	case DiscountTypePercent:
		return roundCents(decimal.NewFromInt(subtotalCents).Mul(d.percent).Div(hundred))
	case DiscountTypeFixed:
		return d.cents
	}
	return 0
}

// LineInput is the money-relevant part of a line item.
type LineInput struct {
	Quantity       decimal.Decimal
	UnitPriceCents int64
	TaxPercent     TaxPercent
}

// LineAmounts holds the computed amounts of one line.
type LineAmounts struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxPercent    int   `json:"tax_percent"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// Totals holds the computed amounts of a document.
// TotalCents is not floored: a fixed discount larger than subtotal plus tax yields a negative total.
type Totals struct {
	Lines         []LineAmounts `json:"lines"`
	SubtotalCents int64         `json:"subtotal_cents"`
	TaxCents      int64         `json:"tax_cents"`
	DiscountCents int64         `json:"discount_cents"`
	TotalCents    int64         `json:"total_cents"`
}

// CalculateLine computes one line. Each step is rounded half up to whole cents.
func CalculateLine(line LineInput, documentTax TaxPercent) LineAmounts {
	subtotal := roundCents(line.Quantity.Mul(decimal.NewFromInt(line.UnitPriceCents)))
	rate := ResolveTaxPercent(line.TaxPercent, documentTax)
	tax := roundCents(decimal.NewFromInt(subtotal).Mul(decimal.NewFromInt(int64(rate))).Div(hundred))
	return LineAmounts{
		SubtotalCents: subtotal,
		TaxPercent:    rate,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
	}
}

// CalculateTotals computes document totals from its lines, the document tax rate and discount.
// It has no side effects; identical input always gives identical output.
func CalculateTotals(lines []LineInput, documentTax TaxPercent, discount Discount) Totals {
	totals := Totals{Lines: make([]LineAmounts, len(lines))}
	for i, line := range lines {
		amounts := CalculateLine(line, documentTax)
		totals.Lines[i] = amounts
		totals.SubtotalCents += amounts.SubtotalCents
		totals.TaxCents += amounts.TaxCents
	}
	totals.DiscountCents = discount.AmountCents(totals.SubtotalCents)
	totals.TotalCents = totals.SubtotalCents + totals.TaxCents - totals.DiscountCents
	return totals
}
