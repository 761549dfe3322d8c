package invoicing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateLine(t *testing.T) {
	t.Run("quantity times price with line tax", func(t *testing.T) {
		got := CalculateLine(LineInput{Quantity: qty("2"), UnitPriceCents: 250000, TaxPercent: Tax(7)}, NoTax)
		assert.Equal(t, int64(500000), got.SubtotalCents)
		assert.Equal(t, int64(35000), got.TaxCents)
		assert.Equal(t, int64(535000), got.TotalCents)
		assert.Equal(t, 7, got.TaxPercent)
	})

	t.Run("falls back to document tax", func(t *testing.T) {
		got := CalculateLine(LineInput{Quantity: qty("1"), UnitPriceCents: 1000}, Tax(10))
		assert.Equal(t, int64(100), got.TaxCents)
	})

	t.Run("line tax of zero overrides document tax", func(t *testing.T) {
		got := CalculateLine(LineInput{Quantity: qty("1"), UnitPriceCents: 1000, TaxPercent: Tax(0)}, Tax(10))
		assert.Equal(t, int64(0), got.TaxCents)
	})

	t.Run("no tax configured anywhere", func(t *testing.T) {
		got := CalculateLine(LineInput{Quantity: qty("3"), UnitPriceCents: 333}, NoTax)
		assert.Equal(t, int64(999), got.SubtotalCents)
		assert.Equal(t, int64(0), got.TaxCents)
	})

	t.Run("fractional quantity rounds half up", func(t *testing.T) {
		got := CalculateLine(LineInput{Quantity: qty("0.5"), UnitPriceCents: 101}, NoTax)
		assert.Equal(t, int64(51), got.SubtotalCents)
	})

	t.Run("tax rounds half up", func(t *testing.T) {
		// 150 * 5% = 7.5
		got := CalculateLine(LineInput{Quantity: qty("1"), UnitPriceCents: 150, TaxPercent: Tax(5)}, NoTax)
		assert.Equal(t, int64(8), got.TaxCents)
	})
}

func TestCalculateTotals(t *testing.T) {
	t.Run("document tax and no discount", func(t *testing.T) {
		lines := []LineInput{
			{Quantity: qty("1"), UnitPriceCents: 500000},
			{Quantity: qty("2"), UnitPriceCents: 142500},
		}
		got := CalculateTotals(lines, Tax(7), NoDiscount())
		assert.Equal(t, int64(785000), got.SubtotalCents)
		assert.Equal(t, int64(54950), got.TaxCents)
		assert.Equal(t, int64(0), got.DiscountCents)
		assert.Equal(t, int64(839950), got.TotalCents)
		assert.Len(t, got.Lines, 2)
	})

	t.Run("percent discount on subtotal", func(t *testing.T) {
		lines := []LineInput{{Quantity: qty("1"), UnitPriceCents: 10001}}
		got := CalculateTotals(lines, NoTax, PercentDiscount(qty("50")))
		assert.Equal(t, int64(5001), got.DiscountCents)
		assert.Equal(t, int64(5000), got.TotalCents)
	})

	t.Run("fixed discount can make total negative", func(t *testing.T) {
		lines := []LineInput{{Quantity: qty("1"), UnitPriceCents: 1000}}
		got := CalculateTotals(lines, NoTax, FixedDiscount(2500))
		assert.Equal(t, int64(-1500), got.TotalCents)
	})

	t.Run("empty document", func(t *testing.T) {
		got := CalculateTotals(nil, Tax(7), NoDiscount())
		assert.Equal(t, int64(0), got.TotalCents)
		assert.Empty(t, got.Lines)
	})

	t.Run("same input gives same output", func(t *testing.T) {
		lines := []LineInput{
			{Quantity: qty("1.333"), UnitPriceCents: 9999, TaxPercent: Tax(19)},
			{Quantity: qty("7"), UnitPriceCents: 45},
		}
		first := CalculateTotals(lines, Tax(7), PercentDiscount(qty("12.5")))
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, CalculateTotals(lines, Tax(7), PercentDiscount(qty("12.5"))))
		}
	})
}

func TestDiscount(t *testing.T) {
	t.Run("parse variants", func(t *testing.T) {
		d, err := ParseDiscount(DiscountTypePercent, qty("10"))
		require.NoError(t, err)
		assert.Equal(t, DiscountTypePercent, d.Type())
		assert.True(t, d.Value().Equal(qty("10")))

		d, err = ParseDiscount(DiscountTypeFixed, qty("1500"))
		require.NoError(t, err)
		assert.Equal(t, int64(1500), d.AmountCents(99999))

		d, err = ParseDiscount("", decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, DiscountTypeNone, d.Type())
	})

	t.Run("fixed discount must be whole cents", func(t *testing.T) {
		_, err := ParseDiscount(DiscountTypeFixed, qty("10.5"))
		assert.Error(t, err)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := ParseDiscount("BOGO", qty("1"))
		assert.Error(t, err)
	})

	t.Run("validation ranges", func(t *testing.T) {
		assert.Error(t, PercentDiscount(qty("101")).Validate())
		assert.Error(t, PercentDiscount(qty("-1")).Validate())
		assert.Error(t, FixedDiscount(-1).Validate())
		assert.NoError(t, NoDiscount().Validate())
		assert.NoError(t, Discount{}.Validate())
	})
}

func TestResolveTaxPercent(t *testing.T) {
	assert.Equal(t, 5, ResolveTaxPercent(Tax(5), Tax(20)))
	assert.Equal(t, 20, ResolveTaxPercent(NoTax, Tax(20)))
	assert.Equal(t, 0, ResolveTaxPercent(NoTax, NoTax))
	assert.Nil(t, NoTax.Ptr())
	assert.Equal(t, 7, *Tax(7).Ptr())
	assert.Equal(t, Tax(3), TaxFromPtr(Tax(3).Ptr()))
}
