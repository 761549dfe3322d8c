package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/invoicing"
)

// LineItemColumns are the columns shared by invoice and quote line items
type LineItemColumns struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	Position       int             `gorm:"not null"`
	Description    string          `gorm:"type:varchar(500);not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPriceCents int64           `gorm:"not null"`
	Unit           string          `gorm:"type:varchar(32)"`
	TaxPercent     *int
}

func (c LineItemColumns) toDomain() invoicing.LineItem {
	return invoicing.LineItem{
		ID:             c.ID,
		Position:       c.Position,
		Description:    c.Description,
		Quantity:       c.Quantity,
		UnitPriceCents: c.UnitPriceCents,
		Unit:           c.Unit,
		TaxPercent:     invoicing.TaxFromPtr(c.TaxPercent),
	}
}

func lineItemColumns(item invoicing.LineItem) LineItemColumns {
	id := item.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return LineItemColumns{
		ID:             id,
		Position:       item.Position,
		Description:    item.Description,
		Quantity:       item.Quantity,
		UnitPriceCents: item.UnitPriceCents,
		Unit:           item.Unit,
		TaxPercent:     item.TaxPercent.Ptr(),
	}
}

// discountFromColumns rebuilds a discount. Rows are written from validated discounts, so an
// unreadable pair falls back to no discount.
func discountFromColumns(kind string, value decimal.Decimal) invoicing.Discount {
	d, err := invoicing.ParseDiscount(invoicing.DiscountType(kind), value)
	if err != nil {
		return invoicing.NoDiscount()
	}
	return d
}
