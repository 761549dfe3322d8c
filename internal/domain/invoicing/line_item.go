package invoicing

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/shared"
)

const maxDescriptionLength = 500

// LineItem is a line of an invoice or a quote. It is owned by exactly one document.
type LineItem struct {
	ID             uuid.UUID
	Position       int
	Description    string
	Quantity       decimal.Decimal
	UnitPriceCents int64
	Unit           string
	TaxPercent     TaxPercent
}

// NewLineItem creates a validated line item
func NewLineItem(description string, quantity decimal.Decimal, unitPriceCents int64, unit string, tax TaxPercent) (LineItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return LineItem{}, shared.ValidationError("line item description cannot be empty")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return LineItem{}, shared.ValidationError("line item description cannot exceed %d characters", maxDescriptionLength)
	}
	if !quantity.IsPositive() {
		return LineItem{}, shared.ValidationError("line item quantity must be positive")
	}
	if unitPriceCents < 0 {
		return LineItem{}, shared.ValidationError("line item unit price cannot be negative")
	}
	if err := tax.Validate(); err != nil {
		return LineItem{}, shared.ValidationError("%s", err.Error())
	}
	return LineItem{
		ID:             uuid.New(),
		Description:    description,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		Unit:           unit,
		TaxPercent:     tax,
	}, nil
}

// LineItemFromProduct copies the catalog defaults of a product into a new line item.
// The line keeps no reference to the product afterwards.
func LineItemFromProduct(p *Product, quantity decimal.Decimal) (LineItem, error) {
	description := p.Description
	if description == "" {
		description = p.Name
	}
	return NewLineItem(description, quantity, p.UnitPriceCents, p.Unit, p.TaxPercent)
}

// Input returns the money-relevant view of the line.
func (l LineItem) Input() LineInput {
	return LineInput{
		Quantity:       l.Quantity,
		UnitPriceCents: l.UnitPriceCents,
		TaxPercent:     l.TaxPercent,
	}
}

// clone copies the line under a new identity.
func (l LineItem) clone() LineItem {
	l.ID = uuid.New()
	return l
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = item.clone()
		out[i].Position = i + 1
	}
	return out
}

func lineInputs(items []LineItem) []LineInput {
	inputs := make([]LineInput, len(items))
	for i, item := range items {
		inputs[i] = item.Input()
	}
	return inputs
}

func numberItems(items []LineItem) []LineItem {
	for i := range items {
		items[i].Position = i + 1
	}
	return items
}
