package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComplianceSnapshot is the canonical invoice representation handed to e-invoicing exporters
type ComplianceSnapshot struct {
	Org       ComplianceParty      `json:"org"`
	Customer  ComplianceCustomer   `json:"customer"`
	Invoice   ComplianceInvoice    `json:"invoice"`
	LineItems []ComplianceLineItem `json:"lineItems"`
}

// ComplianceParty describes the seller
type ComplianceParty struct {
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
	TaxID       string `json:"taxId"`
	Currency    string `json:"currency"`
}

// ComplianceCustomer describes the buyer
type ComplianceCustomer struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CountryCode string `json:"countryCode"`
	TaxID       string `json:"taxId"`
}

// ComplianceInvoice carries the invoice header
type ComplianceInvoice struct {
	ID        uuid.UUID `json:"id"`
	Number    string    `json:"number"`
	IssueDate time.Time `json:"issueDate"`
	DueDate   time.Time `json:"dueDate"`
	Currency  string    `json:"currency"`
	Notes     string    `json:"notes"`
}

// ComplianceLineItem carries one line. TaxPercent is the effective rate of the line.
type ComplianceLineItem struct {
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceCents int64           `json:"unitPriceCents"`
	TaxPercent     int             `json:"taxPercent"`
}

// BuildComplianceSnapshot assembles the snapshot of an invoice
func BuildComplianceSnapshot(org *Organization, customer *Customer, inv *Invoice) ComplianceSnapshot {
	lines := make([]ComplianceLineItem, len(inv.Items))
	for i, item := range inv.Items {
		lines[i] = ComplianceLineItem{
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TaxPercent:     ResolveTaxPercent(item.TaxPercent, inv.TaxPercent),
		}
	}
	return ComplianceSnapshot{
		Org: ComplianceParty{
			Name:        org.Name,
			CountryCode: org.CountryCode,
			TaxID:       org.TaxID,
			Currency:    org.Currency,
		},
		Customer: ComplianceCustomer{
			Name:        customer.Name,
			Email:       customer.Email,
			CountryCode: customer.CountryCode,
			TaxID:       customer.TaxID,
		},
		Invoice: ComplianceInvoice{
			ID:        inv.ID,
			Number:    inv.Number,
			IssueDate: inv.IssueDate,
			DueDate:   inv.DueDate,
			Currency:  inv.Currency,
			Notes:     inv.Notes,
		},
		LineItems: lines,
	}
}
