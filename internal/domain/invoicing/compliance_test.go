package invoicing

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildComplianceSnapshot(t *testing.T) {
	org := &Organization{Name: "Acme GmbH", CountryCode: "DE", TaxID: "DE123456789", Currency: "EUR"}
	customer := &Customer{Name: "Buyer BV", Email: "ap@buyer.nl", CountryCode: "NL", TaxID: "NL999"}
	inv := newTestInvoice(uuid.New(),
		mustLine("Licence", "2", 10000, Tax(19)),
		mustLine("Support", "1", 5000, NoTax),
	)
	inv.Notes = "Thank you"

	snap := BuildComplianceSnapshot(org, customer, inv)

	assert.Equal(t, "DE123456789", snap.Org.TaxID)
	assert.Equal(t, "ap@buyer.nl", snap.Customer.Email)
	assert.Equal(t, inv.Number, snap.Invoice.Number)
	assert.Equal(t, "Thank you", snap.Invoice.Notes)
	require.Len(t, snap.LineItems, 2)
	assert.Equal(t, 19, snap.LineItems[0].TaxPercent)
	assert.Equal(t, 7, snap.LineItems[1].TaxPercent, "line without a rate uses the invoice rate")

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"org", "customer", "invoice", "lineItems"} {
		assert.Contains(t, decoded, key)
	}
	line := decoded["lineItems"].([]any)[0].(map[string]any)
	assert.Contains(t, line, "unitPriceCents")
	assert.Contains(t, line, "taxPercent")
}
