package invoicing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/invoicing"
)

// Sequencer produces document numbers and hosted-page tokens
type Sequencer struct {
	ids   invoicing.IDGenerator
	clock Clock
}

// NewSequencer creates a Sequencer
func NewSequencer(ids invoicing.IDGenerator, clock Clock) *Sequencer {
	return &Sequencer{ids: ids, clock: clock}
}

// NextInvoiceNumber reserves the next invoice number of the organization.
// repos must be transactional: the counter increment commits or rolls back with the invoice.
func (s *Sequencer) NextInvoiceNumber(ctx context.Context, repos Repositories, org *invoicing.Organization) (string, error) {
	seq, err := repos.Organizations().NextInvoiceSequence(ctx, org.ID)
	if err != nil {
		return "", fmt.Errorf("failed to reserve invoice number: %w", err)
	}
	return invoicing.FormatInvoiceNumber(org.Prefix(), s.clock.Now().UTC().Year(), seq), nil
}

// NextQuoteNumber probes count+1, count+2, ... for a free quote number and falls back to a
// timestamp suffix. Two concurrent callers can pick the same candidate; the unique index then
// rejects one of them with CONCURRENCY_CONFLICT.
func (s *Sequencer) NextQuoteNumber(ctx context.Context, repos Repositories, tenantID uuid.UUID) (string, error) {
	count, err := repos.Quotes().CountForTenant(ctx, tenantID)
	if err != nil {
		return "", fmt.Errorf("failed to count quotes: %w", err)
	}
	now := s.clock.Now().UTC()
	for attempt := int64(0); attempt < invoicing.QuoteNumberAttempts; attempt++ {
		candidate := invoicing.FormatQuoteNumber(now.Year(), count+1+attempt)
		exists, err := repos.Quotes().ExistsByNumber(ctx, tenantID, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check quote number: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return invoicing.QuoteFallbackNumber(now), nil
}

// CreditNoteNumber returns a CN-{YYYY}-{HEX6} number
func (s *Sequencer) CreditNoteNumber() string {
	return invoicing.CreditNoteNumber(s.ids, s.clock.Now())
}

// ReceiptNumber returns a RCT-{YYYY}-{HEX6} number
func (s *Sequencer) ReceiptNumber() string {
	return invoicing.ReceiptNumber(s.ids, s.clock.Now())
}

// Token returns a fresh hosted-page token
func (s *Sequencer) Token() string {
	return s.ids.Token()
}
