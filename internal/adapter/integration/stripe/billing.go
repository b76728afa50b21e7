package stripe

import (
	"github.com/voltgrid/voltgrid/internal/domain"
)

// BillingIntegration answers invoicing questions off the billing
// snapshot the invoicing pipeline writes onto each transaction. No
// vendor round-trip is needed: an issued invoice always leaves its id
// behind.
type BillingIntegration struct{}

func NewBillingIntegration() *BillingIntegration {
	return &BillingIntegration{}
}

// IsTransactionBilled reports whether an invoice was issued for the
// transaction. Billed transactions are locked against deletion.
func (b *BillingIntegration) IsTransactionBilled(tx *domain.Transaction) bool {
	return tx.HasInvoice()
}
