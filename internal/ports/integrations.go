package ports

import (
	"context"

	"github.com/voltgrid/voltgrid/internal/domain"
)

// RefundIntegration is the pluggable external refund system. Optional
// per tenant: call sites must treat an absent integration as "no
// constraint", never as an error, except where an operation cannot
// proceed without one.
type RefundIntegration interface {
	// Submit sends a batch of transactions for refund on behalf of the
	// acting user and returns the subset the vendor accepted. Accepted
	// transactions come back with RefundData populated.
	Submit(ctx context.Context, tenantID string, actingUser *domain.User, txs []*domain.Transaction) ([]*domain.Transaction, error)
	// CanDelete reports whether the integration permits deleting the
	// transaction. A pending or settled refund blocks deletion.
	CanDelete(tx *domain.Transaction) bool
	// Reconcile pulls the vendor-side refund state for the tenant and
	// folds it back into local refund data. Safe to re-run; a partial
	// run leaves the remainder for the next one.
	Reconcile(ctx context.Context, tenantID string) error
}

// BillingIntegration is the pluggable external invoicing system,
// consumed here only as a read-only oracle for deletion eligibility.
type BillingIntegration interface {
	IsTransactionBilled(tx *domain.Transaction) bool
}

// IntegrationFactory hands out per-tenant integration handles. Handles
// are constructed once per tenant and safe for concurrent reuse.
type IntegrationFactory interface {
	// Refund returns the tenant's refund integration. It returns an
	// IntegrationUnavailableError when the tenant has the refund
	// component enabled but no usable implementation, and (nil, nil)
	// when the component is simply not enabled.
	Refund(ctx context.Context, tenantID string) (RefundIntegration, error)
	// Billing returns the tenant's billing integration, or nil when the
	// component is not enabled.
	Billing(ctx context.Context, tenantID string) (BillingIntegration, error)
	// Tenant resolves the tenant configuration, cached.
	Tenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
}
