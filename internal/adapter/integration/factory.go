package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/adapter/integration/stripe"
	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

const tenantCacheTTL = 5 * time.Minute

// Factory resolves per-tenant integration handles from the tenant's
// component configuration. Vendor adapters are shared across tenants;
// the tenant config decides who gets a handle.
type Factory struct {
	tenants ports.TenantRepository
	cache   ports.Cache
	refund  ports.RefundIntegration
	billing ports.BillingIntegration
	log     *zap.Logger
}

// Config wires the vendor adapters the factory can hand out. A nil
// adapter means the vendor is not configured in this deployment.
type Config struct {
	StripeRefund  ports.RefundIntegration
	StripeBilling ports.BillingIntegration
}

func NewFactory(tenants ports.TenantRepository, cache ports.Cache, cfg Config, log *zap.Logger) ports.IntegrationFactory {
	return &Factory{
		tenants: tenants,
		cache:   cache,
		refund:  cfg.StripeRefund,
		billing: cfg.StripeBilling,
		log:     log,
	}
}

// Refund returns the tenant's refund integration. (nil, nil) when the
// component is not enabled; IntegrationUnavailableError when it is
// enabled but no adapter matches the configured vendor.
func (f *Factory) Refund(ctx context.Context, tenantID string) (ports.RefundIntegration, error) {
	tenant, err := f.Tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	component := tenant.Components.Refund
	if !component.Enabled {
		return nil, nil
	}
	if component.Vendor == string(domain.RefundVendorStripe) && f.refund != nil {
		return f.refund, nil
	}
	return nil, &domain.IntegrationUnavailableError{TenantID: tenantID, Integration: "refund"}
}

// Billing returns the tenant's billing integration, or (nil, nil) when
// the component is not enabled.
func (f *Factory) Billing(ctx context.Context, tenantID string) (ports.BillingIntegration, error) {
	tenant, err := f.Tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	component := tenant.Components.Billing
	if !component.Enabled {
		return nil, nil
	}
	if component.Vendor == string(domain.BillingVendorStripe) && f.billing != nil {
		return f.billing, nil
	}
	return nil, &domain.IntegrationUnavailableError{TenantID: tenantID, Integration: "billing"}
}

// Tenant resolves the tenant configuration through the cache. A cache
// outage degrades to a direct repository read.
func (f *Factory) Tenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	key := tenantCacheKey(tenantID)

	if cached, err := f.cache.Get(ctx, key); err == nil && cached != "" {
		var tenant domain.Tenant
		if err := json.Unmarshal([]byte(cached), &tenant); err == nil {
			return &tenant, nil
		}
		f.log.Warn("Discarding unreadable cached tenant", zap.String("tenant_id", tenantID))
	}

	tenant, err := f.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant %s: %w", tenantID, err)
	}
	if tenant == nil {
		return nil, domain.NewNotFoundError("tenant", tenantID)
	}

	if data, err := json.Marshal(tenant); err == nil {
		if err := f.cache.Set(ctx, key, data, tenantCacheTTL); err != nil {
			f.log.Warn("Failed to cache tenant", zap.String("tenant_id", tenantID), zap.Error(err))
		}
	}

	return tenant, nil
}

// NewDefault builds the factory with the Stripe adapters wired in when
// a secret key is configured.
func NewDefault(secretKey string, tenants ports.TenantRepository, payments ports.PaymentRepository, txs ports.TransactionRepository, cache ports.Cache, log *zap.Logger) ports.IntegrationFactory {
	cfg := Config{}
	if secretKey != "" {
		cfg.StripeRefund = stripe.NewRefundIntegration(secretKey, payments, txs, log)
		cfg.StripeBilling = stripe.NewBillingIntegration()
	}
	return NewFactory(tenants, cache, cfg, log)
}

func tenantCacheKey(tenantID string) string {
	return "tenant:" + tenantID
}
