package integration

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func tenantWith(components domain.TenantComponents) *domain.Tenant {
	return &domain.Tenant{
		ID:         "tenant-1",
		Name:       "Acme Charging",
		Components: components,
	}
}

func TestRefund_ComponentDisabled(t *testing.T) {
	// Arrange
	tenants := &mocks.MockTenantRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Tenant, error) {
			return tenantWith(domain.TenantComponents{}), nil
		},
	}
	factory := NewFactory(tenants, mocks.NewMockCache(), Config{StripeRefund: &mocks.MockRefundIntegration{}}, newTestLogger())

	// Act
	integration, err := factory.Refund(context.Background(), "tenant-1")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if integration != nil {
		t.Error("expected no integration for a disabled component")
	}
}

func TestRefund_EnabledWithStripe(t *testing.T) {
	// Arrange
	stripeAdapter := &mocks.MockRefundIntegration{}
	tenants := &mocks.MockTenantRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Tenant, error) {
			return tenantWith(domain.TenantComponents{
				Refund: domain.ComponentConfig{Enabled: true, Vendor: "stripe"},
			}), nil
		},
	}
	factory := NewFactory(tenants, mocks.NewMockCache(), Config{StripeRefund: stripeAdapter}, newTestLogger())

	// Act
	integration, err := factory.Refund(context.Background(), "tenant-1")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if integration == nil {
		t.Fatal("expected the stripe adapter")
	}
}

// A tenant claiming a vendor with no configured adapter gets an
// explicit unavailability error, not a silent nil.
func TestRefund_EnabledButUnusable(t *testing.T) {
	// Arrange
	tenants := &mocks.MockTenantRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Tenant, error) {
			return tenantWith(domain.TenantComponents{
				Refund: domain.ComponentConfig{Enabled: true, Vendor: "unknown-vendor"},
			}), nil
		},
	}
	factory := NewFactory(tenants, mocks.NewMockCache(), Config{StripeRefund: &mocks.MockRefundIntegration{}}, newTestLogger())

	// Act
	_, err := factory.Refund(context.Background(), "tenant-1")

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, ok := err.(*domain.IntegrationUnavailableError); !ok {
		t.Errorf("expected IntegrationUnavailableError, got %T", err)
	}
}

func TestBilling_EnabledWithStripe(t *testing.T) {
	// Arrange
	tenants := &mocks.MockTenantRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Tenant, error) {
			return tenantWith(domain.TenantComponents{
				Billing: domain.ComponentConfig{Enabled: true, Vendor: "stripe"},
			}), nil
		},
	}
	factory := NewFactory(tenants, mocks.NewMockCache(), Config{StripeBilling: &mocks.MockBillingIntegration{}}, newTestLogger())

	// Act
	integration, err := factory.Billing(context.Background(), "tenant-1")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if integration == nil {
		t.Fatal("expected the stripe billing adapter")
	}
}

func TestTenant_CachedAfterFirstLoad(t *testing.T) {
	// Arrange
	loads := 0
	tenants := &mocks.MockTenantRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Tenant, error) {
			loads++
			return tenantWith(domain.TenantComponents{}), nil
		},
	}
	factory := NewFactory(tenants, mocks.NewMockCache(), Config{}, newTestLogger())

	// Act
	for i := 0; i < 3; i++ {
		if _, err := factory.Tenant(context.Background(), "tenant-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	// Assert
	if loads != 1 {
		t.Errorf("expected one repository load, got %d", loads)
	}
}

func TestTenant_NotFound(t *testing.T) {
	// Arrange
	tenants := &mocks.MockTenantRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Tenant, error) {
			return nil, nil
		},
	}
	factory := NewFactory(tenants, mocks.NewMockCache(), Config{}, newTestLogger())

	// Act
	_, err := factory.Tenant(context.Background(), "ghost")

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, ok := err.(*domain.NotFoundError); !ok {
		t.Errorf("expected NotFoundError, got %T", err)
	}
}
