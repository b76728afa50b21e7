package mocks

import (
	"context"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

// MockAuthorizer is a mock implementation of Authorizer
type MockAuthorizer struct {
	CanFunc func(ctx context.Context, actor ports.Actor, action ports.Action, entity ports.Entity, instance string) bool
}

func (m *MockAuthorizer) Can(ctx context.Context, actor ports.Actor, action ports.Action, entity ports.Entity, instance string) bool {
	if m.CanFunc != nil {
		return m.CanFunc(ctx, actor, action, entity, instance)
	}
	return true
}

// MockRoamingService is a mock implementation of RoamingService
type MockRoamingService struct {
	BuildAndSendCDRFunc func(ctx context.Context, tenantID string, tx *domain.Transaction, station *domain.ChargingStation) (string, error)
}

func (m *MockRoamingService) BuildAndSendCDR(ctx context.Context, tenantID string, tx *domain.Transaction, station *domain.ChargingStation) (string, error) {
	if m.BuildAndSendCDRFunc != nil {
		return m.BuildAndSendCDRFunc(ctx, tenantID, tx, station)
	}
	return "", nil
}

// MockConsumptionService is a mock implementation of ConsumptionService
type MockConsumptionService struct {
	RebuildFunc func(ctx context.Context, tenantID string, transactionID int) (int, error)
}

func (m *MockConsumptionService) Rebuild(ctx context.Context, tenantID string, transactionID int) (int, error) {
	if m.RebuildFunc != nil {
		return m.RebuildFunc(ctx, tenantID, transactionID)
	}
	return 0, nil
}

// MockRefundIntegration is a mock implementation of RefundIntegration
type MockRefundIntegration struct {
	SubmitFunc    func(ctx context.Context, tenantID string, actingUser *domain.User, txs []*domain.Transaction) ([]*domain.Transaction, error)
	CanDeleteFunc func(tx *domain.Transaction) bool
	ReconcileFunc func(ctx context.Context, tenantID string) error
}

func (m *MockRefundIntegration) Submit(ctx context.Context, tenantID string, actingUser *domain.User, txs []*domain.Transaction) ([]*domain.Transaction, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, tenantID, actingUser, txs)
	}
	return txs, nil
}

func (m *MockRefundIntegration) CanDelete(tx *domain.Transaction) bool {
	if m.CanDeleteFunc != nil {
		return m.CanDeleteFunc(tx)
	}
	return true
}

func (m *MockRefundIntegration) Reconcile(ctx context.Context, tenantID string) error {
	if m.ReconcileFunc != nil {
		return m.ReconcileFunc(ctx, tenantID)
	}
	return nil
}

// MockBillingIntegration is a mock implementation of BillingIntegration
type MockBillingIntegration struct {
	IsTransactionBilledFunc func(tx *domain.Transaction) bool
}

func (m *MockBillingIntegration) IsTransactionBilled(tx *domain.Transaction) bool {
	if m.IsTransactionBilledFunc != nil {
		return m.IsTransactionBilledFunc(tx)
	}
	return false
}

// MockIntegrationFactory is a mock implementation of IntegrationFactory
type MockIntegrationFactory struct {
	RefundFunc  func(ctx context.Context, tenantID string) (ports.RefundIntegration, error)
	BillingFunc func(ctx context.Context, tenantID string) (ports.BillingIntegration, error)
	TenantFunc  func(ctx context.Context, tenantID string) (*domain.Tenant, error)
}

func (m *MockIntegrationFactory) Refund(ctx context.Context, tenantID string) (ports.RefundIntegration, error) {
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, tenantID)
	}
	return nil, nil
}

func (m *MockIntegrationFactory) Billing(ctx context.Context, tenantID string) (ports.BillingIntegration, error) {
	if m.BillingFunc != nil {
		return m.BillingFunc(ctx, tenantID)
	}
	return nil, nil
}

func (m *MockIntegrationFactory) Tenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	if m.TenantFunc != nil {
		return m.TenantFunc(ctx, tenantID)
	}
	return &domain.Tenant{ID: tenantID}, nil
}

