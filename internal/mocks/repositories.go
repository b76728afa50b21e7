package mocks

import (
	"context"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	FindByIDFunc        func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error)
	SearchFunc          func(ctx context.Context, tenantID string, filter ports.TransactionFilter, page ports.Pagination) (*ports.TransactionPage, error)
	SaveFunc            func(ctx context.Context, tx *domain.Transaction) error
	DeleteByIDsFunc     func(ctx context.Context, tenantID string, ids []int) (int64, error)
	ReassignToUserFunc  func(ctx context.Context, tenantID string, user *domain.User) (int64, error)
	YearsWithDataFunc   func(ctx context.Context, tenantID string) ([]int, error)
	CountUnassignedFunc func(ctx context.Context, tenantID string, user *domain.User) (int64, error)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tenantID, id)
	}
	return nil, nil
}

func (m *MockTransactionRepository) Search(ctx context.Context, tenantID string, filter ports.TransactionFilter, page ports.Pagination) (*ports.TransactionPage, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, tenantID, filter, page)
	}
	return &ports.TransactionPage{}, nil
}

func (m *MockTransactionRepository) Save(ctx context.Context, tx *domain.Transaction) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx)
	}
	return nil
}

func (m *MockTransactionRepository) DeleteByIDs(ctx context.Context, tenantID string, ids []int) (int64, error) {
	if m.DeleteByIDsFunc != nil {
		return m.DeleteByIDsFunc(ctx, tenantID, ids)
	}
	return 0, nil
}

func (m *MockTransactionRepository) ReassignToUser(ctx context.Context, tenantID string, user *domain.User) (int64, error) {
	if m.ReassignToUserFunc != nil {
		return m.ReassignToUserFunc(ctx, tenantID, user)
	}
	return 0, nil
}

func (m *MockTransactionRepository) YearsWithData(ctx context.Context, tenantID string) ([]int, error) {
	if m.YearsWithDataFunc != nil {
		return m.YearsWithDataFunc(ctx, tenantID)
	}
	return nil, nil
}

func (m *MockTransactionRepository) CountUnassigned(ctx context.Context, tenantID string, user *domain.User) (int64, error) {
	if m.CountUnassignedFunc != nil {
		return m.CountUnassignedFunc(ctx, tenantID, user)
	}
	return 0, nil
}

// MockChargingStationRepository is a mock implementation of ChargingStationRepository
type MockChargingStationRepository struct {
	FindByIDFunc func(ctx context.Context, tenantID, id string) (*domain.ChargingStation, error)
	SaveFunc     func(ctx context.Context, station *domain.ChargingStation) error
}

func (m *MockChargingStationRepository) FindByID(ctx context.Context, tenantID, id string) (*domain.ChargingStation, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tenantID, id)
	}
	return nil, nil
}

func (m *MockChargingStationRepository) Save(ctx context.Context, station *domain.ChargingStation) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, station)
	}
	return nil
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	FindByIDFunc func(ctx context.Context, tenantID, id string) (*domain.User, error)
}

func (m *MockUserRepository) FindByID(ctx context.Context, tenantID, id string) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tenantID, id)
	}
	return nil, nil
}

// MockTenantRepository is a mock implementation of TenantRepository
type MockTenantRepository struct {
	FindByIDFunc func(ctx context.Context, id string) (*domain.Tenant, error)
	FindAllFunc  func(ctx context.Context) ([]domain.Tenant, error)
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockTenantRepository) FindAll(ctx context.Context) ([]domain.Tenant, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return nil, nil
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	GetByIDFunc                   func(ctx context.Context, tenantID, id string) (*domain.Payment, error)
	GetCompletedByTransactionFunc func(ctx context.Context, tenantID string, transactionID int) (*domain.Payment, error)
	SaveRefundFunc                func(ctx context.Context, refund *domain.Refund) error
	GetRefundByProviderIDFunc     func(ctx context.Context, tenantID, providerID string) (*domain.Refund, error)
	ListPendingRefundsFunc        func(ctx context.Context, tenantID string) ([]domain.Refund, error)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tenantID, id)
	}
	return nil, nil
}

func (m *MockPaymentRepository) GetCompletedByTransaction(ctx context.Context, tenantID string, transactionID int) (*domain.Payment, error) {
	if m.GetCompletedByTransactionFunc != nil {
		return m.GetCompletedByTransactionFunc(ctx, tenantID, transactionID)
	}
	return nil, nil
}

func (m *MockPaymentRepository) SaveRefund(ctx context.Context, refund *domain.Refund) error {
	if m.SaveRefundFunc != nil {
		return m.SaveRefundFunc(ctx, refund)
	}
	return nil
}

func (m *MockPaymentRepository) GetRefundByProviderID(ctx context.Context, tenantID, providerID string) (*domain.Refund, error) {
	if m.GetRefundByProviderIDFunc != nil {
		return m.GetRefundByProviderIDFunc(ctx, tenantID, providerID)
	}
	return nil, nil
}

func (m *MockPaymentRepository) ListPendingRefunds(ctx context.Context, tenantID string) ([]domain.Refund, error) {
	if m.ListPendingRefundsFunc != nil {
		return m.ListPendingRefundsFunc(ctx, tenantID)
	}
	return nil, nil
}

// MockMeterValueRepository is a function-field mock for ports.MeterValueRepository.
type MockMeterValueRepository struct {
	ListByTransactionFunc func(ctx context.Context, tenantID string, transactionID int) ([]domain.MeterValue, error)
	ReplaceSamplesFunc    func(ctx context.Context, tenantID string, transactionID int, samples []domain.ConsumptionSample) error
}

func (m *MockMeterValueRepository) ListByTransaction(ctx context.Context, tenantID string, transactionID int) ([]domain.MeterValue, error) {
	if m.ListByTransactionFunc != nil {
		return m.ListByTransactionFunc(ctx, tenantID, transactionID)
	}
	return nil, nil
}

func (m *MockMeterValueRepository) ReplaceSamples(ctx context.Context, tenantID string, transactionID int, samples []domain.ConsumptionSample) error {
	if m.ReplaceSamplesFunc != nil {
		return m.ReplaceSamplesFunc(ctx, tenantID, transactionID, samples)
	}
	return nil
}
