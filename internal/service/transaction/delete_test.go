package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/mocks"
	"github.com/voltgrid/voltgrid/internal/ports"
)

func refundedTransaction(id int) *domain.Transaction {
	tx := completedTransaction(id)
	tx.RefundData = &domain.RefundData{
		RefundID: "re_123",
		Status:   domain.RefundStatusSubmitted,
	}
	return tx
}

func factoryWith(refund ports.RefundIntegration, billing ports.BillingIntegration) *mocks.MockIntegrationFactory {
	return &mocks.MockIntegrationFactory{
		RefundFunc: func(ctx context.Context, tenantID string) (ports.RefundIntegration, error) {
			return refund, nil
		},
		BillingFunc: func(ctx context.Context, tenantID string) (ports.BillingIntegration, error) {
			return billing, nil
		},
	}
}

func TestDeleteTransactions_EmptyIDs(t *testing.T) {
	// Arrange
	ctx := context.Background()
	service := newTestService(nil, nil, nil, nil, nil)

	// Act
	_, err := service.DeleteTransactions(ctx, adminActor(), nil)

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, ok := err.(*domain.ValidationError); !ok {
		t.Errorf("expected ValidationError, got %T", err)
	}
}

func TestDeleteTransactions_Unauthorized(t *testing.T) {
	// Arrange
	ctx := context.Background()
	authz := &mocks.MockAuthorizer{
		CanFunc: func(ctx context.Context, actor ports.Actor, action ports.Action, entity ports.Entity, instance string) bool {
			return false
		},
	}
	service := NewService(
		&mocks.MockTransactionRepository{},
		&mocks.MockChargingStationRepository{},
		&mocks.MockUserRepository{},
		&mocks.MockIntegrationFactory{},
		&mocks.MockRoamingService{},
		&mocks.MockConsumptionService{},
		authz,
		mocks.NewMockMessageQueue(),
		newTestLogger(),
	)

	// Act
	result, err := service.DeleteTransactions(ctx, adminActor(), []int{1, 2})

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, ok := err.(*domain.AuthorizationError); !ok {
		t.Errorf("expected AuthorizationError, got %T", err)
	}
	if result != nil {
		t.Error("expected no batch result on an authorization failure")
	}
}

// A batch where every item is eligible deletes everything in one store
// call and reports no errors.
func TestDeleteTransactions_AllEligible(t *testing.T) {
	// Arrange
	ctx := context.Background()
	var deletedIDs []int
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			return completedTransaction(id), nil
		},
		DeleteByIDsFunc: func(ctx context.Context, tenantID string, ids []int) (int64, error) {
			deletedIDs = ids
			return int64(len(ids)), nil
		},
	}
	mq := mocks.NewMockMessageQueue()
	service := newTestService(txRepo, nil, nil, factoryWith(&mocks.MockRefundIntegration{}, &mocks.MockBillingIntegration{}), mq)

	// Act
	result, err := service.DeleteTransactions(ctx, adminActor(), []int{1, 2, 3})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.InSuccess != 3 {
		t.Errorf("expected 3 in success, got %d", result.InSuccess)
	}
	if result.InError != 0 {
		t.Errorf("expected 0 in error, got %d", result.InError)
	}
	if len(deletedIDs) != 3 {
		t.Errorf("expected a single bulk delete of 3 ids, got %v", deletedIDs)
	}
	if len(mq.GetPublishedMessages(SubjectTransactionsDeleted)) != 1 {
		t.Error("expected one deletion event published")
	}
}

// Missing ids and refund-locked ids are counted in error while the
// rest of the batch is still deleted.
func TestDeleteTransactions_PartialFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			switch id {
			case 1:
				return nil, nil // missing
			case 2:
				return refundedTransaction(2), nil
			default:
				return completedTransaction(id), nil
			}
		},
		DeleteByIDsFunc: func(ctx context.Context, tenantID string, ids []int) (int64, error) {
			return int64(len(ids)), nil
		},
	}
	refund := &mocks.MockRefundIntegration{
		CanDeleteFunc: func(tx *domain.Transaction) bool {
			return !tx.IsRefunded()
		},
	}
	service := newTestService(txRepo, nil, nil, factoryWith(refund, &mocks.MockBillingIntegration{}), nil)

	// Act
	result, err := service.DeleteTransactions(ctx, adminActor(), []int{1, 2, 3, 4})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.InSuccess != 2 {
		t.Errorf("expected 2 in success, got %d", result.InSuccess)
	}
	if result.InError != 2 {
		t.Errorf("expected 2 in error, got %d", result.InError)
	}
}

// An issued invoice blocks deletion when the tenant runs a billing
// integration.
func TestDeleteTransactions_InvoiceBlocks(t *testing.T) {
	// Arrange
	ctx := context.Background()
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			tx := completedTransaction(id)
			tx.BillingData = &domain.BillingData{InvoiceID: "inv-9"}
			return tx, nil
		},
	}
	billing := &mocks.MockBillingIntegration{
		IsTransactionBilledFunc: func(tx *domain.Transaction) bool {
			return tx.HasInvoice()
		},
	}
	service := newTestService(txRepo, nil, nil, factoryWith(nil, billing), nil)

	// Act
	result, err := service.DeleteTransactions(ctx, adminActor(), []int{5})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.InSuccess != 0 || result.InError != 1 {
		t.Errorf("expected 0/1, got %d/%d", result.InSuccess, result.InError)
	}
}

// Without any integration configured, financial state on the
// transaction imposes no constraint.
func TestDeleteTransactions_NoIntegrationsNoConstraints(t *testing.T) {
	// Arrange
	ctx := context.Background()
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			return refundedTransaction(id), nil
		},
		DeleteByIDsFunc: func(ctx context.Context, tenantID string, ids []int) (int64, error) {
			return int64(len(ids)), nil
		},
	}
	service := newTestService(txRepo, nil, nil, factoryWith(nil, nil), nil)

	// Act
	result, err := service.DeleteTransactions(ctx, adminActor(), []int{1})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.InSuccess != 1 || result.InError != 0 {
		t.Errorf("expected 1/0, got %d/%d", result.InSuccess, result.InError)
	}
}

// Deleting an active transaction releases the connector still bound to
// it before the row disappears.
func TestDeleteTransactions_ActiveReleasesConnector(t *testing.T) {
	// Arrange
	ctx := context.Background()
	active := completedTransaction(10)
	active.Stop = nil

	station := &domain.ChargingStation{
		TenantID: "tenant-1",
		ID:       "CB-01",
		Connectors: []domain.Connector{
			{ID: 1, Status: domain.ConnectorStatusCharging, CurrentTransactionID: 10, CurrentTagID: "tag-42"},
		},
	}
	var savedStation *domain.ChargingStation
	stationRepo := &mocks.MockChargingStationRepository{
		FindByIDFunc: func(ctx context.Context, tenantID, id string) (*domain.ChargingStation, error) {
			return station, nil
		},
		SaveFunc: func(ctx context.Context, s *domain.ChargingStation) error {
			savedStation = s
			return nil
		},
	}
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			return active, nil
		},
		DeleteByIDsFunc: func(ctx context.Context, tenantID string, ids []int) (int64, error) {
			return int64(len(ids)), nil
		},
	}
	service := newTestService(txRepo, stationRepo, nil, factoryWith(nil, nil), nil)

	// Act
	result, err := service.DeleteTransactions(ctx, adminActor(), []int{10})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.InSuccess != 1 {
		t.Errorf("expected 1 in success, got %d", result.InSuccess)
	}
	if savedStation == nil {
		t.Fatal("expected the station to be persisted")
	}
	connector := savedStation.ConnectorByID(1)
	if connector.CurrentTransactionID != 0 {
		t.Errorf("expected connector binding cleared, got %d", connector.CurrentTransactionID)
	}
	if connector.Status != domain.ConnectorStatusAvailable {
		t.Errorf("expected connector available, got %s", connector.Status)
	}
}

// A station that no longer exists never blocks the deletion.
func TestDeleteTransactions_ActiveMissingStation(t *testing.T) {
	// Arrange
	ctx := context.Background()
	active := completedTransaction(11)
	active.Stop = nil
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			return active, nil
		},
		DeleteByIDsFunc: func(ctx context.Context, tenantID string, ids []int) (int64, error) {
			return int64(len(ids)), nil
		},
	}
	service := newTestService(txRepo, nil, nil, factoryWith(nil, nil), nil)

	// Act
	result, err := service.DeleteTransactions(ctx, adminActor(), []int{11})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.InSuccess != 1 {
		t.Errorf("expected 1 in success, got %d", result.InSuccess)
	}
}

// InSuccess reports what the store actually deleted, not what was
// requested: rows deleted concurrently shrink the count.
func TestDeleteTransactions_StoreDeletesFewerRows(t *testing.T) {
	// Arrange
	ctx := context.Background()
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			return completedTransaction(id), nil
		},
		DeleteByIDsFunc: func(ctx context.Context, tenantID string, ids []int) (int64, error) {
			return int64(len(ids) - 1), nil
		},
	}
	service := newTestService(txRepo, nil, nil, factoryWith(nil, nil), nil)

	// Act
	result, err := service.DeleteTransactions(ctx, adminActor(), []int{1, 2, 3})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.InSuccess != 2 {
		t.Errorf("expected 2 in success, got %d", result.InSuccess)
	}
}

// A store failure while loading one id counts that id as InError and
// the batch carries on.
func TestDeleteTransactions_UnreadableIDCountsAsError(t *testing.T) {
	// Arrange
	ctx := context.Background()
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			if id == 2 {
				return nil, errors.New("connection reset")
			}
			return completedTransaction(id), nil
		},
		DeleteByIDsFunc: func(ctx context.Context, tenantID string, ids []int) (int64, error) {
			return int64(len(ids)), nil
		},
	}
	service := newTestService(txRepo, nil, nil, nil, nil)

	// Act
	result, err := service.DeleteTransactions(ctx, adminActor(), []int{1, 2, 3})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.InSuccess != 2 {
		t.Errorf("expected 2 deleted, got %d", result.InSuccess)
	}
	if result.InError != 1 {
		t.Errorf("expected 1 in error, got %d", result.InError)
	}
}

// The billing oracle may answer from vendor state, with no local
// invoice reference on the transaction.
func TestDeleteTransactions_InvoiceBlocksWithoutLocalBillingData(t *testing.T) {
	// Arrange
	ctx := context.Background()
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			return completedTransaction(id), nil
		},
	}
	billing := &mocks.MockBillingIntegration{
		IsTransactionBilledFunc: func(tx *domain.Transaction) bool {
			return true
		},
	}
	service := newTestService(txRepo, nil, nil, factoryWith(nil, billing), nil)

	// Act
	result, err := service.DeleteTransactions(ctx, adminActor(), []int{1})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.InSuccess != 0 || result.InError != 1 {
		t.Errorf("expected {0, 1}, got {%d, %d}", result.InSuccess, result.InError)
	}
}
