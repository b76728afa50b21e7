package transaction

import (
	"context"
	"testing"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/mocks"
	"github.com/voltgrid/voltgrid/internal/ports"
)

func roamedTransaction(id int) *domain.Transaction {
	tx := completedTransaction(id)
	tx.OCPIData = &domain.OCPIData{SessionID: "sess-abc"}
	return tx
}

func stationRepoWith(station *domain.ChargingStation) *mocks.MockChargingStationRepository {
	return &mocks.MockChargingStationRepository{
		FindByIDFunc: func(ctx context.Context, tenantID, id string) (*domain.ChargingStation, error) {
			return station, nil
		},
	}
}

func testStation() *domain.ChargingStation {
	return &domain.ChargingStation{
		TenantID: "tenant-1",
		ID:       "CB-01",
		Issuer:   true,
	}
}

func TestPushCDR_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	tx := roamedTransaction(7)
	var saved *domain.Transaction
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			return tx, nil
		},
		SaveFunc: func(ctx context.Context, tx *domain.Transaction) error {
			saved = tx
			return nil
		},
	}
	roaming := &mocks.MockRoamingService{
		BuildAndSendCDRFunc: func(ctx context.Context, tenantID string, tx *domain.Transaction, station *domain.ChargingStation) (string, error) {
			return "cdr-001", nil
		},
	}
	mq := mocks.NewMockMessageQueue()
	service := NewService(
		txRepo,
		stationRepoWith(testStation()),
		&mocks.MockUserRepository{},
		&mocks.MockIntegrationFactory{},
		roaming,
		&mocks.MockConsumptionService{},
		&mocks.MockAuthorizer{},
		mq,
		newTestLogger(),
	)

	// Act
	err := service.PushCDR(ctx, adminActor(), 7)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if saved == nil {
		t.Fatal("expected the transaction to be persisted")
	}
	if saved.OCPIData.CDR == nil || saved.OCPIData.CDR.ID != "cdr-001" {
		t.Errorf("expected CDR id 'cdr-001' recorded, got %+v", saved.OCPIData.CDR)
	}
	if saved.OCPIData.CDR.LastPatched == nil {
		t.Error("expected LastPatched set")
	}
	if len(mq.GetPublishedMessages(SubjectCDRPushed)) != 1 {
		t.Error("expected one CDR event published")
	}
}

func TestPushCDR_TransactionNotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	service := newTestService(nil, nil, nil, nil, nil)

	// Act
	err := service.PushCDR(ctx, adminActor(), 404)

	// Assert
	if _, ok := err.(*domain.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %T (%v)", err, err)
	}
}

func TestPushCDR_StationNotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			return roamedTransaction(id), nil
		},
	}
	service := newTestService(txRepo, stationRepoWith(nil), nil, nil, nil)

	// Act
	err := service.PushCDR(ctx, adminActor(), 7)

	// Assert
	if _, ok := err.(*domain.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %T (%v)", err, err)
	}
}

func TestPushCDR_ExternalTransaction(t *testing.T) {
	// Arrange
	ctx := context.Background()
	tx := roamedTransaction(7)
	tx.Issuer = false
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			return tx, nil
		},
	}
	service := newTestService(txRepo, stationRepoWith(testStation()), nil, nil, nil)

	// Act
	err := service.PushCDR(ctx, adminActor(), 7)

	// Assert
	if _, ok := err.(*domain.ConflictError); !ok {
		t.Fatalf("expected ConflictError, got %T (%v)", err, err)
	}
}

func TestPushCDR_NoRoamingContext(t *testing.T) {
	// Arrange
	ctx := context.Background()
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			return completedTransaction(id), nil
		},
	}
	service := newTestService(txRepo, stationRepoWith(testStation()), nil, nil, nil)

	// Act
	err := service.PushCDR(ctx, adminActor(), 7)

	// Assert
	if _, ok := err.(*domain.ConflictError); !ok {
		t.Fatalf("expected ConflictError, got %T (%v)", err, err)
	}
}

// A second push of the same CDR is rejected, never silently absorbed.
func TestPushCDR_AlreadyPushed(t *testing.T) {
	// Arrange
	ctx := context.Background()
	tx := roamedTransaction(7)
	tx.OCPIData.CDR = &domain.CDR{ID: "cdr-001"}
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			return tx, nil
		},
	}
	roamingCalled := false
	roaming := &mocks.MockRoamingService{
		BuildAndSendCDRFunc: func(ctx context.Context, tenantID string, tx *domain.Transaction, station *domain.ChargingStation) (string, error) {
			roamingCalled = true
			return "cdr-002", nil
		},
	}
	service := NewService(
		txRepo,
		stationRepoWith(testStation()),
		&mocks.MockUserRepository{},
		&mocks.MockIntegrationFactory{},
		roaming,
		&mocks.MockConsumptionService{},
		&mocks.MockAuthorizer{},
		mocks.NewMockMessageQueue(),
		newTestLogger(),
	)

	// Act
	err := service.PushCDR(ctx, adminActor(), 7)

	// Assert
	if _, ok := err.(*domain.ConflictError); !ok {
		t.Fatalf("expected ConflictError, got %T (%v)", err, err)
	}
	if roamingCalled {
		t.Error("expected no second send to the clearing party")
	}
}

func TestPushCDR_Unauthorized(t *testing.T) {
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
	err := service.PushCDR(ctx, adminActor(), 7)

	// Assert
	if _, ok := err.(*domain.AuthorizationError); !ok {
		t.Fatalf("expected AuthorizationError, got %T (%v)", err, err)
	}
}

// An active roamed session has no totals to settle yet; pushing its CDR
// must be rejected instead of reaching the clearing party.
func TestPushCDR_ActiveSession(t *testing.T) {
	// Arrange
	ctx := context.Background()
	tx := roamedTransaction(7)
	tx.Stop = nil
	txRepo := &mocks.MockTransactionRepository{
		FindByIDFunc: func(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
			return tx, nil
		},
	}
	roamingCalled := false
	roaming := &mocks.MockRoamingService{
		BuildAndSendCDRFunc: func(ctx context.Context, tenantID string, tx *domain.Transaction, station *domain.ChargingStation) (string, error) {
			roamingCalled = true
			return "cdr-001", nil
		},
	}
	service := NewService(
		txRepo,
		stationRepoWith(testStation()),
		&mocks.MockUserRepository{},
		&mocks.MockIntegrationFactory{},
		roaming,
		&mocks.MockConsumptionService{},
		&mocks.MockAuthorizer{},
		mocks.NewMockMessageQueue(),
		newTestLogger(),
	)

	// Act
	err := service.PushCDR(ctx, adminActor(), 7)

	// Assert
	if _, ok := err.(*domain.ConflictError); !ok {
		t.Fatalf("expected ConflictError, got %T (%v)", err, err)
	}
	if roamingCalled {
		t.Error("expected no CDR to be sent for an active session")
	}
}
