package refundsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/mocks"
	"github.com/voltgrid/voltgrid/internal/ports"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestTaskRun_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	reconciled := ""
	integration := &mocks.MockRefundIntegration{
		ReconcileFunc: func(ctx context.Context, tenantID string) error {
			reconciled = tenantID
			return nil
		},
	}
	factory := &mocks.MockIntegrationFactory{
		RefundFunc: func(ctx context.Context, tenantID string) (ports.RefundIntegration, error) {
			return integration, nil
		},
	}
	task := NewTask(factory, newTestLogger())

	// Act
	err := task.Run(ctx, "tenant-1")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reconciled != "tenant-1" {
		t.Errorf("expected tenant-1 reconciled, got %q", reconciled)
	}
}

func TestTaskRun_MissingIntegration(t *testing.T) {
	// Arrange
	ctx := context.Background()
	factory := &mocks.MockIntegrationFactory{
		RefundFunc: func(ctx context.Context, tenantID string) (ports.RefundIntegration, error) {
			return nil, nil
		},
	}
	task := NewTask(factory, newTestLogger())

	// Act
	err := task.Run(ctx, "tenant-1")

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, ok := err.(*domain.IntegrationUnavailableError); !ok {
		t.Errorf("expected IntegrationUnavailableError, got %T", err)
	}
}

func TestTaskRun_ReconcileFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	integration := &mocks.MockRefundIntegration{
		ReconcileFunc: func(ctx context.Context, tenantID string) error {
			return errors.New("vendor down")
		},
	}
	factory := &mocks.MockIntegrationFactory{
		RefundFunc: func(ctx context.Context, tenantID string) (ports.RefundIntegration, error) {
			return integration, nil
		},
	}
	task := NewTask(factory, newTestLogger())

	// Act
	err := task.Run(ctx, "tenant-1")

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// A sweep only touches tenants with the refund component enabled, and
// one failing tenant does not stop the others.
func TestSchedulerSweep_FiltersAndIsolatesTenants(t *testing.T) {
	// Arrange
	ctx := context.Background()
	tenants := &mocks.MockTenantRepository{
		FindAllFunc: func(ctx context.Context) ([]domain.Tenant, error) {
			return []domain.Tenant{
				{ID: "t-on-1", Components: domain.TenantComponents{Refund: domain.ComponentConfig{Enabled: true}}},
				{ID: "t-off", Components: domain.TenantComponents{}},
				{ID: "t-on-2", Components: domain.TenantComponents{Refund: domain.ComponentConfig{Enabled: true}}},
			}, nil
		},
	}
	var runs []string
	integration := &mocks.MockRefundIntegration{
		ReconcileFunc: func(ctx context.Context, tenantID string) error {
			runs = append(runs, tenantID)
			if tenantID == "t-on-1" {
				return errors.New("vendor down")
			}
			return nil
		},
	}
	factory := &mocks.MockIntegrationFactory{
		RefundFunc: func(ctx context.Context, tenantID string) (ports.RefundIntegration, error) {
			return integration, nil
		},
	}
	scheduler := NewScheduler(NewTask(factory, newTestLogger()), tenants, time.Hour, newTestLogger())

	// Act
	scheduler.sweep(ctx)

	// Assert
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %v", runs)
	}
	if runs[0] != "t-on-1" || runs[1] != "t-on-2" {
		t.Errorf("unexpected run order: %v", runs)
	}
}
