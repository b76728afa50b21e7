package refundsync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/observability/telemetry"
	"github.com/voltgrid/voltgrid/internal/ports"
)

// Task reconciles the vendor-side refund state of a tenant with the
// local refund data. Stateless between runs; a partial run simply
// leaves some transactions unreconciled until the next one.
type Task struct {
	integrations ports.IntegrationFactory
	log          *zap.Logger
}

func NewTask(integrations ports.IntegrationFactory, log *zap.Logger) *Task {
	return &Task{
		integrations: integrations,
		log:          log,
	}
}

// Run reconciles one tenant. An absent refund integration is a hard
// error here: the task only gets scheduled for tenants that claim to
// have one, so absence signals a configuration problem.
func (t *Task) Run(ctx context.Context, tenantID string) error {
	integration, err := t.integrations.Refund(ctx, tenantID)
	if err != nil {
		telemetry.RefundSyncRuns.WithLabelValues("error").Inc()
		return err
	}
	if integration == nil {
		telemetry.RefundSyncRuns.WithLabelValues("error").Inc()
		return &domain.IntegrationUnavailableError{TenantID: tenantID, Integration: "refund"}
	}

	started := time.Now()
	if err := integration.Reconcile(ctx, tenantID); err != nil {
		telemetry.RefundSyncRuns.WithLabelValues("error").Inc()
		t.log.Error("refund reconciliation failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		return err
	}
	telemetry.RefundSyncRuns.WithLabelValues("success").Inc()
	t.log.Info("refund reconciliation finished",
		zap.String("tenant_id", tenantID),
		zap.Duration("took", time.Since(started)),
	)
	return nil
}

// Scheduler triggers the task periodically for every tenant with the
// refund component enabled. Tenants are reconciled independently, a
// failure on one does not stop the others.
type Scheduler struct {
	task     *Task
	tenants  ports.TenantRepository
	interval time.Duration
	log      *zap.Logger
}

func NewScheduler(task *Task, tenants ports.TenantRepository, interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		task:     task,
		tenants:  tenants,
		interval: interval,
		log:      log,
	}
}

// Start blocks until the context is cancelled, running one sweep per
// interval. Call it from its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	tenants, err := s.tenants.FindAll(ctx)
	if err != nil {
		s.log.Error("could not list tenants for refund sync", zap.Error(err))
		return
	}
	for _, tenant := range tenants {
		if !tenant.Components.Refund.Enabled {
			continue
		}
		if err := s.task.Run(ctx, tenant.ID); err != nil {
			s.log.Warn("refund sync run failed, will retry next sweep",
				zap.String("tenant_id", tenant.ID),
				zap.Error(err),
			)
		}
	}
}
