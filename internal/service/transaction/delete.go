package transaction

import (
	"context"

	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/observability/telemetry"
	"github.com/voltgrid/voltgrid/internal/ports"
)

// DeleteTransactions removes a batch of transactions with per-item
// eligibility checks. Check order encodes priority: a settled financial
// obligation (live refund, issued invoice) always blocks deletion
// regardless of session state; only then does an active session get its
// connector released, so a station is never left pointing at a
// transaction id that no longer exists.
//
// Ineligible, missing, or unreadable ids are logged and counted in
// InError, they never abort the batch. All eligible ids are removed in one store
// call and InSuccess is the number of rows the store actually deleted.
// The initiating capability check, in contrast, is fatal for the whole
// request.
func (s *Service) DeleteTransactions(ctx context.Context, actor ports.Actor, ids []int) (*ports.BatchResult, error) {
	if len(ids) == 0 {
		return nil, domain.NewValidationError("transactionIds", "must not be empty")
	}
	if !s.authz.Can(ctx, actor, ports.ActionDelete, ports.EntityTransactions, "") {
		return nil, &domain.AuthorizationError{
			Actor:  actor.UserID,
			Action: string(ports.ActionDelete),
			Entity: string(ports.EntityTransactions),
		}
	}

	// Integration absence means no constraint from that integration. A
	// factory failure is logged and treated the same way.
	refund, err := s.integrations.Refund(ctx, actor.TenantID)
	if err != nil {
		s.log.Warn("refund integration unavailable, deleting without refund holds",
			zap.String("tenant_id", actor.TenantID),
			zap.Error(err),
		)
		refund = nil
	}
	billing, err := s.integrations.Billing(ctx, actor.TenantID)
	if err != nil {
		s.log.Warn("billing integration unavailable, deleting without billing holds",
			zap.String("tenant_id", actor.TenantID),
			zap.Error(err),
		)
		billing = nil
	}

	result := &ports.BatchResult{}
	toDelete := make([]int, 0, len(ids))
	for _, id := range ids {
		tx, err := s.txRepo.FindByID(ctx, actor.TenantID, id)
		if err != nil {
			// Per-item store failures never unwind the batch.
			s.log.Error("could not load transaction for deletion",
				zap.String("tenant_id", actor.TenantID),
				zap.Int("transaction_id", id),
				zap.Error(err),
			)
			result.InError++
			continue
		}
		switch {
		case tx == nil:
			s.log.Warn("cannot delete a transaction that does not exist",
				zap.String("tenant_id", actor.TenantID),
				zap.Int("transaction_id", id),
			)
			result.InError++
		case refund != nil && !refund.CanDelete(tx):
			s.log.Warn("transaction is locked by a refund and cannot be deleted",
				zap.String("tenant_id", actor.TenantID),
				zap.Int("transaction_id", id),
			)
			result.InError++
		case billing != nil && billing.IsTransactionBilled(tx):
			// The oracle may answer from vendor state, so BillingData is
			// not guaranteed to be populated locally.
			invoiceID := ""
			if tx.BillingData != nil {
				invoiceID = tx.BillingData.InvoiceID
			}
			s.log.Warn("transaction carries an issued invoice and cannot be deleted",
				zap.String("tenant_id", actor.TenantID),
				zap.Int("transaction_id", id),
				zap.String("invoice_id", invoiceID),
			)
			result.InError++
		default:
			if tx.IsActive() {
				s.releaseConnector(ctx, actor.TenantID, tx)
			}
			toDelete = append(toDelete, id)
		}
	}

	var deleted int64
	if len(toDelete) > 0 {
		deleted, err = s.txRepo.DeleteByIDs(ctx, actor.TenantID, toDelete)
		if err != nil {
			return nil, err
		}
	}
	result.InSuccess = int(deleted)

	telemetry.TransactionsDeleted.WithLabelValues("success").Add(float64(result.InSuccess))
	telemetry.TransactionsDeleted.WithLabelValues("error").Add(float64(result.InError))
	if result.InSuccess > 0 {
		s.publish(SubjectTransactionsDeleted, actor.TenantID, actor.UserID, toDelete)
	}
	s.log.Info("transaction deletion finished",
		zap.String("tenant_id", actor.TenantID),
		zap.String("user_id", actor.UserID),
		zap.Int("requested", len(ids)),
		zap.Int("in_success", result.InSuccess),
		zap.Int("in_error", result.InError),
	)
	return result, nil
}

// releaseConnector clears the station connector still bound to an
// active transaction about to be deleted. Best-effort: a missing or
// unreadable station does not block the deletion, the binding will be
// corrected by the next station state refresh.
func (s *Service) releaseConnector(ctx context.Context, tenantID string, tx *domain.Transaction) {
	station, err := s.stationRepo.FindByID(ctx, tenantID, tx.ChargeBoxID)
	if err != nil {
		s.log.Warn("could not load station to release its connector",
			zap.String("tenant_id", tenantID),
			zap.String("charge_box_id", tx.ChargeBoxID),
			zap.Error(err),
		)
		return
	}
	if station == nil {
		return
	}
	connector := station.ConnectorByID(tx.ConnectorID)
	if connector == nil || connector.CurrentTransactionID != tx.ID {
		return
	}
	station.ReleaseConnector(tx.ConnectorID)
	if err := s.stationRepo.Save(ctx, station); err != nil {
		s.log.Warn("could not persist released connector",
			zap.String("tenant_id", tenantID),
			zap.String("charge_box_id", tx.ChargeBoxID),
			zap.Int("connector_id", tx.ConnectorID),
			zap.Error(err),
		)
		return
	}
	s.log.Info("released connector of deleted active transaction",
		zap.String("tenant_id", tenantID),
		zap.String("charge_box_id", tx.ChargeBoxID),
		zap.Int("connector_id", tx.ConnectorID),
		zap.Int("transaction_id", tx.ID),
	)
}
