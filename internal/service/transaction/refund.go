package transaction

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/observability/telemetry"
	"github.com/voltgrid/voltgrid/internal/ports"
)

// SubmitRefunds sends a batch of transactions to the tenant's refund
// integration on behalf of the acting user.
//
// Per id: a missing or unreadable transaction is logged and skipped;
// an already refunded transaction (live refund reference) is logged
// and skipped;
// a failed capability check aborts the whole batch. The survivors are
// submitted as one batch. InSuccess counts the transactions the vendor
// accepted; a shortfall between submitted and accepted is reported as
// InError. An absent refund integration is a hard configuration error.
func (s *Service) SubmitRefunds(ctx context.Context, actor ports.Actor, ids []int) (*ports.BatchResult, error) {
	if len(ids) == 0 {
		return nil, domain.NewValidationError("transactionIds", "must not be empty")
	}

	integration, err := s.integrations.Refund(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	if integration == nil {
		return nil, &domain.IntegrationUnavailableError{TenantID: actor.TenantID, Integration: "refund"}
	}

	actingUser, err := s.userRepo.FindByID(ctx, actor.TenantID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if actingUser == nil {
		return nil, domain.NewNotFoundError("user", actor.UserID)
	}

	result := &ports.BatchResult{}
	eligible := make([]*domain.Transaction, 0, len(ids))
	for _, id := range ids {
		tx, err := s.txRepo.FindByID(ctx, actor.TenantID, id)
		if err != nil {
			// Per-item store failures never unwind the batch.
			s.log.Error("could not load transaction for refund submission",
				zap.String("tenant_id", actor.TenantID),
				zap.Int("transaction_id", id),
				zap.Error(err),
			)
			result.InError++
			continue
		}
		if tx == nil {
			s.log.Warn("cannot refund a transaction that does not exist",
				zap.String("tenant_id", actor.TenantID),
				zap.Int("transaction_id", id),
			)
			result.InError++
			continue
		}
		if tx.IsRefunded() {
			s.log.Info("transaction is already refunded",
				zap.String("tenant_id", actor.TenantID),
				zap.Int("transaction_id", id),
				zap.String("refund_id", tx.RefundData.RefundID),
			)
			result.InError++
			continue
		}
		// Authorization failure is fatal for the whole batch, never a
		// per-item skip.
		if !s.authz.Can(ctx, actor, ports.ActionRefundTransaction, ports.EntityTransaction, strconv.Itoa(id)) {
			return nil, &domain.AuthorizationError{
				Actor:    actor.UserID,
				Action:   string(ports.ActionRefundTransaction),
				Entity:   string(ports.EntityTransaction),
				Instance: strconv.Itoa(id),
			}
		}
		eligible = append(eligible, tx)
	}

	if len(eligible) > 0 {
		accepted, err := integration.Submit(ctx, actor.TenantID, actingUser, eligible)
		if err != nil {
			return nil, err
		}
		result.InSuccess = len(accepted)
		if len(accepted) < len(eligible) {
			result.InError += len(eligible) - len(accepted)
		}
		acceptedIDs := make([]int, len(accepted))
		for i, tx := range accepted {
			acceptedIDs[i] = tx.ID
		}
		telemetry.RefundsSubmitted.Add(float64(len(accepted)))
		s.publish(SubjectRefundsSubmitted, actor.TenantID, actor.UserID, acceptedIDs)
	}

	s.log.Info("refund submission finished",
		zap.String("tenant_id", actor.TenantID),
		zap.String("user_id", actor.UserID),
		zap.Int("in_success", result.InSuccess),
		zap.Int("in_error", result.InError),
	)
	return result, nil
}
