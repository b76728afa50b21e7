package stripe

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/observability/telemetry"
	"github.com/voltgrid/voltgrid/internal/ports"
)

// RefundIntegration submits transaction refunds to Stripe against the
// settled payment intent backing each transaction.
type RefundIntegration struct {
	payments ports.PaymentRepository
	txs      ports.TransactionRepository
	breaker  *gobreaker.CircuitBreaker
	log      *zap.Logger
}

// NewRefundIntegration creates the Stripe refund integration. The secret
// key is process-wide: Stripe's client keeps it in a package global.
func NewRefundIntegration(secretKey string, payments ports.PaymentRepository, txs ports.TransactionRepository, log *zap.Logger) *RefundIntegration {
	stripeapi.Key = secretKey

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stripe-refund",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &RefundIntegration{
		payments: payments,
		txs:      txs,
		breaker:  cb,
		log:      log,
	}
}

// Submit refunds each transaction's settled payment and returns the
// subset Stripe accepted. Transactions without a settled payment are
// skipped; a vendor failure on one transaction does not abort the rest
// unless the circuit opens.
func (i *RefundIntegration) Submit(ctx context.Context, tenantID string, actingUser *domain.User, txs []*domain.Transaction) ([]*domain.Transaction, error) {
	accepted := make([]*domain.Transaction, 0, len(txs))

	for _, tx := range txs {
		payment, err := i.payments.GetCompletedByTransaction(ctx, tenantID, tx.ID)
		if err != nil {
			return accepted, fmt.Errorf("failed to look up payment for transaction %d: %w", tx.ID, err)
		}
		if payment == nil {
			i.log.Warn("No settled payment for transaction, skipping refund",
				zap.String("tenant_id", tenantID),
				zap.Int("transaction_id", tx.ID),
			)
			continue
		}

		stripeRefund, err := i.createRefund(payment, actingUser)
		if err != nil {
			telemetry.IntegrationCalls.WithLabelValues("stripe_refund", "error").Inc()
			i.log.Error("Stripe refund creation failed",
				zap.String("tenant_id", tenantID),
				zap.Int("transaction_id", tx.ID),
				zap.String("payment_id", payment.ID),
				zap.Error(err),
			)
			if err == gobreaker.ErrOpenState {
				return accepted, err
			}
			continue
		}
		telemetry.IntegrationCalls.WithLabelValues("stripe_refund", "success").Inc()

		record := &domain.Refund{
			ID:         uuid.NewString(),
			TenantID:   tenantID,
			PaymentID:  payment.ID,
			ProviderID: stripeRefund.ID,
			Amount:     payment.Amount,
			Status:     domain.PaymentStatusPending,
			CreatedAt:  time.Now(),
		}
		if err := i.payments.SaveRefund(ctx, record); err != nil {
			return accepted, fmt.Errorf("failed to persist refund %s: %w", stripeRefund.ID, err)
		}

		tx.RefundData = &domain.RefundData{
			RefundID: stripeRefund.ID,
			Status:   domain.RefundStatusSubmitted,
		}
		if err := i.txs.Save(ctx, tx); err != nil {
			return accepted, fmt.Errorf("failed to persist refund data on transaction %d: %w", tx.ID, err)
		}

		accepted = append(accepted, tx)
	}

	return accepted, nil
}

// CanDelete permits deletion only when the transaction holds no live
// refund reference.
func (i *RefundIntegration) CanDelete(tx *domain.Transaction) bool {
	return !tx.IsRefunded()
}

// Reconcile pulls the vendor-side state of every pending refund and
// folds terminal outcomes back into the refund record and its
// transaction. Still-pending refunds are left for the next run.
func (i *RefundIntegration) Reconcile(ctx context.Context, tenantID string) error {
	pending, err := i.payments.ListPendingRefunds(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to list pending refunds: %w", err)
	}

	for idx := range pending {
		record := &pending[idx]

		result, err := i.breaker.Execute(func() (interface{}, error) {
			return refund.Get(record.ProviderID, nil)
		})
		if err != nil {
			telemetry.IntegrationCalls.WithLabelValues("stripe_refund", "error").Inc()
			if err == gobreaker.ErrOpenState {
				return err
			}
			i.log.Warn("Failed to fetch refund state from Stripe",
				zap.String("tenant_id", tenantID),
				zap.String("provider_id", record.ProviderID),
				zap.Error(err),
			)
			continue
		}
		telemetry.IntegrationCalls.WithLabelValues("stripe_refund", "success").Inc()

		stripeRefund := result.(*stripeapi.Refund)

		var refundStatus domain.RefundStatus
		now := time.Now()
		switch stripeRefund.Status {
		case stripeapi.RefundStatusSucceeded:
			record.Status = domain.PaymentStatusRefunded
			record.CompletedAt = &now
			refundStatus = domain.RefundStatusApproved
		case stripeapi.RefundStatusFailed, stripeapi.RefundStatusCanceled:
			record.Status = domain.PaymentStatusCancelled
			record.CompletedAt = &now
			refundStatus = domain.RefundStatusCancelled
		default:
			continue
		}

		if err := i.payments.SaveRefund(ctx, record); err != nil {
			return fmt.Errorf("failed to persist refund %s: %w", record.ID, err)
		}
		i.updateTransaction(ctx, tenantID, record, refundStatus, now)
	}

	return nil
}

// updateTransaction mirrors a terminal refund outcome onto the
// transaction. Best effort: the refund record is already authoritative.
func (i *RefundIntegration) updateTransaction(ctx context.Context, tenantID string, record *domain.Refund, status domain.RefundStatus, settledAt time.Time) {
	payment, err := i.payments.GetByID(ctx, tenantID, record.PaymentID)
	if err != nil || payment == nil {
		i.log.Warn("Could not resolve payment for reconciled refund",
			zap.String("tenant_id", tenantID),
			zap.String("payment_id", record.PaymentID),
			zap.Error(err),
		)
		return
	}

	tx, err := i.txs.FindByID(ctx, tenantID, payment.TransactionID)
	if err != nil || tx == nil {
		i.log.Warn("Could not resolve transaction for reconciled refund",
			zap.String("tenant_id", tenantID),
			zap.Int("transaction_id", payment.TransactionID),
			zap.Error(err),
		)
		return
	}

	if tx.RefundData == nil {
		tx.RefundData = &domain.RefundData{RefundID: record.ProviderID}
	}
	tx.RefundData.Status = status
	if status == domain.RefundStatusApproved {
		tx.RefundData.RefundedAt = &settledAt
	}

	if err := i.txs.Save(ctx, tx); err != nil {
		i.log.Warn("Failed to persist reconciled refund state on transaction",
			zap.String("tenant_id", tenantID),
			zap.Int("transaction_id", tx.ID),
			zap.Error(err),
		)
	}
}

func (i *RefundIntegration) createRefund(payment *domain.Payment, actingUser *domain.User) (*stripeapi.Refund, error) {
	params := &stripeapi.RefundParams{
		PaymentIntent: stripeapi.String(payment.ProviderID),
	}
	params.AddMetadata("transaction_id", strconv.Itoa(payment.TransactionID))
	if actingUser != nil {
		params.AddMetadata("requested_by", actingUser.ID)
	}

	result, err := i.breaker.Execute(func() (interface{}, error) {
		return refund.New(params)
	})
	if err != nil {
		return nil, err
	}
	return result.(*stripeapi.Refund), nil
}
