package postgres

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

type PaymentRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewPaymentRepository(db *gorm.DB, log *zap.Logger) ports.PaymentRepository {
	return &PaymentRepository{
		db:  db,
		log: log,
	}
}

func (r *PaymentRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).
		First(&payment, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetCompletedByTransaction returns the settled payment backing a
// transaction, or nil when the transaction was never charged.
func (r *PaymentRepository) GetCompletedByTransaction(ctx context.Context, tenantID string, transactionID int) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND transaction_id = ? AND status = ?",
			tenantID, transactionID, domain.PaymentStatusCompleted).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) SaveRefund(ctx context.Context, refund *domain.Refund) error {
	return r.db.WithContext(ctx).Save(refund).Error
}

func (r *PaymentRepository) GetRefundByProviderID(ctx context.Context, tenantID, providerID string) (*domain.Refund, error) {
	var refund domain.Refund
	err := r.db.WithContext(ctx).
		First(&refund, "tenant_id = ? AND provider_id = ?", tenantID, providerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refund, nil
}

func (r *PaymentRepository) ListPendingRefunds(ctx context.Context, tenantID string) ([]domain.Refund, error) {
	var refunds []domain.Refund
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, domain.PaymentStatusPending).
		Order("created_at ASC").
		Find(&refunds).Error
	if err != nil {
		return nil, err
	}
	return refunds, nil
}
