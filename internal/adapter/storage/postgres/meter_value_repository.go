package postgres

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

type MeterValueRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewMeterValueRepository(db *gorm.DB, log *zap.Logger) ports.MeterValueRepository {
	return &MeterValueRepository{
		db:  db,
		log: log,
	}
}

func (r *MeterValueRepository) ListByTransaction(ctx context.Context, tenantID string, transactionID int) ([]domain.MeterValue, error) {
	var values []domain.MeterValue
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND transaction_id = ?", tenantID, transactionID).
		Order("timestamp ASC").
		Find(&values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}

// ReplaceSamples swaps the derived samples of a transaction atomically,
// so a rebuild never leaves a partial sample set behind.
func (r *MeterValueRepository) ReplaceSamples(ctx context.Context, tenantID string, transactionID int, samples []domain.ConsumptionSample) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("tenant_id = ? AND transaction_id = ?", tenantID, transactionID).
			Delete(&domain.ConsumptionSample{}).Error
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			return nil
		}
		return tx.Create(&samples).Error
	})
}
