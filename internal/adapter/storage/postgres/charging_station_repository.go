package postgres

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

type ChargingStationRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewChargingStationRepository(db *gorm.DB, log *zap.Logger) ports.ChargingStationRepository {
	return &ChargingStationRepository{
		db:  db,
		log: log,
	}
}

func (r *ChargingStationRepository) FindByID(ctx context.Context, tenantID, id string) (*domain.ChargingStation, error) {
	var station domain.ChargingStation
	err := r.db.WithContext(ctx).First(&station, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &station, nil
}

func (r *ChargingStationRepository) Save(ctx context.Context, station *domain.ChargingStation) error {
	err := r.db.WithContext(ctx).Save(station).Error
	if err != nil {
		r.log.Error("failed to save charging station",
			zap.String("tenant_id", station.TenantID),
			zap.String("charge_box_id", station.ID),
			zap.Error(err),
		)
	}
	return err
}
