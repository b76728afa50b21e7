package consumption

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

// Service derives per-interval consumption samples from the raw meter
// values of a transaction. Rebuilding is idempotent: the same raw
// readings always produce the same samples.
type Service struct {
	txs    ports.TransactionRepository
	meters ports.MeterValueRepository
	log    *zap.Logger
}

func NewService(txs ports.TransactionRepository, meters ports.MeterValueRepository, log *zap.Logger) ports.ConsumptionService {
	return &Service{
		txs:    txs,
		meters: meters,
		log:    log,
	}
}

// Rebuild recomputes the sample set of a transaction and returns how
// many samples resulted.
func (s *Service) Rebuild(ctx context.Context, tenantID string, transactionID int) (int, error) {
	tx, err := s.txs.FindByID(ctx, tenantID, transactionID)
	if err != nil {
		return 0, fmt.Errorf("consumption: load transaction %d: %w", transactionID, err)
	}
	if tx == nil {
		return 0, domain.NewNotFoundError("transaction", fmt.Sprintf("%d", transactionID))
	}

	values, err := s.meters.ListByTransaction(ctx, tenantID, transactionID)
	if err != nil {
		return 0, fmt.Errorf("consumption: load meter values: %w", err)
	}

	samples := derive(tx, values)
	if err := s.meters.ReplaceSamples(ctx, tenantID, transactionID, samples); err != nil {
		return 0, fmt.Errorf("consumption: store samples: %w", err)
	}

	s.log.Info("Rebuilt consumption samples",
		zap.String("tenant_id", tenantID),
		zap.Int("transaction_id", transactionID),
		zap.Int("samples", len(samples)),
	)
	return len(samples), nil
}

// derive turns ordered raw readings into per-interval samples. Readings
// sharing a timestamp collapse to the last one seen, and intervals with
// a decreasing register (meter reset or garbled report) are dropped.
func derive(tx *domain.Transaction, values []domain.MeterValue) []domain.ConsumptionSample {
	previous := tx.MeterStart
	samples := make([]domain.ConsumptionSample, 0, len(values))

	for i, value := range values {
		if i+1 < len(values) && values[i+1].Timestamp.Equal(value.Timestamp) {
			continue
		}
		delta := value.ValueWh - previous
		if delta < 0 {
			previous = value.ValueWh
			continue
		}
		samples = append(samples, domain.ConsumptionSample{
			TenantID:      tx.TenantID,
			TransactionID: tx.ID,
			Timestamp:     value.Timestamp,
			ConsumptionWh: delta,
			CumulatedWh:   value.ValueWh - tx.MeterStart,
		})
		previous = value.ValueWh
	}
	return samples
}
