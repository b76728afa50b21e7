package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/observability/telemetry"
	"github.com/voltgrid/voltgrid/internal/ports"
)

const defaultPageSize = 50

type TransactionRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewTransactionRepository(db *gorm.DB, log *zap.Logger) ports.TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log,
	}
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domain.Transaction) error {
	return r.db.WithContext(ctx).Save(tx).Error
}

func (r *TransactionRepository) FindByID(ctx context.Context, tenantID string, id int) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := r.db.WithContext(ctx).
		First(&tx, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) Search(ctx context.Context, tenantID string, filter ports.TransactionFilter, page ports.Pagination) (*ports.TransactionPage, error) {
	start := time.Now()
	defer func() {
		telemetry.DatabaseLatency.Observe(time.Since(start).Seconds())
	}()

	query := r.applyFilter(r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("tenant_id = ?", tenantID), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	var items []domain.Transaction
	err := query.Order("timestamp DESC").Limit(limit).Offset(page.Skip).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &ports.TransactionPage{Items: items, Total: total}, nil
}

func (r *TransactionRepository) applyFilter(query *gorm.DB, filter ports.TransactionFilter) *gorm.DB {
	if len(filter.ChargeBoxIDs) > 0 {
		query = query.Where("charge_box_id IN ?", filter.ChargeBoxIDs)
	}
	if len(filter.ConnectorIDs) > 0 {
		query = query.Where("connector_id IN ?", filter.ConnectorIDs)
	}
	if len(filter.UserIDs) > 0 {
		query = query.Where("user_id IN ?", filter.UserIDs)
	}
	if len(filter.TagIDs) > 0 {
		query = query.Where("tag_id IN ?", filter.TagIDs)
	}
	if len(filter.SiteIDs) > 0 {
		query = query.Where("site_id IN ?", filter.SiteIDs)
	}
	if filter.Issuer != nil {
		query = query.Where("issuer = ?", *filter.Issuer)
	}
	if filter.WithStop != nil {
		if *filter.WithStop {
			query = query.Where("stop_timestamp IS NOT NULL")
		} else {
			query = query.Where("stop_timestamp IS NULL")
		}
	}
	if filter.StartedAt != nil {
		query = query.Where("timestamp >= ?", *filter.StartedAt)
	}
	if filter.EndedAt != nil {
		query = query.Where("timestamp <= ?", *filter.EndedAt)
	}
	if filter.ToRefund {
		query = query.Where(
			"refund_refund_id IS NULL OR refund_refund_id = '' OR refund_status = ?",
			domain.RefundStatusCancelled,
		)
	}
	if len(filter.ErrorTypes) > 0 {
		query = query.Where(errorTypeConditions(query.Session(&gorm.Session{NewDB: true}), filter.ErrorTypes))
	}
	if filter.Search != "" {
		query = query.Where("charge_box_id ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// errorTypeConditions ORs the SQL predicate of every requested
// inconsistency class.
func errorTypeConditions(db *gorm.DB, types []domain.TransactionErrorType) *gorm.DB {
	var cond *gorm.DB
	add := func(c *gorm.DB) {
		if cond == nil {
			cond = c
		} else {
			cond = cond.Or(c)
		}
	}
	for _, t := range types {
		switch t {
		case domain.ErrorTypeNegativeActivity:
			add(db.Where("stop_total_inactivity_secs < 0"))
		case domain.ErrorTypeNegativeDuration:
			add(db.Where("stop_total_duration_secs < 0"))
		case domain.ErrorTypeOverConsumption:
			// Average power above any deployed connector capacity (350 kW).
			add(db.Where("stop_total_duration_secs > 0 AND (stop_total_consumption_wh * 3600.0 / stop_total_duration_secs) > 350000"))
		case domain.ErrorTypeInvalidStartDate:
			add(db.Where("timestamp < '2017-01-01'"))
		case domain.ErrorTypeNoConsumption:
			add(db.Where("stop_total_consumption_wh = 0"))
		case domain.ErrorTypeLowConsumption:
			add(db.Where("stop_total_consumption_wh > 0 AND stop_total_consumption_wh < 1000"))
		case domain.ErrorTypeLowDuration:
			add(db.Where("stop_total_duration_secs >= 0 AND stop_total_duration_secs < 60"))
		case domain.ErrorTypeMissingUser:
			add(db.Where("user_id IS NULL OR user_id = ''"))
		case domain.ErrorTypeMissingPrice:
			add(db.Where("stop_price = 0 AND stop_total_consumption_wh > 0"))
		case domain.ErrorTypeNoBillingData:
			add(db.Where("billing_invoice_id IS NULL OR billing_invoice_id = ''"))
		}
	}
	return cond
}

// DeleteByIDs removes the given transactions in one statement. Ids that
// no longer exist remove zero rows, which is not an error.
func (r *TransactionRepository) DeleteByIDs(ctx context.Context, tenantID string, ids []int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&domain.Transaction{})
	if result.Error != nil {
		r.log.Error("bulk transaction delete failed",
			zap.String("tenant_id", tenantID),
			zap.Int("ids", len(ids)),
			zap.Error(result.Error),
		)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReassignToUser attaches unassigned transactions carrying one of the
// user's tags to the user.
func (r *TransactionRepository) ReassignToUser(ctx context.Context, tenantID string, user *domain.User) (int64, error) {
	if len(user.TagIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("tenant_id = ? AND (user_id IS NULL OR user_id = '') AND tag_id IN ?", tenantID, user.TagIDs).
		Update("user_id", user.ID)
	return result.RowsAffected, result.Error
}

func (r *TransactionRepository) YearsWithData(ctx context.Context, tenantID string) ([]int, error) {
	var years []int
	err := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("tenant_id = ?", tenantID).
		Distinct("EXTRACT(YEAR FROM timestamp)::int").
		Order("1").
		Pluck("EXTRACT(YEAR FROM timestamp)::int", &years).Error
	return years, err
}

func (r *TransactionRepository) CountUnassigned(ctx context.Context, tenantID string, user *domain.User) (int64, error) {
	if len(user.TagIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("tenant_id = ? AND (user_id IS NULL OR user_id = '') AND tag_id IN ?", tenantID, user.TagIDs).
		Count(&count).Error
	return count, err
}
