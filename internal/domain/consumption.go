package domain

import (
	"time"
)

// MeterValue is one raw energy reading reported by a station during a
// session. Readings are append-only; rebuilds never mutate them.
type MeterValue struct {
	TenantID      string    `json:"tenant_id" gorm:"primaryKey"`
	TransactionID int       `json:"transaction_id" gorm:"primaryKey;autoIncrement:false;index"`
	Timestamp     time.Time `json:"timestamp" gorm:"primaryKey"`
	ValueWh       int64     `json:"value_wh"`
}

// ConsumptionSample is one derived per-interval consumption point,
// recomputed from the raw meter values of a transaction.
type ConsumptionSample struct {
	TenantID      string    `json:"tenant_id" gorm:"primaryKey"`
	TransactionID int       `json:"transaction_id" gorm:"primaryKey;autoIncrement:false;index"`
	Timestamp     time.Time `json:"timestamp" gorm:"primaryKey"`
	ConsumptionWh int64     `json:"consumption_wh"`
	CumulatedWh   int64     `json:"cumulated_wh"`
}
