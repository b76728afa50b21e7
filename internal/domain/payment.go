package domain

import (
	"time"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Payment is the settled charge backing a transaction. The refund
// integration refunds against its provider reference.
type Payment struct {
	ID            string        `json:"id" gorm:"primaryKey"`
	TenantID      string        `json:"tenant_id" gorm:"index"`
	UserID        string        `json:"user_id" gorm:"index"`
	TransactionID int           `json:"transaction_id" gorm:"index"`
	Provider      string        `json:"provider"`
	ProviderID    string        `json:"provider_id"` // external payment intent id
	Status        PaymentStatus `json:"status"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

// Refund is the persisted trace of a refund submitted to the provider.
type Refund struct {
	ID          string        `json:"id" gorm:"primaryKey"`
	TenantID    string        `json:"tenant_id" gorm:"index"`
	PaymentID   string        `json:"payment_id" gorm:"index"`
	ProviderID  string        `json:"provider_id"`
	Amount      float64       `json:"amount"`
	Status      PaymentStatus `json:"status"`
	Reason      string        `json:"reason,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}
