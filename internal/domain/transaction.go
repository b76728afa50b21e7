package domain

import (
	"time"
)

// RefundStatus tracks the state of a refund submitted to the external
// refund integration.
type RefundStatus string

const (
	RefundStatusSubmitted RefundStatus = "submitted"
	RefundStatusApproved  RefundStatus = "approved"
	RefundStatusCancelled RefundStatus = "cancelled"
)

// TransactionErrorType classifies why a completed transaction is
// considered inconsistent.
type TransactionErrorType string

const (
	ErrorTypeNegativeActivity TransactionErrorType = "negative_inactivity"
	ErrorTypeNegativeDuration TransactionErrorType = "negative_duration"
	ErrorTypeOverConsumption  TransactionErrorType = "over_consumption"
	ErrorTypeInvalidStartDate TransactionErrorType = "incorrect_starting_date"
	ErrorTypeNoConsumption    TransactionErrorType = "no_consumption"
	ErrorTypeLowConsumption   TransactionErrorType = "low_consumption"
	ErrorTypeLowDuration      TransactionErrorType = "low_duration"
	ErrorTypeMissingUser      TransactionErrorType = "missing_user"
	ErrorTypeMissingPrice     TransactionErrorType = "missing_price"
	ErrorTypeNoBillingData    TransactionErrorType = "no_billing_data"
)

// TransactionStop is recorded when a charging session ends. Its presence
// on a transaction is the active/completed discriminator.
type TransactionStop struct {
	Timestamp           time.Time `json:"timestamp"`
	TotalConsumptionWh  int64     `json:"total_consumption_wh"`
	TotalDurationSecs   int64     `json:"total_duration_secs"`
	TotalInactivitySecs int64     `json:"total_inactivity_secs"`
	Price               float64   `json:"price"`
	PriceUnit           string    `json:"price_unit"`
}

// RefundData is set once a transaction has been submitted to the refund
// integration. A non-empty RefundID with a status other than cancelled
// locks the transaction against re-refund and deletion.
type RefundData struct {
	RefundID   string       `json:"refund_id"`
	Status     RefundStatus `json:"status"`
	ReportID   string       `json:"report_id,omitempty"`
	RefundedAt *time.Time   `json:"refunded_at,omitempty"`
}

// BillingData links a transaction to its issued invoice. A non-empty
// InvoiceID locks the transaction against deletion.
type BillingData struct {
	InvoiceID       string `json:"invoice_id"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
}

// CDR is the roaming Charge Detail Record reference. Once ID is set the
// record has been pushed to the clearing party and must not be sent again.
type CDR struct {
	ID          string     `json:"id"`
	LastPatched *time.Time `json:"last_patched,omitempty"`
}

// OCPIData carries the roaming context of a transaction. Absent for
// sessions that never crossed a roaming boundary.
type OCPIData struct {
	SessionID string `json:"session_id,omitempty"`
	CDR       *CDR   `json:"cdr,omitempty"`
}

// Transaction is one charging session, from start to optional stop,
// scoped to a tenant. Live station and user snapshots are never part of
// the persisted entity; operations that need them receive or fetch them
// separately.
type Transaction struct {
	TenantID    string `json:"tenant_id" gorm:"primaryKey"`
	ID          int    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ChargeBoxID string `json:"charge_box_id" gorm:"index"`
	ConnectorID int    `json:"connector_id"`
	// UserID is empty for unassigned sessions (badge not linked to a user yet).
	UserID string `json:"user_id,omitempty" gorm:"index"`
	TagID  string `json:"tag_id,omitempty" gorm:"index"`
	// Issuer is true when the session originates from this organization,
	// false when roamed in from a partner.
	Issuer      bool             `json:"issuer"`
	SiteID      string           `json:"site_id,omitempty" gorm:"index"`
	Timestamp   time.Time        `json:"timestamp"`
	MeterStart  int64            `json:"meter_start"`
	Stop        *TransactionStop `json:"stop,omitempty" gorm:"embedded;embeddedPrefix:stop_"`
	RefundData  *RefundData      `json:"refund_data,omitempty" gorm:"embedded;embeddedPrefix:refund_"`
	BillingData *BillingData     `json:"billing_data,omitempty" gorm:"embedded;embeddedPrefix:billing_"`
	OCPIData    *OCPIData        `json:"ocpi_data,omitempty" gorm:"serializer:json"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// IsActive reports whether the session has not stopped yet.
func (t *Transaction) IsActive() bool {
	return t.Stop == nil
}

// IsRefunded reports whether the transaction holds a live refund
// reference. A cancelled refund does not count.
func (t *Transaction) IsRefunded() bool {
	return t.RefundData != nil &&
		t.RefundData.RefundID != "" &&
		t.RefundData.Status != RefundStatusCancelled
}

// HasInvoice reports whether billing issued an invoice for the transaction.
func (t *Transaction) HasInvoice() bool {
	return t.BillingData != nil && t.BillingData.InvoiceID != ""
}

// HasPushedCDR reports whether the roaming CDR was already sent.
func (t *Transaction) HasPushedCDR() bool {
	return t.OCPIData != nil && t.OCPIData.CDR != nil && t.OCPIData.CDR.ID != ""
}
