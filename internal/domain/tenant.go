package domain

import (
	"time"
)

// RefundVendor selects the refund integration implementation for a tenant.
type RefundVendor string

// BillingVendor selects the billing integration implementation for a tenant.
type BillingVendor string

const (
	RefundVendorStripe  RefundVendor  = "stripe"
	BillingVendorStripe BillingVendor = "stripe"
)

// ComponentConfig is the per-tenant switch for an optional platform
// component. Vendor is only meaningful when the component is enabled.
type ComponentConfig struct {
	Enabled bool   `json:"enabled"`
	Vendor  string `json:"vendor,omitempty"`
}

// TenantComponents lists the optional components a tenant may activate.
// Absent components impose no constraints on the transaction lifecycle.
type TenantComponents struct {
	Pricing ComponentConfig `json:"pricing"`
	Billing ComponentConfig `json:"billing"`
	Refund  ComponentConfig `json:"refund"`
	OCPI    ComponentConfig `json:"ocpi"`
}

// Tenant is the top-level isolation boundary. No operation ever crosses
// tenants.
type Tenant struct {
	ID         string           `json:"id" gorm:"primaryKey"`
	Name       string           `json:"name"`
	Subdomain  string           `json:"subdomain" gorm:"uniqueIndex"`
	Components TenantComponents `json:"components" gorm:"serializer:json"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
