package models

import "time"

// Billing provider constants used across billing-related models.
const (
	BillingProviderRazorpay = "razorpay"
)

// Subscription lifecycle statuses. Cancelled is terminal: once a record
// reaches it no field other than audit metadata may change.
const (
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusScheduled = "scheduled"
	SubscriptionStatusCancelled = "cancelled"
)

// SubscriptionRecord is the relational mirror of a gateway subscription.
// The live key-value record (internal/pkg/store) is the one the webhook
// processor writes first; this row keeps the same fields queryable for
// admin tooling and reconciliation.
type SubscriptionRecord struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Provider       string     `gorm:"type:varchar(20);not null;index:ux_subscription_records_provider_subid,unique,priority:1" json:"provider"`
	SubscriptionID string     `gorm:"type:varchar(191);not null;index:ux_subscription_records_provider_subid,unique,priority:2" json:"subscription_id"`
	CustomerID     string     `gorm:"type:varchar(191);default:''" json:"customer_id,omitempty"`
	Status         string     `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	OriginalPlanID string     `gorm:"type:varchar(191);not null" json:"original_plan_id"`
	CurrentPlanID  string     `gorm:"type:varchar(191);not null" json:"current_plan_id"`
	IsUpgraded     bool       `gorm:"default:false" json:"is_upgraded"`
	ActivatedAt    *time.Time `gorm:"type:timestamp;default:null" json:"activated_at,omitempty"`
	UpgradedAt     *time.Time `gorm:"type:timestamp;default:null" json:"upgraded_at,omitempty"`
	StartsAt       *time.Time `gorm:"type:timestamp;default:null" json:"starts_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
