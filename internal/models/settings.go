package models

import "time"

type SuperAdminSetting struct {
	ID              int64     `json:"id" db:"id"`
	AppName         string    `json:"app_name" db:"app_name"`
	AppLogo         string    `json:"app_logo" db:"app_logo"`
	VideoURL        string    `json:"video_url" db:"video_url"`
	StripeAppKey    string    `json:"stripe_app_key" db:"stripe_app_key"`
	StripeSecretKey string    `json:"-" db:"stripe_secret_key"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type SubscriptionPlan struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	PriceID     string `json:"price_id" db:"price_id"`
	AmountCents int64  `json:"amount_cents" db:"amount_cents"`
	Interval    string `json:"interval" db:"interval"`
	IsActive    bool   `json:"is_active" db:"is_active"`
}

type Subscription struct {
	ID                     int64      `json:"id" db:"id"`
	UserID                 int64      `json:"user_id" db:"user_id"`
	PlanID                 int64      `json:"plan_id" db:"plan_id"`
	ProviderCustomerID     string     `json:"-" db:"provider_customer_id"`
	ProviderSubscriptionID string     `json:"-" db:"provider_subscription_id"`
	Status                 string     `json:"status" db:"status"`
	CurrentPeriodEnd       *time.Time `json:"current_period_end,omitempty" db:"current_period_end"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
}

const (
	SubscriptionPending  = "pending"
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
)
