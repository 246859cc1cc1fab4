package models

import (
	"time"
)

// RecipientType identifies who a commission leg is paid to.
type RecipientType string

const (
	RecipientAgent    RecipientType = "agent"
	RecipientPartner  RecipientType = "partner"
	RecipientRendasua RecipientType = "rendasua"
	RecipientBusiness RecipientType = "business"
)

// CommissionType identifies which revenue line a leg belongs to.
type CommissionType string

const (
	CommissionBaseDeliveryFee  CommissionType = "base_delivery_fee"
	CommissionPerKmDeliveryFee CommissionType = "per_km_delivery_fee"
	CommissionItemSale         CommissionType = "item_sale"
	CommissionOrderSubtotal    CommissionType = "order_subtotal"
)

// Partner is a revenue-share participant. Only active partners take part in
// a distribution; percentages apply to the fee/pool they are named after.
type Partner struct {
	ID                         string    `json:"id" db:"id"`
	UserID                     string    `json:"user_id" db:"user_id"`
	CompanyName                string    `json:"company_name" db:"company_name"`
	BaseDeliveryFeeCommission  float64   `json:"base_delivery_fee_commission" db:"base_delivery_fee_commission"`
	PerKmDeliveryFeeCommission float64   `json:"per_km_delivery_fee_commission" db:"per_km_delivery_fee_commission"`
	ItemCommission             float64   `json:"item_commission" db:"item_commission"`
	IsActive                   bool      `json:"is_active" db:"is_active"`
	CreatedAt                  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt                  time.Time `json:"updated_at" db:"updated_at"`
}

// CommissionConfig carries the global commission percentages.
type CommissionConfig struct {
	VerifiedAgentBaseDeliveryPct   float64 `json:"verified_agent_base_delivery_commission"`
	UnverifiedAgentBaseDeliveryPct float64 `json:"unverified_agent_base_delivery_commission"`
	VerifiedAgentPerKmPct          float64 `json:"verified_agent_per_km_delivery_commission"`
	UnverifiedAgentPerKmPct        float64 `json:"unverified_agent_per_km_delivery_commission"`
	RendasuaItemCommissionPct      float64 `json:"rendasua_item_commission_percentage"`
}

// DefaultCommissionConfig is used for any key the configuration store has no
// value for.
var DefaultCommissionConfig = CommissionConfig{
	VerifiedAgentBaseDeliveryPct:   0.0,
	UnverifiedAgentBaseDeliveryPct: 50.0,
	VerifiedAgentPerKmPct:          20.0,
	UnverifiedAgentPerKmPct:        80.0,
	RendasuaItemCommissionPct:      5.0,
}

// Config store keys, matching the application_configurations rows.
const (
	ConfigKeyVerifiedAgentBase    = "verified_agent_base_delivery_commission"
	ConfigKeyUnverifiedAgentBase  = "unverified_agent_base_delivery_commission"
	ConfigKeyVerifiedAgentPerKm   = "verified_agent_per_km_delivery_commission"
	ConfigKeyUnverifiedAgentPerKm = "unverified_agent_per_km_delivery_commission"
	ConfigKeyRendasuaItemPct      = "rendasua_item_commission_percentage"
)

// BaseDeliveryFeeBreakdown sums to the order's base delivery fee.
type BaseDeliveryFeeBreakdown struct {
	Agent    float64 `json:"agent"`
	Partner  float64 `json:"partner"`
	Rendasua float64 `json:"rendasua"`
}

// PerKmDeliveryFeeBreakdown sums to the order's per-km delivery fee.
type PerKmDeliveryFeeBreakdown struct {
	Agent    float64 `json:"agent"`
	Partner  float64 `json:"partner"`
	Rendasua float64 `json:"rendasua"`
}

// ItemCommissionBreakdown sums to the platform's item-commission pool
// (subtotal * rendasua item percentage / 100).
type ItemCommissionBreakdown struct {
	Partner  float64 `json:"partner"`
	Rendasua float64 `json:"rendasua"`
}

// OrderSubtotalBreakdown sums to the order subtotal.
type OrderSubtotalBreakdown struct {
	Business float64 `json:"business"`
	Rendasua float64 `json:"rendasua"`
}

// CommissionBreakdown is the fully-itemized split of an order's revenue.
// Computed, never persisted; only the resulting payouts are stored.
type CommissionBreakdown struct {
	BaseDeliveryFee  BaseDeliveryFeeBreakdown  `json:"base_delivery_fee"`
	PerKmDeliveryFee PerKmDeliveryFeeBreakdown `json:"per_km_delivery_fee"`
	ItemCommission   ItemCommissionBreakdown   `json:"item_commission"`
	OrderSubtotal    OrderSubtotalBreakdown    `json:"order_subtotal"`
}

// CommissionPayout is the audit record for one paid leg, linked to the
// ledger transaction that credited the recipient. IdempotencyKey is
// deterministic per (order, commission type, recipient type, recipient) and
// unique at the store, so re-running a distribution cannot double-pay.
type CommissionPayout struct {
	ID                   string         `json:"id" db:"id"`
	OrderID              string         `json:"order_id" db:"order_id"`
	RecipientUserID      string         `json:"recipient_user_id" db:"recipient_user_id"`
	RecipientType        RecipientType  `json:"recipient_type" db:"recipient_type"`
	CommissionType       CommissionType `json:"commission_type" db:"commission_type"`
	Amount               float64        `json:"amount" db:"amount"`
	Currency             string         `json:"currency" db:"currency"`
	CommissionPercentage *float64       `json:"commission_percentage,omitempty" db:"commission_percentage"`
	AccountTransactionID string         `json:"account_transaction_id" db:"account_transaction_id"`
	IdempotencyKey       string         `json:"idempotency_key" db:"idempotency_key"`
	CreatedAt            time.Time      `json:"created_at" db:"created_at"`
}
