package models

import (
	"time"
)

// HoldStatus is the order-hold state. Active holds may transition to
// completed or cancelled; both are terminal.
type HoldStatus string

const (
	HoldActive    HoldStatus = "active"
	HoldCompleted HoldStatus = "completed"
	HoldCancelled HoldStatus = "cancelled"
)

// OrderHold is the escrow record for one order: at most one active hold per
// order. ClientHoldAmount starts as the order total; AgentHoldAmount stays
// zero until an agent claims the order.
type OrderHold struct {
	ID               string     `json:"id" db:"id"`
	OrderID          string     `json:"order_id" db:"order_id"`
	ClientID         string     `json:"client_id" db:"client_id"`
	AgentID          string     `json:"agent_id,omitempty" db:"agent_id"` // empty until claimed
	ClientHoldAmount float64    `json:"client_hold_amount" db:"client_hold_amount"`
	AgentHoldAmount  float64    `json:"agent_hold_amount" db:"agent_hold_amount"`
	DeliveryFees     float64    `json:"delivery_fees" db:"delivery_fees"`
	Currency         string     `json:"currency" db:"currency"`
	Status           HoldStatus `json:"status" db:"status"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}
