package models

// AssignedAgent is the delivery agent on an order, as far as settlement
// cares: who to pay and whether they earn verified rates.
type AssignedAgent struct {
	UserID     string `json:"user_id" db:"user_id"`
	IsVerified bool   `json:"is_verified" db:"is_verified"`
}

// Order is the settlement snapshot of an order: the fee/subtotal fields the
// commission calculator consumes plus the parties the hold lifecycle pays.
type Order struct {
	ID               string         `json:"id" db:"id"`
	OrderNumber      string         `json:"order_number" db:"order_number"`
	ClientUserID     string         `json:"client_user_id" db:"client_user_id"`
	BusinessUserID   string         `json:"business_user_id" db:"business_user_id"`
	AssignedAgent    *AssignedAgent `json:"assigned_agent,omitempty"`
	BaseDeliveryFee  float64        `json:"base_delivery_fee" db:"base_delivery_fee"`
	PerKmDeliveryFee float64        `json:"per_km_delivery_fee" db:"per_km_delivery_fee"`
	Subtotal         float64        `json:"subtotal" db:"subtotal"`
	TotalAmount      float64        `json:"total_amount" db:"total_amount"`
	Currency         string         `json:"currency" db:"currency"`
}

// AgentVerified reports whether the assigned agent, if any, is verified.
func (o *Order) AgentVerified() bool {
	return o.AssignedAgent != nil && o.AssignedAgent.IsVerified
}
