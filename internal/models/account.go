package models

import (
	"time"
)

// Account holds a user's funds in a single currency. AvailableBalance is
// spendable; WithheldBalance is escrowed against open orders. TotalBalance
// is recomputed by the store on every balance write and must always equal
// available + withheld.
type Account struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"user_id" db:"user_id"`
	Currency         string    `json:"currency" db:"currency"`
	AvailableBalance float64   `json:"available_balance" db:"available_balance"`
	WithheldBalance  float64   `json:"withheld_balance" db:"withheld_balance"`
	TotalBalance     float64   `json:"total_balance" db:"total_balance"`
	Version          int       `json:"version" db:"version"` // for optimistic locking
	IsActive         bool      `json:"is_active" db:"is_active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// TransactionType is the closed set of ledger entry kinds. The signed effect
// on balances is derived from the type, never stored.
type TransactionType string

const (
	TransactionDeposit TransactionType = "deposit"
	TransactionHold    TransactionType = "hold"
	TransactionRelease TransactionType = "release"
	TransactionPayment TransactionType = "payment"
	TransactionFee     TransactionType = "fee"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionDeposit, TransactionHold, TransactionRelease, TransactionPayment, TransactionFee:
		return true
	}
	return false
}

// AccountTransaction is an immutable ledger entry. Amount is always a
// positive magnitude.
type AccountTransaction struct {
	ID          string          `json:"id" db:"id"`
	AccountID   string          `json:"account_id" db:"account_id"`
	Amount      float64         `json:"amount" db:"amount"`
	Type        TransactionType `json:"transaction_type" db:"transaction_type"`
	Memo        string          `json:"memo" db:"memo"`
	ReferenceID string          `json:"reference_id" db:"reference_id"` // usually an order id
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
