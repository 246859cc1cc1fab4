package services

import "errors"

var (
	// Precondition violations on a ledger operation. Nothing is written when
	// these are returned.
	ErrInsufficientAvailableBalance = errors.New("insufficient available balance")
	ErrInsufficientWithheldBalance  = errors.New("insufficient withheld balance")
	ErrUnsupportedTransactionType   = errors.New("unsupported transaction type")
	ErrInvalidAmount                = errors.New("amount must be greater than zero")

	ErrAccountNotFound = errors.New("account not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrHQUserNotFound  = errors.New("platform HQ user not found")

	// ErrInvalidHoldTransition is returned when completing or cancelling a
	// hold that is no longer active.
	ErrInvalidHoldTransition = errors.New("invalid order hold transition")

	// ErrLedgerInconsistent is returned when a transaction record was
	// inserted but the balance write could not be applied. The ledger needs
	// operational follow-up; this must never be swallowed.
	ErrLedgerInconsistent = errors.New("ledger inconsistent: transaction recorded but balances not updated")
)
