package store

import (
	"context"
	"errors"

	"github.com/rendasua/settlement/internal/models"
)

var (
	// ErrVersionConflict is returned by UpdateAccountBalances when the
	// account row changed since it was read. Callers re-read and retry.
	ErrVersionConflict = errors.New("account version conflict")

	// ErrDuplicatePayout is returned by InsertCommissionPayout when a payout
	// with the same idempotency key already exists.
	ErrDuplicatePayout = errors.New("commission payout already recorded")

	// ErrHoldNotActive is returned by UpdateOrderHoldStatus when the hold
	// does not exist or already left the active state.
	ErrHoldNotActive = errors.New("order hold not active")
)

// Store is the durable account/transaction/payout data consumed by the
// settlement core. Find* methods return (nil, nil) when the entity does not
// exist; only infrastructure failures are errors.
type Store interface {
	FindAccount(ctx context.Context, userID, currency string) (*models.Account, error)
	// CreateAccount is an upsert: concurrent calls for the same
	// (user, currency) pair must converge on a single account row.
	CreateAccount(ctx context.Context, userID, currency string) (*models.Account, error)
	GetAccountByID(ctx context.Context, accountID string) (*models.Account, error)
	InsertTransaction(ctx context.Context, tx *models.AccountTransaction) (string, error)
	// UpdateAccountBalances writes the post-delta balances, recomputing
	// total_balance and bumping the version column. Returns
	// ErrVersionConflict when the expected version no longer matches.
	UpdateAccountBalances(ctx context.Context, accountID string, available, withheld float64, version int) error
	ListAccountTransactions(ctx context.Context, accountID string, limit int) ([]models.AccountTransaction, error)

	FindOrderHold(ctx context.Context, orderID string) (*models.OrderHold, error)
	CreateOrderHold(ctx context.Context, hold *models.OrderHold) (*models.OrderHold, error)
	// UpdateOrderHoldStatus moves an active hold to a terminal status.
	// Returns ErrHoldNotActive when the hold is missing or was already
	// transitioned, so racing complete/cancel calls cannot both win.
	UpdateOrderHoldStatus(ctx context.Context, holdID string, status models.HoldStatus) error

	// GetCommissionConfigValues returns the configured commission
	// percentages that exist; missing keys are simply absent and the caller
	// falls back to models.DefaultCommissionConfig.
	GetCommissionConfigValues(ctx context.Context) (map[string]float64, error)
	GetActivePartners(ctx context.Context) ([]models.Partner, error)
	GetPlatformHQUser(ctx context.Context, email string) (*models.User, error)
	GetCommissionOrder(ctx context.Context, orderID string) (*models.Order, error)
	// InsertCommissionPayout claims the payout's idempotency key. A prior
	// claim not yet linked to a ledger transaction is re-claimed so a
	// failed deposit can be retried; ErrDuplicatePayout is returned only
	// when the leg was already paid. The ledger transaction is linked
	// afterwards via LinkPayoutTransaction.
	InsertCommissionPayout(ctx context.Context, payout *models.CommissionPayout) (string, error)
	LinkPayoutTransaction(ctx context.Context, payoutID, transactionID string) error
	GetOrderPayouts(ctx context.Context, orderID string) ([]models.CommissionPayout, error)

	// GetCancellationFee returns the country-scoped cancellation fee; ok is
	// false when no fee is configured for the country.
	GetCancellationFee(ctx context.Context, countryCode string) (fee float64, ok bool, err error)
	// GetOrderBusinessCountry returns the country code of the order's
	// business location, or "" when unknown.
	GetOrderBusinessCountry(ctx context.Context, orderID string) (string, error)
}
