package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/rendasua/settlement/internal/models"
	"github.com/rendasua/settlement/internal/store"
)

// BalanceUpdate is the signed effect of a transaction on the two balance
// buckets. Amounts supplied to the ledger are always positive magnitudes;
// the transaction type alone decides sign and bucket.
type BalanceUpdate struct {
	Available float64
	Withheld  float64
}

// BalanceDelta maps a transaction type and positive amount to its balance
// effect. It performs no I/O and enforces no preconditions; see
// checkSufficientFunds for the funds checks.
func BalanceDelta(kind models.TransactionType, amount float64) (BalanceUpdate, error) {
	switch kind {
	case models.TransactionDeposit:
		return BalanceUpdate{Available: amount}, nil
	case models.TransactionHold:
		return BalanceUpdate{Available: -amount, Withheld: amount}, nil
	case models.TransactionRelease:
		return BalanceUpdate{Available: amount, Withheld: -amount}, nil
	case models.TransactionPayment, models.TransactionFee:
		return BalanceUpdate{Available: -amount}, nil
	default:
		return BalanceUpdate{}, fmt.Errorf("%w: %s", ErrUnsupportedTransactionType, kind)
	}
}

// checkSufficientFunds enforces the per-bucket preconditions: any decrease
// of a bucket requires the bucket to cover it.
func checkSufficientFunds(account *models.Account, update BalanceUpdate) error {
	if update.Available < 0 && account.AvailableBalance < -update.Available {
		return fmt.Errorf("account %s: %w", account.ID, ErrInsufficientAvailableBalance)
	}
	if update.Withheld < 0 && account.WithheldBalance < -update.Withheld {
		return fmt.Errorf("account %s: %w", account.ID, ErrInsufficientWithheldBalance)
	}
	return nil
}

// LedgerService applies transaction semantics against stored accounts.
type LedgerService struct {
	store          store.Store
	balanceRetries int
}

func NewLedgerService(st store.Store) *LedgerService {
	return &LedgerService{store: st, balanceRetries: 3}
}

// GetOrCreateAccount returns the unique active account for the
// (user, currency) pair, creating it with zero balances on first reference.
// Creation is an upsert at the store, so concurrent callers converge on one
// account.
func (ls *LedgerService) GetOrCreateAccount(ctx context.Context, userID, currency string) (*models.Account, error) {
	account, err := ls.store.FindAccount(ctx, userID, currency)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	log.Printf("[LEDGER] Account not found for user %s (%s), creating", userID, currency)
	return ls.store.CreateAccount(ctx, userID, currency)
}

// RegisterTransaction validates and applies one ledger operation: it inserts
// the immutable transaction record, then writes the post-delta balances with
// a version-stamped update, retrying on concurrent modification. The two
// writes are not one database transaction; if the balance write ultimately
// fails after the record was inserted, the error wraps ErrLedgerInconsistent
// so operators can reconcile.
func (ls *LedgerService) RegisterTransaction(ctx context.Context, accountID string, amount float64, kind models.TransactionType, memo, referenceID string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("%w: got %v", ErrInvalidAmount, amount)
	}

	update, err := BalanceDelta(kind, amount)
	if err != nil {
		return "", err
	}

	account, err := ls.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", fmt.Errorf("account %s: %w", accountID, ErrAccountNotFound)
	}

	if err := checkSufficientFunds(account, update); err != nil {
		return "", err
	}

	transactionID, err := ls.store.InsertTransaction(ctx, &models.AccountTransaction{
		AccountID:   accountID,
		Amount:      amount,
		Type:        kind,
		Memo:        memo,
		ReferenceID: referenceID,
	})
	if err != nil {
		return "", fmt.Errorf("register %s transaction: %w", kind, err)
	}

	if err := ls.applyBalanceUpdate(ctx, account, update); err != nil {
		log.Printf("[LEDGER] Balance update failed after transaction %s was recorded: %v", transactionID, err)
		return transactionID, fmt.Errorf("transaction %s: %w: %v", transactionID, ErrLedgerInconsistent, err)
	}

	log.Printf("[LEDGER] Registered %s of %v on account %s (tx %s)", kind, amount, accountID, transactionID)
	return transactionID, nil
}

// applyBalanceUpdate writes account balances with optimistic concurrency:
// on a version conflict the account is re-read, the precondition re-checked
// against fresh balances, and the update retried.
func (ls *LedgerService) applyBalanceUpdate(ctx context.Context, account *models.Account, update BalanceUpdate) error {
	var err error
	for attempt := 0; attempt < ls.balanceRetries; attempt++ {
		if attempt > 0 {
			account, err = ls.store.GetAccountByID(ctx, account.ID)
			if err != nil {
				return err
			}
			if account == nil {
				return fmt.Errorf("account vanished: %w", ErrAccountNotFound)
			}
			if err := checkSufficientFunds(account, update); err != nil {
				return err
			}
		}

		newAvailable := account.AvailableBalance + update.Available
		newWithheld := account.WithheldBalance + update.Withheld

		err = ls.store.UpdateAccountBalances(ctx, account.ID, newAvailable, newWithheld, account.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		log.Printf("[LEDGER] Version conflict on account %s, retrying (%d)", account.ID, attempt+1)
	}
	return err
}
