package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rendasua/settlement/internal/models"
)

// PostgresStore implements Store on a plain database/sql connection.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `id, user_id, currency, available_balance, withheld_balance, total_balance, version, is_active, created_at, updated_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID, &a.UserID, &a.Currency,
		&a.AvailableBalance, &a.WithheldBalance, &a.TotalBalance,
		&a.Version, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) FindAccount(ctx context.Context, userID, currency string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = $1 AND currency = $2 AND is_active = true
		LIMIT 1`, userID, currency)

	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) CreateAccount(ctx context.Context, userID, currency string) (*models.Account, error) {
	// Upsert so that concurrent first references to the same (user, currency)
	// pair converge on one row instead of racing a read-then-insert.
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, user_id, currency, available_balance, withheld_balance, total_balance, version, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, 0, 0, true, NOW(), NOW())
		ON CONFLICT (user_id, currency) DO UPDATE SET updated_at = NOW()
		RETURNING `+accountColumns, uuid.NewString(), userID, currency)

	account, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) GetAccountByID(ctx context.Context, accountID string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1`, accountID)

	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) InsertTransaction(ctx context.Context, tx *models.AccountTransaction) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account_transactions (id, account_id, amount, transaction_type, memo, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, tx.AccountID, tx.Amount, string(tx.Type), tx.Memo, tx.ReferenceID, time.Now())
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateAccountBalances(ctx context.Context, accountID string, available, withheld float64, version int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET available_balance = $1,
		    withheld_balance = $2,
		    total_balance = $1 + $2,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $3 AND version = $4`,
		available, withheld, accountID, version)
	if err != nil {
		return fmt.Errorf("update account balances: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account %s: %w", accountID, ErrVersionConflict)
	}
	return nil
}

func (s *PostgresStore) ListAccountTransactions(ctx context.Context, accountID string, limit int) ([]models.AccountTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, amount, transaction_type, memo, reference_id, created_at
		FROM account_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list account transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.AccountTransaction{}
	for rows.Next() {
		var tx models.AccountTransaction
		var txType string
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.Amount, &txType, &tx.Memo, &tx.ReferenceID, &tx.CreatedAt); err != nil {
			return nil, err
		}
		tx.Type = models.TransactionType(txType)
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

const holdColumns = `id, order_id, client_id, COALESCE(agent_id, ''), client_hold_amount, agent_hold_amount, delivery_fees, currency, status, created_at, updated_at`

func scanHold(row *sql.Row) (*models.OrderHold, error) {
	var h models.OrderHold
	var status string
	err := row.Scan(
		&h.ID, &h.OrderID, &h.ClientID, &h.AgentID,
		&h.ClientHoldAmount, &h.AgentHoldAmount, &h.DeliveryFees,
		&h.Currency, &status, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	h.Status = models.HoldStatus(status)
	return &h, nil
}

func (s *PostgresStore) FindOrderHold(ctx context.Context, orderID string) (*models.OrderHold, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+holdColumns+`
		FROM order_holds
		WHERE order_id = $1
		LIMIT 1`, orderID)

	hold, err := scanHold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order hold: %w", err)
	}
	return hold, nil
}

func (s *PostgresStore) CreateOrderHold(ctx context.Context, hold *models.OrderHold) (*models.OrderHold, error) {
	var agentID interface{}
	if hold.AgentID != "" {
		agentID = hold.AgentID
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO order_holds (id, order_id, client_id, agent_id, client_hold_amount, agent_hold_amount, delivery_fees, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING `+holdColumns,
		uuid.NewString(), hold.OrderID, hold.ClientID, agentID,
		hold.ClientHoldAmount, hold.AgentHoldAmount, hold.DeliveryFees,
		hold.Currency, string(hold.Status))

	created, err := scanHold(row)
	if err != nil {
		return nil, fmt.Errorf("create order hold: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) UpdateOrderHoldStatus(ctx context.Context, holdID string, status models.HoldStatus) error {
	// Only active holds transition; racing complete/cancel calls cannot
	// both flip the same hold.
	result, err := s.db.ExecContext(ctx, `
		UPDATE order_holds
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'active'`, string(status), holdID)
	if err != nil {
		return fmt.Errorf("update order hold status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("order hold %s: %w", holdID, ErrHoldNotActive)
	}
	return nil
}

var commissionConfigKeys = []string{
	models.ConfigKeyVerifiedAgentBase,
	models.ConfigKeyUnverifiedAgentBase,
	models.ConfigKeyVerifiedAgentPerKm,
	models.ConfigKeyUnverifiedAgentPerKm,
	models.ConfigKeyRendasuaItemPct,
}

func (s *PostgresStore) GetCommissionConfigValues(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT config_key, number_value
		FROM application_configurations
		WHERE config_key = ANY($1) AND status = 'active'`,
		pq.Array(commissionConfigKeys))
	if err != nil {
		return nil, fmt.Errorf("get commission config: %w", err)
	}
	defer rows.Close()

	values := map[string]float64{}
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, rows.Err()
}

func (s *PostgresStore) GetActivePartners(ctx context.Context) ([]models.Partner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, company_name, base_delivery_fee_commission, per_km_delivery_fee_commission, item_commission, is_active, created_at, updated_at
		FROM partners
		WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("get active partners: %w", err)
	}
	defer rows.Close()

	partners := []models.Partner{}
	for rows.Next() {
		var p models.Partner
		if err := rows.Scan(&p.ID, &p.UserID, &p.CompanyName,
			&p.BaseDeliveryFeeCommission, &p.PerKmDeliveryFeeCommission, &p.ItemCommission,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

func (s *PostgresStore) GetPlatformHQUser(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, COALESCE(phone_number, ''), created_at
		FROM users
		WHERE email = $1
		LIMIT 1`, email).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get platform hq user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetCommissionOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	var agentUserID sql.NullString
	var agentVerified sql.NullBool
	err := s.db.QueryRowContext(ctx, `
		SELECT o.id, o.order_number, c.user_id, b.user_id,
		       a.user_id, a.is_verified,
		       o.base_delivery_fee, o.per_km_delivery_fee, o.subtotal, o.total_amount, o.currency
		FROM orders o
		JOIN clients c ON o.client_id = c.id
		JOIN businesses b ON o.business_id = b.id
		LEFT JOIN agents a ON o.assigned_agent_id = a.id
		WHERE o.id = $1`, orderID).Scan(
		&o.ID, &o.OrderNumber, &o.ClientUserID, &o.BusinessUserID,
		&agentUserID, &agentVerified,
		&o.BaseDeliveryFee, &o.PerKmDeliveryFee, &o.Subtotal, &o.TotalAmount, &o.Currency)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get commission order: %w", err)
	}

	if agentUserID.Valid {
		o.AssignedAgent = &models.AssignedAgent{
			UserID:     agentUserID.String,
			IsVerified: agentVerified.Valid && agentVerified.Bool,
		}
	}
	return &o, nil
}

func (s *PostgresStore) InsertCommissionPayout(ctx context.Context, payout *models.CommissionPayout) (string, error) {
	// The unique idempotency key makes re-running a distribution safe. A
	// conflicting row with no linked transaction is an unpaid claim from a
	// run whose deposit failed; re-claim it so the leg gets paid. Only rows
	// already linked to a transaction insert nothing.
	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO commission_payouts (id, order_id, recipient_user_id, recipient_type, commission_type, amount, currency, commission_percentage, account_transaction_id, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (idempotency_key) DO UPDATE
		SET amount = EXCLUDED.amount,
		    commission_percentage = EXCLUDED.commission_percentage,
		    created_at = NOW()
		WHERE commission_payouts.account_transaction_id = ''
		RETURNING id`,
		uuid.NewString(), payout.OrderID, payout.RecipientUserID,
		string(payout.RecipientType), string(payout.CommissionType),
		payout.Amount, payout.Currency, payout.CommissionPercentage,
		payout.AccountTransactionID, payout.IdempotencyKey).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("payout %s: %w", payout.IdempotencyKey, ErrDuplicatePayout)
	}
	if err != nil {
		return "", fmt.Errorf("insert commission payout: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) LinkPayoutTransaction(ctx context.Context, payoutID, transactionID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE commission_payouts
		SET account_transaction_id = $1
		WHERE id = $2`, transactionID, payoutID)
	if err != nil {
		return fmt.Errorf("link payout transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetOrderPayouts(ctx context.Context, orderID string) ([]models.CommissionPayout, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, recipient_user_id, recipient_type, commission_type, amount, currency, commission_percentage, account_transaction_id, idempotency_key, created_at
		FROM commission_payouts
		WHERE order_id = $1
		ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order payouts: %w", err)
	}
	defer rows.Close()

	payouts := []models.CommissionPayout{}
	for rows.Next() {
		var p models.CommissionPayout
		var recipientType, commissionType string
		var percentage sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.OrderID, &p.RecipientUserID, &recipientType, &commissionType,
			&p.Amount, &p.Currency, &percentage, &p.AccountTransactionID, &p.IdempotencyKey, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.RecipientType = models.RecipientType(recipientType)
		p.CommissionType = models.CommissionType(commissionType)
		if percentage.Valid {
			v := percentage.Float64
			p.CommissionPercentage = &v
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

func (s *PostgresStore) GetCancellationFee(ctx context.Context, countryCode string) (float64, bool, error) {
	var fee float64
	err := s.db.QueryRowContext(ctx, `
		SELECT number_value
		FROM application_configurations
		WHERE config_key = 'cancellation_fee' AND country_code = $1 AND status = 'active'
		LIMIT 1`, countryCode).Scan(&fee)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get cancellation fee: %w", err)
	}
	return fee, true, nil
}

func (s *PostgresStore) GetOrderBusinessCountry(ctx context.Context, orderID string) (string, error) {
	var country sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT bl.country_code
		FROM orders o
		JOIN business_locations bl ON o.business_location_id = bl.id
		WHERE o.id = $1`, orderID).Scan(&country)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get order business country: %w", err)
	}
	if !country.Valid {
		return "", nil
	}
	return country.String, nil
}
