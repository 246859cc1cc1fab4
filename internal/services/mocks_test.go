package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rendasua/settlement/internal/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindAccount(ctx context.Context, userID, currency string) (*models.Account, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockStore) CreateAccount(ctx context.Context, userID, currency string) (*models.Account, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockStore) GetAccountByID(ctx context.Context, accountID string) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockStore) InsertTransaction(ctx context.Context, tx *models.AccountTransaction) (string, error) {
	args := m.Called(ctx, tx)
	return args.String(0), args.Error(1)
}

func (m *MockStore) UpdateAccountBalances(ctx context.Context, accountID string, available, withheld float64, version int) error {
	args := m.Called(ctx, accountID, available, withheld, version)
	return args.Error(0)
}

func (m *MockStore) ListAccountTransactions(ctx context.Context, accountID string, limit int) ([]models.AccountTransaction, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccountTransaction), args.Error(1)
}

func (m *MockStore) FindOrderHold(ctx context.Context, orderID string) (*models.OrderHold, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderHold), args.Error(1)
}

func (m *MockStore) CreateOrderHold(ctx context.Context, hold *models.OrderHold) (*models.OrderHold, error) {
	args := m.Called(ctx, hold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderHold), args.Error(1)
}

func (m *MockStore) UpdateOrderHoldStatus(ctx context.Context, holdID string, status models.HoldStatus) error {
	args := m.Called(ctx, holdID, status)
	return args.Error(0)
}

func (m *MockStore) GetCommissionConfigValues(ctx context.Context) (map[string]float64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

func (m *MockStore) GetActivePartners(ctx context.Context) ([]models.Partner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Partner), args.Error(1)
}

func (m *MockStore) GetPlatformHQUser(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) GetCommissionOrder(ctx context.Context, orderID string) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockStore) InsertCommissionPayout(ctx context.Context, payout *models.CommissionPayout) (string, error) {
	args := m.Called(ctx, payout)
	return args.String(0), args.Error(1)
}

func (m *MockStore) LinkPayoutTransaction(ctx context.Context, payoutID, transactionID string) error {
	args := m.Called(ctx, payoutID, transactionID)
	return args.Error(0)
}

func (m *MockStore) GetOrderPayouts(ctx context.Context, orderID string) ([]models.CommissionPayout, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CommissionPayout), args.Error(1)
}

func (m *MockStore) GetCancellationFee(ctx context.Context, countryCode string) (float64, bool, error) {
	args := m.Called(ctx, countryCode)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func (m *MockStore) GetOrderBusinessCountry(ctx context.Context, orderID string) (string, error) {
	args := m.Called(ctx, orderID)
	return args.String(0), args.Error(1)
}
