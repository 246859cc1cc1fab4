package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/rendasua/settlement/internal/models"
)

func holdOrder() *models.Order {
	return &models.Order{
		ID:             "order-1",
		OrderNumber:    "ORD-001",
		ClientUserID:   "client-1",
		BusinessUserID: "business-1",
		Subtotal:       900,
		TotalAmount:    1000,
		Currency:       "XAF",
	}
}

func activeHold(clientAmount, agentAmount, deliveryFees float64) *models.OrderHold {
	return &models.OrderHold{
		ID:               "hold-1",
		OrderID:          "order-1",
		ClientID:         "client-1",
		ClientHoldAmount: clientAmount,
		AgentHoldAmount:  agentAmount,
		DeliveryFees:     deliveryFees,
		Currency:         "XAF",
		Status:           models.HoldActive,
	}
}

// holdFixture wires a HoldService over a MockStore and records every ledger
// entry written during the test.
type holdFixture struct {
	store   *MockStore
	service *HoldService
	writes  []models.AccountTransaction
}

func newHoldFixture(t *testing.T) *holdFixture {
	t.Helper()
	st := new(MockStore)
	ledger := NewLedgerService(st)
	commissions := NewCommissionService(st, ledger, hqEmail)

	f := &holdFixture{
		store:   st,
		service: NewHoldService(st, ledger, commissions, "GA"),
	}

	st.On("InsertTransaction", mock.Anything, mock.MatchedBy(func(tx *models.AccountTransaction) bool {
		f.writes = append(f.writes, *tx)
		return true
	})).Return("tx-1", nil)
	st.On("UpdateAccountBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return f
}

func (f *holdFixture) writesOfType(kind models.TransactionType) []models.AccountTransaction {
	var out []models.AccountTransaction
	for _, tx := range f.writes {
		if tx.Type == kind {
			out = append(out, tx)
		}
	}
	return out
}

func TestHoldService_GetOrCreateHold(t *testing.T) {
	ctx := context.Background()

	t.Run("creates active hold for the order total", func(t *testing.T) {
		f := newHoldFixture(t)
		order := holdOrder()

		f.store.On("FindOrderHold", mock.Anything, "order-1").Return(nil, nil).Once()
		f.store.On("CreateOrderHold", mock.Anything, mock.MatchedBy(func(h *models.OrderHold) bool {
			return h.OrderID == "order-1" &&
				h.ClientID == "client-1" &&
				h.ClientHoldAmount == 1000 &&
				h.AgentHoldAmount == 0 &&
				h.Status == models.HoldActive
		})).Return(activeHold(1000, 0, 0), nil).Once()

		hold, err := f.service.GetOrCreateHold(ctx, order)
		assert.NoError(t, err)
		assert.Equal(t, "hold-1", hold.ID)
		f.store.AssertExpectations(t)
	})

	t.Run("returns existing hold untouched", func(t *testing.T) {
		f := newHoldFixture(t)
		existing := activeHold(1000, 0, 0)

		f.store.On("FindOrderHold", mock.Anything, "order-1").Return(existing, nil).Once()

		hold, err := f.service.GetOrCreateHold(ctx, holdOrder())
		assert.NoError(t, err)
		assert.Same(t, existing, hold)
		f.store.AssertNotCalled(t, "CreateOrderHold", mock.Anything, mock.Anything)
	})
}

func TestHoldService_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("releases escrow, charges payment and completes the hold", func(t *testing.T) {
		f := newHoldFixture(t)
		order := holdOrder()
		order.AssignedAgent = &models.AssignedAgent{UserID: "agent-1"}

		f.store.On("FindOrderHold", mock.Anything, "order-1").Return(activeHold(1000, 200, 50), nil).Once()
		f.store.On("FindAccount", mock.Anything, "agent-1", "XAF").Return(testAccount(0, 200), nil)
		f.store.On("FindAccount", mock.Anything, "client-1", "XAF").Return(testAccount(0, 1050), nil)
		f.store.On("GetAccountByID", mock.Anything, "acc-1").Return(testAccount(2000, 2000), nil)

		// Commission distribution runs against a snapshot that is gone by
		// the time it refetches; completion must not care.
		f.store.On("GetCommissionOrder", mock.Anything, "order-1").Return(nil, nil).Once()
		f.store.On("UpdateOrderHoldStatus", mock.Anything, "hold-1", models.HoldCompleted).Return(nil).Once()

		err := f.service.Complete(ctx, order)
		assert.NoError(t, err)

		releases := f.writesOfType(models.TransactionRelease)
		assert.Len(t, releases, 3)
		assert.Equal(t, 200.0, releases[0].Amount)
		assert.Equal(t, "Hold released for order ORD-001", releases[0].Memo)
		assert.Equal(t, 1000.0, releases[1].Amount)
		assert.Equal(t, 50.0, releases[2].Amount)
		assert.Equal(t, "Hold released for order ORD-001 delivery fee", releases[2].Memo)

		payments := f.writesOfType(models.TransactionPayment)
		assert.Len(t, payments, 1)
		assert.Equal(t, 1000.0, payments[0].Amount)
		assert.Equal(t, "Order payment received for order ORD-001", payments[0].Memo)

		f.store.AssertExpectations(t)
	})

	t.Run("completed hold cannot complete again", func(t *testing.T) {
		f := newHoldFixture(t)
		done := activeHold(1000, 0, 0)
		done.Status = models.HoldCompleted

		f.store.On("FindOrderHold", mock.Anything, "order-1").Return(done, nil).Once()

		err := f.service.Complete(ctx, holdOrder())
		assert.ErrorIs(t, err, ErrInvalidHoldTransition)
		f.store.AssertNotCalled(t, "UpdateOrderHoldStatus", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.writes)
	})

	t.Run("failed payment aborts completion", func(t *testing.T) {
		f := newHoldFixture(t)

		f.store.On("FindOrderHold", mock.Anything, "order-1").Return(activeHold(1000, 0, 0), nil).Once()
		f.store.On("FindAccount", mock.Anything, "client-1", "XAF").Return(testAccount(0, 1000), nil)
		// Insufficient available balance: the release leg fails silently but
		// the payment precondition then fails too, which is fatal.
		f.store.On("GetAccountByID", mock.Anything, "acc-1").Return(testAccount(0, 0), nil)

		err := f.service.Complete(ctx, holdOrder())
		assert.ErrorIs(t, err, ErrInsufficientAvailableBalance)
		f.store.AssertNotCalled(t, "UpdateOrderHoldStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHoldService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("client cancel after confirmation pays the fee to the business", func(t *testing.T) {
		f := newHoldFixture(t)

		f.store.On("FindOrderHold", mock.Anything, "order-1").Return(activeHold(1000, 0, 0), nil).Once()
		f.store.On("FindAccount", mock.Anything, "client-1", "XAF").Return(testAccount(500, 1000), nil)
		f.store.On("FindAccount", mock.Anything, "business-1", "XAF").Return(testAccount(0, 0), nil)
		f.store.On("GetAccountByID", mock.Anything, "acc-1").Return(testAccount(500, 1000), nil)
		f.store.On("GetOrderBusinessCountry", mock.Anything, "order-1").Return("", nil).Once()
		f.store.On("GetCancellationFee", mock.Anything, "GA").Return(200.0, true, nil).Once()
		f.store.On("UpdateOrderHoldStatus", mock.Anything, "hold-1", models.HoldCancelled).Return(nil).Once()

		err := f.service.Cancel(ctx, holdOrder(), "client", "confirmed")
		assert.NoError(t, err)

		fees := f.writesOfType(models.TransactionFee)
		assert.Len(t, fees, 1)
		assert.Equal(t, 200.0, fees[0].Amount)
		assert.Equal(t, "Cancellation fee for order ORD-001", fees[0].Memo)

		deposits := f.writesOfType(models.TransactionDeposit)
		assert.Len(t, deposits, 1)
		assert.Equal(t, 200.0, deposits[0].Amount)
		assert.Equal(t, "Cancellation fee received for order ORD-001", deposits[0].Memo)

		releases := f.writesOfType(models.TransactionRelease)
		assert.Len(t, releases, 1)
		assert.Equal(t, 800.0, releases[0].Amount)
		assert.Contains(t, releases[0].Memo, "cancellation fee: 200 deducted")

		f.store.AssertExpectations(t)
	})

	t.Run("business cancel refunds in full with no fee", func(t *testing.T) {
		f := newHoldFixture(t)

		f.store.On("FindOrderHold", mock.Anything, "order-1").Return(activeHold(1000, 0, 0), nil).Once()
		f.store.On("FindAccount", mock.Anything, "client-1", "XAF").Return(testAccount(0, 1000), nil)
		f.store.On("GetAccountByID", mock.Anything, "acc-1").Return(testAccount(0, 1000), nil)
		f.store.On("UpdateOrderHoldStatus", mock.Anything, "hold-1", models.HoldCancelled).Return(nil).Once()

		err := f.service.Cancel(ctx, holdOrder(), "business", "confirmed")
		assert.NoError(t, err)

		assert.Empty(t, f.writesOfType(models.TransactionFee))
		releases := f.writesOfType(models.TransactionRelease)
		assert.Len(t, releases, 1)
		assert.Equal(t, 1000.0, releases[0].Amount)
		assert.Equal(t, "Hold released for order ORD-001", releases[0].Memo)
		f.store.AssertNotCalled(t, "GetCancellationFee", mock.Anything, mock.Anything)
	})

	t.Run("client cancel before confirmation charges no fee", func(t *testing.T) {
		f := newHoldFixture(t)

		f.store.On("FindOrderHold", mock.Anything, "order-1").Return(activeHold(1000, 0, 0), nil).Once()
		f.store.On("FindAccount", mock.Anything, "client-1", "XAF").Return(testAccount(0, 1000), nil)
		f.store.On("GetAccountByID", mock.Anything, "acc-1").Return(testAccount(0, 1000), nil)
		f.store.On("UpdateOrderHoldStatus", mock.Anything, "hold-1", models.HoldCancelled).Return(nil).Once()

		err := f.service.Cancel(ctx, holdOrder(), "client", "pending")
		assert.NoError(t, err)

		assert.Empty(t, f.writesOfType(models.TransactionFee))
		f.store.AssertNotCalled(t, "GetCancellationFee", mock.Anything, mock.Anything)
	})

	t.Run("no configured fee for the country charges nothing", func(t *testing.T) {
		f := newHoldFixture(t)

		f.store.On("FindOrderHold", mock.Anything, "order-1").Return(activeHold(1000, 0, 0), nil).Once()
		f.store.On("FindAccount", mock.Anything, "client-1", "XAF").Return(testAccount(0, 1000), nil)
		f.store.On("GetAccountByID", mock.Anything, "acc-1").Return(testAccount(0, 1000), nil)
		f.store.On("GetOrderBusinessCountry", mock.Anything, "order-1").Return("CM", nil).Once()
		f.store.On("GetCancellationFee", mock.Anything, "CM").Return(0.0, false, nil).Once()
		f.store.On("UpdateOrderHoldStatus", mock.Anything, "hold-1", models.HoldCancelled).Return(nil).Once()

		err := f.service.Cancel(ctx, holdOrder(), "client", "preparing")
		assert.NoError(t, err)

		assert.Empty(t, f.writesOfType(models.TransactionFee))
		releases := f.writesOfType(models.TransactionRelease)
		assert.Len(t, releases, 1)
		assert.Equal(t, 1000.0, releases[0].Amount)
	})

	t.Run("cancelled hold cannot cancel again", func(t *testing.T) {
		f := newHoldFixture(t)
		gone := activeHold(1000, 0, 0)
		gone.Status = models.HoldCancelled

		f.store.On("FindOrderHold", mock.Anything, "order-1").Return(gone, nil).Once()

		err := f.service.Cancel(ctx, holdOrder(), "client", "confirmed")
		assert.ErrorIs(t, err, ErrInvalidHoldTransition)
		assert.Empty(t, f.writes)
	})
}

func TestHoldService_CompleteOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("missing order", func(t *testing.T) {
		f := newHoldFixture(t)
		f.store.On("GetCommissionOrder", mock.Anything, "order-gone").Return(nil, nil).Once()

		err := f.service.CompleteOrder(ctx, "order-gone")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}
