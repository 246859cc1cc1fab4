package services

import (
	"context"
	"fmt"
	"log"

	"github.com/rendasua/settlement/internal/models"
	"github.com/rendasua/settlement/internal/store"
)

// feeEligibleStatuses are the order statuses after which a client-initiated
// cancellation incurs the country's cancellation fee.
var feeEligibleStatuses = map[string]bool{
	"confirmed":        true,
	"preparing":        true,
	"ready_for_pickup": true,
}

// HoldService runs the escrow lifecycle for orders: one hold per order,
// active until the order completes or is cancelled.
type HoldService struct {
	store          store.Store
	ledger         *LedgerService
	commissions    *CommissionService
	defaultCountry string
}

func NewHoldService(st store.Store, ledger *LedgerService, commissions *CommissionService, defaultCountry string) *HoldService {
	return &HoldService{
		store:          st,
		ledger:         ledger,
		commissions:    commissions,
		defaultCountry: defaultCountry,
	}
}

// GetOrCreateHold returns the order's hold, creating an active one on first
// reference with the full order total held against the client and nothing
// against an agent yet.
func (hs *HoldService) GetOrCreateHold(ctx context.Context, order *models.Order) (*models.OrderHold, error) {
	hold, err := hs.store.FindOrderHold(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if hold != nil {
		return hold, nil
	}

	log.Printf("[HOLD] No hold for order %s, creating", order.ID)
	return hs.store.CreateOrderHold(ctx, &models.OrderHold{
		OrderID:          order.ID,
		ClientID:         order.ClientUserID,
		ClientHoldAmount: order.TotalAmount,
		AgentHoldAmount:  0,
		DeliveryFees:     0,
		Currency:         order.Currency,
		Status:           models.HoldActive,
	})
}

// Complete settles a delivered order: releases the agent and client escrow,
// charges the client the order total, distributes commissions, and marks
// the hold completed. The releases are independent legs; a failed release
// is logged and the remaining legs still run. The payment leg is the one
// step that aborts completion when it fails. Commission distribution
// failure never blocks completion.
func (hs *HoldService) Complete(ctx context.Context, order *models.Order) error {
	hold, err := hs.GetOrCreateHold(ctx, order)
	if err != nil {
		return err
	}
	if hold.Status != models.HoldActive {
		return fmt.Errorf("hold %s is %s: %w", hold.ID, hold.Status, ErrInvalidHoldTransition)
	}

	hs.releaseAgentHold(ctx, order, hold)

	clientAccount, err := hs.ledger.GetOrCreateAccount(ctx, order.ClientUserID, order.Currency)
	if err != nil {
		return fmt.Errorf("resolve client account: %w", err)
	}

	if hold.ClientHoldAmount > 0 {
		memo := fmt.Sprintf("Hold released for order %s", order.OrderNumber)
		if _, err := hs.ledger.RegisterTransaction(ctx, clientAccount.ID, hold.ClientHoldAmount, models.TransactionRelease, memo, order.ID); err != nil {
			log.Printf("[HOLD] Failed to release client hold for order %s: %v", order.ID, err)
		}
	}

	hs.releaseDeliveryFees(ctx, order, hold, clientAccount.ID)

	memo := fmt.Sprintf("Order payment received for order %s", order.OrderNumber)
	if _, err := hs.ledger.RegisterTransaction(ctx, clientAccount.ID, order.TotalAmount, models.TransactionPayment, memo, order.ID); err != nil {
		return fmt.Errorf("order payment: %w", err)
	}

	if _, err := hs.commissions.Distribute(ctx, order.ID); err != nil {
		log.Printf("[HOLD] Commission distribution failed for order %s: %v", order.ID, err)
	}

	if err := hs.store.UpdateOrderHoldStatus(ctx, hold.ID, models.HoldCompleted); err != nil {
		return fmt.Errorf("mark hold completed: %w", err)
	}

	log.Printf("[HOLD] Order %s settled, hold %s completed", order.ID, hold.ID)
	return nil
}

// Cancel unwinds an order's escrow. A client cancelling after the business
// confirmed pays the country-scoped cancellation fee to the business; the
// client then gets back the held amount minus that fee. Business-initiated
// cancellation refunds in full.
func (hs *HoldService) Cancel(ctx context.Context, order *models.Order, cancelledBy, previousStatus string) error {
	hold, err := hs.GetOrCreateHold(ctx, order)
	if err != nil {
		return err
	}
	if hold.Status != models.HoldActive {
		return fmt.Errorf("hold %s is %s: %w", hold.ID, hold.Status, ErrInvalidHoldTransition)
	}

	hs.releaseAgentHold(ctx, order, hold)

	clientAccount, err := hs.ledger.GetOrCreateAccount(ctx, order.ClientUserID, order.Currency)
	if err != nil {
		return fmt.Errorf("resolve client account: %w", err)
	}

	cancellationFee := 0.0
	if cancelledBy == "client" && feeEligibleStatuses[previousStatus] {
		cancellationFee, err = hs.chargeCancellationFee(ctx, order, clientAccount.ID)
		if err != nil {
			return err
		}
	} else if cancelledBy == "business" {
		log.Printf("[HOLD] Business cancelled order %s, no cancellation fee", order.ID)
	}

	refund := hold.ClientHoldAmount - cancellationFee
	if refund > 0 {
		memo := fmt.Sprintf("Hold released for order %s", order.OrderNumber)
		if cancellationFee > 0 {
			memo = fmt.Sprintf("%s (cancellation fee: %v deducted)", memo, cancellationFee)
		}
		if _, err := hs.ledger.RegisterTransaction(ctx, clientAccount.ID, refund, models.TransactionRelease, memo, order.ID); err != nil {
			log.Printf("[HOLD] Failed to release client hold for order %s: %v", order.ID, err)
		}
	}

	hs.releaseDeliveryFees(ctx, order, hold, clientAccount.ID)

	if err := hs.store.UpdateOrderHoldStatus(ctx, hold.ID, models.HoldCancelled); err != nil {
		return fmt.Errorf("mark hold cancelled: %w", err)
	}

	log.Printf("[HOLD] Order %s cancellation settled (fee %v), hold %s cancelled", order.ID, cancellationFee, hold.ID)
	return nil
}

// CompleteOrder settles the order identified by orderID; the entry point
// used by the event worker.
func (hs *HoldService) CompleteOrder(ctx context.Context, orderID string) error {
	order, err := hs.store.GetCommissionOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}
	return hs.Complete(ctx, order)
}

// CancelOrder unwinds the order identified by orderID; the entry point used
// by the event worker.
func (hs *HoldService) CancelOrder(ctx context.Context, orderID, cancelledBy, previousStatus string) error {
	order, err := hs.store.GetCommissionOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}
	return hs.Cancel(ctx, order, cancelledBy, previousStatus)
}

// releaseAgentHold returns the agent's escrowed amount, if there is an
// assigned agent with a positive hold. Failure is logged and never fatal to
// the enclosing lifecycle step.
func (hs *HoldService) releaseAgentHold(ctx context.Context, order *models.Order, hold *models.OrderHold) {
	if order.AssignedAgent == nil || hold.AgentHoldAmount <= 0 {
		return
	}

	agentAccount, err := hs.ledger.GetOrCreateAccount(ctx, order.AssignedAgent.UserID, order.Currency)
	if err != nil {
		log.Printf("[HOLD] Failed to resolve agent account for order %s: %v", order.ID, err)
		return
	}

	memo := fmt.Sprintf("Hold released for order %s", order.OrderNumber)
	if _, err := hs.ledger.RegisterTransaction(ctx, agentAccount.ID, hold.AgentHoldAmount, models.TransactionRelease, memo, order.ID); err != nil {
		log.Printf("[HOLD] Failed to release agent hold for order %s: %v", order.ID, err)
		return
	}
	log.Printf("[HOLD] Released agent hold of %v for order %s", hold.AgentHoldAmount, order.ID)
}

// releaseDeliveryFees returns the separately-held delivery fees to the
// client. Like the agent leg, failure is logged and not fatal.
func (hs *HoldService) releaseDeliveryFees(ctx context.Context, order *models.Order, hold *models.OrderHold, clientAccountID string) {
	if hold.DeliveryFees <= 0 {
		return
	}
	memo := fmt.Sprintf("Hold released for order %s delivery fee", order.OrderNumber)
	if _, err := hs.ledger.RegisterTransaction(ctx, clientAccountID, hold.DeliveryFees, models.TransactionRelease, memo, order.ID); err != nil {
		log.Printf("[HOLD] Failed to release delivery fees hold for order %s: %v", order.ID, err)
	}
}

// chargeCancellationFee looks up the business country's fee and moves it
// from the client to the business as a paired fee/deposit. Returns the fee
// actually charged; zero when no fee is configured.
func (hs *HoldService) chargeCancellationFee(ctx context.Context, order *models.Order, clientAccountID string) (float64, error) {
	countryCode, err := hs.store.GetOrderBusinessCountry(ctx, order.ID)
	if err != nil {
		return 0, fmt.Errorf("resolve business country: %w", err)
	}
	if countryCode == "" {
		log.Printf("[HOLD] Country code not found for order %s, defaulting to %s", order.ID, hs.defaultCountry)
		countryCode = hs.defaultCountry
	}

	fee, ok, err := hs.store.GetCancellationFee(ctx, countryCode)
	if err != nil {
		return 0, fmt.Errorf("resolve cancellation fee: %w", err)
	}
	if !ok || fee <= 0 {
		log.Printf("[HOLD] No cancellation fee configured for %s, none charged for order %s", countryCode, order.ID)
		return 0, nil
	}

	businessAccount, err := hs.ledger.GetOrCreateAccount(ctx, order.BusinessUserID, order.Currency)
	if err != nil {
		return 0, fmt.Errorf("resolve business account: %w", err)
	}

	clientMemo := fmt.Sprintf("Cancellation fee for order %s", order.OrderNumber)
	if _, err := hs.ledger.RegisterTransaction(ctx, clientAccountID, fee, models.TransactionFee, clientMemo, order.ID); err != nil {
		return 0, fmt.Errorf("charge cancellation fee: %w", err)
	}

	businessMemo := fmt.Sprintf("Cancellation fee received for order %s", order.OrderNumber)
	if _, err := hs.ledger.RegisterTransaction(ctx, businessAccount.ID, fee, models.TransactionDeposit, businessMemo, order.ID); err != nil {
		return 0, fmt.Errorf("credit cancellation fee: %w", err)
	}

	log.Printf("[HOLD] Charged cancellation fee of %v for order %s (%s)", fee, order.ID, countryCode)
	return fee, nil
}
