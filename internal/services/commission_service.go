package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/rendasua/settlement/internal/models"
	"github.com/rendasua/settlement/internal/store"
)

// Calculate splits an order's revenue lines into the four commission
// breakdowns. Pure arithmetic over the inputs; the agent rate depends only
// on whether the assigned agent is verified, and partner shares are summed
// over every partner in the slice. The residual of each fee goes to the
// platform and is not clamped, so rates summing above 100% produce a
// negative platform share. That is a configuration integrity problem, not
// a runtime check.
func Calculate(order *models.Order, config models.CommissionConfig, partners []models.Partner) models.CommissionBreakdown {
	agentBasePct := config.UnverifiedAgentBaseDeliveryPct
	agentPerKmPct := config.UnverifiedAgentPerKmPct
	if order.AgentVerified() {
		agentBasePct = config.VerifiedAgentBaseDeliveryPct
		agentPerKmPct = config.VerifiedAgentPerKmPct
	}

	var breakdown models.CommissionBreakdown

	baseFee := order.BaseDeliveryFee
	breakdown.BaseDeliveryFee.Agent = baseFee * agentBasePct / 100
	for _, p := range partners {
		breakdown.BaseDeliveryFee.Partner += baseFee * p.BaseDeliveryFeeCommission / 100
	}
	breakdown.BaseDeliveryFee.Rendasua = baseFee - breakdown.BaseDeliveryFee.Agent - breakdown.BaseDeliveryFee.Partner

	perKmFee := order.PerKmDeliveryFee
	breakdown.PerKmDeliveryFee.Agent = perKmFee * agentPerKmPct / 100
	for _, p := range partners {
		breakdown.PerKmDeliveryFee.Partner += perKmFee * p.PerKmDeliveryFeeCommission / 100
	}
	breakdown.PerKmDeliveryFee.Rendasua = perKmFee - breakdown.PerKmDeliveryFee.Agent - breakdown.PerKmDeliveryFee.Partner

	itemPool := order.Subtotal * config.RendasuaItemCommissionPct / 100
	for _, p := range partners {
		breakdown.ItemCommission.Partner += itemPool * p.ItemCommission / 100
	}
	breakdown.ItemCommission.Rendasua = itemPool - breakdown.ItemCommission.Partner

	rendasuaCut := order.Subtotal * config.RendasuaItemCommissionPct / 100
	breakdown.OrderSubtotal.Business = order.Subtotal - rendasuaCut
	breakdown.OrderSubtotal.Rendasua = rendasuaCut

	return breakdown
}

// CommissionService distributes a computed breakdown into recipient accounts
// and payout audit rows.
type CommissionService struct {
	store   store.Store
	ledger  *LedgerService
	hqEmail string
}

func NewCommissionService(st store.Store, ledger *LedgerService, hqEmail string) *CommissionService {
	return &CommissionService{store: st, ledger: ledger, hqEmail: hqEmail}
}

// payoutLeg is one strictly-positive slice of the breakdown headed for a
// recipient account.
type payoutLeg struct {
	recipientUserID string
	recipientType   models.RecipientType
	commissionType  models.CommissionType
	amount          float64
	percentage      *float64
}

// LoadConfig reads the stored commission percentages, falling back to
// DefaultCommissionConfig for any missing key.
func (cs *CommissionService) LoadConfig(ctx context.Context) (models.CommissionConfig, error) {
	config := models.DefaultCommissionConfig
	values, err := cs.store.GetCommissionConfigValues(ctx)
	if err != nil {
		return config, fmt.Errorf("load commission config: %w", err)
	}
	if v, ok := values[models.ConfigKeyVerifiedAgentBase]; ok {
		config.VerifiedAgentBaseDeliveryPct = v
	}
	if v, ok := values[models.ConfigKeyUnverifiedAgentBase]; ok {
		config.UnverifiedAgentBaseDeliveryPct = v
	}
	if v, ok := values[models.ConfigKeyVerifiedAgentPerKm]; ok {
		config.VerifiedAgentPerKmPct = v
	}
	if v, ok := values[models.ConfigKeyUnverifiedAgentPerKm]; ok {
		config.UnverifiedAgentPerKmPct = v
	}
	if v, ok := values[models.ConfigKeyRendasuaItemPct]; ok {
		config.RendasuaItemCommissionPct = v
	}
	return config, nil
}

// Distribute computes and pays every commission leg for an order. Missing
// order or HQ payee aborts the whole distribution; a failure on one leg is
// logged and does not abort the remaining legs. Every payout is written
// under a deterministic idempotency key, so re-invoking Distribute for an
// order only pays the legs that were not already paid.
func (cs *CommissionService) Distribute(ctx context.Context, orderID string) (*models.CommissionBreakdown, error) {
	order, err := cs.store.GetCommissionOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}

	config, err := cs.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}

	partners, err := cs.store.GetActivePartners(ctx)
	if err != nil {
		return nil, fmt.Errorf("load partners: %w", err)
	}

	hqUser, err := cs.store.GetPlatformHQUser(ctx, cs.hqEmail)
	if err != nil {
		return nil, err
	}
	if hqUser == nil {
		return nil, fmt.Errorf("%s: %w", cs.hqEmail, ErrHQUserNotFound)
	}

	breakdown := Calculate(order, config, partners)
	legs := cs.buildLegs(order, config, partners, breakdown, hqUser.ID)

	paid, skipped := 0, 0
	for _, leg := range legs {
		if err := cs.payLeg(ctx, order, leg); err != nil {
			if errors.Is(err, store.ErrDuplicatePayout) {
				log.Printf("[COMMISSION] Payout already recorded for order %s (%s/%s to %s), skipping",
					order.ID, leg.commissionType, leg.recipientType, leg.recipientUserID)
				skipped++
				continue
			}
			log.Printf("[COMMISSION] Failed to pay %s/%s leg of %v to %s for order %s: %v",
				leg.commissionType, leg.recipientType, leg.amount, leg.recipientUserID, order.ID, err)
			skipped++
			continue
		}
		paid++
	}

	log.Printf("[COMMISSION] Distribution for order %s: %d legs paid, %d skipped", order.ID, paid, skipped)
	return &breakdown, nil
}

// buildLegs flattens the breakdown into concrete strictly-positive payout
// legs. Partner delivery-fee and item shares are split per partner at each
// partner's own rate; the aggregated breakdown values stay the source of
// truth for reconciliation.
func (cs *CommissionService) buildLegs(order *models.Order, config models.CommissionConfig, partners []models.Partner, breakdown models.CommissionBreakdown, hqUserID string) []payoutLeg {
	agentBasePct := config.UnverifiedAgentBaseDeliveryPct
	agentPerKmPct := config.UnverifiedAgentPerKmPct
	if order.AgentVerified() {
		agentBasePct = config.VerifiedAgentBaseDeliveryPct
		agentPerKmPct = config.VerifiedAgentPerKmPct
	}

	var legs []payoutLeg
	add := func(userID string, recipient models.RecipientType, kind models.CommissionType, amount float64, pct *float64) {
		if amount <= 0 {
			return
		}
		legs = append(legs, payoutLeg{
			recipientUserID: userID,
			recipientType:   recipient,
			commissionType:  kind,
			amount:          amount,
			percentage:      pct,
		})
	}
	pct := func(v float64) *float64 { return &v }

	if order.AssignedAgent != nil {
		add(order.AssignedAgent.UserID, models.RecipientAgent, models.CommissionBaseDeliveryFee,
			breakdown.BaseDeliveryFee.Agent, pct(agentBasePct))
		add(order.AssignedAgent.UserID, models.RecipientAgent, models.CommissionPerKmDeliveryFee,
			breakdown.PerKmDeliveryFee.Agent, pct(agentPerKmPct))
	}

	itemPool := order.Subtotal * config.RendasuaItemCommissionPct / 100
	for _, p := range partners {
		add(p.UserID, models.RecipientPartner, models.CommissionBaseDeliveryFee,
			order.BaseDeliveryFee*p.BaseDeliveryFeeCommission/100, pct(p.BaseDeliveryFeeCommission))
		add(p.UserID, models.RecipientPartner, models.CommissionPerKmDeliveryFee,
			order.PerKmDeliveryFee*p.PerKmDeliveryFeeCommission/100, pct(p.PerKmDeliveryFeeCommission))
		add(p.UserID, models.RecipientPartner, models.CommissionItemSale,
			itemPool*p.ItemCommission/100, pct(p.ItemCommission))
	}

	add(hqUserID, models.RecipientRendasua, models.CommissionBaseDeliveryFee,
		breakdown.BaseDeliveryFee.Rendasua, nil)
	add(hqUserID, models.RecipientRendasua, models.CommissionPerKmDeliveryFee,
		breakdown.PerKmDeliveryFee.Rendasua, nil)
	add(hqUserID, models.RecipientRendasua, models.CommissionItemSale,
		breakdown.ItemCommission.Rendasua, nil)
	add(hqUserID, models.RecipientRendasua, models.CommissionOrderSubtotal,
		breakdown.OrderSubtotal.Rendasua, pct(config.RendasuaItemCommissionPct))

	add(order.BusinessUserID, models.RecipientBusiness, models.CommissionOrderSubtotal,
		breakdown.OrderSubtotal.Business, nil)

	return legs
}

// payLeg records the payout audit row first, under the leg's idempotency
// key, then deposits into the recipient's account. Claiming the key before
// moving money means a crash between the two writes leaves an unpaid audit
// row rather than an unaudited payment. The store re-claims unpaid rows on
// the next run, so a failed deposit is retried and a paid leg never pays
// twice.
func (cs *CommissionService) payLeg(ctx context.Context, order *models.Order, leg payoutLeg) error {
	payout := &models.CommissionPayout{
		OrderID:              order.ID,
		RecipientUserID:      leg.recipientUserID,
		RecipientType:        leg.recipientType,
		CommissionType:       leg.commissionType,
		Amount:               leg.amount,
		Currency:             order.Currency,
		CommissionPercentage: leg.percentage,
		IdempotencyKey:       PayoutIdempotencyKey(order.ID, leg.commissionType, leg.recipientType, leg.recipientUserID),
	}

	account, err := cs.ledger.GetOrCreateAccount(ctx, leg.recipientUserID, order.Currency)
	if err != nil {
		return fmt.Errorf("resolve %s account: %w", leg.recipientType, err)
	}

	payoutID, err := cs.store.InsertCommissionPayout(ctx, payout)
	if err != nil {
		return err
	}

	memo := fmt.Sprintf("Commission payment for order %s (%s)", order.OrderNumber, leg.commissionType)
	transactionID, err := cs.ledger.RegisterTransaction(ctx, account.ID, leg.amount, models.TransactionDeposit, memo, order.ID)
	if err != nil {
		return fmt.Errorf("deposit for payout %s: %w", payoutID, err)
	}

	if err := cs.store.LinkPayoutTransaction(ctx, payoutID, transactionID); err != nil {
		log.Printf("[COMMISSION] Failed to link payout %s to transaction %s: %v", payoutID, transactionID, err)
	}

	log.Printf("[COMMISSION] Paid %v %s to %s %s for order %s (tx %s)",
		leg.amount, order.Currency, leg.recipientType, leg.recipientUserID, order.ID, transactionID)
	return nil
}

// PayoutIdempotencyKey is the deterministic uniqueness key for one
// commission leg of one order.
func PayoutIdempotencyKey(orderID string, kind models.CommissionType, recipient models.RecipientType, recipientUserID string) string {
	return fmt.Sprintf("%s:%s:%s:%s", orderID, kind, recipient, recipientUserID)
}
