package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rendasua/settlement/internal/services"
	"github.com/rendasua/settlement/internal/store"
)

const defaultCurrency = "XAF"

// SettlementHandler is the read surface over accounts and payouts.
type SettlementHandler struct {
	store     store.Store
	validator *services.ValidationHelper
}

func NewSettlementHandler(st store.Store) *SettlementHandler {
	return &SettlementHandler{
		store:     st,
		validator: services.NewValidationHelper(),
	}
}

// GetBalance returns the caller's account balances
// @Summary Get account balance
// @Description Returns available, withheld and total balance for the authenticated user in the requested currency
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param currency query string false "Currency code (default XAF)"
// @Success 200 {object} models.Account
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/balance [get]
func (h *SettlementHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = defaultCurrency
	}

	account, err := h.store.FindAccount(r.Context(), userID, currency)
	if err != nil {
		services.SendErrorResponse(w, "Failed to fetch account", http.StatusInternalServerError, nil)
		return
	}
	if account == nil {
		services.SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// GetTransactions lists the caller's recent ledger entries
// @Summary List account transactions
// @Description Returns the most recent ledger entries for the authenticated user's account
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param currency query string false "Currency code (default XAF)"
// @Param limit query int false "Maximum entries to return (default 50)"
// @Success 200 {array} models.AccountTransaction
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/transactions [get]
func (h *SettlementHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = defaultCurrency
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			services.SendErrorResponse(w, "Invalid limit", http.StatusBadRequest, nil)
			return
		}
		limit = parsed
	}

	account, err := h.store.FindAccount(r.Context(), userID, currency)
	if err != nil {
		services.SendErrorResponse(w, "Failed to fetch account", http.StatusInternalServerError, nil)
		return
	}
	if account == nil {
		services.SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}

	transactions, err := h.store.ListAccountTransactions(r.Context(), account.ID, limit)
	if err != nil {
		services.SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"account_id":   account.ID,
		"transactions": transactions,
	})
}

// GetOrderPayouts lists the commission payouts recorded for an order
// @Summary List order payouts
// @Description Returns the commission payout audit rows for an order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param orderId path string true "Order ID"
// @Success 200 {array} models.CommissionPayout
// @Failure 401 {object} services.ErrorResponse
// @Router /orders/{orderId}/payouts [get]
func (h *SettlementHandler) GetOrderPayouts(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		services.SendErrorResponse(w, "Missing order ID", http.StatusBadRequest, nil)
		return
	}

	payouts, err := h.store.GetOrderPayouts(r.Context(), orderID)
	if err != nil {
		services.SendErrorResponse(w, "Failed to fetch payouts", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"order_id": orderID,
		"payouts":  payouts,
	})
}
