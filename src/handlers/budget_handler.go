package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/budgetflow/backend/src/logger"
	"github.com/username/budgetflow/backend/src/models"
	"github.com/username/budgetflow/backend/src/storage"
	"github.com/username/budgetflow/backend/src/utils"
)

type BudgetHandler struct {
	store *storage.Store
}

func NewBudgetHandler(store *storage.Store) *BudgetHandler {
	return &BudgetHandler{store: store}
}

type budgetRequest struct {
	Period        string          `json:"period"`
	Income        decimal.Decimal `json:"income"`
	FixedExpenses decimal.Decimal `json:"fixedExpenses"`
	SavingsGoal   decimal.Decimal `json:"savingsGoal"`
}

// HandleSetBudget creates or replaces the user's budget for a month.
func (h *BudgetHandler) HandleSetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if req.Period == "" {
		req.Period = time.Now().UTC().Format("2006-01")
	}
	if _, err := time.Parse("2006-01", req.Period); err != nil {
		utils.SendJSONError(w, "Invalid period, expected YYYY-MM", http.StatusBadRequest)
		return
	}
	if req.Income.IsNegative() || req.FixedExpenses.IsNegative() || req.SavingsGoal.IsNegative() {
		utils.SendJSONError(w, "Budget amounts must not be negative", http.StatusBadRequest)
		return
	}

	snapshot := models.BudgetSnapshot{
		UserID:        userID,
		Period:        req.Period,
		Income:        req.Income,
		FixedExpenses: req.FixedExpenses,
		SavingsGoal:   req.SavingsGoal,
	}
	if err := h.store.UpsertBudget(snapshot); err != nil {
		logger.L.Error("Error saving budget", "userID", userID, "period", req.Period, "error", err)
		utils.SendJSONError(w, "Error saving budget", http.StatusInternalServerError)
		return
	}
	logger.L.Info("Budget saved", "userID", userID, "period", req.Period)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(snapshot)
}

// HandleGetBudget returns the budget for a month (defaults to the current
// one). 404 when no budget has been set.
func (h *BudgetHandler) HandleGetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = time.Now().UTC().Format("2006-01")
	}
	if _, err := time.Parse("2006-01", period); err != nil {
		utils.SendJSONError(w, "Invalid period, expected YYYY-MM", http.StatusBadRequest)
		return
	}

	snapshot, err := h.store.GetBudgetSnapshot(userID, period)
	if err != nil {
		logger.L.Error("Error fetching budget", "userID", userID, "period", period, "error", err)
		utils.SendJSONError(w, "Error retrieving budget", http.StatusInternalServerError)
		return
	}
	if snapshot == nil {
		utils.SendJSONError(w, "No budget set for period", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}
