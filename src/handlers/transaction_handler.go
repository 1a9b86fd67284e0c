package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/budgetflow/backend/src/logger"
	"github.com/username/budgetflow/backend/src/models"
	"github.com/username/budgetflow/backend/src/services"
	"github.com/username/budgetflow/backend/src/storage"
	"github.com/username/budgetflow/backend/src/utils"
)

type TransactionHandler struct {
	store            *storage.Store
	ingestionService services.IngestionService
}

func NewTransactionHandler(store *storage.Store, service services.IngestionService) *TransactionHandler {
	return &TransactionHandler{
		store:            store,
		ingestionService: service,
	}
}

// HandleGetTransactions returns every stored transaction for the
// authenticated user, newest first.
func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	transactions, err := h.store.ListTransactions(userID)
	if err != nil {
		logger.L.Error("Error fetching transactions", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error retrieving transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.StoredTransaction{}
	}

	etag, err := utils.GenerateETag(transactions)
	if err == nil {
		if match := r.Header.Get("If-None-Match"); match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(transactions); err != nil {
		logger.L.Error("Error encoding transactions response", "userID", userID, "error", err)
	}
}

// HandleDeleteTransactions removes all of the user's transactions and upload
// history. Intended as a "start over" escape hatch.
func (h *TransactionHandler) HandleDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.store.DeleteAllTransactions(userID); err != nil {
		logger.L.Error("Error deleting transactions", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error deleting transactions", http.StatusInternalServerError)
		return
	}
	h.ingestionService.InvalidateUserCache(userID)
	logger.L.Info("Deleted all transactions for user", "userID", userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "All transactions deleted"})
}
