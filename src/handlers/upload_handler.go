package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/budgetflow/backend/src/config"
	"github.com/username/budgetflow/backend/src/logger"
	"github.com/username/budgetflow/backend/src/models"
	"github.com/username/budgetflow/backend/src/security/validation"
	"github.com/username/budgetflow/backend/src/services"
	"github.com/username/budgetflow/backend/src/storage"
	"github.com/username/budgetflow/backend/src/utils"
)

type UploadHandler struct {
	ingestionService services.IngestionService
	store            *storage.Store
}

func NewUploadHandler(service services.IngestionService, store *storage.Store) *UploadHandler {
	return &UploadHandler{
		ingestionService: service,
		store:            store,
	}
}

// HandleUpload ingests one statement export. One file per request, capped at
// the configured size.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "userID", userID, "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MiB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}
	// Large uploads spill to temp files; make sure they are removed on
	// every exit path.
	defer func() {
		if r.MultipartForm != nil {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				logger.L.Warn("Failed to clean up multipart temp files", "userID", userID, "error", err)
			}
		}
	}()

	if files := r.MultipartForm.File["file"]; len(files) > 1 {
		utils.SendJSONError(w, "Only one file per request is accepted.", http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "userID", userID, "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MiB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "userID", userID, "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "userID", userID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("Processing upload request", "userID", userID, "filename", fileHeader.Filename, "detectedType", detectedContentType)

	report, err := h.ingestionService.IngestStatement(file, userID, fileHeader.Filename, fileHeader.Size)
	if err != nil {
		if errors.Is(err, services.ErrParsingFailed) {
			logger.L.Warn("Upload failed: statement not parseable", "userID", userID, "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing statement file: %v", err), http.StatusBadRequest)
		} else {
			logger.L.Error("Internal error processing upload", "userID", userID, "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.L.Error("Error encoding JSON response for upload report", "userID", userID, "error", err)
	}
}

// HandleGetLatestReport returns the most recent ingestion report, if one is
// still cached.
func (h *UploadHandler) HandleGetLatestReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	report, found := h.ingestionService.GetLatestReport(userID)
	if !found {
		utils.SendJSONError(w, "No recent upload report available", http.StatusNotFound)
		return
	}

	etag, err := utils.GenerateETag(report)
	if err == nil {
		if match := r.Header.Get("If-None-Match"); match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.L.Error("Error encoding latest report", "userID", userID, "error", err)
	}
}

// HandleListUploads returns the user's upload batch history.
func (h *UploadHandler) HandleListUploads(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	batches, err := h.store.ListUploadBatches(userID)
	if err != nil {
		logger.L.Error("Error listing upload batches", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error retrieving upload history", http.StatusInternalServerError)
		return
	}
	if batches == nil {
		batches = []models.UploadBatch{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(batches); err != nil {
		logger.L.Error("Error encoding upload batches", "userID", userID, "error", err)
	}
}
