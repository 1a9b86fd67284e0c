package services

import (
	"errors"
	"io"

	"github.com/username/budgetflow/backend/src/models"
)

// Sentinel errors the handlers map to HTTP responses.
var (
	// ErrParsingFailed: the whole file is unreadable or not tabular.
	// Nothing was persisted and no upload batch exists.
	ErrParsingFailed = errors.New("statement parsing failed")
	// ErrStorageFailed: infrastructure-level persistence failure. The
	// batch was rolled back and marked failed.
	ErrStorageFailed = errors.New("storage operation failed")
)

// IngestionService runs the statement ingestion pipeline end to end:
// normalize, classify, duplicate-check, persist, and report.
type IngestionService interface {
	IngestStatement(file io.Reader, userID int64, filename string, fileSize int64) (*models.UploadReport, error)
	GetLatestReport(userID int64) (*models.UploadReport, bool)
	InvalidateUserCache(userID int64)
}

// EmailService sends user-facing notification emails.
type EmailService interface {
	SendBudgetAlertEmail(toEmail, username string, impact models.BudgetImpact) error
}
