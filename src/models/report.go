package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTotal aggregates admitted transactions of one category.
type CategoryTotal struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// DateRange spans the transaction dates seen in one file.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FileSummary totals every transaction parsed from the file, admitted or not.
type FileSummary struct {
	TotalDebits  decimal.Decimal `json:"totalDebits"`
	TotalCredits decimal.Decimal `json:"totalCredits"`
	NetAmount    decimal.Decimal `json:"netAmount"`
	DateRange    *DateRange      `json:"dateRange,omitempty"`
}

// DuplicateInfo reports duplicate-prevention results for one ingestion.
type DuplicateInfo struct {
	DuplicatesFound         int              `json:"duplicatesFound"`
	DuplicatesSkipped       int              `json:"duplicatesSkipped"`
	NewTransactionsAdded    int              `json:"newTransactionsAdded"`
	TotalTransactionsInFile int              `json:"totalTransactionsInFile"`
	DuplicateDetails        []DuplicateMatch `json:"duplicateDetails"`
	FileOverlapAnalysis     OverlapReport    `json:"fileOverlapAnalysis"`
}

// UploadReport is the full result of one ingestion call, returned to the
// client as JSON.
type UploadReport struct {
	UploadID              string                   `json:"uploadId"`
	Filename              string                   `json:"filename"`
	Size                  int64                    `json:"size"`
	UploadDate            time.Time                `json:"uploadDate"`
	Status                string                   `json:"status"`
	ProcessedTransactions []StoredTransaction      `json:"processedTransactions"`
	Summary               FileSummary              `json:"summary"`
	CategoryBreakdown     map[string]CategoryTotal `json:"categoryBreakdown"`
	BudgetAnalysis        *BudgetImpact            `json:"budgetAnalysis,omitempty"`
	Insights              []string                 `json:"insights"`
	DuplicateInfo         DuplicateInfo            `json:"duplicateInfo"`
	FailedInserts         []string                 `json:"failedInserts,omitempty"`
}
