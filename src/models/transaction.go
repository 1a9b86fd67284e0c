package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction says which side of the statement a transaction came from.
// Amounts are always positive; the direction carries the sign out-of-band.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// TransactionType partitions transactions for budget math.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// RawRow is the as-parsed string content of one statement line. It only
// exists inside the normalizer; everything downstream works on
// NormalizedTransaction.
type RawRow struct {
	TransactionDate string
	PostedDate      string
	CardNumber      string
	Description     string
	Category        string
	Debit           string
	Credit          string
}

// NormalizedTransaction is one canonical movement extracted from a statement
// row. A single row can yield two of these when it carries both a debit and
// a credit amount.
type NormalizedTransaction struct {
	TransactionDate time.Time       `json:"transaction_date"`
	PostedDate      time.Time       `json:"posted_date"`
	CardNumber      string          `json:"card_number,omitempty"`
	Description     string          `json:"description"`
	SourceCategory  string          `json:"source_category,omitempty"`
	Amount          decimal.Decimal `json:"amount"` // always > 0
	Direction       Direction       `json:"direction"`
}

// ClassifiedTransaction is a NormalizedTransaction with its category and
// income/expense type assigned. Immutable once produced.
type ClassifiedTransaction struct {
	NormalizedTransaction
	Category string          `json:"category"`
	Type     TransactionType `json:"type"`
}

// StoredTransaction is a ClassifiedTransaction that has been persisted.
type StoredTransaction struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	UploadBatchID int64     `json:"upload_batch_id"`
	CreatedAt     time.Time `json:"created_at"`
	ClassifiedTransaction
}

// Upload batch statuses.
const (
	BatchStatusProcessing          = "processing"
	BatchStatusCompleted           = "completed"
	BatchStatusCompletedWithErrors = "completed_with_errors"
	BatchStatusFailed              = "failed"
)

// UploadBatch is the record of one ingestion call. It owns the transactions
// admitted by that call via their upload_batch_id.
type UploadBatch struct {
	ID            int64     `json:"-"`
	PublicID      string    `json:"id"` // uuid exposed to clients
	UserID        int64     `json:"user_id"`
	Filename      string    `json:"filename"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	UploadedAt    time.Time `json:"uploaded_at"`
	AdmittedCount int       `json:"admitted_count"`
	Status        string    `json:"status"`
}

// DuplicateMatch records why a candidate was rejected as a duplicate.
// Evidence only; never persisted. MatchedUploadBatchID is zero when the
// candidate duplicated an earlier row of the same file.
type DuplicateMatch struct {
	Candidate            ClassifiedTransaction `json:"candidate"`
	Existing             StoredTransaction     `json:"existing"`
	MatchedUploadBatchID int64                 `json:"matched_upload_batch_id"`
}

// OverlapReport describes how much of an uploaded file already exists in
// the user's prior uploads.
type OverlapReport struct {
	OverlapPercentage float64      `json:"overlapPercentage"`
	IsLikelyReupload  bool         `json:"isLikelyReupload"`
	MostSimilarBatch  *UploadBatch `json:"mostSimilarBatch,omitempty"`
	OverlapCount      int          `json:"overlapCount"`
}
