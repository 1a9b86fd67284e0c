// Package storage is the transactional persistence collaborator for the
// ingestion pipeline: stored transactions, upload batches, and budget
// snapshots, backed by sqlite. Every write method that an ingestion call
// performs accepts an Execer so the whole batch can run inside one sql.Tx.
package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/budgetflow/backend/src/models"
	"github.com/username/budgetflow/backend/src/utils"
)

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Store wraps the database handle. Constructed once at startup and injected
// wherever persistence is needed.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for callers that manage their own
// transaction scope.
func (s *Store) DB() *sql.DB { return s.db }

// Begin starts the atomic scope for one ingestion's inserts and batch
// finalization.
func (s *Store) Begin() (*sql.Tx, error) {
	return s.db.Begin()
}

const storedTransactionColumns = `id, user_id, upload_batch_id, transaction_date, posted_date,
	card_number, description, source_category, category, type, direction, amount, created_at`

// InsertTransaction persists one admitted transaction and returns its id.
func (s *Store) InsertTransaction(ex Execer, userID, uploadBatchID int64, tx models.ClassifiedTransaction, createdAt time.Time) (int64, error) {
	res, err := ex.Exec(
		`INSERT INTO transactions
		 (user_id, upload_batch_id, transaction_date, posted_date, card_number, description,
		  normalized_description, source_category, category, type, direction, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID,
		uploadBatchID,
		tx.TransactionDate.Format(utils.DateOnlyFormat),
		tx.PostedDate.Format(utils.DateOnlyFormat),
		nullableString(tx.CardNumber),
		tx.Description,
		utils.NormalizeDescription(tx.Description),
		nullableString(tx.SourceCategory),
		tx.Category,
		string(tx.Type),
		string(tx.Direction),
		tx.Amount.String(),
		createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting transaction: %w", err)
	}
	return res.LastInsertId()
}

// FindHistoryByDates returns the user's stored transactions on the given
// calendar dates, most recently created first. Read-only; the duplicate
// detector depends on this ordering to pick the most recent match.
func (s *Store) FindHistoryByDates(userID int64, dates []string) ([]models.StoredTransaction, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(dates))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(dates)+1)
	args = append(args, userID)
	for _, d := range dates {
		args = append(args, d)
	}

	rows, err := s.db.Query(
		`SELECT `+storedTransactionColumns+`
		 FROM transactions
		 WHERE user_id = ? AND transaction_date IN (`+placeholders+`)
		 ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying transaction history: %w", err)
	}
	defer rows.Close()
	return scanStoredTransactions(rows)
}

// ListTransactions returns all of a user's stored transactions, newest
// transaction date first.
func (s *Store) ListTransactions(userID int64) ([]models.StoredTransaction, error) {
	rows, err := s.db.Query(
		`SELECT `+storedTransactionColumns+`
		 FROM transactions
		 WHERE user_id = ?
		 ORDER BY transaction_date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()
	return scanStoredTransactions(rows)
}

// DeleteAllTransactions wipes a user's transactions and upload batches.
func (s *Store) DeleteAllTransactions(userID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM transactions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting transactions: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM upload_batches WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting upload batches: %w", err)
	}
	return tx.Commit()
}

// CreateUploadBatch inserts the batch record at the start of an ingestion
// call and fills in its id.
func (s *Store) CreateUploadBatch(batch *models.UploadBatch) error {
	res, err := s.db.Exec(
		`INSERT INTO upload_batches (public_id, user_id, filename, file_size_bytes, uploaded_at, admitted_count, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		batch.PublicID, batch.UserID, batch.Filename, batch.FileSizeBytes,
		batch.UploadedAt, batch.AdmittedCount, batch.Status,
	)
	if err != nil {
		return fmt.Errorf("creating upload batch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	batch.ID = id
	return nil
}

// FinalizeUploadBatch records the terminal status and admitted count.
// Called inside the ingestion transaction so a crash leaves no batch with
// inserts visible but no final status.
func (s *Store) FinalizeUploadBatch(ex Execer, id int64, status string, admittedCount int) error {
	_, err := ex.Exec(
		`UPDATE upload_batches SET status = ?, admitted_count = ? WHERE id = ?`,
		status, admittedCount, id,
	)
	if err != nil {
		return fmt.Errorf("finalizing upload batch %d: %w", id, err)
	}
	return nil
}

// FindBatchesByFilename returns the user's prior batches with this exact
// filename, most recent first. Batches still in processing or failed are
// not re-upload evidence and are excluded.
func (s *Store) FindBatchesByFilename(userID int64, filename string) ([]models.UploadBatch, error) {
	rows, err := s.db.Query(
		`SELECT id, public_id, user_id, filename, file_size_bytes, uploaded_at, admitted_count, status
		 FROM upload_batches
		 WHERE user_id = ? AND filename = ? AND status IN (?, ?)
		 ORDER BY uploaded_at DESC, id DESC`,
		userID, filename, models.BatchStatusCompleted, models.BatchStatusCompletedWithErrors,
	)
	if err != nil {
		return nil, fmt.Errorf("querying batches by filename: %w", err)
	}
	defer rows.Close()
	return scanUploadBatches(rows)
}

// GetBatchesByIDs fetches batch records keyed by id.
func (s *Store) GetBatchesByIDs(ids []int64) (map[int64]models.UploadBatch, error) {
	if len(ids) == 0 {
		return map[int64]models.UploadBatch{}, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := s.db.Query(
		`SELECT id, public_id, user_id, filename, file_size_bytes, uploaded_at, admitted_count, status
		 FROM upload_batches WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying batches by id: %w", err)
	}
	defer rows.Close()
	batches, err := scanUploadBatches(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.UploadBatch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}
	return byID, nil
}

// ListUploadBatches returns a user's upload history, most recent first.
func (s *Store) ListUploadBatches(userID int64) ([]models.UploadBatch, error) {
	rows, err := s.db.Query(
		`SELECT id, public_id, user_id, filename, file_size_bytes, uploaded_at, admitted_count, status
		 FROM upload_batches WHERE user_id = ?
		 ORDER BY uploaded_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing upload batches: %w", err)
	}
	defer rows.Close()
	return scanUploadBatches(rows)
}

// GetBudgetSnapshot returns the user's budget for a period ("YYYY-MM"), or
// nil when none is configured.
func (s *Store) GetBudgetSnapshot(userID int64, period string) (*models.BudgetSnapshot, error) {
	row := s.db.QueryRow(
		`SELECT user_id, period, income, fixed_expenses, savings_goal
		 FROM budgets WHERE user_id = ? AND period = ?`,
		userID, period,
	)
	var snapshot models.BudgetSnapshot
	var income, fixed, savings string
	err := row.Scan(&snapshot.UserID, &snapshot.Period, &income, &fixed, &savings)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying budget snapshot: %w", err)
	}
	if snapshot.Income, err = decimal.NewFromString(income); err != nil {
		return nil, fmt.Errorf("corrupt budget income %q: %w", income, err)
	}
	if snapshot.FixedExpenses, err = decimal.NewFromString(fixed); err != nil {
		return nil, fmt.Errorf("corrupt budget fixed expenses %q: %w", fixed, err)
	}
	if snapshot.SavingsGoal, err = decimal.NewFromString(savings); err != nil {
		return nil, fmt.Errorf("corrupt budget savings goal %q: %w", savings, err)
	}
	return &snapshot, nil
}

// UpsertBudget creates or replaces the user's budget for a period.
func (s *Store) UpsertBudget(b models.BudgetSnapshot) error {
	_, err := s.db.Exec(
		`INSERT INTO budgets (user_id, period, income, fixed_expenses, savings_goal, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, period) DO UPDATE SET
			income = excluded.income,
			fixed_expenses = excluded.fixed_expenses,
			savings_goal = excluded.savings_goal,
			updated_at = excluded.updated_at`,
		b.UserID, b.Period, b.Income.String(), b.FixedExpenses.String(), b.SavingsGoal.String(), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upserting budget: %w", err)
	}
	return nil
}

func scanStoredTransactions(rows *sql.Rows) ([]models.StoredTransaction, error) {
	var txs []models.StoredTransaction
	for rows.Next() {
		var tx models.StoredTransaction
		var txDate, postedDate, amount string
		var cardNumber, sourceCategory sql.NullString
		var txType, direction string
		err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.UploadBatchID,
			&txDate, &postedDate, &cardNumber, &tx.Description,
			&sourceCategory, &tx.Category, &txType, &direction,
			&amount, &tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		if tx.TransactionDate, err = time.Parse(utils.DateOnlyFormat, txDate); err != nil {
			return nil, fmt.Errorf("corrupt transaction date %q: %w", txDate, err)
		}
		if tx.PostedDate, err = time.Parse(utils.DateOnlyFormat, postedDate); err != nil {
			tx.PostedDate = tx.TransactionDate
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt transaction amount %q: %w", amount, err)
		}
		tx.CardNumber = cardNumber.String
		tx.SourceCategory = sourceCategory.String
		tx.Type = models.TransactionType(txType)
		tx.Direction = models.Direction(direction)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanUploadBatches(rows *sql.Rows) ([]models.UploadBatch, error) {
	var batches []models.UploadBatch
	for rows.Next() {
		var b models.UploadBatch
		err := rows.Scan(&b.ID, &b.PublicID, &b.UserID, &b.Filename,
			&b.FileSizeBytes, &b.UploadedAt, &b.AdmittedCount, &b.Status)
		if err != nil {
			return nil, fmt.Errorf("scanning upload batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
