package storage

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/budgetflow/backend/src/database"
	"github.com/username/budgetflow/backend/src/logger"
	"github.com/username/budgetflow/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func newTestStore(t *testing.T) (*Store, int64) {
	t.Helper()
	db, err := database.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	user := &models.User{Username: "tester", Email: "tester@example.com", Password: "irrelevant"}
	require.NoError(t, user.CreateUser(db))
	return NewStore(db), user.ID
}

func newBatch(t *testing.T, s *Store, userID int64, filename, status string, uploadedAt time.Time) *models.UploadBatch {
	t.Helper()
	batch := &models.UploadBatch{
		PublicID:   uuid.NewString(),
		UserID:     userID,
		Filename:   filename,
		UploadedAt: uploadedAt,
		Status:     status,
	}
	require.NoError(t, s.CreateUploadBatch(batch))
	require.NotZero(t, batch.ID)
	return batch
}

func classified(date, description, amount string) models.ClassifiedTransaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.ClassifiedTransaction{
		NormalizedTransaction: models.NormalizedTransaction{
			TransactionDate: d,
			PostedDate:      d,
			Description:     description,
			Amount:          decimal.RequireFromString(amount),
			Direction:       models.DirectionDebit,
		},
		Category: "Other",
		Type:     models.TypeExpense,
	}
}

func TestInsertAndFindHistoryByDates(t *testing.T) {
	s, userID := newTestStore(t)
	batch := newBatch(t, s, userID, "march.csv", models.BatchStatusProcessing, time.Now().UTC())

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_, err := s.InsertTransaction(s.DB(), userID, batch.ID, classified("2024-03-15", "STARBUCKS #1234", "5.75"), base)
	require.NoError(t, err)
	laterID, err := s.InsertTransaction(s.DB(), userID, batch.ID, classified("2024-03-15", "STARBUCKS #1234", "5.75"), base.Add(time.Hour))
	require.NoError(t, err)
	_, err = s.InsertTransaction(s.DB(), userID, batch.ID, classified("2024-03-20", "OTHER DAY", "1.00"), base)
	require.NoError(t, err)

	history, err := s.FindHistoryByDates(userID, []string{"2024-03-15"})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, laterID, history[0].ID, "most recently created row comes first")
	assert.Equal(t, "STARBUCKS #1234", history[0].Description)
	assert.True(t, history[0].Amount.Equal(decimal.RequireFromString("5.75")))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), history[0].TransactionDate)

	history, err = s.FindHistoryByDates(userID, []string{"2024-03-15", "2024-03-20"})
	require.NoError(t, err)
	assert.Len(t, history, 3)

	history, err = s.FindHistoryByDates(userID, nil)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestFindHistoryByDates_ScopedToUser(t *testing.T) {
	s, userID := newTestStore(t)
	other := &models.User{Username: "other", Email: "other@example.com", Password: "irrelevant"}
	require.NoError(t, other.CreateUser(s.DB()))

	batch := newBatch(t, s, other.ID, "theirs.csv", models.BatchStatusProcessing, time.Now().UTC())
	_, err := s.InsertTransaction(s.DB(), other.ID, batch.ID, classified("2024-03-15", "THEIR CHARGE", "9.00"), time.Now().UTC())
	require.NoError(t, err)

	history, err := s.FindHistoryByDates(userID, []string{"2024-03-15"})
	require.NoError(t, err)
	assert.Empty(t, history, "one user's history must never leak into another's")
}

func TestFinalizeUploadBatch(t *testing.T) {
	s, userID := newTestStore(t)
	batch := newBatch(t, s, userID, "march.csv", models.BatchStatusProcessing, time.Now().UTC())

	require.NoError(t, s.FinalizeUploadBatch(s.DB(), batch.ID, models.BatchStatusCompleted, 7))

	batches, err := s.ListUploadBatches(userID)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, models.BatchStatusCompleted, batches[0].Status)
	assert.Equal(t, 7, batches[0].AdmittedCount)
}

func TestFindBatchesByFilename(t *testing.T) {
	s, userID := newTestStore(t)
	now := time.Now().UTC()

	older := newBatch(t, s, userID, "march.csv", models.BatchStatusCompleted, now.Add(-2*time.Hour))
	newer := newBatch(t, s, userID, "march.csv", models.BatchStatusCompletedWithErrors, now.Add(-time.Hour))
	newBatch(t, s, userID, "march.csv", models.BatchStatusProcessing, now)
	newBatch(t, s, userID, "march.csv", models.BatchStatusFailed, now)
	newBatch(t, s, userID, "april.csv", models.BatchStatusCompleted, now)

	batches, err := s.FindBatchesByFilename(userID, "march.csv")
	require.NoError(t, err)
	require.Len(t, batches, 2, "processing and failed batches are not re-upload evidence")
	assert.Equal(t, newer.ID, batches[0].ID, "most recent first")
	assert.Equal(t, older.ID, batches[1].ID)
}

func TestGetBatchesByIDs(t *testing.T) {
	s, userID := newTestStore(t)
	now := time.Now().UTC()
	a := newBatch(t, s, userID, "a.csv", models.BatchStatusCompleted, now)
	b := newBatch(t, s, userID, "b.csv", models.BatchStatusCompleted, now)

	byID, err := s.GetBatchesByIDs([]int64{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, "a.csv", byID[a.ID].Filename)
	assert.Equal(t, "b.csv", byID[b.ID].Filename)

	empty, err := s.GetBatchesByIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBudgetRoundTrip(t *testing.T) {
	s, userID := newTestStore(t)

	missing, err := s.GetBudgetSnapshot(userID, "2024-03")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.UpsertBudget(models.BudgetSnapshot{
		UserID:        userID,
		Period:        "2024-03",
		Income:        decimal.RequireFromString("3000"),
		FixedExpenses: decimal.RequireFromString("1200"),
		SavingsGoal:   decimal.RequireFromString("300"),
	}))

	got, err := s.GetBudgetSnapshot(userID, "2024-03")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Income.Equal(decimal.RequireFromString("3000")))

	// upsert replaces in place
	require.NoError(t, s.UpsertBudget(models.BudgetSnapshot{
		UserID:        userID,
		Period:        "2024-03",
		Income:        decimal.RequireFromString("3500"),
		FixedExpenses: decimal.RequireFromString("1200"),
		SavingsGoal:   decimal.RequireFromString("300"),
	}))
	got, err = s.GetBudgetSnapshot(userID, "2024-03")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Income.Equal(decimal.RequireFromString("3500")))
}

func TestDeleteAllTransactions(t *testing.T) {
	s, userID := newTestStore(t)
	batch := newBatch(t, s, userID, "march.csv", models.BatchStatusCompleted, time.Now().UTC())
	_, err := s.InsertTransaction(s.DB(), userID, batch.ID, classified("2024-03-15", "CHARGE", "5.00"), time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, s.DeleteAllTransactions(userID))

	txs, err := s.ListTransactions(userID)
	require.NoError(t, err)
	assert.Empty(t, txs)
	batches, err := s.ListUploadBatches(userID)
	require.NoError(t, err)
	assert.Empty(t, batches)
}
