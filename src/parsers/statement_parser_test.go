package parsers

import (
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/budgetflow/backend/src/logger"
	"github.com/username/budgetflow/backend/src/models"
	"github.com/username/budgetflow/backend/src/utils"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func readAll(t *testing.T, csvData string) ([]models.NormalizedTransaction, *StatementReader) {
	t.Helper()
	r, err := NewStatementReader(strings.NewReader(csvData))
	require.NoError(t, err)
	txs, err := r.ReadAll()
	require.NoError(t, err)
	return txs, r
}

func TestNewStatementReader_HeaderVariants(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"canonical", "Transaction Date,Posted Date,Card No.,Description,Category,Debit,Credit"},
		{"abbreviated", "Trans Date,Post Date,Card Number,Details,Category,Withdrawal,Deposit"},
		{"minimal debit only", "Date,Description,Debit Amount"},
		{"minimal credit only", "Date,Description,Credit Amount"},
		{"mixed case and spacing", "  TRANSACTION  DATE ,description, DEBIT "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStatementReader(strings.NewReader(tt.header + "\n"))
			assert.NoError(t, err)
		})
	}
}

func TestNewStatementReader_ByteOrderMark(t *testing.T) {
	// Excel writes a UTF-8 BOM at the start of exported CSVs
	txs, _ := readAll(t, "\ufeffTransaction Date,Description,Debit\n2024-03-15,STARBUCKS #1234,5.75\n")
	require.Len(t, txs, 1)
	assert.Equal(t, "STARBUCKS #1234", txs[0].Description)
}

func TestNewStatementReader_InvalidHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no date column", "Description,Debit,Credit"},
		{"no description column", "Transaction Date,Debit,Credit"},
		{"no amount column", "Transaction Date,Description,Category"},
		{"not a statement at all", "foo,bar,baz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStatementReader(strings.NewReader(tt.header + "\n2024-01-02,x,1.00\n"))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidHeader)
		})
	}
}

func TestStatementReader_SingleDebitRow(t *testing.T) {
	txs, _ := readAll(t, "Transaction Date,Description,Debit,Credit\n2024-03-15,STARBUCKS #1234,5.75,\n")
	require.Len(t, txs, 1)
	tx := txs[0]
	assert.Equal(t, "STARBUCKS #1234", tx.Description)
	assert.Equal(t, models.DirectionDebit, tx.Direction)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("5.75")))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), tx.TransactionDate)
	// posted date falls back to the transaction date
	assert.Equal(t, tx.TransactionDate, tx.PostedDate)
}

func TestStatementReader_RowWithDebitAndCredit(t *testing.T) {
	txs, _ := readAll(t, "Date,Description,Debit,Credit\n01/10/2024,TRANSFER ADJUSTMENT,20.00,35.50\n")
	require.Len(t, txs, 2)
	assert.Equal(t, models.DirectionDebit, txs[0].Direction)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, models.DirectionCredit, txs[1].Direction)
	assert.True(t, txs[1].Amount.Equal(decimal.RequireFromString("35.50")))
	// both carry the same row fields
	assert.Equal(t, txs[0].Description, txs[1].Description)
	assert.Equal(t, txs[0].TransactionDate, txs[1].TransactionDate)
}

func TestStatementReader_SkipsZeroYieldRows(t *testing.T) {
	csvData := strings.Join([]string{
		"Date,Description,Debit,Credit",
		"2024-01-01,NO AMOUNTS,,",
		"2024-01-02,ZERO DEBIT,0.00,",
		"2024-01-03,NEGATIVE,-5.00,",
		"2024-01-04,REAL CHARGE,12.34,",
	}, "\n") + "\n"

	txs, r := readAll(t, csvData)
	require.Len(t, txs, 1)
	assert.Equal(t, "REAL CHARGE", txs[0].Description)
	assert.Equal(t, 3, r.SkippedRows())
}

func TestStatementReader_BadDateSubstitutesIngestionDate(t *testing.T) {
	today := utils.DateOnly(time.Now().UTC())
	txs, r := readAll(t, "Date,Description,Debit\nnot-a-date,MYSTERY CHARGE,9.99\n")
	require.Len(t, txs, 1)
	assert.Equal(t, today, txs[0].TransactionDate)
	assert.Equal(t, 1, r.DateWarnings())
}

func TestStatementReader_DateFormats(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-07-04", time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)},
		{"07/04/2024", time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)},
		{"7/4/2024", time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)},
		{"Jul 4, 2024", time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)},
		{"04 Jul 2024", time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			txs, r := readAll(t, "Date,Description,Debit\n"+tt.raw+",CHARGE,1.00\n")
			require.Len(t, txs, 1)
			assert.Equal(t, tt.want, txs[0].TransactionDate)
			assert.Zero(t, r.DateWarnings())
		})
	}
}

func TestStatementReader_PostedDateParsedWhenPresent(t *testing.T) {
	txs, _ := readAll(t, "Transaction Date,Posted Date,Description,Debit\n2024-05-01,2024-05-03,CHARGE,3.00\n")
	require.Len(t, txs, 1)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), txs[0].TransactionDate)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), txs[0].PostedDate)
}

func TestParsePositiveAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"5.75", "5.75", true},
		{"$1,234.56", "1234.56", true},
		{"(50.00)", "50.00", true},
		{"€12.00", "12.00", true},
		{"", "", false},
		{"0", "", false},
		{"0.00", "", false},
		{"-3.50", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			amount, ok := parsePositiveAmount(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, amount.Equal(decimal.RequireFromString(tt.want)),
					"got %s want %s", amount, tt.want)
			}
		})
	}
}

func TestStatementReader_RaggedAndQuotedRows(t *testing.T) {
	csvData := strings.Join([]string{
		"Date,Description,Category,Debit,Credit",
		`2024-02-01,"COSTCO WHOLESALE, SEATTLE",Groceries,89.10,`,
		"2024-02-02,SHORT ROW,4.20", // missing trailing columns
	}, "\n") + "\n"

	txs, _ := readAll(t, csvData)
	require.Len(t, txs, 1)
	assert.Equal(t, "COSTCO WHOLESALE, SEATTLE", txs[0].Description)
	assert.Equal(t, "Groceries", txs[0].SourceCategory)
}

func TestStatementReader_NextReturnsEOF(t *testing.T) {
	r, err := NewStatementReader(strings.NewReader("Date,Description,Debit\n2024-01-01,CHARGE,1.00\n"))
	require.NoError(t, err)

	txs, err := r.Next()
	require.NoError(t, err)
	require.Len(t, txs, 1)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}
