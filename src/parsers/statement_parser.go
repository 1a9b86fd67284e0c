package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/budgetflow/backend/src/logger"
	"github.com/username/budgetflow/backend/src/models"
	"github.com/username/budgetflow/backend/src/utils"
)

// ErrInvalidHeader means the file is not a recognizable statement export.
// This is a whole-file failure; nothing gets ingested.
var ErrInvalidHeader = errors.New("statement header is missing required columns")

const (
	colTransactionDate = "transaction_date"
	colPostedDate      = "posted_date"
	colCardNumber      = "card_number"
	colDescription     = "description"
	colCategory        = "category"
	colDebit           = "debit"
	colCredit          = "credit"
)

// headerAliases maps normalized header cell text to canonical column names.
// Matching is case- and whitespace-insensitive; trailing periods are stripped
// ("Card No." and "Card No" are the same column).
var headerAliases = map[string]string{
	"transaction date": colTransactionDate,
	"trans date":       colTransactionDate,
	"date":             colTransactionDate,
	"posted date":      colPostedDate,
	"post date":        colPostedDate,
	"card no":          colCardNumber,
	"card number":      colCardNumber,
	"description":      colDescription,
	"details":          colDescription,
	"category":         colCategory,
	"debit":            colDebit,
	"debit amount":     colDebit,
	"withdrawal":       colDebit,
	"credit":           colCredit,
	"credit amount":    colCredit,
	"deposit":          colCredit,
}

// StatementReader normalizes a delimited statement export into
// NormalizedTransaction values. It is a lazy, single-pass reader over the
// underlying stream: callers that need more than one pass must buffer the
// results themselves.
type StatementReader struct {
	reader     *csv.Reader
	columns    map[string]int
	ingestedAt time.Time

	skippedRows  int
	dateWarnings int
}

// NewStatementReader reads and validates the header line. It fails only when
// the file cannot be read at all or the header lacks the required columns;
// everything after the header degrades row by row.
func NewStatementReader(file io.Reader) (*StatementReader, error) {
	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read statement header: %w", err)
	}

	columns := make(map[string]int)
	for i, cell := range header {
		key := normalizeHeaderCell(cell)
		if canonical, ok := headerAliases[key]; ok {
			if _, seen := columns[canonical]; !seen {
				columns[canonical] = i
			}
		}
	}

	if _, ok := columns[colTransactionDate]; !ok {
		return nil, fmt.Errorf("%w: no transaction date column", ErrInvalidHeader)
	}
	if _, ok := columns[colDescription]; !ok {
		return nil, fmt.Errorf("%w: no description column", ErrInvalidHeader)
	}
	_, hasDebit := columns[colDebit]
	_, hasCredit := columns[colCredit]
	if !hasDebit && !hasCredit {
		return nil, fmt.Errorf("%w: no debit or credit column", ErrInvalidHeader)
	}

	return &StatementReader{
		reader:     r,
		columns:    columns,
		ingestedAt: time.Now().UTC(),
	}, nil
}

// Next returns the transactions of the next row that yields any. A row
// produces zero transactions (no parseable positive amount), one, or two
// (both a debit and a credit amount on the same line). Returns io.EOF when
// the file is exhausted.
func (s *StatementReader) Next() ([]models.NormalizedTransaction, error) {
	for {
		record, err := s.reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logger.L.Warn("Skipping malformed statement row", "line", parseErr.Line, "error", parseErr.Err)
				s.skippedRows++
				continue
			}
			return nil, fmt.Errorf("failed to read statement row: %w", err)
		}

		txs := s.normalizeRow(s.rawRow(record))
		if len(txs) == 0 {
			s.skippedRows++
			continue
		}
		return txs, nil
	}
}

// ReadAll drains the reader. Convenience for callers that need the whole
// batch in memory anyway (duplicate detection does).
func (s *StatementReader) ReadAll() ([]models.NormalizedTransaction, error) {
	var all []models.NormalizedTransaction
	for {
		txs, err := s.Next()
		if err == io.EOF {
			return all, nil
		}
		if err != nil {
			return all, err
		}
		all = append(all, txs...)
	}
}

// SkippedRows reports how many data rows contributed no transactions.
func (s *StatementReader) SkippedRows() int { return s.skippedRows }

// DateWarnings reports how many rows needed the sentinel ingestion date.
func (s *StatementReader) DateWarnings() int { return s.dateWarnings }

func (s *StatementReader) rawRow(record []string) models.RawRow {
	field := func(name string) string {
		idx, ok := s.columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	return models.RawRow{
		TransactionDate: field(colTransactionDate),
		PostedDate:      field(colPostedDate),
		CardNumber:      field(colCardNumber),
		Description:     field(colDescription),
		Category:        field(colCategory),
		Debit:           field(colDebit),
		Credit:          field(colCredit),
	}
}

// normalizeRow turns one raw row into zero, one, or two transactions.
func (s *StatementReader) normalizeRow(row models.RawRow) []models.NormalizedTransaction {
	debit, hasDebit := parsePositiveAmount(row.Debit)
	credit, hasCredit := parsePositiveAmount(row.Credit)
	if !hasDebit && !hasCredit {
		return nil
	}

	txDate, err := utils.ParseStatementDate(row.TransactionDate)
	if err != nil {
		// Data-quality issue, not an ingestion error: substitute the
		// ingestion timestamp instead of dropping the row.
		logger.L.Warn("Unparseable transaction date, substituting ingestion date",
			"value", row.TransactionDate, "description", row.Description)
		txDate = s.ingestedAt
		s.dateWarnings++
	}
	txDate = utils.DateOnly(txDate)

	postedDate, err := utils.ParseStatementDate(row.PostedDate)
	if err != nil {
		postedDate = txDate
	}
	postedDate = utils.DateOnly(postedDate)

	base := models.NormalizedTransaction{
		TransactionDate: txDate,
		PostedDate:      postedDate,
		CardNumber:      row.CardNumber,
		Description:     row.Description,
		SourceCategory:  row.Category,
	}

	var txs []models.NormalizedTransaction
	if hasDebit {
		tx := base
		tx.Amount = debit
		tx.Direction = models.DirectionDebit
		txs = append(txs, tx)
	}
	if hasCredit {
		tx := base
		tx.Amount = credit
		tx.Direction = models.DirectionCredit
		txs = append(txs, tx)
	}
	return txs
}

// parsePositiveAmount parses a statement amount cell. Currency symbols,
// thousands separators, and surrounding parentheses are tolerated; only a
// strictly positive value counts.
func parsePositiveAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, false
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', '¥', ',', ' ':
			return -1
		}
		return r
	}, s)

	amount, err := decimal.NewFromString(s)
	if err != nil || !amount.IsPositive() {
		return decimal.Decimal{}, false
	}
	return amount, true
}

func normalizeHeaderCell(cell string) string {
	// Excel-exported CSVs prefix the file, and thus the first header cell,
	// with a UTF-8 BOM.
	cell = strings.TrimPrefix(cell, "\ufeff")
	key := strings.ToLower(strings.Join(strings.Fields(cell), " "))
	return strings.TrimSuffix(key, ".")
}
