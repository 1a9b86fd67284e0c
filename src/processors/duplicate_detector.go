package processors

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/username/budgetflow/backend/src/models"
	"github.com/username/budgetflow/backend/src/utils"
)

// amountTolerance is the absolute currency-unit tolerance for duplicate
// matching. Two amounts are "the same" iff they differ by strictly less
// than one cent; a difference of exactly 0.01 is a distinct transaction.
var amountTolerance = decimal.RequireFromString("0.01")

// defaultChunkSize bounds the number of candidates whose history is fetched
// in one query. Purely a memory/query-size knob; detection results are
// identical for any chunk size.
const defaultChunkSize = 200

// HistoryFinder is the slice of the persistence layer the detector reads.
// It never writes.
type HistoryFinder interface {
	// FindHistoryByDates returns the user's stored transactions whose
	// transaction date is one of the given calendar dates, most recently
	// created first.
	FindHistoryByDates(userID int64, dates []string) ([]models.StoredTransaction, error)
}

// DetectionResult partitions a candidate batch into transactions to admit
// and duplicates with their match evidence.
type DetectionResult struct {
	Admitted   []models.ClassifiedTransaction
	Duplicates []models.DuplicateMatch
}

// DuplicateDetector decides, for each candidate transaction, whether the
// user already has it: same calendar date, same normalized description, and
// amount within tolerance.
type DuplicateDetector struct {
	history   HistoryFinder
	chunkSize int
}

func NewDuplicateDetector(history HistoryFinder) *DuplicateDetector {
	return &DuplicateDetector{history: history, chunkSize: defaultChunkSize}
}

// WithChunkSize overrides the history lookup chunk size. Exposed for tests
// that assert chunk-size independence.
func (d *DuplicateDetector) WithChunkSize(n int) *DuplicateDetector {
	if n > 0 {
		d.chunkSize = n
	}
	return d
}

// Detect classifies candidates into admitted and duplicate, preserving
// candidate order. History is consulted across the user's entire past, and
// candidates are also checked against earlier candidates in the same batch
// (first-seen-wins: only the first occurrence is admitted). Stored data is
// never mutated.
func (d *DuplicateDetector) Detect(userID int64, candidates []models.ClassifiedTransaction) (DetectionResult, error) {
	var result DetectionResult
	if len(candidates) == 0 {
		return result, nil
	}

	// admitted amounts per match key, for intra-batch duplicate checks.
	// The stored value is the index into result.Admitted of the first
	// occurrence.
	type admittedRef struct {
		amount decimal.Decimal
		index  int
	}
	admittedByKey := make(map[string][]admittedRef)
	historyByKey := make(map[string][]models.StoredTransaction)
	fetchedDates := make(map[string]bool)

	for start := 0; start < len(candidates); start += d.chunkSize {
		end := start + d.chunkSize
		if end > len(candidates) {
			end = len(candidates)
		}
		chunk := candidates[start:end]

		// Fetch history for every date in this chunk we have not seen yet.
		var dates []string
		for _, c := range chunk {
			ds := c.TransactionDate.Format(utils.DateOnlyFormat)
			if !fetchedDates[ds] {
				fetchedDates[ds] = true
				dates = append(dates, ds)
			}
		}
		if len(dates) > 0 {
			history, err := d.history.FindHistoryByDates(userID, dates)
			if err != nil {
				return DetectionResult{}, fmt.Errorf("duplicate detection: fetching history: %w", err)
			}
			for _, st := range history {
				key := matchKey(st.TransactionDate.Format(utils.DateOnlyFormat), st.Description)
				historyByKey[key] = append(historyByKey[key], st)
			}
		}

		for _, candidate := range chunk {
			key := matchKey(candidate.TransactionDate.Format(utils.DateOnlyFormat), candidate.Description)

			// History rows arrive most-recent-first, so the first amount
			// match is the most recently created one.
			matched := false
			for _, existing := range historyByKey[key] {
				if withinTolerance(candidate.Amount, existing.Amount) {
					result.Duplicates = append(result.Duplicates, models.DuplicateMatch{
						Candidate:            candidate,
						Existing:             existing,
						MatchedUploadBatchID: existing.UploadBatchID,
					})
					matched = true
					break
				}
			}
			if matched {
				continue
			}

			for _, ref := range admittedByKey[key] {
				if withinTolerance(candidate.Amount, ref.amount) {
					// Duplicate of an earlier row in this same file. The
					// first occurrence will be persisted; record it as the
					// match with no prior batch reference.
					first := result.Admitted[ref.index]
					result.Duplicates = append(result.Duplicates, models.DuplicateMatch{
						Candidate:            candidate,
						Existing:             models.StoredTransaction{ClassifiedTransaction: first},
						MatchedUploadBatchID: 0,
					})
					matched = true
					break
				}
			}
			if matched {
				continue
			}

			admittedByKey[key] = append(admittedByKey[key], admittedRef{
				amount: candidate.Amount,
				index:  len(result.Admitted),
			})
			result.Admitted = append(result.Admitted, candidate)
		}
	}

	return result, nil
}

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(amountTolerance)
}

func matchKey(date, description string) string {
	return date + "|" + utils.NormalizeDescription(description)
}
