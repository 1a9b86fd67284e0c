package processors

import (
	"github.com/username/budgetflow/backend/src/models"
)

// Re-upload decision thresholds.
const (
	reuploadPercentageThreshold = 30.0
	reuploadAbsoluteMatchCap    = 10
	reuploadMatchFraction       = 0.5
)

// AnalyzeOverlap folds per-row duplicate matches into file-level statistics
// and decides whether the upload looks like a re-upload of an earlier file.
//
// Pure function of its inputs: the caller supplies the user's prior batches
// with the same filename (most recent first) and the batch records for any
// batch id referenced by a duplicate match.
func AnalyzeOverlap(
	duplicates []models.DuplicateMatch,
	candidateCount int,
	filename string,
	sameNameBatches []models.UploadBatch,
	batchesByID map[int64]models.UploadBatch,
) models.OverlapReport {
	report := models.OverlapReport{OverlapCount: len(duplicates)}
	if candidateCount > 0 {
		report.OverlapPercentage = float64(len(duplicates)) / float64(candidateCount) * 100
	}

	// Count matches per prior batch. Intra-file duplicates carry no batch
	// reference and only contribute to the percentage.
	matchesPerBatch := make(map[int64]int)
	for _, d := range duplicates {
		if d.MatchedUploadBatchID != 0 {
			matchesPerBatch[d.MatchedUploadBatchID]++
		}
	}

	maxBatchID, maxMatches := maxOverlapBatch(matchesPerBatch, batchesByID)

	// A prior upload of the exact same filename beats the max-count batch;
	// it is the strongest re-upload signal and a deterministic tie-break.
	switch {
	case len(sameNameBatches) > 0:
		b := sameNameBatches[0]
		report.MostSimilarBatch = &b
	case maxBatchID != 0:
		if b, ok := batchesByID[maxBatchID]; ok {
			report.MostSimilarBatch = &b
		}
	}

	report.IsLikelyReupload = report.OverlapPercentage >= reuploadPercentageThreshold ||
		len(sameNameBatches) > 0 ||
		(maxMatches > 0 && float64(maxMatches) >= matchCountThreshold(candidateCount))

	return report
}

// matchCountThreshold is min(10, candidateCount * 0.5): a small file needs
// only half its rows matching one prior batch, a large file at most ten.
func matchCountThreshold(candidateCount int) float64 {
	fraction := float64(candidateCount) * reuploadMatchFraction
	if fraction < reuploadAbsoluteMatchCap {
		return fraction
	}
	return reuploadAbsoluteMatchCap
}

// maxOverlapBatch picks the prior batch with the most matches. Ties go to
// the more recently uploaded batch, then the higher id, so the result never
// depends on map iteration order.
func maxOverlapBatch(matchesPerBatch map[int64]int, batchesByID map[int64]models.UploadBatch) (int64, int) {
	var bestID int64
	var bestCount int
	for id, count := range matchesPerBatch {
		if count < bestCount {
			continue
		}
		if count == bestCount && bestID != 0 {
			current, curOK := batchesByID[id]
			best, bestOK := batchesByID[bestID]
			if curOK && bestOK {
				if current.UploadedAt.Before(best.UploadedAt) {
					continue
				}
				if current.UploadedAt.Equal(best.UploadedAt) && id < bestID {
					continue
				}
			} else if id < bestID {
				continue
			}
		}
		bestID = id
		bestCount = count
	}
	return bestID, bestCount
}
