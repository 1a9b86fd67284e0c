package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/budgetflow/backend/src/models"
)

func batch(id int64, filename string, uploadedAt time.Time) models.UploadBatch {
	return models.UploadBatch{
		ID:         id,
		UserID:     1,
		Filename:   filename,
		UploadedAt: uploadedAt,
		Status:     models.BatchStatusCompleted,
	}
}

func matches(batchID int64, n int) []models.DuplicateMatch {
	out := make([]models.DuplicateMatch, n)
	for i := range out {
		out[i] = models.DuplicateMatch{MatchedUploadBatchID: batchID}
	}
	return out
}

func TestAnalyzeOverlap_NoDuplicates(t *testing.T) {
	report := AnalyzeOverlap(nil, 20, "march.csv", nil, nil)
	assert.Zero(t, report.OverlapPercentage)
	assert.Zero(t, report.OverlapCount)
	assert.False(t, report.IsLikelyReupload)
	assert.Nil(t, report.MostSimilarBatch)
}

func TestAnalyzeOverlap_Percentage(t *testing.T) {
	report := AnalyzeOverlap(matches(0, 5), 20, "march.csv", nil, nil)
	assert.InDelta(t, 25.0, report.OverlapPercentage, 1e-9)
	assert.Equal(t, 5, report.OverlapCount)
}

func TestAnalyzeOverlap_ZeroCandidatesNoDivision(t *testing.T) {
	report := AnalyzeOverlap(nil, 0, "empty.csv", nil, nil)
	assert.Zero(t, report.OverlapPercentage)
	assert.False(t, report.IsLikelyReupload)
}

func TestAnalyzeOverlap_PercentageThreshold(t *testing.T) {
	// 6/20 = 30% triggers; 5/20 = 25% does not
	report := AnalyzeOverlap(matches(0, 6), 20, "march.csv", nil, nil)
	assert.True(t, report.IsLikelyReupload)

	report = AnalyzeOverlap(matches(0, 5), 20, "march.csv", nil, nil)
	assert.False(t, report.IsLikelyReupload)
}

func TestAnalyzeOverlap_FilenameMatchAlwaysFlags(t *testing.T) {
	prior := batch(3, "march.csv", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	// zero duplicates, but a prior completed upload had the same name
	report := AnalyzeOverlap(nil, 20, "march.csv", []models.UploadBatch{prior}, nil)
	assert.True(t, report.IsLikelyReupload)
	require.NotNil(t, report.MostSimilarBatch)
	assert.Equal(t, int64(3), report.MostSimilarBatch.ID)
}

func TestAnalyzeOverlap_FilenameMatchBeatsMaxCountBatch(t *testing.T) {
	sameName := batch(3, "march.csv", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	other := batch(5, "feb.csv", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	report := AnalyzeOverlap(
		matches(5, 8), 100, "march.csv",
		[]models.UploadBatch{sameName},
		map[int64]models.UploadBatch{5: other},
	)
	require.NotNil(t, report.MostSimilarBatch)
	assert.Equal(t, int64(3), report.MostSimilarBatch.ID, "exact filename match takes priority")
}

func TestAnalyzeOverlap_MatchCountThreshold(t *testing.T) {
	other := batch(5, "feb.csv", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	byID := map[int64]models.UploadBatch{5: other}

	// large file: 10 matches against one batch reaches the absolute cap
	// even at 10% overlap
	report := AnalyzeOverlap(matches(5, 10), 100, "march.csv", nil, byID)
	assert.True(t, report.IsLikelyReupload)

	report = AnalyzeOverlap(matches(5, 9), 100, "march.csv", nil, byID)
	assert.False(t, report.IsLikelyReupload)

	// small file: 2 of 8 is 25% and below the min(10, 4) count threshold
	report = AnalyzeOverlap(matches(5, 2), 8, "march.csv", nil, byID)
	assert.False(t, report.IsLikelyReupload)
}

func TestAnalyzeOverlap_SmallFileHalfMatching(t *testing.T) {
	other := batch(5, "feb.csv", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	byID := map[int64]models.UploadBatch{5: other}

	// 4 of 8 rows matching one prior batch: meets min(10, 4) threshold
	report := AnalyzeOverlap(matches(5, 4), 8, "march.csv", nil, byID)
	assert.True(t, report.IsLikelyReupload)
	require.NotNil(t, report.MostSimilarBatch)
	assert.Equal(t, int64(5), report.MostSimilarBatch.ID)
}

func TestAnalyzeOverlap_IntraFileDuplicatesNotBatchEvidence(t *testing.T) {
	// all duplicates are intra-file (batch id 0): they count toward the
	// percentage but produce no most-similar batch
	report := AnalyzeOverlap(matches(0, 10), 20, "march.csv", nil, map[int64]models.UploadBatch{})
	assert.InDelta(t, 50.0, report.OverlapPercentage, 1e-9)
	assert.True(t, report.IsLikelyReupload) // 50% >= 30%
	assert.Nil(t, report.MostSimilarBatch)
}

func TestAnalyzeOverlap_TieBreakDeterministic(t *testing.T) {
	older := batch(5, "feb.csv", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	newer := batch(3, "jan.csv", time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC))
	byID := map[int64]models.UploadBatch{5: older, 3: newer}

	dups := append(matches(5, 4), matches(3, 4)...)

	// run repeatedly; map iteration order must never leak into the result
	for i := 0; i < 50; i++ {
		report := AnalyzeOverlap(dups, 16, "march.csv", nil, byID)
		require.NotNil(t, report.MostSimilarBatch)
		assert.Equal(t, int64(3), report.MostSimilarBatch.ID, "tie goes to the more recent upload")
	}
}

func TestAnalyzeOverlap_MaxCountBatchWins(t *testing.T) {
	a := batch(5, "feb.csv", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	b := batch(3, "jan.csv", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	byID := map[int64]models.UploadBatch{5: a, 3: b}

	dups := append(matches(5, 2), matches(3, 6)...)
	report := AnalyzeOverlap(dups, 100, "march.csv", nil, byID)
	require.NotNil(t, report.MostSimilarBatch)
	assert.Equal(t, int64(3), report.MostSimilarBatch.ID)
}
