package processors

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/budgetflow/backend/src/categorizer"
	"github.com/username/budgetflow/backend/src/models"
)

func categoryTotal(total string, count int) models.CategoryTotal {
	return models.CategoryTotal{
		Total: decimal.RequireFromString(total),
		Count: count,
	}
}

func TestBuildInsights_Ordering(t *testing.T) {
	prior := batch(3, "march.csv", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	overlap := models.OverlapReport{
		OverlapPercentage: 40,
		IsLikelyReupload:  true,
		MostSimilarBatch:  &prior,
	}
	dup := models.DuplicateInfo{
		DuplicatesFound:         4,
		NewTransactionsAdded:    6,
		TotalTransactionsInFile: 10,
	}
	impact := ComputeBudgetImpact(
		[]models.ClassifiedTransaction{expense("500")},
		budgetSnapshot("3000", "1200", "300"),
	)
	breakdown := map[string]models.CategoryTotal{
		"Groceries": categoryTotal("300", 3),
		"Dining":    categoryTotal("200", 2),
	}

	insights := BuildInsights(overlap, dup, impact, breakdown)
	require.Len(t, insights, 4)
	assert.Contains(t, insights[0], "re-upload")
	assert.Contains(t, insights[0], "march.csv")
	assert.Contains(t, insights[1], "Skipped 4 duplicate")
	assert.Contains(t, insights[2], "left to spend")
	assert.Contains(t, insights[3], "Groceries")
}

func TestBuildInsights_AllDuplicates(t *testing.T) {
	dup := models.DuplicateInfo{
		DuplicatesFound:         10,
		TotalTransactionsInFile: 10,
	}
	insights := BuildInsights(models.OverlapReport{}, dup, nil, nil)
	require.Len(t, insights, 1)
	assert.Contains(t, insights[0], "nothing new was added")
}

func TestBuildInsights_ReuploadWithoutKnownBatch(t *testing.T) {
	overlap := models.OverlapReport{OverlapPercentage: 55, IsLikelyReupload: true}
	insights := BuildInsights(overlap, models.DuplicateInfo{}, nil, nil)
	require.NotEmpty(t, insights)
	assert.Contains(t, insights[0], "55%")
}

func TestBuildInsights_OverBudget(t *testing.T) {
	impact := ComputeBudgetImpact(
		[]models.ClassifiedTransaction{expense("1600")},
		budgetSnapshot("3000", "1200", "300"),
	)
	insights := BuildInsights(models.OverlapReport{}, models.DuplicateInfo{}, impact, nil)
	require.Len(t, insights, 1)
	assert.Contains(t, insights[0], "100.00 over your available budget")
}

func TestBuildInsights_EmptyInputs(t *testing.T) {
	insights := BuildInsights(models.OverlapReport{}, models.DuplicateInfo{}, nil, nil)
	assert.Empty(t, insights)
}

func TestBuildInsights_Deterministic(t *testing.T) {
	dup := models.DuplicateInfo{DuplicatesFound: 2, NewTransactionsAdded: 8, TotalTransactionsInFile: 10}
	breakdown := map[string]models.CategoryTotal{
		"Groceries":                categoryTotal("120", 2),
		"Dining":                   categoryTotal("120", 3),
		categorizer.CategoryIncome: categoryTotal("5000", 1),
	}
	first := BuildInsights(models.OverlapReport{}, dup, nil, breakdown)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, BuildInsights(models.OverlapReport{}, dup, nil, breakdown))
	}
	// income never surfaces as a spending category; equal totals break
	// alphabetically
	top := first[len(first)-1]
	assert.True(t, strings.Contains(top, "Dining"), "got %q", top)
}
