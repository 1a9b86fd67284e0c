package processors

import (
	"fmt"
	"sort"

	"github.com/username/budgetflow/backend/src/categorizer"
	"github.com/username/budgetflow/backend/src/models"
)

// BuildInsights turns the ingestion results into a small set of
// human-readable observations. Generation is deterministic and ordered:
// overlap warnings first, then the duplicate-prevention summary, then
// budget and category insights.
func BuildInsights(
	overlap models.OverlapReport,
	dup models.DuplicateInfo,
	impact *models.BudgetImpact,
	breakdown map[string]models.CategoryTotal,
) []string {
	var insights []string

	if overlap.IsLikelyReupload {
		if overlap.MostSimilarBatch != nil {
			insights = append(insights, fmt.Sprintf(
				"This file looks like a re-upload of %q from %s (%.0f%% of its transactions were already recorded).",
				overlap.MostSimilarBatch.Filename,
				overlap.MostSimilarBatch.UploadedAt.Format("Jan 2, 2006"),
				overlap.OverlapPercentage))
		} else {
			insights = append(insights, fmt.Sprintf(
				"This file looks like a re-upload: %.0f%% of its transactions were already recorded.",
				overlap.OverlapPercentage))
		}
	}

	switch {
	case dup.TotalTransactionsInFile > 0 && dup.DuplicatesFound == dup.TotalTransactionsInFile:
		insights = append(insights,
			"Every transaction in this file was already in your history; nothing new was added.")
	case dup.DuplicatesFound > 0:
		insights = append(insights, fmt.Sprintf(
			"Skipped %d duplicate transaction(s); %d new transaction(s) were added.",
			dup.DuplicatesFound, dup.NewTransactionsAdded))
	}

	if impact != nil {
		if impact.IsOverBudget {
			insights = append(insights, fmt.Sprintf(
				"These transactions put you %s over your available budget for %s.",
				impact.Remaining.Neg().StringFixed(2), impact.Period))
		} else if impact.AvailableToSpend.IsPositive() {
			insights = append(insights, fmt.Sprintf(
				"You have %s left to spend in %s (%.0f%% of your budget used by this upload).",
				impact.Remaining.StringFixed(2), impact.Period, impact.PercentageUsed))
		}
	}

	if category, total, ok := topExpenseCategory(breakdown); ok {
		insights = append(insights, fmt.Sprintf(
			"Most of this upload's spending went to %s (%s across %d transaction(s)).",
			category, total.Total.StringFixed(2), total.Count))
	}

	return insights
}

// topExpenseCategory picks the non-income category with the largest total.
// Ties break alphabetically so the output is stable.
func topExpenseCategory(breakdown map[string]models.CategoryTotal) (string, models.CategoryTotal, bool) {
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		if name == categorizer.CategoryIncome {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var best string
	var bestTotal models.CategoryTotal
	for _, name := range names {
		t := breakdown[name]
		if best == "" || t.Total.GreaterThan(bestTotal.Total) {
			best = name
			bestTotal = t
		}
	}
	if best == "" || bestTotal.Count == 0 {
		return "", models.CategoryTotal{}, false
	}
	return best, bestTotal, true
}
