package processors

import (
	"github.com/shopspring/decimal"
	"github.com/username/budgetflow/backend/src/models"
)

// ComputeBudgetImpact combines the user's standing budget for the period
// with the transactions admitted by this ingestion call. Returns nil when
// the user has no budget set up; budget configuration is optional.
//
// This is a point-in-time incremental report: only the expenses admitted in
// this call count toward TotalSpent, never full history.
func ComputeBudgetImpact(admitted []models.ClassifiedTransaction, budget *models.BudgetSnapshot) *models.BudgetImpact {
	if budget == nil {
		return nil
	}

	availableToSpend := budget.Income.Sub(budget.FixedExpenses).Sub(budget.SavingsGoal)

	totalSpent := decimal.Zero
	for _, tx := range admitted {
		if tx.Type == models.TypeExpense {
			totalSpent = totalSpent.Add(tx.Amount)
		}
	}

	impact := &models.BudgetImpact{
		Period:           budget.Period,
		AvailableToSpend: availableToSpend,
		TotalSpent:       totalSpent,
		Remaining:        availableToSpend.Sub(totalSpent),
		IsOverBudget:     totalSpent.GreaterThan(availableToSpend),
	}

	// Percentage is only meaningful with a positive denominator.
	if availableToSpend.IsPositive() {
		ratio, _ := totalSpent.Div(availableToSpend).Float64()
		impact.PercentageUsed = ratio * 100
	}

	return impact
}
