package models

import "github.com/shopspring/decimal"

// BudgetSnapshot is the user's standing monthly targets for one period
// (period is a calendar month, "YYYY-MM"). Read-only input to the budget
// impact calculation.
type BudgetSnapshot struct {
	UserID        int64           `json:"user_id"`
	Period        string          `json:"period"`
	Income        decimal.Decimal `json:"income"`
	FixedExpenses decimal.Decimal `json:"fixedExpenses"`
	SavingsGoal   decimal.Decimal `json:"savingsGoal"`
}

// BudgetImpact reports the effect of one ingestion's admitted expenses on
// the period budget. Computed only from the transactions admitted in that
// call, never from full history.
type BudgetImpact struct {
	Period           string          `json:"period"`
	AvailableToSpend decimal.Decimal `json:"availableToSpend"`
	TotalSpent       decimal.Decimal `json:"totalSpent"`
	Remaining        decimal.Decimal `json:"remaining"`
	PercentageUsed   float64         `json:"percentageUsed"`
	IsOverBudget     bool            `json:"isOverBudget"`
}
