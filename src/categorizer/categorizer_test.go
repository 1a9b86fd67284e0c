package categorizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/budgetflow/backend/src/models"
)

func TestClassify_SourceCategoryWins(t *testing.T) {
	c := NewDefault()

	tests := []struct {
		name           string
		description    string
		sourceCategory string
		direction      models.Direction
		want           string
	}{
		{"direct vocabulary hit", "SOME MERCHANT", "Dining", models.DirectionDebit, CategoryDining},
		{"vocabulary hit is case-insensitive", "SOME MERCHANT", "dining", models.DirectionDebit, CategoryDining},
		{"synonym mapping", "SHELL OIL 574", "Gas/Automotive", models.DirectionDebit, CategoryTransport},
		{"synonym beats keyword rules", "STARBUCKS #1234", "Restaurants", models.DirectionDebit, CategoryDining},
		{"source category beats credit override", "VENDOR CREDIT", "Shopping", models.DirectionCredit, CategoryShopping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.description, tt.sourceCategory, tt.direction))
		})
	}
}

func TestClassify_UncategorizedSentinelsIgnored(t *testing.T) {
	c := NewDefault()
	for _, sentinel := range []string{"Uncategorized", "UNKNOWN", "none", "N/A", "-", "--", ""} {
		assert.Equal(t, CategoryDrinksDessert, c.Classify("STARBUCKS #1234", sentinel, models.DirectionDebit),
			"sentinel %q should fall through to keyword rules", sentinel)
	}
}

func TestClassify_UnrecognizedSourceCategoryFallsThrough(t *testing.T) {
	c := NewDefault()
	assert.Equal(t, CategoryDrinksDessert, c.Classify("STARBUCKS #1234", "Plumbing Supplies", models.DirectionDebit))
}

func TestClassify_IncomeOverride(t *testing.T) {
	c := NewDefault()

	// any credit is income
	assert.Equal(t, CategoryIncome, c.Classify("MUFG PAYROLL DEP", "", models.DirectionCredit))
	assert.Equal(t, CategoryIncome, c.Classify("RANDOM TRANSFER IN", "", models.DirectionCredit))

	// income keyword wins even on a debit
	assert.Equal(t, CategoryIncome, c.Classify("ACME CORP PAYROLL REVERSAL", "", models.DirectionDebit))
	assert.Equal(t, CategoryIncome, c.Classify("TAX REFUND ADJUSTMENT", "", models.DirectionDebit))
}

func TestClassify_KeywordRuleOrder(t *testing.T) {
	c := NewDefault()

	tests := []struct {
		description string
		want        string
	}{
		{"STARBUCKS MARKET ST", CategoryDrinksDessert}, // matches both Drinks/Dessert and Groceries; first rule wins
		{"WHOLE FOODS MKT #102", CategoryGroceries},
		{"CHIPOTLE ONLINE", CategoryDining},
		{"UBER TRIP HELP.UBER.COM", CategoryTransport},
		{"UBEREATS ORDER", CategoryDining}, // ubereats is a dining keyword, listed before uber's rule fires
		{"DELTA AIR LINES ATLANTA", CategoryTravel},
		{"NETFLIX.COM", CategorySubscriptions},
		{"AMC THEATER 0042", CategoryEntertainment},
		{"COMCAST CABLE COMM", CategoryUtilities},
		{"CVS/PHARMACY #8841", CategoryHealth},
		{"AMAZON MKTPL*RT4D2", CategoryShopping},
		{"APT 4B RENT MARCH", CategoryRent},
		{"ANNUAL FEE", CategoryFees},
		{"WIRE TRANSFER OUT", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.description, "", models.DirectionDebit))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewDefault()
	first := c.Classify("TRADER JOE'S #552", "", models.DirectionDebit)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, c.Classify("TRADER JOE'S #552", "", models.DirectionDebit))
	}
}

func TestTypeOf(t *testing.T) {
	c := NewDefault()
	assert.Equal(t, models.TypeIncome, c.TypeOf(models.DirectionCredit, CategoryShopping))
	assert.Equal(t, models.TypeIncome, c.TypeOf(models.DirectionDebit, CategoryIncome))
	assert.Equal(t, models.TypeExpense, c.TypeOf(models.DirectionDebit, CategoryGroceries))
	assert.Equal(t, models.TypeExpense, c.TypeOf(models.DirectionDebit, CategoryOther))
}
