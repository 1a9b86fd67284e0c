package categorizer

// Config is the data the classifier runs on: the closed category
// vocabulary, a synonym map for source-provided category names, the ordered
// keyword rules, and the income keyword list. Loaded once at startup so the
// classifier itself stays pure.
type Config struct {
	Categories     []string
	Synonyms       map[string]string
	Rules          []KeywordRule
	IncomeKeywords []string
}

// KeywordRule binds a category to the description keywords that select it.
type KeywordRule struct {
	Category string
	Keywords []string
}

// Category vocabulary. Closed set; the classifier never returns anything
// outside it.
const (
	CategoryIncome        = "Income"
	CategoryGroceries     = "Groceries"
	CategoryDining        = "Dining"
	CategoryDrinksDessert = "Drinks/Dessert"
	CategoryTransport     = "Transport"
	CategoryTravel        = "Travel"
	CategorySubscriptions = "Subscriptions"
	CategoryEntertainment = "Entertainment"
	CategoryUtilities     = "Utilities"
	CategoryHealth        = "Health"
	CategoryShopping      = "Shopping"
	CategoryRent          = "Rent"
	CategoryFees          = "Fees"
	CategoryOther         = "Other"
)

// DefaultConfig returns the built-in tables.
//
// Rule order is significant and fixed: a description can match keywords of
// several categories ("STARBUCKS MARKET ST" matches both Drinks/Dessert and
// Groceries), and the first rule wins. Narrow merchant categories come
// before broad ones.
func DefaultConfig() Config {
	return Config{
		Categories: []string{
			CategoryIncome, CategoryGroceries, CategoryDining,
			CategoryDrinksDessert, CategoryTransport, CategoryTravel,
			CategorySubscriptions, CategoryEntertainment, CategoryUtilities,
			CategoryHealth, CategoryShopping, CategoryRent, CategoryFees,
			CategoryOther,
		},
		Synonyms: map[string]string{
			"restaurants":      CategoryDining,
			"restaurant":       CategoryDining,
			"fast food":        CategoryDining,
			"food & drink":     CategoryDining,
			"coffee shops":     CategoryDrinksDessert,
			"coffee":           CategoryDrinksDessert,
			"supermarkets":     CategoryGroceries,
			"grocery":          CategoryGroceries,
			"grocery stores":   CategoryGroceries,
			"gas":              CategoryTransport,
			"gasoline":         CategoryTransport,
			"gas/automotive":   CategoryTransport,
			"automotive":       CategoryTransport,
			"airfare":          CategoryTravel,
			"lodging":          CategoryTravel,
			"merchandise":      CategoryShopping,
			"retail":           CategoryShopping,
			"department store": CategoryShopping,
			"health care":      CategoryHealth,
			"medical":          CategoryHealth,
			"phone/cable":      CategoryUtilities,
			"internet":         CategoryUtilities,
			"bills & utilities": CategoryUtilities,
			"payroll":          CategoryIncome,
			"paycheck":         CategoryIncome,
			"salary":           CategoryIncome,
			"fees & adjustments": CategoryFees,
			"fee":              CategoryFees,
		},
		Rules: []KeywordRule{
			{CategoryDrinksDessert, []string{
				"starbucks", "coffee", "cafe", "caffe", "boba", "bubble tea",
				"dunkin", "donut", "ice cream", "gelato", "dessert", "bakery",
				"patisserie",
			}},
			{CategoryGroceries, []string{
				"grocery", "supermarket", "whole foods", "trader joe",
				"safeway", "kroger", "aldi", "lidl", "costco", "food market",
				"farmers market",
			}},
			{CategoryDining, []string{
				"restaurant", "grill", "pizza", "sushi", "ramen", "burger",
				"taco", "diner", "kitchen", "bistro", "eatery", "doordash",
				"ubereats", "uber eats", "grubhub", "deliveroo", "mcdonald",
				"kfc", "chipotle",
			}},
			{CategoryTransport, []string{
				"uber", "lyft", "taxi", "shell", "chevron", "exxon", "fuel",
				"gas station", "parking", "metro", "transit", "toll",
				"railway", "bus pass",
			}},
			{CategoryTravel, []string{
				"airline", "airways", "air lines", "hotel", "airbnb",
				"flight", "expedia", "booking.com", "hostel", "resort",
			}},
			{CategorySubscriptions, []string{
				"netflix", "spotify", "hulu", "disney+", "prime video",
				"youtube premium", "icloud", "dropbox", "patreon",
				"subscription", "membership fee",
			}},
			{CategoryEntertainment, []string{
				"cinema", "movie", "theater", "theatre", "concert", "steam",
				"playstation", "nintendo", "xbox", "ticketmaster", "arcade",
				"bowling",
			}},
			{CategoryUtilities, []string{
				"electric", "water bill", "internet", "comcast", "xfinity",
				"verizon", "t-mobile", "at&t", "utility", "utilities",
				"power co", "sewer", "trash service",
			}},
			{CategoryHealth, []string{
				"pharmacy", "cvs", "walgreens", "doctor", "dental", "clinic",
				"hospital", "optometr", "gym", "fitness", "therapist",
			}},
			{CategoryShopping, []string{
				"amazon", "target", "walmart", "best buy", "ebay", "etsy",
				"ikea", "mall", "outlet", "store", "shop",
			}},
			{CategoryRent, []string{
				"rent", "landlord", "lease payment", "property management",
				"apartment",
			}},
			{CategoryFees, []string{
				"interest charge", "service charge", "annual fee", "late fee",
				"atm fee", "overdraft", "finance charge", "maintenance fee",
			}},
		},
		IncomeKeywords: []string{
			"payroll", "salary", "paycheck", "direct deposit", "direct dep",
			"wages", "reimbursement", "tax refund", "refund", "cashback",
			"cash back", "dividend", "interest earned", "bonus payment",
		},
	}
}
