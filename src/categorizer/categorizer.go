// Package categorizer assigns every transaction a category from a fixed
// vocabulary. Classification is a pure function of its inputs so historical
// categorizations can always be reproduced: source-provided category first,
// then income detection, then ordered keyword rules, then "Other".
package categorizer

import (
	"strings"

	"github.com/username/budgetflow/backend/src/models"
)

// sentinel source-category values that mean "no category provided".
var uncategorizedSentinels = map[string]bool{
	"uncategorized": true,
	"uncategorised": true,
	"unknown":       true,
	"none":          true,
	"n/a":           true,
	"-":             true,
	"--":            true,
}

type Classifier struct {
	vocabulary     map[string]string // case-folded label -> canonical label
	synonyms       map[string]string // case-folded source name -> canonical label
	rules          []KeywordRule
	incomeKeywords []string
}

// New builds a Classifier from a Config. The config is copied into lookup
// form once; Classify does no allocation-heavy work per call.
func New(cfg Config) *Classifier {
	vocabulary := make(map[string]string, len(cfg.Categories))
	for _, c := range cfg.Categories {
		vocabulary[strings.ToLower(c)] = c
	}
	synonyms := make(map[string]string, len(cfg.Synonyms))
	for from, to := range cfg.Synonyms {
		synonyms[strings.ToLower(from)] = to
	}
	return &Classifier{
		vocabulary:     vocabulary,
		synonyms:       synonyms,
		rules:          cfg.Rules,
		incomeKeywords: cfg.IncomeKeywords,
	}
}

// NewDefault builds a Classifier on the built-in tables.
func NewDefault() *Classifier {
	return New(DefaultConfig())
}

// Classify returns the category for one transaction.
//
// Precedence: a valid source-provided category (direct vocabulary hit, then
// synonym mapping) beats everything; then the income override (credit
// direction, or an income keyword in the description regardless of
// direction); then the ordered keyword rules; then "Other".
func (c *Classifier) Classify(description, sourceCategory string, direction models.Direction) string {
	source := strings.ToLower(strings.TrimSpace(sourceCategory))
	if source != "" && !uncategorizedSentinels[source] {
		if canonical, ok := c.vocabulary[source]; ok {
			return canonical
		}
		if mapped, ok := c.synonyms[source]; ok {
			return mapped
		}
		// Unrecognized source category: fall through to keyword rules.
	}

	desc := strings.ToLower(description)

	if direction == models.DirectionCredit || c.matchesIncomeKeyword(desc) {
		return CategoryIncome
	}

	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(desc, keyword) {
				return rule.Category
			}
		}
	}

	return CategoryOther
}

// TypeOf derives income/expense from direction and category. Credits are
// income; a debit classified as Income by keyword override is income too.
func (c *Classifier) TypeOf(direction models.Direction, category string) models.TransactionType {
	if direction == models.DirectionCredit || category == CategoryIncome {
		return models.TypeIncome
	}
	return models.TypeExpense
}

func (c *Classifier) matchesIncomeKeyword(foldedDescription string) bool {
	for _, keyword := range c.incomeKeywords {
		if strings.Contains(foldedDescription, keyword) {
			return true
		}
	}
	return false
}
