package categorizer

import (
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/textutils"

	"github.com/shopspring/decimal"
)

type typeRule struct {
	name   string
	sign   models.SignConstraint
	result models.TransactionType
	keywordMatcher
}

func compileTypeRules(rules []models.TypeRule) []typeRule {
	compiled := make([]typeRule, 0, len(rules))
	for _, r := range rules {
		compiled = append(compiled, typeRule{
			name:           r.Name,
			sign:           r.Sign,
			result:         r.Type,
			keywordMatcher: newKeywordMatcher(r.Keywords, r.Match),
		})
	}
	return compiled
}

func (r typeRule) allows(amount decimal.Decimal) bool {
	switch r.sign {
	case models.SignNegative:
		return amount.IsNegative()
	case models.SignPositive:
		return amount.IsPositive()
	}
	return true
}

// ClassifyType decides the economic type of a transaction. A zero amount is
// unknown. Otherwise the first type rule whose keyword and sign constraint
// match decides, and without one the sign does.
func (c *Categorizer) ClassifyType(tx models.RawTransaction) models.TransactionType {
	if tx.Amount.IsZero() {
		return models.TypeUnknown
	}
	folded := textutils.FoldName(tx.Description)
	for _, r := range c.typeRules {
		if !r.allows(tx.Amount) {
			continue
		}
		if _, ok := r.matches(folded); ok {
			return r.result
		}
	}
	if tx.Amount.IsNegative() {
		return models.TypeExpense
	}
	return models.TypeIncome
}
