package categorizer

import (
	"sort"

	"fjacquet/statement-reconciler/internal/models"
)

type keywordRule struct {
	category  string
	appliesTo models.TransactionType
	priority  int
	keywordMatcher
}

// KeywordStrategy implements categorization using keyword pattern matching
// from category rules loaded from YAML files. Rules are tried by descending
// priority; the first match wins.
type KeywordStrategy struct {
	rules []keywordRule
}

// NewKeywordStrategy compiles the category rules.
func NewKeywordStrategy(rules []models.CategoryRule) *KeywordStrategy {
	compiled := make([]keywordRule, 0, len(rules))
	for _, r := range rules {
		compiled = append(compiled, keywordRule{
			category:       r.Category,
			appliesTo:      r.AppliesTo,
			priority:       r.Priority,
			keywordMatcher: newKeywordMatcher(r.Keywords, r.Match),
		})
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].priority > compiled[j].priority
	})
	return &KeywordStrategy{rules: compiled}
}

// Name returns the name of this strategy for logging and debugging.
func (s *KeywordStrategy) Name() string {
	return "Keyword"
}

// Categorize matches the description against each rule.
func (s *KeywordStrategy) Categorize(tx Transaction) (string, bool) {
	for _, r := range s.rules {
		if r.appliesTo != "" && r.appliesTo != tx.Type {
			continue
		}
		if _, ok := r.matches(tx.Description); ok {
			return r.category, true
		}
	}
	return "", false
}
