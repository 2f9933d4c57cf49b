package categorizer

import (
	"strings"

	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/textutils"
)

// Transaction is the view of a statement line the strategies work on. Text
// fields are folded with textutils.FoldName.
type Transaction struct {
	Description string
	Vendor      string
	Type        models.TransactionType
}

// CategorizationStrategy assigns a category label to a transaction. Strategies
// are pure: the same input always gives the same answer.
type CategorizationStrategy interface {
	// Categorize returns the category and whether the strategy matched.
	Categorize(tx Transaction) (string, bool)

	// Name returns the name of this strategy for logging and debugging purposes.
	Name() string
}

// keywordMatcher is a compiled keyword list with its match mode.
type keywordMatcher struct {
	keywords []string
	match    models.MatchType
}

func newKeywordMatcher(keywords []string, match models.MatchType) keywordMatcher {
	folded := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if f := textutils.FoldName(k); f != "" {
			folded = append(folded, f)
		}
	}
	if match == "" {
		match = models.MatchContains
	}
	return keywordMatcher{keywords: folded, match: match}
}

// matches reports the first keyword found in text, which must already be folded.
func (m keywordMatcher) matches(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	padded := " " + text + " "
	for _, k := range m.keywords {
		switch m.match {
		case models.MatchWord:
			if strings.Contains(padded, " "+k+" ") {
				return k, true
			}
		case models.MatchPrefix:
			if strings.HasPrefix(padded, " "+k+" ") {
				return k, true
			}
		default:
			if strings.Contains(text, k) {
				return k, true
			}
		}
	}
	return "", false
}
