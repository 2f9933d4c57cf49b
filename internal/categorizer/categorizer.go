// Package categorizer assigns a type, a category and a vendor name to raw
// statement transactions. It is deterministic and has no failure mode: a
// transaction nothing matches keeps its sign-based type and a nil category.
package categorizer

import (
	"strings"

	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/textutils"
)

// Categorizer runs the type rules, then the category strategies in order.
type Categorizer struct {
	typeRules     []typeRule
	strategies    []CategorizationStrategy
	noisePrefixes []string
	logger        logging.Logger
}

// New builds a categorizer from a rule set. A nil rule set classifies by sign
// only.
func New(rules *models.RuleSet, logger logging.Logger) *Categorizer {
	if rules == nil {
		rules = &models.RuleSet{}
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return NewWithStrategies(rules, logger,
		NewDirectMappingStrategy(rules.VendorCategories),
		NewKeywordStrategy(rules.Categories),
	)
}

// NewWithStrategies builds a categorizer with an explicit strategy chain.
func NewWithStrategies(rules *models.RuleSet, logger logging.Logger, strategies ...CategorizationStrategy) *Categorizer {
	return &Categorizer{
		typeRules:     compileTypeRules(rules.TypeRules),
		strategies:    strategies,
		noisePrefixes: rules.NoisePrefixes,
		logger:        logger,
	}
}

// Categorize enriches every transaction, preserving order.
func (c *Categorizer) Categorize(txs []models.RawTransaction) []models.CategorizedTransaction {
	out := make([]models.CategorizedTransaction, len(txs))
	for i, tx := range txs {
		out[i] = c.CategorizeTransaction(tx)
	}
	return out
}

// CategorizeTransaction enriches a single transaction.
func (c *Categorizer) CategorizeTransaction(tx models.RawTransaction) models.CategorizedTransaction {
	result := models.CategorizedTransaction{
		RawTransaction: tx,
		Type:           c.ClassifyType(tx),
		VendorName:     c.VendorName(tx.Description),
	}

	view := Transaction{
		Description: textutils.FoldName(tx.Description),
		Vendor:      textutils.FoldName(result.VendorName),
		Type:        result.Type,
	}
	for _, s := range c.strategies {
		if category, ok := s.Categorize(view); ok {
			result.Category = &category
			c.logger.Debug("Transaction categorized",
				logging.F("strategy", s.Name()),
				logging.F("vendor", result.VendorName),
				logging.F(logging.FieldCategory, category))
			break
		}
	}
	return result
}

// VendorName derives a display vendor from a bank description: the merchant
// of a card purchase when one can be read, otherwise the description without
// noise. When nothing is left the raw description is returned.
func (c *Categorizer) VendorName(description string) string {
	if merchant := textutils.ExtractMerchant(description); merchant != "" {
		if cleaned := textutils.StripNoise(merchant, c.noisePrefixes); cleaned != "" {
			return cleaned
		}
		return merchant
	}
	if cleaned := textutils.StripNoise(description, c.noisePrefixes); cleaned != "" {
		return cleaned
	}
	return strings.TrimSpace(description)
}
