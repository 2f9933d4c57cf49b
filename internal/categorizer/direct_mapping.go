package categorizer

import (
	"fjacquet/statement-reconciler/internal/textutils"
)

// DirectMappingStrategy assigns categories from an exact vendor name mapping.
// It runs before keyword rules so a known vendor always keeps its category.
type DirectMappingStrategy struct {
	vendors map[string]string
}

// NewDirectMappingStrategy builds the strategy from vendor -> category pairs.
// Vendor names are compared after folding.
func NewDirectMappingStrategy(mapping map[string]string) *DirectMappingStrategy {
	vendors := make(map[string]string, len(mapping))
	for vendor, category := range mapping {
		if key := textutils.FoldName(vendor); key != "" && category != "" {
			vendors[key] = category
		}
	}
	return &DirectMappingStrategy{vendors: vendors}
}

// Name returns the name of this strategy for logging and debugging.
func (s *DirectMappingStrategy) Name() string {
	return "DirectMapping"
}

// Categorize looks the vendor up in the mapping.
func (s *DirectMappingStrategy) Categorize(tx Transaction) (string, bool) {
	if tx.Vendor == "" {
		return "", false
	}
	category, ok := s.vendors[tx.Vendor]
	return category, ok
}
