// Package store loads the YAML rule tables: category and type rules, and bank
// profiles. Built-in defaults are embedded; a configured file replaces them.
package store

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/categories.yaml defaults/banks.yaml
var defaults embed.FS

const (
	defaultCategoriesFile = "defaults/categories.yaml"
	defaultBanksFile      = "defaults/banks.yaml"
)

// RuleStore manages loading of category rules and bank profiles
type RuleStore struct {
	CategoriesFile string
	BanksFile      string
	logger         logging.Logger
}

// NewRuleStore creates a store. Empty file names select the embedded defaults.
func NewRuleStore(categoriesFile, banksFile string, logger logging.Logger) *RuleStore {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &RuleStore{
		CategoriesFile: categoriesFile,
		BanksFile:      banksFile,
		logger:         logger,
	}
}

// FindConfigFile looks for a configuration file in standard locations
func (s *RuleStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join(".reconcile", filename),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		configPath := filepath.Join(homeDir, ".reconcile", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

func (s *RuleStore) read(configured, embedded string) ([]byte, string, error) {
	if configured == "" {
		data, err := defaults.ReadFile(embedded)
		return data, "embedded:" + embedded, err
	}

	path, err := s.FindConfigFile(configured)
	if err != nil {
		return nil, configured, fmt.Errorf("configuration file not found: %s: %w", configured, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("error reading %s: %w", path, err)
	}
	return data, path, nil
}

// LoadRules loads type rules, category rules and vendor noise prefixes.
// Category rules come back sorted by descending priority, file order kept on ties.
func (s *RuleStore) LoadRules() (*models.RuleSet, error) {
	data, source, err := s.read(s.CategoriesFile, defaultCategoriesFile)
	if err != nil {
		return nil, err
	}

	var rules models.RuleSet
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("error parsing categories file %s: %w", source, err)
	}
	if err := normalizeRules(&rules); err != nil {
		return nil, fmt.Errorf("invalid categories file %s: %w", source, err)
	}

	s.logger.Debug("Loaded categorization rules",
		logging.F(logging.FieldFile, source),
		logging.F("type_rules", len(rules.TypeRules)),
		logging.F("categories", len(rules.Categories)))
	return &rules, nil
}

// LoadBanks loads the bank profile catalog.
func (s *RuleStore) LoadBanks() (*models.BankCatalog, error) {
	data, source, err := s.read(s.BanksFile, defaultBanksFile)
	if err != nil {
		return nil, err
	}

	var catalog models.BankCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("error parsing banks file %s: %w", source, err)
	}
	if len(catalog.Banks) == 0 {
		return nil, fmt.Errorf("banks file %s defines no bank profiles", source)
	}
	for i := range catalog.Banks {
		if err := normalizeProfile(&catalog.Banks[i]); err != nil {
			return nil, fmt.Errorf("invalid banks file %s: %w", source, err)
		}
	}

	s.logger.Debug("Loaded bank profiles",
		logging.F(logging.FieldFile, source),
		logging.F(logging.FieldCount, len(catalog.Banks)))
	return &catalog, nil
}

func normalizeMatch(m models.MatchType) (models.MatchType, error) {
	switch m {
	case "":
		return models.MatchContains, nil
	case models.MatchContains, models.MatchWord, models.MatchPrefix:
		return m, nil
	}
	return "", fmt.Errorf("unknown match type %q", m)
}

func lowerAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func normalizeRules(rules *models.RuleSet) error {
	for i := range rules.TypeRules {
		r := &rules.TypeRules[i]
		var err error
		if r.Match, err = normalizeMatch(r.Match); err != nil {
			return fmt.Errorf("type rule %q: %w", r.Name, err)
		}
		if r.Sign == "" {
			r.Sign = models.SignAny
		}
		switch r.Sign {
		case models.SignAny, models.SignNegative, models.SignPositive:
		default:
			return fmt.Errorf("type rule %q: unknown sign %q", r.Name, r.Sign)
		}
		if !r.Type.Valid() {
			return fmt.Errorf("type rule %q: unknown type %q", r.Name, r.Type)
		}
		r.Keywords = lowerAll(r.Keywords)
		if len(r.Keywords) == 0 {
			return fmt.Errorf("type rule %q has no keywords", r.Name)
		}
	}

	for i := range rules.Categories {
		r := &rules.Categories[i]
		if r.Category == "" {
			return fmt.Errorf("category rule %d has no category", i)
		}
		var err error
		if r.Match, err = normalizeMatch(r.Match); err != nil {
			return fmt.Errorf("category %q: %w", r.Category, err)
		}
		if r.AppliesTo != "" && !r.AppliesTo.Valid() {
			return fmt.Errorf("category %q: unknown applies_to %q", r.Category, r.AppliesTo)
		}
		r.Keywords = lowerAll(r.Keywords)
	}
	sort.SliceStable(rules.Categories, func(i, j int) bool {
		return rules.Categories[i].Priority > rules.Categories[j].Priority
	})

	if len(rules.VendorCategories) > 0 {
		folded := make(map[string]string, len(rules.VendorCategories))
		for vendor, category := range rules.VendorCategories {
			folded[strings.ToLower(strings.TrimSpace(vendor))] = category
		}
		rules.VendorCategories = folded
	}
	return nil
}

func normalizeProfile(p *models.BankProfile) error {
	if p.Name == "" {
		return fmt.Errorf("bank profile without name")
	}
	switch p.Sign {
	case "":
		p.Sign = models.SignSigned
	case models.SignSigned, models.SignInverted, models.SignIndicator, models.SignSplit:
	default:
		return fmt.Errorf("bank %q: unknown sign convention %q", p.Name, p.Sign)
	}
	if len(p.Columns.Date) == 0 || len(p.Columns.Description) == 0 {
		return fmt.Errorf("bank %q: date and description columns are required", p.Name)
	}
	switch p.Sign {
	case models.SignSplit:
		if len(p.Columns.Debit) == 0 && len(p.Columns.Credit) == 0 {
			return fmt.Errorf("bank %q: split convention needs debit or credit columns", p.Name)
		}
	case models.SignIndicator:
		if len(p.Columns.Amount) == 0 || len(p.Columns.Indicator) == 0 {
			return fmt.Errorf("bank %q: indicator convention needs amount and indicator columns", p.Name)
		}
		if len(p.DebitMarkers) == 0 {
			return fmt.Errorf("bank %q: indicator convention needs debit markers", p.Name)
		}
	default:
		if len(p.Columns.Amount) == 0 {
			return fmt.Errorf("bank %q: amount column is required", p.Name)
		}
	}
	return nil
}
