// Package container provides dependency injection for the reconcile application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"

	"fjacquet/statement-reconciler/internal/categorizer"
	"fjacquet/statement-reconciler/internal/config"
	"fjacquet/statement-reconciler/internal/dedup"
	"fjacquet/statement-reconciler/internal/factory"
	"fjacquet/statement-reconciler/internal/importer"
	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/matcher"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/sqlstore"
	"fjacquet/statement-reconciler/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation: all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger logging.Logger
	config *config.Config

	rules       *store.RuleStore
	ruleSet     *models.RuleSet
	banks       *models.BankCatalog
	categorizer *categorizer.Categorizer
	registry    *factory.Registry

	db       *sqlstore.Store
	matcher  *matcher.Matcher
	detector *dedup.Detector
	importer *importer.Importer
}

// NewContainer creates and wires all application dependencies.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(cfg, logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format))
}

// NewContainerWithLogger wires the dependencies around an existing logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	rules := store.NewRuleStore(cfg.Categories.File, cfg.Banks.File, logger)
	ruleSet, err := rules.LoadRules()
	if err != nil {
		return nil, fmt.Errorf("failed to load categorization rules: %w", err)
	}
	banks, err := rules.LoadBanks()
	if err != nil {
		return nil, fmt.Errorf("failed to load bank profiles: %w", err)
	}

	cat := categorizer.New(ruleSet, logger)
	registry := factory.NewDefaultRegistry(banks, factory.Options{
		CSVDelimiter: cfg.Parsers.CSV.Delimiter,
		PDFCommand:   cfg.Parsers.PDF.Command,
	}, logger)

	db, err := sqlstore.Open(context.Background(), cfg.Database.Path, logger)
	if err != nil {
		return nil, err
	}

	m := matcher.New(db, matcherConfig(cfg.Matching), logger)
	detector := dedup.NewDetector(db, cfg.Import.DuplicateWindow, cfg.Import.TrackInBatchDuplicates)
	imp := importer.New(db, registry, cat, detector, m, importer.Config{
		DefaultCurrency: cfg.Import.DefaultCurrency,
	}, logger)

	logger.Debug("Container initialized",
		logging.F("parsers_count", len(registry.Types())),
		logging.F(logging.FieldFile, cfg.Database.Path))

	return &Container{
		logger:      logger,
		config:      cfg,
		rules:       rules,
		ruleSet:     ruleSet,
		banks:       banks,
		categorizer: cat,
		registry:    registry,
		db:          db,
		matcher:     m,
		detector:    detector,
		importer:    imp,
	}, nil
}

func matcherConfig(mc config.MatchingConfig) matcher.Config {
	return matcher.Config{
		Weights: matcher.Weights{
			Amount: mc.AmountWeight,
			Date:   mc.DateWeight,
			Name:   mc.NameWeight,
		},
		Threshold:       mc.Threshold,
		AmountTolerance: mc.AmountTolerance,
		DateWindowDays:  mc.DateWindowDays,
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetRuleStore returns the store the rules and bank profiles were loaded from.
func (c *Container) GetRuleStore() *store.RuleStore {
	return c.rules
}

// GetRules returns the loaded categorization rules.
func (c *Container) GetRules() *models.RuleSet {
	return c.ruleSet
}

// GetBanks returns the loaded bank profiles.
func (c *Container) GetBanks() *models.BankCatalog {
	return c.banks
}

// GetCategorizer returns the container's categorizer instance.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetRegistry returns the parser registry.
func (c *Container) GetRegistry() *factory.Registry {
	return c.registry
}

// GetStore returns the record store.
func (c *Container) GetStore() *sqlstore.Store {
	return c.db
}

// GetMatcher returns the invoice matcher.
func (c *Container) GetMatcher() *matcher.Matcher {
	return c.matcher
}

// GetDetector returns the duplicate detector.
func (c *Container) GetDetector() *dedup.Detector {
	return c.detector
}

// GetImporter returns the import orchestrator.
func (c *Container) GetImporter() *importer.Importer {
	return c.importer
}

// Close releases the database.
func (c *Container) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close record store: %w", err)
	}
	c.logger.Debug("Container closed")
	return nil
}
