// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LogConfig controls the logger built by the container.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DatabaseConfig locates the sqlite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ImportConfig holds orchestrator settings.
type ImportConfig struct {
	DuplicateWindow        int    `mapstructure:"duplicate_window" yaml:"duplicate_window"`
	TrackInBatchDuplicates bool   `mapstructure:"track_in_batch_duplicates" yaml:"track_in_batch_duplicates"`
	DefaultCurrency        string `mapstructure:"default_currency" yaml:"default_currency"`
	UserID                 string `mapstructure:"user_id" yaml:"user_id"`
}

// MatchingConfig holds the invoice confidence weights and the mark-paid threshold.
type MatchingConfig struct {
	Threshold       float64 `mapstructure:"threshold" yaml:"threshold"`
	AmountWeight    float64 `mapstructure:"amount_weight" yaml:"amount_weight"`
	DateWeight      float64 `mapstructure:"date_weight" yaml:"date_weight"`
	NameWeight      float64 `mapstructure:"name_weight" yaml:"name_weight"`
	AmountTolerance float64 `mapstructure:"amount_tolerance" yaml:"amount_tolerance"`
	DateWindowDays  int     `mapstructure:"date_window_days" yaml:"date_window_days"`
}

// FileConfig points at an optional YAML override file.
type FileConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// ParsersConfig holds per-family parser options.
type ParsersConfig struct {
	PDF struct {
		Command string `mapstructure:"command" yaml:"command"`
	} `mapstructure:"pdf" yaml:"pdf"`
	CSV struct {
		// empty means detect from the header line
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`
}

// Config represents the complete application configuration
type Config struct {
	Log        LogConfig      `mapstructure:"log" yaml:"log"`
	Database   DatabaseConfig `mapstructure:"database" yaml:"database"`
	Import     ImportConfig   `mapstructure:"import" yaml:"import"`
	Matching   MatchingConfig `mapstructure:"matching" yaml:"matching"`
	Categories FileConfig     `mapstructure:"categories" yaml:"categories"`
	Banks      FileConfig     `mapstructure:"banks" yaml:"banks"`
	Parsers    ParsersConfig  `mapstructure:"parsers" yaml:"parsers"`
}

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.reconcile")
	v.AddConfigPath(".reconcile")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("RECONCILE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	return unmarshalAndValidate(v)
}

// LoadConfigFile loads configuration from an explicit file on top of the defaults.
// Environment variables still take precedence.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("RECONCILE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return unmarshalAndValidate(v)
}

func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.path", "reconcile.db")

	v.SetDefault("import.duplicate_window", 500)
	v.SetDefault("import.track_in_batch_duplicates", true)
	v.SetDefault("import.default_currency", "CHF")
	v.SetDefault("import.user_id", "local")

	v.SetDefault("matching.threshold", 0.6)
	v.SetDefault("matching.amount_weight", 0.5)
	v.SetDefault("matching.date_weight", 0.2)
	v.SetDefault("matching.name_weight", 0.3)
	v.SetDefault("matching.amount_tolerance", 0.05)
	v.SetDefault("matching.date_window_days", 30)

	v.SetDefault("categories.file", "")
	v.SetDefault("banks.file", "")

	v.SetDefault("parsers.pdf.command", "pdftotext")
	v.SetDefault("parsers.csv.delimiter", "")
}

// DefaultConfig returns the configuration that applies when no file or
// environment override is present.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	if config.Import.DuplicateWindow < 1 || config.Import.DuplicateWindow > 10000 {
		return fmt.Errorf("import.duplicate_window must be between 1 and 10000, got: %d", config.Import.DuplicateWindow)
	}

	if !currencyCode.MatchString(config.Import.DefaultCurrency) {
		return fmt.Errorf("import.default_currency must be a 3-letter ISO code, got: %s", config.Import.DefaultCurrency)
	}

	if config.Import.UserID == "" {
		return fmt.Errorf("import.user_id must not be empty")
	}

	m := config.Matching
	if m.Threshold < 0.0 || m.Threshold > 1.0 {
		return fmt.Errorf("matching.threshold must be between 0.0 and 1.0, got: %f", m.Threshold)
	}
	if m.AmountWeight < 0 || m.DateWeight < 0 || m.NameWeight < 0 {
		return fmt.Errorf("matching weights must not be negative")
	}
	if sum := m.AmountWeight + m.DateWeight + m.NameWeight; math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("matching weights must sum to 1.0, got: %f", sum)
	}
	if m.AmountTolerance <= 0 || m.AmountTolerance > 1 {
		return fmt.Errorf("matching.amount_tolerance must be in (0, 1], got: %f", m.AmountTolerance)
	}
	if m.DateWindowDays < 1 {
		return fmt.Errorf("matching.date_window_days must be positive, got: %d", m.DateWindowDays)
	}

	if len(config.Parsers.CSV.Delimiter) > 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.Parsers.CSV.Delimiter)
	}

	if config.Parsers.PDF.Command == "" {
		return fmt.Errorf("parsers.pdf.command must not be empty")
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
