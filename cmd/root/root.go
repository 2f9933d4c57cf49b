// Package root contains the root command for the application
package root

import (
	"fmt"
	"io"

	"fjacquet/statement-reconciler/internal/config"
	"fjacquet/statement-reconciler/internal/container"
	"fjacquet/statement-reconciler/internal/fileutils"
	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/report"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// GlobalFlags are the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
	Output     string
	User       string
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// Flags holds the parsed persistent flags
	Flags = GlobalFlags{}

	appContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "reconcile",
		Short: "Import bank statements and reconcile them against invoices.",
		Long: `reconcile imports bank statements (CSV, XLSX, PDF, OFX and CAMT.053),
categorizes every transaction, skips duplicates, books expenses and matches
incoming payments against outstanding invoices.

Every import is recorded as a batch that can be inspected and undone.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initializeApp,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appContainer == nil {
				return
			}
			if err := appContainer.Close(); err != nil {
				Log.WithError(err).Warn("Failed to close database")
			}
			appContainer = nil
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	pf := Cmd.PersistentFlags()
	pf.StringVar(&Flags.ConfigFile, "config", "", "Config file (default: config.yaml in $HOME/.reconcile, .reconcile or .)")
	pf.StringVar(&Flags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&Flags.LogFormat, "log-format", "", "Log format (text, json)")
	pf.StringVarP(&Flags.Output, "format", "f", "text", "Output format (text, json)")
	pf.StringVarP(&Flags.User, "user", "u", "", "User id the records belong to (default: import.user_id)")
}

func initializeApp(cmd *cobra.Command, args []string) error {
	config.LoadEnv(logrus.StandardLogger())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if Flags.LogLevel != "" {
		cfg.Log.Level = Flags.LogLevel
	}
	if Flags.LogFormat != "" {
		cfg.Log.Format = Flags.LogFormat
	}
	if _, err := report.ParseFormat(Flags.Output); err != nil {
		return err
	}

	Log = logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))
	c, err := container.NewContainerWithLogger(cfg, Log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	appContainer = c
	return nil
}

func loadConfig() (*config.Config, error) {
	if Flags.ConfigFile != "" {
		if !fileutils.FileExists(Flags.ConfigFile) {
			return nil, fmt.Errorf("config file not found: %s", Flags.ConfigFile)
		}
		return config.LoadConfigFile(Flags.ConfigFile)
	}
	return config.InitializeConfig()
}

// GetContainer returns the container built for the running command.
func GetContainer() *container.Container {
	return appContainer
}

// SetContainer replaces the container, for tests that drive commands directly.
func SetContainer(c *container.Container) {
	appContainer = c
}

// UserID returns the --user flag or the configured default user.
func UserID() string {
	if Flags.User != "" {
		return Flags.User
	}
	if appContainer != nil {
		return appContainer.GetConfig().Import.UserID
	}
	return ""
}

// Renderer returns a report renderer for the --format flag. forceJSON lets
// commands offer a --json shortcut.
func Renderer(w io.Writer, forceJSON bool) *report.Renderer {
	if forceJSON {
		return report.New(w, report.FormatJSON)
	}
	format, err := report.ParseFormat(Flags.Output)
	if err != nil {
		format = report.FormatText
	}
	return report.New(w, format)
}
