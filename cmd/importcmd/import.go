// Package importcmd implements the import command
package importcmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"fjacquet/statement-reconciler/cmd/root"
	"fjacquet/statement-reconciler/internal/batch"
	"fjacquet/statement-reconciler/internal/fileutils"
	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"

	"github.com/spf13/cobra"
)

var (
	inputFile string
	inputDir  string
	bankHint  string
	jsonOut   bool
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import a bank statement and reconcile it",
	Long: `Import a bank statement file, or every statement in a directory.

Each file becomes one import batch. Expenses are booked, incoming payments are
matched against outstanding invoices and duplicates of already imported
transactions are skipped.

Files in a directory are grouped by the account named in the file name and
imported oldest statement first.

Example:
  reconcile import -i statements/ubs_2025-03.csv --bank UBS
  reconcile import -d statements/ --json`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Statement file to import")
	Cmd.Flags().StringVarP(&inputDir, "dir", "d", "", "Directory of statement files to import")
	Cmd.Flags().StringVarP(&bankHint, "bank", "b", "", "Bank profile to use for CSV/XLSX/PDF files")
	Cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	Cmd.MarkFlagsOneRequired("input", "dir")
	Cmd.MarkFlagsMutuallyExclusive("input", "dir")
}

func runImport(cmd *cobra.Command, args []string) error {
	if inputDir != "" {
		return importDirectory(cmd, inputDir)
	}
	return importFile(cmd, inputFile)
}

func importFile(cmd *cobra.Command, path string) error {
	imp := root.GetContainer().GetImporter()

	data, err := fileutils.ReadStatement(path)
	if err != nil {
		return err
	}

	res, err := imp.Import(cmd.Context(), models.Upload{
		FileName: filepath.Base(path),
		Data:     data,
		BankHint: bankHint,
		UserID:   root.UserID(),
	})
	if res != nil {
		if rerr := root.Renderer(cmd.OutOrStdout(), jsonOut).ImportResult(res); rerr != nil {
			return errors.Join(err, rerr)
		}
	}
	if err != nil {
		return fmt.Errorf("import of %s failed: %w", path, err)
	}
	return nil
}

func importDirectory(cmd *cobra.Command, dir string) error {
	groups, err := batch.NewPlanner(root.Log).Plan(dir)
	if err != nil {
		return err
	}

	files := batch.Ordered(groups)
	if len(files) == 0 {
		root.Log.Warn("No statement files found", logging.F(logging.FieldFile, dir))
		return nil
	}

	failed := 0
	for _, f := range files {
		if err := importFile(cmd, f.Path); err != nil {
			failed++
			root.Log.WithError(err).Warn("Statement import failed",
				logging.F(logging.FieldFile, f.Path),
				logging.F("account", f.AccountID))
		}
	}

	root.Log.Info("Directory import finished",
		logging.F(logging.FieldCount, len(files)),
		logging.F("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d statement files failed to import", failed, len(files))
	}
	return nil
}
