// Package batches implements the batches command
package batches

import (
	"fjacquet/statement-reconciler/cmd/root"

	"github.com/spf13/cobra"
)

var limit int

// Cmd represents the batches command
var Cmd = &cobra.Command{
	Use:   "batches",
	Short: "List and inspect import batches",
	Long: `List import batches, newest first, or show one batch in detail.

Example:
  reconcile batches
  reconcile batches list --limit 5
  reconcile batches show 5f1c2d3e-...`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List import batches, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show BATCH_ID",
	Short: "Show one import batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	Cmd.PersistentFlags().IntVarP(&limit, "limit", "n", 20, "Maximum number of batches to list (0 for all)")
	Cmd.AddCommand(listCmd, showCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	list, err := root.GetContainer().GetImporter().Batches(cmd.Context(), root.UserID(), limit)
	if err != nil {
		return err
	}
	return root.Renderer(cmd.OutOrStdout(), false).Batches(list)
}

func runShow(cmd *cobra.Command, args []string) error {
	b, err := root.GetContainer().GetImporter().Batch(cmd.Context(), args[0], root.UserID())
	if err != nil {
		return err
	}
	return root.Renderer(cmd.OutOrStdout(), false).Batch(b)
}
