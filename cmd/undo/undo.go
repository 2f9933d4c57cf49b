// Package undo implements the undo command
package undo

import (
	"fjacquet/statement-reconciler/cmd/root"

	"github.com/spf13/cobra"
)

var discardFailed bool

// Cmd represents the undo command
var Cmd = &cobra.Command{
	Use:   "undo BATCH_ID",
	Short: "Undo a completed import batch",
	Long: `Undo a completed import batch: its expenses are deleted, invoices it marked
paid are restored to their previous status and invoices it created are removed.
The batch is then marked undone.

With --discard-failed the same reversal is applied to a failed batch, removing
whatever it wrote before failing. The batch stays failed.

Example:
  reconcile undo 5f1c2d3e-...
  reconcile undo 5f1c2d3e-... --discard-failed`,
	Args: cobra.ExactArgs(1),
	RunE: runUndo,
}

func init() {
	Cmd.Flags().BoolVar(&discardFailed, "discard-failed", false, "Reverse the partial writes of a failed batch")
}

func runUndo(cmd *cobra.Command, args []string) error {
	imp := root.GetContainer().GetImporter()
	batchID := args[0]

	undo := imp.Undo
	if discardFailed {
		undo = imp.DiscardFailed
	}
	comp, err := undo(cmd.Context(), batchID, root.UserID())
	if err != nil {
		return err
	}
	return root.Renderer(cmd.OutOrStdout(), false).Compensation(batchID, comp)
}
