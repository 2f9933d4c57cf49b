// Package categorize handles transaction categorization commands
package categorize

import (
	"fmt"
	"strings"
	"time"

	"fjacquet/statement-reconciler/cmd/root"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	description string
	amount      string
	date        string
	reference   string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize a single transaction without importing it",
	Long: `Categorize transactions based on their description and signed amount.

Prints the transaction type, the category and the vendor name the import
would assign. Nothing is written.

Example:
  reconcile categorize --description "MIGROS ZUERICH" --amount -45.60`,
	Args: cobra.NoArgs,
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&description, "description", "d", "", "Transaction description as printed on the statement")
	Cmd.Flags().StringVarP(&amount, "amount", "a", "", "Signed transaction amount, negative for an outflow")
	Cmd.Flags().StringVarP(&date, "date", "t", "", "Transaction date (YYYY-MM-DD, optional)")
	Cmd.Flags().StringVarP(&reference, "reference", "r", "", "Bank reference (optional)")
	_ = Cmd.MarkFlagRequired("description")
	_ = Cmd.MarkFlagRequired("amount")
}

// BuildTransaction turns flag values into a raw transaction.
func BuildTransaction(description, amount, date, reference string) (models.RawTransaction, error) {
	if strings.TrimSpace(description) == "" {
		return models.RawTransaction{}, &parsererror.ValidationError{Field: "description", Reason: "must not be empty"}
	}
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return models.RawTransaction{}, &parsererror.ValidationError{Field: "amount", Reason: fmt.Sprintf("%q is not a number", amount)}
	}

	tx := models.RawTransaction{Description: description, Amount: value, Reference: reference}
	if date != "" {
		if tx.Date, err = time.Parse(time.DateOnly, date); err != nil {
			return models.RawTransaction{}, &parsererror.ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", date)}
		}
	}
	return tx, nil
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	tx, err := BuildTransaction(description, amount, date, reference)
	if err != nil {
		return err
	}
	result := root.GetContainer().GetCategorizer().CategorizeTransaction(tx)
	return root.Renderer(cmd.OutOrStdout(), false).Categorized(result)
}
