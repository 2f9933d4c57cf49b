// Package invoices implements the invoices command
package invoices

import (
	"fmt"
	"strings"
	"time"

	"fjacquet/statement-reconciler/cmd/root"
	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/parsererror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// AddFlags holds the flags of invoices add.
type AddFlags struct {
	Client      string
	Amount      string
	Due         string
	Issued      string
	Number      string
	Currency    string
	Description string
}

var (
	outstanding bool
	addFlags    AddFlags
)

// Cmd represents the invoices command
var Cmd = &cobra.Command{
	Use:   "invoices",
	Short: "List and record invoices that payments are matched against",
	Long: `List invoices or record a sent invoice.

Incoming payments are matched against outstanding invoices (sent, unpaid or
overdue) by amount, date and client name.

Example:
  reconcile invoices list --outstanding
  reconcile invoices add --client "ACME SA" --amount 1200 --due 2025-03-08 --number INV-7`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a sent invoice",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

func init() {
	listCmd.Flags().BoolVar(&outstanding, "outstanding", false, "Only list invoices waiting for payment")

	addCmd.Flags().StringVarP(&addFlags.Client, "client", "c", "", "Client name")
	addCmd.Flags().StringVarP(&addFlags.Amount, "amount", "a", "", "Invoice total")
	addCmd.Flags().StringVar(&addFlags.Due, "due", "", "Due date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addFlags.Issued, "issued", "", "Issue date (YYYY-MM-DD, default: today)")
	addCmd.Flags().StringVar(&addFlags.Number, "number", "", "Invoice number (default: derived from the id)")
	addCmd.Flags().StringVar(&addFlags.Currency, "currency", "", "Currency code (default: import.default_currency)")
	addCmd.Flags().StringVar(&addFlags.Description, "description", "", "Single line item description")
	_ = addCmd.MarkFlagRequired("client")
	_ = addCmd.MarkFlagRequired("amount")
	_ = addCmd.MarkFlagRequired("due")

	Cmd.AddCommand(listCmd, addCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	db := root.GetContainer().GetStore()
	list := db.ListInvoices
	if outstanding {
		list = db.OutstandingInvoices
	}
	invoices, err := list(cmd.Context(), root.UserID())
	if err != nil {
		return err
	}
	return root.Renderer(cmd.OutOrStdout(), false).Invoices(invoices)
}

func runAdd(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	inv, err := BuildInvoice(addFlags, root.UserID(), c.GetConfig().Import.DefaultCurrency, uuid.NewString(), time.Now().UTC())
	if err != nil {
		return err
	}
	if err := c.GetStore().AddInvoice(cmd.Context(), inv); err != nil {
		return err
	}

	root.Log.Info("Recorded invoice",
		logging.F(logging.FieldInvoiceID, inv.ID),
		logging.F("number", inv.Number))
	return root.Renderer(cmd.OutOrStdout(), false).Invoices([]models.Invoice{inv})
}

// BuildInvoice validates the add flags and returns a sent invoice.
func BuildInvoice(f AddFlags, userID, defaultCurrency, id string, now time.Time) (models.Invoice, error) {
	client := strings.TrimSpace(f.Client)
	if client == "" {
		return models.Invoice{}, &parsererror.ValidationError{Field: "client", Reason: "must not be empty"}
	}

	total, err := decimal.NewFromString(strings.TrimSpace(f.Amount))
	if err != nil || !total.IsPositive() {
		return models.Invoice{}, &parsererror.ValidationError{Field: "amount", Reason: fmt.Sprintf("%q is not a positive amount", f.Amount)}
	}

	due, err := time.Parse(time.DateOnly, f.Due)
	if err != nil {
		return models.Invoice{}, &parsererror.ValidationError{Field: "due", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", f.Due)}
	}

	issued := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if f.Issued != "" {
		if issued, err = time.Parse(time.DateOnly, f.Issued); err != nil {
			return models.Invoice{}, &parsererror.ValidationError{Field: "issued", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", f.Issued)}
		}
	}
	if due.Before(issued) {
		return models.Invoice{}, &parsererror.ValidationError{Field: "due", Reason: "due date is before the issue date"}
	}

	currency := strings.ToUpper(strings.TrimSpace(f.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	number := strings.TrimSpace(f.Number)
	if number == "" {
		number = "INV-" + strings.ToUpper(strings.SplitN(id, "-", 2)[0])
	}

	inv := models.Invoice{
		ID:         id,
		UserID:     userID,
		Number:     number,
		ClientName: client,
		Status:     models.InvoiceSent,
		IssueDate:  issued,
		DueDate:    due,
		Currency:   currency,
		Total:      total,
	}
	if d := strings.TrimSpace(f.Description); d != "" {
		inv.Items = []models.LineItem{{Description: d, Quantity: decimal.NewFromInt(1), UnitPrice: total}}
	}
	return inv, nil
}
