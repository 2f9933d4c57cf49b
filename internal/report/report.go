// Package report renders pipeline results for the command line, either as
// bordered text tables or as indented JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"fjacquet/statement-reconciler/internal/currencyutils"
	"fjacquet/statement-reconciler/internal/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates an output format name. The empty string means text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// Renderer writes results to w in one format.
type Renderer struct {
	w      io.Writer
	format Format
}

// New creates a Renderer.
func New(w io.Writer, format Format) *Renderer {
	if format == "" {
		format = FormatText
	}
	return &Renderer{w: w, format: format}
}

func (r *Renderer) writeJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON output: %w", err)
	}
	_, err = fmt.Fprintln(r.w, string(out))
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func (r *Renderer) writeLines(lines ...string) error {
	_, err := fmt.Fprintln(r.w, strings.Join(lines, "\n"))
	return err
}

// ImportResult prints the summary and per-transaction outcomes of an import.
func (r *Renderer) ImportResult(res *models.ImportResult) error {
	if r.format == FormatJSON {
		return r.writeJSON(res)
	}

	status := "completed"
	if !res.Success {
		status = "failed"
	}
	header := titleStyle.Render(fmt.Sprintf("Import %s", status))
	if res.BatchID != "" {
		header += " batch " + res.BatchID
	}
	lines := []string{header}
	if res.Error != "" {
		lines = append(lines, "Error: "+res.Error)
	}
	if res.BatchID == "" {
		return r.writeLines(lines...)
	}

	s := res.Summary
	summary := newTable("Total", "Expenses", "Income", "Skipped", "Errors", "Invoices paid", "Invoices created").
		Row(itoa(s.TotalTransactions), itoa(s.ImportedExpenses), itoa(s.ImportedIncome),
			itoa(s.SkippedTransactions), itoa(s.Errors), itoa(s.InvoicesMarkedPaid), itoa(s.NewInvoicesCreated))
	lines = append(lines, summary.String())

	if len(res.Transactions) > 0 {
		txs := newTable("Date", "Description", "Amount", "Type", "Category", "Outcome")
		for _, tx := range res.Transactions {
			txs.Row(day(tx.Date), tx.Description, tx.Amount.StringFixed(2), string(tx.Type), tx.CategoryName(), outcome(tx))
		}
		lines = append(lines, txs.String())
	}
	return r.writeLines(lines...)
}

func outcome(tx models.CategorizedTransaction) string {
	switch {
	case tx.Imported && tx.MatchedInvoiceID != "":
		return "imported, invoice " + tx.MatchedInvoiceID
	case tx.Imported:
		return "imported"
	}
	return tx.Error
}

// Batches prints a batch listing.
func (r *Renderer) Batches(batches []models.ImportBatch) error {
	if r.format == FormatJSON {
		if batches == nil {
			batches = []models.ImportBatch{}
		}
		return r.writeJSON(batches)
	}
	if len(batches) == 0 {
		return r.writeLines("No import batches.")
	}

	t := newTable("ID", "Created", "File", "Status", "Total", "Expenses", "Income", "Skipped")
	for _, b := range batches {
		t.Row(b.ID, b.CreatedAt.Format(time.DateTime), b.FileName, string(b.Status),
			itoa(b.TotalTransactions), itoa(b.ImportedExpenses), itoa(b.ImportedIncome), itoa(b.SkippedTransactions))
	}
	return r.writeLines(t.String())
}

// Batch prints one batch with its statement metadata.
func (r *Renderer) Batch(b *models.ImportBatch) error {
	if r.format == FormatJSON {
		return r.writeJSON(b)
	}

	period := ""
	if b.PeriodStart != nil && b.PeriodEnd != nil {
		period = day(*b.PeriodStart) + " to " + day(*b.PeriodEnd)
	}
	completed := ""
	if b.CompletedAt != nil {
		completed = b.CompletedAt.Format(time.DateTime)
	}

	t := newTable("Field", "Value").Rows(
		[]string{"ID", b.ID},
		[]string{"User", b.UserID},
		[]string{"File", fmt.Sprintf("%s (%s, %d bytes)", b.FileName, b.FileType, b.FileSize)},
		[]string{"Bank", b.BankName},
		[]string{"Account", b.AccountNumber},
		[]string{"Period", period},
		[]string{"Status", string(b.Status)},
		[]string{"Created", b.CreatedAt.Format(time.DateTime)},
		[]string{"Completed", completed},
		[]string{"Transactions", itoa(b.TotalTransactions)},
		[]string{"Expenses", itoa(b.ImportedExpenses)},
		[]string{"Income", itoa(b.ImportedIncome)},
		[]string{"Skipped", itoa(b.SkippedTransactions)},
		[]string{"Invoices paid", itoa(b.InvoicesMarkedPaid)},
		[]string{"Invoices created", itoa(b.NewInvoicesCreated)},
	)
	if b.ErrorMessage != "" {
		t.Row("Error", b.ErrorMessage)
	}
	return r.writeLines(t.String())
}

// Invoices prints an invoice listing.
func (r *Renderer) Invoices(invoices []models.Invoice) error {
	if r.format == FormatJSON {
		if invoices == nil {
			invoices = []models.Invoice{}
		}
		return r.writeJSON(invoices)
	}
	if len(invoices) == 0 {
		return r.writeLines("No invoices.")
	}

	t := newTable("ID", "Number", "Client", "Status", "Due", "Total")
	for _, inv := range invoices {
		t.Row(inv.ID, inv.Number, inv.ClientName, string(inv.Status), day(inv.DueDate),
			currencyutils.FormatAmount(inv.Total, inv.Currency))
	}
	return r.writeLines(t.String())
}

// Compensation prints what undo or discard reversed.
func (r *Renderer) Compensation(batchID string, c models.Compensation) error {
	if r.format == FormatJSON {
		return r.writeJSON(struct {
			BatchID string `json:"batchId"`
			models.Compensation
		}{batchID, c})
	}

	t := newTable("Expenses deleted", "Invoices restored", "Invoices deleted", "Receipts deleted").
		Row(itoa(c.ExpensesDeleted), itoa(c.InvoicesRestored), itoa(c.InvoicesDeleted), itoa(c.ReceiptsDeleted))
	return r.writeLines(titleStyle.Render("Reversed batch")+" "+batchID, t.String())
}

// Categorized prints a categorizer dry run.
func (r *Renderer) Categorized(tx models.CategorizedTransaction) error {
	if r.format == FormatJSON {
		return r.writeJSON(tx)
	}

	category := tx.CategoryName()
	if category == "" {
		category = "(none)"
	}
	t := newTable("Description", "Amount", "Type", "Category", "Vendor").
		Row(tx.Description, tx.Amount.String(), string(tx.Type), category, tx.VendorName)
	return r.writeLines(t.String())
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
