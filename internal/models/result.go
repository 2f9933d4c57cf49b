package models

import "time"

// ParseResult is what a statement parser hands back to the importer.
type ParseResult struct {
	Success       bool             `json:"success"`
	Transactions  []RawTransaction `json:"transactions"`
	BankName      string           `json:"bankName,omitempty"`
	AccountNumber string           `json:"accountNumber,omitempty"`
	PeriodStart   *time.Time       `json:"periodStart,omitempty"`
	PeriodEnd     *time.Time       `json:"periodEnd,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// FillPeriodFromTransactions derives the statement period from transaction
// dates when the file did not declare one.
func (r *ParseResult) FillPeriodFromTransactions() {
	if len(r.Transactions) == 0 {
		return
	}
	minDate, maxDate := r.Transactions[0].Date, r.Transactions[0].Date
	for _, tx := range r.Transactions[1:] {
		if tx.Date.Before(minDate) {
			minDate = tx.Date
		}
		if tx.Date.After(maxDate) {
			maxDate = tx.Date
		}
	}
	if r.PeriodStart == nil {
		r.PeriodStart = &minDate
	}
	if r.PeriodEnd == nil {
		r.PeriodEnd = &maxDate
	}
}

// Summary aggregates the outcome of one batch.
type Summary struct {
	TotalTransactions   int `json:"totalTransactions"`
	ImportedExpenses    int `json:"importedExpenses"`
	ImportedIncome      int `json:"importedIncome"`
	SkippedTransactions int `json:"skippedTransactions"`
	NewInvoicesCreated  int `json:"newInvoicesCreated"`
	InvoicesMarkedPaid  int `json:"invoicesMarkedPaid"`
	// Errors counts per-transaction failures; they are included in SkippedTransactions.
	Errors int `json:"errors"`
}

// ImportResult is the response of one import run.
type ImportResult struct {
	Success      bool                     `json:"success"`
	BatchID      string                   `json:"batchId"`
	Summary      Summary                  `json:"summary"`
	Transactions []CategorizedTransaction `json:"transactions"`
	Error        string                   `json:"error,omitempty"`
}

// Upload is the input of the import boundary.
type Upload struct {
	FileName string
	Data     []byte
	BankHint string
	UserID   string
}

// Compensation counts the rows reversed when a batch is undone or discarded.
type Compensation struct {
	ExpensesDeleted  int `json:"expensesDeleted"`
	InvoicesRestored int `json:"invoicesRestored"`
	InvoicesDeleted  int `json:"invoicesDeleted"`
	ReceiptsDeleted  int `json:"receiptsDeleted"`
}
