// Package models provides the data structures shared by the reconciliation pipeline.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the economic nature assigned by the categorizer.
type TransactionType string

const (
	TypeExpense  TransactionType = "expense"
	TypeIncome   TransactionType = "income"
	TypeTransfer TransactionType = "transfer"
	TypeUnknown  TransactionType = "unknown"
)

// Valid reports whether t is one of the four known variants.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeExpense, TypeIncome, TypeTransfer, TypeUnknown:
		return true
	}
	return false
}

// RawTransaction is one row of a bank statement after parsing. Amount is
// signed: negative is an outflow, positive an inflow.
type RawTransaction struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference,omitempty"`
}

// AbsAmount returns the unsigned amount.
func (t RawTransaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// IsZero reports whether the amount is exactly zero.
func (t RawTransaction) IsZero() bool {
	return t.Amount.IsZero()
}

// Outcome is the terminal per-transaction result recorded by the importer.
type Outcome struct {
	Imported         bool   `json:"imported"`
	ImportedRecordID string `json:"importedRecordId,omitempty"`
	MatchedInvoiceID string `json:"matchedInvoiceId,omitempty"`
	Error            string `json:"error,omitempty"`
}

// CategorizedTransaction is a RawTransaction enriched with classification.
// Only the Outcome is written after creation.
type CategorizedTransaction struct {
	RawTransaction
	Type       TransactionType `json:"type"`
	Category   *string         `json:"category"`
	VendorName string          `json:"vendorName,omitempty"`
	Outcome
}

// CategoryName returns the category or "" when none was assigned.
func (c CategorizedTransaction) CategoryName() string {
	if c.Category == nil {
		return ""
	}
	return *c.Category
}

// MarkImported records a successful write.
func (c *CategorizedTransaction) MarkImported(recordID string) {
	c.Outcome = Outcome{Imported: true, ImportedRecordID: recordID, MatchedInvoiceID: c.MatchedInvoiceID}
}

// MarkSkipped records a skip or a failure with its reason.
func (c *CategorizedTransaction) MarkSkipped(reason string) {
	c.Outcome = Outcome{Imported: false, MatchedInvoiceID: c.MatchedInvoiceID, Error: reason}
}

// HasOutcome reports whether a terminal outcome has been recorded.
func (c CategorizedTransaction) HasOutcome() bool {
	return c.Imported || c.Error != ""
}
