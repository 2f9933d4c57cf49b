package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is written for each imported outflow. Amount is stored unsigned.
type Expense struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	Amount            decimal.Decimal `json:"amount"`
	Date              time.Time       `json:"date"`
	Category          string          `json:"category,omitempty"`
	VendorName        string          `json:"vendorName,omitempty"`
	Description       string          `json:"description,omitempty"`
	BankTransactionID string          `json:"bankTransactionId,omitempty"`
	ImportBatchID     string          `json:"importBatchId,omitempty"`
}

// InvoiceStatus follows the usual invoicing lifecycle.
type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "draft"
	InvoiceSent    InvoiceStatus = "sent"
	InvoiceUnpaid  InvoiceStatus = "unpaid"
	InvoiceOverdue InvoiceStatus = "overdue"
	InvoicePaid    InvoiceStatus = "paid"
)

// Outstanding reports whether an invoice is still waiting for payment.
func (s InvoiceStatus) Outstanding() bool {
	return s == InvoiceSent || s == InvoiceUnpaid || s == InvoiceOverdue
}

// LineItem is one billed line.
type LineItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Total returns quantity times unit price.
func (l LineItem) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Invoice is the subset of an invoice record the matcher reads and writes.
type Invoice struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Number        string          `json:"number"`
	ClientName    string          `json:"clientName"`
	Status        InvoiceStatus   `json:"status"`
	IssueDate     time.Time       `json:"issueDate"`
	DueDate       time.Time       `json:"dueDate"`
	Currency      string          `json:"currency"`
	Total         decimal.Decimal `json:"total"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	ImportBatchID string          `json:"importBatchId,omitempty"`
	Items         []LineItem      `json:"items,omitempty"`
}

// ReceiptMode tells undo how to compensate an invoice mutation.
type ReceiptMode string

const (
	ReceiptMarkedPaid ReceiptMode = "marked_paid"
	ReceiptCreated    ReceiptMode = "created"
)

// Receipt records one imported inflow and the invoice mutation it caused.
// It is the compensation log entry replayed by undo.
type Receipt struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	InvoiceID         string          `json:"invoiceId"`
	Mode              ReceiptMode     `json:"mode"`
	PreviousStatus    InvoiceStatus   `json:"previousStatus,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Date              time.Time       `json:"date"`
	BankTransactionID string          `json:"bankTransactionId,omitempty"`
	ImportBatchID     string          `json:"importBatchId"`
	Confidence        float64         `json:"confidence,omitempty"`
}

// EntryKind distinguishes the committed records that form the duplicate window.
type EntryKind string

const (
	EntryExpense EntryKind = "expense"
	EntryIncome  EntryKind = "income"
)

// LedgerEntry is a committed record as seen by the duplicate detector.
// Amount is unsigned.
type LedgerEntry struct {
	ID                string          `json:"id"`
	Kind              EntryKind       `json:"kind"`
	Date              time.Time       `json:"date"`
	Amount            decimal.Decimal `json:"amount"`
	BankTransactionID string          `json:"bankTransactionId,omitempty"`
}

// MatchResult is the best candidate invoice for an income transaction.
type MatchResult struct {
	InvoiceID  string  `json:"invoiceId"`
	Confidence float64 `json:"confidence"`
}
