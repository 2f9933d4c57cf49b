package models

import (
	"fmt"
	"time"
)

// BatchStatus is the lifecycle state of an ImportBatch.
type BatchStatus string

const (
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
	BatchUndone     BatchStatus = "undone"
)

var allowedTransitions = map[BatchStatus][]BatchStatus{
	BatchProcessing: {BatchCompleted, BatchFailed},
	BatchCompleted:  {BatchUndone},
}

// CanTransition reports whether from -> to is a legal batch transition.
func CanTransition(from, to BatchStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError is returned for an illegal state change.
type TransitionError struct {
	BatchID string
	From    BatchStatus
	To      BatchStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("batch %s: illegal transition %s -> %s", e.BatchID, e.From, e.To)
}

// ImportBatch is the durable audit record of one reconciliation run.
type ImportBatch struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	FileName      string     `json:"fileName"`
	FileType      string     `json:"fileType"`
	FileSize      int64      `json:"fileSize"`
	BankName      string     `json:"bankName,omitempty"`
	AccountNumber string     `json:"accountNumber,omitempty"`
	PeriodStart   *time.Time `json:"periodStart,omitempty"`
	PeriodEnd     *time.Time `json:"periodEnd,omitempty"`

	TotalTransactions   int `json:"totalTransactions"`
	ImportedExpenses    int `json:"importedExpenses"`
	ImportedIncome      int `json:"importedIncome"`
	SkippedTransactions int `json:"skippedTransactions"`
	NewInvoicesCreated  int `json:"newInvoicesCreated"`
	InvoicesMarkedPaid  int `json:"invoicesMarkedPaid"`

	Status       BatchStatus `json:"status"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	CompletedAt  *time.Time  `json:"completedAt,omitempty"`
}

// NewImportBatch creates a batch in the processing state.
func NewImportBatch(id, userID, fileName, fileType string, fileSize int64, now time.Time) *ImportBatch {
	return &ImportBatch{
		ID:        id,
		UserID:    userID,
		FileName:  fileName,
		FileType:  fileType,
		FileSize:  fileSize,
		Status:    BatchProcessing,
		CreatedAt: now,
	}
}

func (b *ImportBatch) transition(to BatchStatus) error {
	if !CanTransition(b.Status, to) {
		return &TransitionError{BatchID: b.ID, From: b.Status, To: to}
	}
	b.Status = to
	return nil
}

// ApplyStatement copies best-effort statement metadata onto the batch.
func (b *ImportBatch) ApplyStatement(res *ParseResult) {
	if res == nil {
		return
	}
	b.BankName = res.BankName
	b.AccountNumber = res.AccountNumber
	b.PeriodStart = res.PeriodStart
	b.PeriodEnd = res.PeriodEnd
}

// Complete finalizes the batch with its summary counts.
func (b *ImportBatch) Complete(s Summary, now time.Time) error {
	if err := b.transition(BatchCompleted); err != nil {
		return err
	}
	b.TotalTransactions = s.TotalTransactions
	b.ImportedExpenses = s.ImportedExpenses
	b.ImportedIncome = s.ImportedIncome
	b.SkippedTransactions = s.SkippedTransactions
	b.NewInvoicesCreated = s.NewInvoicesCreated
	b.InvoicesMarkedPaid = s.InvoicesMarkedPaid
	b.CompletedAt = &now
	return nil
}

// Fail moves a processing batch to failed.
func (b *ImportBatch) Fail(message string, now time.Time) error {
	if err := b.transition(BatchFailed); err != nil {
		return err
	}
	b.ErrorMessage = message
	b.CompletedAt = &now
	return nil
}

// Undo moves a completed batch to undone.
func (b *ImportBatch) Undo() error {
	return b.transition(BatchUndone)
}

// Balanced reports whether the count invariant holds.
func (b *ImportBatch) Balanced() bool {
	return b.ImportedExpenses+b.ImportedIncome+b.SkippedTransactions == b.TotalTransactions
}
