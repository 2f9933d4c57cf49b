package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/parsererror"
)

const batchColumns = `id, user_id, file_name, file_type, file_size, bank_name, account_number,
	period_start, period_end, total_transactions, imported_expenses, imported_income,
	skipped_transactions, new_invoices_created, invoices_marked_paid, status, error_message,
	created_at, completed_at`

// CreateBatch inserts a new batch row.
func (s *Store) CreateBatch(ctx context.Context, b *models.ImportBatch) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO import_batches (`+batchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.FileName, b.FileType, b.FileSize, b.BankName, b.AccountNumber,
		nullableDate(b.PeriodStart), nullableDate(b.PeriodEnd),
		b.TotalTransactions, b.ImportedExpenses, b.ImportedIncome,
		b.SkippedTransactions, b.NewInvoicesCreated, b.InvoicesMarkedPaid,
		string(b.Status), b.ErrorMessage,
		b.CreatedAt.UTC().Format(timestampLayout), nullableTimestamp(b.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to insert batch %s: %w", b.ID, err)
	}
	return nil
}

// SaveBatch writes the mutable fields of b, provided the stored row is still in
// state from. A row in any other state yields a *models.TransitionError.
func (s *Store) SaveBatch(ctx context.Context, b *models.ImportBatch, from models.BatchStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE import_batches SET
			bank_name = ?, account_number = ?, period_start = ?, period_end = ?,
			total_transactions = ?, imported_expenses = ?, imported_income = ?,
			skipped_transactions = ?, new_invoices_created = ?, invoices_marked_paid = ?,
			status = ?, error_message = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		b.BankName, b.AccountNumber, nullableDate(b.PeriodStart), nullableDate(b.PeriodEnd),
		b.TotalTransactions, b.ImportedExpenses, b.ImportedIncome,
		b.SkippedTransactions, b.NewInvoicesCreated, b.InvoicesMarkedPaid,
		string(b.Status), b.ErrorMessage, nullableTimestamp(b.CompletedAt),
		b.ID, string(from))
	if err != nil {
		return fmt.Errorf("failed to update batch %s: %w", b.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update batch %s: %w", b.ID, err)
	}
	if n == 0 {
		return &models.TransitionError{BatchID: b.ID, From: from, To: b.Status}
	}

	s.logger.Debug("Saved batch",
		logging.F(logging.FieldBatchID, b.ID),
		logging.F(logging.FieldStatus, string(b.Status)))
	return nil
}

// GetBatch loads one batch. It returns parsererror.ErrBatchNotFound when no
// row has that id.
func (s *Store) GetBatch(ctx context.Context, id string) (*models.ImportBatch, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM import_batches WHERE id = ?`, id)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("batch %s: %w", id, parsererror.ErrBatchNotFound)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListBatches returns a user's batches, newest first. A limit <= 0 returns all.
func (s *Store) ListBatches(ctx context.Context, userID string, limit int) ([]models.ImportBatch, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+batchColumns+` FROM import_batches
		WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var batches []models.ImportBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

func scanBatch(row scanner) (*models.ImportBatch, error) {
	var (
		b                      models.ImportBatch
		status, createdAt      string
		periodStart, periodEnd sql.NullString
		completedAt            sql.NullString
	)
	err := row.Scan(&b.ID, &b.UserID, &b.FileName, &b.FileType, &b.FileSize, &b.BankName, &b.AccountNumber,
		&periodStart, &periodEnd, &b.TotalTransactions, &b.ImportedExpenses, &b.ImportedIncome,
		&b.SkippedTransactions, &b.NewInvoicesCreated, &b.InvoicesMarkedPaid, &status, &b.ErrorMessage,
		&createdAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}

	b.Status = models.BatchStatus(status)
	if b.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if b.PeriodStart, err = parseNullDate(periodStart); err != nil {
		return nil, err
	}
	if b.PeriodEnd, err = parseNullDate(periodEnd); err != nil {
		return nil, err
	}
	if b.CompletedAt, err = parseNullTimestamp(completedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
