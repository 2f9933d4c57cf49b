package sqlstore

import (
	"context"
	"fmt"

	"fjacquet/statement-reconciler/internal/models"
)

// InsertExpense writes one expense row.
func (s *Store) InsertExpense(ctx context.Context, e models.Expense) error {
	var batchID any
	if e.ImportBatchID != "" {
		batchID = e.ImportBatchID
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO expenses
		(id, user_id, amount, date, category, vendor_name, description, bank_transaction_id, import_batch_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Amount.Abs().String(), formatDate(e.Date), e.Category, e.VendorName,
		e.Description, e.BankTransactionID, batchID, s.timestamp())
	if err != nil {
		return fmt.Errorf("failed to insert expense %s: %w", e.ID, err)
	}
	return nil
}

// ListExpenses returns the expenses of one batch, oldest first.
func (s *Store) ListExpenses(ctx context.Context, batchID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, amount, date, category, vendor_name,
			description, bank_transaction_id, COALESCE(import_batch_id, '')
		FROM expenses WHERE import_batch_id = ? ORDER BY rowid`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Expense
	for rows.Next() {
		var e models.Expense
		var amount, date string
		if err := rows.Scan(&e.ID, &e.UserID, &amount, &date, &e.Category, &e.VendorName,
			&e.Description, &e.BankTransactionID, &e.ImportBatchID); err != nil {
			return nil, fmt.Errorf("failed to read expense: %w", err)
		}
		if e.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		if e.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecentEntries returns the user's most recent expenses and receipts, newest
// first, as the duplicate window.
func (s *Store) RecentEntries(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, date, amount, bank_transaction_id FROM (
			SELECT id, 'expense' AS kind, date, amount, bank_transaction_id, created_at
				FROM expenses WHERE user_id = ?
			UNION ALL
			SELECT id, 'income' AS kind, date, amount, bank_transaction_id, created_at
				FROM receipts WHERE user_id = ?
		)
		ORDER BY date DESC, created_at DESC, id
		LIMIT ?`, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		var kind, date, amount string
		if err := rows.Scan(&e.ID, &kind, &date, &amount, &e.BankTransactionID); err != nil {
			return nil, fmt.Errorf("failed to read ledger entry: %w", err)
		}
		e.Kind = models.EntryKind(kind)
		if e.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if e.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load recent entries: %w", err)
	}
	return entries, nil
}
