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

// UndoBatch reverses every write of a completed batch and moves it to undone.
// The ownership and state checks run in the same transaction as the
// compensation, so a rejection leaves the database untouched.
func (s *Store) UndoBatch(ctx context.Context, batchID, userID string) (models.Compensation, error) {
	var comp models.Compensation
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := checkBatch(ctx, tx, batchID, userID, models.BatchCompleted); err != nil {
			return err
		}
		var err error
		if comp, err = s.compensate(ctx, tx, batchID, userID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE import_batches SET status = ? WHERE id = ? AND status = ?`,
			string(models.BatchUndone), batchID, string(models.BatchCompleted))
		if err != nil {
			return fmt.Errorf("failed to mark batch %s undone: %w", batchID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &models.TransitionError{BatchID: batchID, From: models.BatchCompleted, To: models.BatchUndone}
		}
		return nil
	})
	if err != nil {
		return models.Compensation{}, err
	}

	s.logger.Info("Undid import batch",
		logging.F(logging.FieldBatchID, batchID),
		logging.F(logging.FieldCount, comp.ExpensesDeleted+comp.ReceiptsDeleted))
	return comp, nil
}

// DiscardFailedBatch reverses the partial writes of a failed batch. The batch
// stays failed.
func (s *Store) DiscardFailedBatch(ctx context.Context, batchID, userID string) (models.Compensation, error) {
	var comp models.Compensation
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := checkBatch(ctx, tx, batchID, userID, models.BatchFailed); err != nil {
			return err
		}
		var err error
		comp, err = s.compensate(ctx, tx, batchID, userID)
		return err
	})
	if err != nil {
		return models.Compensation{}, err
	}

	s.logger.Info("Discarded failed batch writes",
		logging.F(logging.FieldBatchID, batchID),
		logging.F(logging.FieldCount, comp.ExpensesDeleted+comp.ReceiptsDeleted))
	return comp, nil
}

func checkBatch(ctx context.Context, tx *sql.Tx, batchID, userID string, want models.BatchStatus) error {
	var owner, status string
	err := tx.QueryRowContext(ctx, `SELECT user_id, status FROM import_batches WHERE id = ?`, batchID).Scan(&owner, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return &parsererror.UndoRejectedError{BatchID: batchID, Reason: parsererror.UndoNotFound}
	}
	if err != nil {
		return fmt.Errorf("failed to read batch %s: %w", batchID, err)
	}
	if owner != userID {
		return &parsererror.UndoRejectedError{BatchID: batchID, Reason: parsererror.UndoNotOwned, Status: status}
	}
	if models.BatchStatus(status) != want {
		return &parsererror.UndoRejectedError{BatchID: batchID, Reason: parsererror.UndoWrongState, Status: status}
	}
	return nil
}

// compensate deletes the batch's expenses, then replays its receipts newest
// first and deletes them.
func (s *Store) compensate(ctx context.Context, tx *sql.Tx, batchID, userID string) (models.Compensation, error) {
	var comp models.Compensation

	res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE import_batch_id = ? AND user_id = ?`, batchID, userID)
	if err != nil {
		return comp, fmt.Errorf("failed to delete expenses of batch %s: %w", batchID, err)
	}
	n, _ := res.RowsAffected()
	comp.ExpensesDeleted = int(n)

	receipts, err := s.queryReceipts(ctx, tx, `SELECT `+receiptColumns+` FROM receipts
		WHERE import_batch_id = ? ORDER BY rowid DESC`, batchID)
	if err != nil {
		return comp, err
	}

	for _, r := range receipts {
		switch r.Mode {
		case models.ReceiptMarkedPaid:
			if _, err := tx.ExecContext(ctx, `UPDATE invoices SET status = ?, paid_at = NULL
				WHERE id = ? AND user_id = ?`, string(r.PreviousStatus), r.InvoiceID, r.UserID); err != nil {
				return comp, fmt.Errorf("failed to restore invoice %s: %w", r.InvoiceID, err)
			}
			comp.InvoicesRestored++
		case models.ReceiptCreated:
			if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_line_items WHERE invoice_id = ?`, r.InvoiceID); err != nil {
				return comp, fmt.Errorf("failed to delete line items of invoice %s: %w", r.InvoiceID, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = ? AND user_id = ?`, r.InvoiceID, r.UserID); err != nil {
				return comp, fmt.Errorf("failed to delete invoice %s: %w", r.InvoiceID, err)
			}
			comp.InvoicesDeleted++
		default:
			return comp, fmt.Errorf("receipt %s has unknown mode %q", r.ID, r.Mode)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM receipts WHERE import_batch_id = ?`, batchID); err != nil {
		return comp, fmt.Errorf("failed to delete receipts of batch %s: %w", batchID, err)
	}
	comp.ReceiptsDeleted = len(receipts)
	return comp, nil
}
