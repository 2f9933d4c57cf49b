package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/parsererror"

	"github.com/google/uuid"
)

const invoiceColumns = `id, user_id, number, client_name, status, issue_date, due_date,
	currency, total, paid_at, COALESCE(import_batch_id, '')`

// OutstandingInvoices returns the user's sent, unpaid and overdue invoices,
// ordered by due date.
func (s *Store) OutstandingInvoices(ctx context.Context, userID string) ([]models.Invoice, error) {
	return s.queryInvoices(ctx, `SELECT `+invoiceColumns+` FROM invoices
		WHERE user_id = ? AND status IN (?, ?, ?) ORDER BY due_date, id`,
		userID, string(models.InvoiceSent), string(models.InvoiceUnpaid), string(models.InvoiceOverdue))
}

// ListInvoices returns all of a user's invoices with their line items.
func (s *Store) ListInvoices(ctx context.Context, userID string) ([]models.Invoice, error) {
	invoices, err := s.queryInvoices(ctx, `SELECT `+invoiceColumns+` FROM invoices
		WHERE user_id = ? ORDER BY due_date, id`, userID)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		if invoices[i].Items, err = s.lineItems(ctx, invoices[i].ID); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// GetInvoice loads one invoice with its line items.
func (s *Store) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	invoices, err := s.queryInvoices(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, fmt.Errorf("invoice %s: %w", id, parsererror.ErrInvoiceNotFound)
	}
	inv := invoices[0]
	if inv.Items, err = s.lineItems(ctx, inv.ID); err != nil {
		return nil, err
	}
	return &inv, nil
}

// AddInvoice stores a manually entered invoice.
func (s *Store) AddInvoice(ctx context.Context, inv models.Invoice) error {
	return s.CreateInvoice(ctx, inv, nil)
}

// CreateInvoice inserts an invoice, its line items and, when given, the
// receipt that caused it, in one transaction.
func (s *Store) CreateInvoice(ctx context.Context, inv models.Invoice, receipt *models.Receipt) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var batchID any
		if inv.ImportBatchID != "" {
			batchID = inv.ImportBatchID
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO invoices
			(id, user_id, number, client_name, status, issue_date, due_date, currency, total, paid_at, import_batch_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, inv.UserID, inv.Number, inv.ClientName, string(inv.Status),
			formatDate(inv.IssueDate), formatDate(inv.DueDate), inv.Currency, inv.Total.String(),
			nullableDate(inv.PaidAt), batchID, s.timestamp())
		if err != nil {
			return fmt.Errorf("failed to insert invoice %s: %w", inv.ID, err)
		}

		for i, item := range inv.Items {
			id := item.ID
			if id == "" {
				id = uuid.NewString()
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO invoice_line_items
				(id, invoice_id, position, description, quantity, unit_price) VALUES (?, ?, ?, ?, ?, ?)`,
				id, inv.ID, i, item.Description, item.Quantity.String(), item.UnitPrice.String())
			if err != nil {
				return fmt.Errorf("failed to insert line item for invoice %s: %w", inv.ID, err)
			}
		}

		if receipt != nil {
			r := *receipt
			r.Mode = models.ReceiptCreated
			r.InvoiceID = inv.ID
			return s.insertReceipt(ctx, tx, r)
		}
		return nil
	})
}

// MarkInvoicePaid sets an outstanding invoice to paid and records the receipt
// together with the status it replaced. It returns parsererror.ErrInvoiceNotFound
// when the invoice does not exist or belongs to another user.
func (s *Store) MarkInvoicePaid(ctx context.Context, userID string, receipt models.Receipt) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM invoices WHERE id = ? AND user_id = ?`,
			receipt.InvoiceID, userID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("invoice %s: %w", receipt.InvoiceID, parsererror.ErrInvoiceNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read invoice %s: %w", receipt.InvoiceID, err)
		}

		previous := models.InvoiceStatus(status)
		if !previous.Outstanding() {
			return fmt.Errorf("invoice %s is %s, not outstanding", receipt.InvoiceID, previous)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE invoices SET status = ?, paid_at = ? WHERE id = ? AND status = ?`,
			string(models.InvoicePaid), formatDate(receipt.Date), receipt.InvoiceID, status); err != nil {
			return fmt.Errorf("failed to mark invoice %s paid: %w", receipt.InvoiceID, err)
		}

		receipt.UserID = userID
		receipt.Mode = models.ReceiptMarkedPaid
		receipt.PreviousStatus = previous
		if err := s.insertReceipt(ctx, tx, receipt); err != nil {
			return err
		}

		s.logger.Debug("Marked invoice paid",
			logging.F(logging.FieldInvoiceID, receipt.InvoiceID),
			logging.F(logging.FieldStatus, status))
		return nil
	})
}

// ListReceipts returns the receipts written by one batch in insertion order.
func (s *Store) ListReceipts(ctx context.Context, batchID string) ([]models.Receipt, error) {
	return s.queryReceipts(ctx, s.db, `SELECT `+receiptColumns+` FROM receipts
		WHERE import_batch_id = ? ORDER BY rowid`, batchID)
}

const receiptColumns = `id, user_id, invoice_id, mode, previous_status, amount, date,
	bank_transaction_id, import_batch_id, confidence`

func (s *Store) insertReceipt(ctx context.Context, tx *sql.Tx, r models.Receipt) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO receipts
		(id, user_id, invoice_id, mode, previous_status, amount, date, bank_transaction_id, import_batch_id, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.InvoiceID, string(r.Mode), string(r.PreviousStatus), r.Amount.Abs().String(),
		formatDate(r.Date), r.BankTransactionID, r.ImportBatchID, r.Confidence, s.timestamp())
	if err != nil {
		return fmt.Errorf("failed to insert receipt %s: %w", r.ID, err)
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) queryReceipts(ctx context.Context, q querier, query string, args ...any) ([]models.Receipt, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Receipt
	for rows.Next() {
		var r models.Receipt
		var mode, previous, amount, date string
		if err := rows.Scan(&r.ID, &r.UserID, &r.InvoiceID, &mode, &previous, &amount, &date,
			&r.BankTransactionID, &r.ImportBatchID, &r.Confidence); err != nil {
			return nil, fmt.Errorf("failed to read receipt: %w", err)
		}
		r.Mode = models.ReceiptMode(mode)
		r.PreviousStatus = models.InvoiceStatus(previous)
		if r.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		if r.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) queryInvoices(ctx context.Context, query string, args ...any) ([]models.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	return out, nil
}

func scanInvoice(row scanner) (*models.Invoice, error) {
	var (
		inv                       models.Invoice
		status, issue, due, total string
		paidAt                    sql.NullString
	)
	if err := row.Scan(&inv.ID, &inv.UserID, &inv.Number, &inv.ClientName, &status, &issue, &due,
		&inv.Currency, &total, &paidAt, &inv.ImportBatchID); err != nil {
		return nil, fmt.Errorf("failed to read invoice: %w", err)
	}

	var err error
	inv.Status = models.InvoiceStatus(status)
	if inv.IssueDate, err = parseDate(issue); err != nil {
		return nil, err
	}
	if inv.DueDate, err = parseDate(due); err != nil {
		return nil, err
	}
	if inv.Total, err = parseDecimal(total); err != nil {
		return nil, err
	}
	if inv.PaidAt, err = parseNullDate(paidAt); err != nil {
		return nil, err
	}
	inv.Currency = strings.ToUpper(inv.Currency)
	return &inv, nil
}

func (s *Store) lineItems(ctx context.Context, invoiceID string) ([]models.LineItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, description, quantity, unit_price
		FROM invoice_line_items WHERE invoice_id = ? ORDER BY position`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []models.LineItem
	for rows.Next() {
		var item models.LineItem
		var qty, price string
		if err := rows.Scan(&item.ID, &item.Description, &qty, &price); err != nil {
			return nil, fmt.Errorf("failed to read line item: %w", err)
		}
		if item.Quantity, err = parseDecimal(qty); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = parseDecimal(price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
