// Package importer drives one statement file through parsing, categorization,
// duplicate detection and invoice matching, and keeps the ImportBatch audit
// record in step. It also exposes undo.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fjacquet/statement-reconciler/internal/dedup"
	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/matcher"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/parser"
	"fjacquet/statement-reconciler/internal/parsererror"

	"github.com/google/uuid"
)

// Skip reasons recorded on transactions that are not persisted.
const (
	ReasonZeroAmount   = "Skipped: zero amount"
	ReasonTransfer     = "Skipped: transfer between own accounts"
	ReasonUnclassified = "Skipped: could not classify transaction"
)

// Detector picks the parser for an upload.
type Detector interface {
	Detect(fileName string, data []byte) (parser.Parser, error)
}

// Categorizer classifies parsed transactions.
type Categorizer interface {
	Categorize(txs []models.RawTransaction) []models.CategorizedTransaction
}

// WindowLoader reads the duplicate window once per batch.
type WindowLoader interface {
	Load(ctx context.Context, userID string) (*dedup.Window, error)
}

// Reconciler applies the invoice decision to an income transaction.
type Reconciler interface {
	Reconcile(ctx context.Context, tx models.CategorizedTransaction, userID, currency, batchID string) (matcher.Decision, error)
}

// Store persists batches and expenses and reverses them.
type Store interface {
	CreateBatch(ctx context.Context, b *models.ImportBatch) error
	SaveBatch(ctx context.Context, b *models.ImportBatch, from models.BatchStatus) error
	GetBatch(ctx context.Context, id string) (*models.ImportBatch, error)
	ListBatches(ctx context.Context, userID string, limit int) ([]models.ImportBatch, error)
	InsertExpense(ctx context.Context, e models.Expense) error
	UndoBatch(ctx context.Context, batchID, userID string) (models.Compensation, error)
	DiscardFailedBatch(ctx context.Context, batchID, userID string) (models.Compensation, error)
}

// Config holds importer settings.
type Config struct {
	// DefaultCurrency is used for invoices created from unmatched payments.
	DefaultCurrency string
}

// Importer is the import orchestrator.
type Importer struct {
	store       Store
	detector    Detector
	categorizer Categorizer
	windows     WindowLoader
	reconciler  Reconciler
	cfg         Config
	logger      logging.Logger

	newID func() string
	now   func() time.Time
}

// New creates an Importer.
func New(store Store, detector Detector, categorizer Categorizer, windows WindowLoader, reconciler Reconciler, cfg Config, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "CHF"
	}
	return &Importer{
		store:       store,
		detector:    detector,
		categorizer: categorizer,
		windows:     windows,
		reconciler:  reconciler,
		cfg:         cfg,
		logger:      logger,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// Import runs the whole pipeline for one upload.
//
// An unsupported file is rejected before any batch exists. A parse failure or
// any other error outside the per-transaction loop leaves the batch failed and
// is returned together with a result describing it. Per-transaction failures
// are recorded on the transaction and counted as skipped.
func (im *Importer) Import(ctx context.Context, upload models.Upload) (*models.ImportResult, error) {
	if upload.UserID == "" {
		return nil, &parsererror.ValidationError{Field: "user", Reason: "a user id is required"}
	}
	log := im.logger.WithFields(
		logging.F(logging.FieldFile, upload.FileName),
		logging.F(logging.FieldUserID, upload.UserID))

	p, err := im.detector.Detect(upload.FileName, upload.Data)
	if err != nil {
		log.Warn("Rejected upload", logging.F(logging.FieldError, err.Error()))
		return &models.ImportResult{Success: false, Error: err.Error()}, err
	}

	batch := models.NewImportBatch(im.newID(), upload.UserID, upload.FileName, string(p.Type()), int64(len(upload.Data)), im.now().UTC())
	if err := im.store.CreateBatch(ctx, batch); err != nil {
		return &models.ImportResult{Success: false, Error: err.Error()}, fmt.Errorf("failed to create import batch: %w", err)
	}
	log = log.WithFields(
		logging.F(logging.FieldBatchID, batch.ID),
		logging.F(logging.FieldParser, string(p.Type())))
	log.Info("Started import batch")

	res, err := p.Parse(parser.Input{FileName: upload.FileName, Data: upload.Data, BankHint: upload.BankHint})
	if err == nil && res == nil {
		err = parsererror.ErrNoTransactions
	}
	if err != nil {
		return im.fail(ctx, log, batch, &parsererror.ParseFailureError{FileName: upload.FileName, Err: err})
	}
	batch.ApplyStatement(res)
	if err := im.store.SaveBatch(ctx, batch, models.BatchProcessing); err != nil {
		return im.fail(ctx, log, batch, &parsererror.BatchFatalError{BatchID: batch.ID, Stage: "statement metadata", Err: err})
	}

	categorized := im.categorizer.Categorize(res.Transactions)

	window, err := im.windows.Load(ctx, upload.UserID)
	if err != nil {
		return im.fail(ctx, log, batch, &parsererror.BatchFatalError{BatchID: batch.ID, Stage: "duplicate window", Err: err})
	}

	var summary models.Summary
	summary.TotalTransactions = len(categorized)
	for i := range categorized {
		im.process(ctx, log, batch, &categorized[i], window, &summary)
	}

	done := *batch
	if err := done.Complete(summary, im.now().UTC()); err != nil {
		return im.fail(ctx, log, batch, &parsererror.BatchFatalError{BatchID: batch.ID, Stage: "finalize", Err: err})
	}
	if err := im.store.SaveBatch(ctx, &done, models.BatchProcessing); err != nil {
		return im.fail(ctx, log, batch, &parsererror.BatchFatalError{BatchID: batch.ID, Stage: "finalize", Err: err})
	}
	*batch = done

	log.Info("Completed import batch",
		logging.F(logging.FieldCount, summary.TotalTransactions),
		logging.F("imported_expenses", summary.ImportedExpenses),
		logging.F("imported_income", summary.ImportedIncome),
		logging.F("skipped", summary.SkippedTransactions),
		logging.F("errors", summary.Errors))

	return &models.ImportResult{
		Success:      true,
		BatchID:      batch.ID,
		Summary:      summary,
		Transactions: categorized,
	}, nil
}

// fail moves the batch to failed and returns cause.
func (im *Importer) fail(ctx context.Context, log logging.Logger, batch *models.ImportBatch, cause error) (*models.ImportResult, error) {
	result := &models.ImportResult{Success: false, BatchID: batch.ID, Error: cause.Error()}

	if err := batch.Fail(cause.Error(), im.now().UTC()); err != nil {
		log.WithError(err).Error("Could not mark batch failed")
		return result, cause
	}
	if err := im.store.SaveBatch(ctx, batch, models.BatchProcessing); err != nil {
		log.WithError(err).Error("Could not persist failed batch")
		return result, errors.Join(cause, err)
	}

	log.Warn("Import batch failed", logging.F(logging.FieldError, cause.Error()))
	return result, cause
}

// process applies the per-transaction rules in order and records the outcome.
func (im *Importer) process(ctx context.Context, log logging.Logger, batch *models.ImportBatch, tx *models.CategorizedTransaction, window *dedup.Window, summary *models.Summary) {
	skip := func(reason string) {
		tx.MarkSkipped(reason)
		summary.SkippedTransactions++
		log.Debug("Skipped transaction",
			logging.F(logging.FieldReference, tx.Reference),
			logging.F(logging.FieldReason, reason))
	}

	switch {
	case tx.IsZero():
		skip(ReasonZeroAmount)
		return
	case tx.Type == models.TypeTransfer:
		skip(ReasonTransfer)
		return
	case tx.Type != models.TypeExpense && tx.Type != models.TypeIncome:
		skip(ReasonUnclassified)
		return
	case window.Contains(tx.RawTransaction, entryKind(tx.Type)):
		skip(dedup.SkipReason)
		return
	}

	var err error
	if tx.Type == models.TypeExpense {
		err = im.importExpense(ctx, batch, tx, window, summary)
	} else {
		err = im.importIncome(ctx, batch, tx, window, summary)
	}
	if err != nil {
		tx.MarkSkipped(err.Error())
		summary.SkippedTransactions++
		summary.Errors++
		log.Warn("Failed to import transaction",
			logging.F(logging.FieldReference, tx.Reference),
			logging.F(logging.FieldType, string(tx.Type)),
			logging.F(logging.FieldError, err.Error()))
	}
}

func entryKind(t models.TransactionType) models.EntryKind {
	if t == models.TypeExpense {
		return models.EntryExpense
	}
	return models.EntryIncome
}

func (im *Importer) importExpense(ctx context.Context, batch *models.ImportBatch, tx *models.CategorizedTransaction, window *dedup.Window, summary *models.Summary) error {
	e := models.Expense{
		ID:                im.newID(),
		UserID:            batch.UserID,
		Amount:            tx.AbsAmount(),
		Date:              tx.Date,
		Category:          tx.CategoryName(),
		VendorName:        tx.VendorName,
		Description:       tx.Description,
		BankTransactionID: tx.Reference,
		ImportBatchID:     batch.ID,
	}
	if err := im.store.InsertExpense(ctx, e); err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}

	tx.MarkImported(e.ID)
	summary.ImportedExpenses++
	window.Add(models.LedgerEntry{
		ID:                e.ID,
		Kind:              models.EntryExpense,
		Date:              e.Date,
		Amount:            e.Amount,
		BankTransactionID: e.BankTransactionID,
	})
	return nil
}

func (im *Importer) importIncome(ctx context.Context, batch *models.ImportBatch, tx *models.CategorizedTransaction, window *dedup.Window, summary *models.Summary) error {
	d, err := im.reconciler.Reconcile(ctx, *tx, batch.UserID, im.cfg.DefaultCurrency, batch.ID)
	if err != nil {
		return err
	}

	tx.MatchedInvoiceID = d.InvoiceID
	tx.MarkImported(d.ReceiptID)
	summary.ImportedIncome++
	switch d.Action {
	case matcher.ActionMarkedPaid:
		summary.InvoicesMarkedPaid++
	case matcher.ActionCreated:
		summary.NewInvoicesCreated++
	}
	window.Add(models.LedgerEntry{
		ID:                d.ReceiptID,
		Kind:              models.EntryIncome,
		Date:              tx.Date,
		Amount:            tx.AbsAmount(),
		BankTransactionID: tx.Reference,
	})
	return nil
}

// Undo reverses a completed batch. A refusal is a *parsererror.UndoRejectedError
// and leaves everything untouched.
func (im *Importer) Undo(ctx context.Context, batchID, userID string) (models.Compensation, error) {
	comp, err := im.store.UndoBatch(ctx, batchID, userID)
	if err != nil {
		var rejected *parsererror.UndoRejectedError
		if errors.As(err, &rejected) {
			im.logger.Warn("Undo rejected",
				logging.F(logging.FieldBatchID, batchID),
				logging.F(logging.FieldReason, string(rejected.Reason)))
		}
		return comp, err
	}
	return comp, nil
}

// DiscardFailed reverses the partial writes of a failed batch without changing
// its status.
func (im *Importer) DiscardFailed(ctx context.Context, batchID, userID string) (models.Compensation, error) {
	return im.store.DiscardFailedBatch(ctx, batchID, userID)
}

// Batches lists a user's batches, newest first.
func (im *Importer) Batches(ctx context.Context, userID string, limit int) ([]models.ImportBatch, error) {
	return im.store.ListBatches(ctx, userID, limit)
}

// Batch returns one of the user's batches. Batches of other users are reported
// as not found.
func (im *Importer) Batch(ctx context.Context, batchID, userID string) (*models.ImportBatch, error) {
	b, err := im.store.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, fmt.Errorf("batch %s: %w", batchID, parsererror.ErrBatchNotFound)
	}
	return b, nil
}
