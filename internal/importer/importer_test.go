package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fjacquet/statement-reconciler/internal/categorizer"
	"fjacquet/statement-reconciler/internal/dedup"
	"fjacquet/statement-reconciler/internal/factory"
	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/matcher"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/parser"
	"fjacquet/statement-reconciler/internal/parsererror"
	"fjacquet/statement-reconciler/internal/sqlstore"
	"fjacquet/statement-reconciler/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const user = "u1"

const threeRows = `Date,Description,Amount
2024-03-05,POS 05.03.2024 MIGROS ZURICH,-45.60
2024-03-10,Payment from ACME SA invoice INV-7,1200.00
2024-03-12,Payment from Walk In Customer,80.00
`

type pipeline struct {
	importer *Importer
	store    *sqlstore.Store
	logger   *logging.MockLogger
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	logger := logging.NewMockLogger()
	ctx := context.Background()

	db, err := sqlstore.Open(ctx, filepath.Join(t.TempDir(), "reconcile.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rules := store.NewRuleStore("", "", logger)
	ruleSet, err := rules.LoadRules()
	require.NoError(t, err)
	banks, err := rules.LoadBanks()
	require.NoError(t, err)

	im := New(
		db,
		factory.NewDefaultRegistry(banks, factory.Options{}, logger),
		categorizer.New(ruleSet, logger),
		dedup.NewDetector(db, dedup.DefaultWindowSize, true),
		matcher.New(db, matcher.DefaultConfig(), logger),
		Config{DefaultCurrency: "CHF"},
		logger,
	)
	im.now = func() time.Time { return time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC) }

	return &pipeline{importer: im, store: db, logger: logger}
}

func (p *pipeline) seedInvoice(t *testing.T, id, client, total string, status models.InvoiceStatus) {
	t.Helper()
	amount := decimal.RequireFromString(total)
	require.NoError(t, p.store.AddInvoice(context.Background(), models.Invoice{
		ID:         id,
		UserID:     user,
		Number:     "INV-" + id,
		ClientName: client,
		Status:     status,
		IssueDate:  time.Date(2024, 2, 8, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
		Currency:   "CHF",
		Total:      amount,
		Items:      []models.LineItem{{Description: "Consulting", Quantity: decimal.NewFromInt(1), UnitPrice: amount}},
	}))
}

func upload(name, data string) models.Upload {
	return models.Upload{FileName: name, Data: []byte(data), UserID: user}
}

func TestImport_ThreeRowScenario(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	p.seedInvoice(t, "inv-acme", "ACME SA", "1200.00", models.InvoiceSent)

	result, err := p.importer.Import(ctx, upload("march.csv", threeRows))
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, models.Summary{
		TotalTransactions:  3,
		ImportedExpenses:   1,
		ImportedIncome:     2,
		NewInvoicesCreated: 1,
		InvoicesMarkedPaid: 1,
	}, result.Summary)

	require.Len(t, result.Transactions, 3)
	expense, matched, created := result.Transactions[0], result.Transactions[1], result.Transactions[2]
	assert.Equal(t, models.TypeExpense, expense.Type)
	assert.Equal(t, "Groceries", expense.CategoryName())
	assert.True(t, expense.Imported)
	assert.NotEmpty(t, expense.ImportedRecordID)

	assert.True(t, matched.Imported)
	assert.Equal(t, "inv-acme", matched.MatchedInvoiceID)

	assert.True(t, created.Imported)
	assert.NotEmpty(t, created.MatchedInvoiceID)
	assert.NotEqual(t, "inv-acme", created.MatchedInvoiceID)

	batch, err := p.store.GetBatch(ctx, result.BatchID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchCompleted, batch.Status)
	assert.Equal(t, "csv", batch.FileType)
	assert.Equal(t, "Generic", batch.BankName)
	assert.Equal(t, int64(len(threeRows)), batch.FileSize)
	assert.True(t, batch.Balanced())
	require.NotNil(t, batch.PeriodStart)
	assert.Equal(t, "2024-03-05", batch.PeriodStart.Format("2006-01-02"))

	acme, err := p.store.GetInvoice(ctx, "inv-acme")
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, acme.Status)

	auto, err := p.store.GetInvoice(ctx, created.MatchedInvoiceID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, auto.Status)
	assert.Equal(t, "CHF", auto.Currency)
	assert.True(t, auto.Total.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, result.BatchID, auto.ImportBatchID)
	require.Len(t, auto.Items, 1)
}

func TestImport_SuppliesPaymentAndWalkIn(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	p.seedInvoice(t, "inv-nord", "Nordwind AG", "200.00", models.InvoiceSent)

	// 36 days before the due date: amount and name carry the match alone.
	const statement = `Date,Description,Amount
2024-02-01,OFFICE SUPPLIES STAPLES,-50.00
2024-02-01,Payment from Nordwind AG,200.00
2024-02-02,Payment from Walk In Customer,75.00
`
	result, err := p.importer.Import(ctx, upload("february.csv", statement))
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, models.Summary{
		TotalTransactions:  3,
		ImportedExpenses:   1,
		ImportedIncome:     2,
		NewInvoicesCreated: 1,
		InvoicesMarkedPaid: 1,
	}, result.Summary)
	assert.Zero(t, result.Summary.SkippedTransactions)

	require.Len(t, result.Transactions, 3)
	assert.Equal(t, "Supplies", result.Transactions[0].CategoryName())
	assert.Equal(t, models.TypeExpense, result.Transactions[0].Type)
	assert.Equal(t, "inv-nord", result.Transactions[1].MatchedInvoiceID)
	assert.NotEqual(t, "inv-nord", result.Transactions[2].MatchedInvoiceID)

	receipts, err := p.store.ListReceipts(ctx, result.BatchID)
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	paid := receipts[0]
	assert.Equal(t, "inv-nord", paid.InvoiceID)
	assert.Equal(t, models.ReceiptMarkedPaid, paid.Mode)
	assert.GreaterOrEqual(t, paid.Confidence, 0.6)
	assert.InDelta(t, 0.8, paid.Confidence, 1e-9)
	assert.Equal(t, models.ReceiptCreated, receipts[1].Mode)

	nord, err := p.store.GetInvoice(ctx, "inv-nord")
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, nord.Status)
}

func TestImport_BankHintFallsBackToHeader(t *testing.T) {
	tests := []struct {
		name string
		hint string
	}{
		{name: "unknown bank", hint: "Chase"},
		{name: "known bank with another layout", hint: "Revolut"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			p := newPipeline(t)
			up := upload("march.csv", threeRows)
			up.BankHint = tt.hint

			result, err := p.importer.Import(ctx, up)
			require.NoError(t, err)
			require.True(t, result.Success)
			assert.Equal(t, 3, result.Summary.TotalTransactions)
			assert.Zero(t, result.Summary.SkippedTransactions)

			batch, err := p.store.GetBatch(ctx, result.BatchID)
			require.NoError(t, err)
			assert.Equal(t, models.BatchCompleted, batch.Status)
			assert.Equal(t, tt.hint, batch.BankName)
			assert.True(t, p.logger.HasEntry("WARN", "Bank hint does not fit the file, detecting the profile from the header"))
		})
	}
}

func TestImport_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	p.seedInvoice(t, "inv-acme", "ACME SA", "1200.00", models.InvoiceSent)

	_, err := p.importer.Import(ctx, upload("march.csv", threeRows))
	require.NoError(t, err)

	again, err := p.importer.Import(ctx, upload("march.csv", threeRows))
	require.NoError(t, err)
	assert.Equal(t, 3, again.Summary.TotalTransactions)
	assert.Equal(t, 3, again.Summary.SkippedTransactions)
	assert.Zero(t, again.Summary.ImportedExpenses)
	assert.Zero(t, again.Summary.ImportedIncome)
	for _, tx := range again.Transactions {
		assert.False(t, tx.Imported)
		assert.Equal(t, dedup.SkipReason, tx.Error)
	}

	invoices, err := p.store.ListInvoices(ctx, user)
	require.NoError(t, err)
	assert.Len(t, invoices, 2, "no extra invoice on re-import")
}

func TestImport_CountInvariant(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	data := `Date,Description,Amount
2024-03-01,Transfer to savings,-500.00
2024-03-02,Balance adjustment,0.00
2024-03-03,Starbucks Geneva,-6.50
2024-03-03,Starbucks Geneva,-6.50
2024-03-04,ATM withdrawal Bahnhofstrasse,-200.00
2024-03-05,Payment from Beta GmbH,300.00
`
	result, err := p.importer.Import(ctx, upload("mixed.csv", data))
	require.NoError(t, err)

	s := result.Summary
	assert.Equal(t, 6, s.TotalTransactions)
	assert.Equal(t, 1, s.ImportedExpenses)
	assert.Equal(t, 1, s.ImportedIncome)
	assert.Equal(t, 4, s.SkippedTransactions)
	assert.Equal(t, s.TotalTransactions, s.ImportedExpenses+s.ImportedIncome+s.SkippedTransactions)

	reasons := make([]string, 0, len(result.Transactions))
	for _, tx := range result.Transactions {
		assert.True(t, tx.HasOutcome(), "every transaction ends with an outcome")
		reasons = append(reasons, tx.Error)
	}
	assert.Equal(t, []string{ReasonTransfer, ReasonZeroAmount, "", dedup.SkipReason, ReasonTransfer, ""}, reasons)
}

func TestImport_UnsupportedCreatesNoBatch(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	result, err := p.importer.Import(ctx, upload("scan.png", "\x89PNG\r\n\x1a\n"))
	var unsupported *parsererror.FileTypeUnsupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.False(t, result.Success)
	assert.Empty(t, result.BatchID)

	batches, err := p.store.ListBatches(ctx, user, 0)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestImport_ParseFailureFailsBatch(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	result, err := p.importer.Import(ctx, upload("empty.csv", "Date,Description,Amount\n"))
	var failure *parsererror.ParseFailureError
	require.ErrorAs(t, err, &failure)
	assert.ErrorIs(t, err, parsererror.ErrNoTransactions)
	assert.False(t, result.Success)
	require.NotEmpty(t, result.BatchID)

	batch, err := p.store.GetBatch(ctx, result.BatchID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchFailed, batch.Status)
	assert.Contains(t, batch.ErrorMessage, "no transactions")
	assert.NotNil(t, batch.CompletedAt)
	assert.True(t, p.logger.HasEntry("WARN", "Import batch failed"))
}

func TestImport_RequiresUser(t *testing.T) {
	p := newPipeline(t)
	_, err := p.importer.Import(context.Background(), models.Upload{FileName: "march.csv", Data: []byte(threeRows)})
	var invalid *parsererror.ValidationError
	assert.ErrorAs(t, err, &invalid)
}

func TestUndo_RestoresEverything(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	p.seedInvoice(t, "inv-acme", "ACME SA", "1200.00", models.InvoiceSent)

	result, err := p.importer.Import(ctx, upload("march.csv", threeRows))
	require.NoError(t, err)

	comp, err := p.importer.Undo(ctx, result.BatchID, user)
	require.NoError(t, err)
	assert.Equal(t, models.Compensation{ExpensesDeleted: 1, InvoicesRestored: 1, InvoicesDeleted: 1, ReceiptsDeleted: 2}, comp)

	batch, err := p.importer.Batch(ctx, result.BatchID, user)
	require.NoError(t, err)
	assert.Equal(t, models.BatchUndone, batch.Status)

	invoices, err := p.store.ListInvoices(ctx, user)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "inv-acme", invoices[0].ID)
	assert.Equal(t, models.InvoiceSent, invoices[0].Status)

	// nothing of the undone batch counts as a duplicate any more
	again, err := p.importer.Import(ctx, upload("march.csv", threeRows))
	require.NoError(t, err)
	assert.Equal(t, 1, again.Summary.ImportedExpenses)
	assert.Equal(t, 2, again.Summary.ImportedIncome)
	assert.Equal(t, 1, again.Summary.InvoicesMarkedPaid)
}

func TestUndo_Rejected(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	completed, err := p.importer.Import(ctx, upload("march.csv", threeRows))
	require.NoError(t, err)
	failed, err := p.importer.Import(ctx, upload("empty.csv", "Date,Description,Amount\n"))
	require.Error(t, err)

	undone, err := p.importer.Import(ctx, upload("april.csv", "Date,Description,Amount\n2024-04-02,Coffee,-4.50\n"))
	require.NoError(t, err)
	_, err = p.importer.Undo(ctx, undone.BatchID, user)
	require.NoError(t, err)

	tests := []struct {
		name    string
		batchID string
		userID  string
		reason  parsererror.UndoReason
	}{
		{"failed batch", failed.BatchID, user, parsererror.UndoWrongState},
		{"already undone", undone.BatchID, user, parsererror.UndoWrongState},
		{"unknown batch", "does-not-exist", user, parsererror.UndoNotFound},
		{"other user", completed.BatchID, "u2", parsererror.UndoNotOwned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.importer.Undo(ctx, tt.batchID, tt.userID)
			var rejected *parsererror.UndoRejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, tt.reason, rejected.Reason)
		})
	}

	batch, err := p.store.GetBatch(ctx, completed.BatchID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchCompleted, batch.Status, "rejections leave the batch alone")
	expenses, err := p.store.ListExpenses(ctx, completed.BatchID)
	require.NoError(t, err)
	assert.Len(t, expenses, 1)
}

func TestBatch_OtherUserIsNotFound(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	result, err := p.importer.Import(ctx, upload("march.csv", threeRows))
	require.NoError(t, err)

	_, err = p.importer.Batch(ctx, result.BatchID, "u2")
	assert.ErrorIs(t, err, parsererror.ErrBatchNotFound)

	batches, err := p.importer.Batches(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, result.BatchID, batches[0].ID)
}

// fakes for the failure paths

type fakeParser struct {
	result *models.ParseResult
	err    error
}

func (f *fakeParser) Type() parser.FileType { return parser.FileTypeCSV }

func (f *fakeParser) CanParse(string, []byte) bool { return true }

func (f *fakeParser) Parse(parser.Input) (*models.ParseResult, error) { return f.result, f.err }

type fakeDetector struct{ p parser.Parser }

func (f fakeDetector) Detect(string, []byte) (parser.Parser, error) { return f.p, nil }

type fakeWindows struct{ err error }

func (f fakeWindows) Load(context.Context, string) (*dedup.Window, error) {
	if f.err != nil {
		return nil, f.err
	}
	return dedup.NewWindow(nil, true), nil
}

type fakeReconciler struct {
	calls int
	err   error
}

func (f *fakeReconciler) Reconcile(_ context.Context, tx models.CategorizedTransaction, _, _, _ string) (matcher.Decision, error) {
	f.calls++
	if f.err != nil {
		return matcher.Decision{}, f.err
	}
	return matcher.Decision{Action: matcher.ActionCreated, InvoiceID: fmt.Sprintf("inv-%d", f.calls), ReceiptID: fmt.Sprintf("r-%d", f.calls)}, nil
}

type memStore struct {
	batches       map[string]*models.ImportBatch
	expenses      []models.Expense
	failExpenseOn string
}

func newMemStore() *memStore {
	return &memStore{batches: map[string]*models.ImportBatch{}}
}

func (m *memStore) CreateBatch(_ context.Context, b *models.ImportBatch) error {
	c := *b
	m.batches[b.ID] = &c
	return nil
}

func (m *memStore) SaveBatch(_ context.Context, b *models.ImportBatch, from models.BatchStatus) error {
	stored, ok := m.batches[b.ID]
	if !ok || stored.Status != from {
		return &models.TransitionError{BatchID: b.ID, From: from, To: b.Status}
	}
	c := *b
	m.batches[b.ID] = &c
	return nil
}

func (m *memStore) GetBatch(_ context.Context, id string) (*models.ImportBatch, error) {
	b, ok := m.batches[id]
	if !ok {
		return nil, parsererror.ErrBatchNotFound
	}
	c := *b
	return &c, nil
}

func (m *memStore) ListBatches(context.Context, string, int) ([]models.ImportBatch, error) {
	return nil, nil
}

func (m *memStore) InsertExpense(_ context.Context, e models.Expense) error {
	if m.failExpenseOn != "" && strings.Contains(e.Description, m.failExpenseOn) {
		return errors.New("disk I/O error")
	}
	m.expenses = append(m.expenses, e)
	return nil
}

func (m *memStore) UndoBatch(context.Context, string, string) (models.Compensation, error) {
	return models.Compensation{}, nil
}

func (m *memStore) DiscardFailedBatch(context.Context, string, string) (models.Compensation, error) {
	return models.Compensation{}, nil
}

func rawTx(date, description, amount string) models.RawTransaction {
	d, _ := time.Parse("2006-01-02", date)
	return models.RawTransaction{Date: d, Description: description, Amount: decimal.RequireFromString(amount)}
}

func newFakeImporter(t *testing.T, ms *memStore, windows WindowLoader, rec Reconciler, txs ...models.RawTransaction) *Importer {
	t.Helper()
	logger := logging.NewMockLogger()
	ruleSet, err := store.NewRuleStore("", "", logger).LoadRules()
	require.NoError(t, err)
	p := &fakeParser{result: &models.ParseResult{Success: true, Transactions: txs, BankName: "Fake"}}
	im := New(ms, fakeDetector{p: p}, categorizer.New(ruleSet, logger), windows, rec, Config{}, logger)
	seq := 0
	im.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return im
}

func TestImport_PerTransactionFailuresDoNotAbort(t *testing.T) {
	ms := newMemStore()
	ms.failExpenseOn = "Broken"
	rec := &fakeReconciler{}
	im := newFakeImporter(t, ms, fakeWindows{}, rec,
		rawTx("2024-03-01", "Broken shop", "-10.00"),
		rawTx("2024-03-02", "Bakery", "-3.20"),
		rawTx("2024-03-03", "Payment from client", "150.00"),
	)

	result, err := im.Import(context.Background(), upload("fake.csv", "x"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Summary.Errors)
	assert.Equal(t, 1, result.Summary.SkippedTransactions)
	assert.Equal(t, 1, result.Summary.ImportedExpenses)
	assert.Equal(t, 1, result.Summary.ImportedIncome)
	assert.Contains(t, result.Transactions[0].Error, "disk I/O error")
	assert.Equal(t, "inv-1", result.Transactions[2].MatchedInvoiceID)
	assert.Equal(t, "r-1", result.Transactions[2].ImportedRecordID)
	assert.Equal(t, "CHF", im.cfg.DefaultCurrency)

	assert.Equal(t, models.BatchCompleted, ms.batches[result.BatchID].Status)
	assert.Len(t, ms.expenses, 1)
}

func TestImport_MatcherFailureIsRecorded(t *testing.T) {
	ms := newMemStore()
	rec := &fakeReconciler{err: errors.New("invoice table locked")}
	im := newFakeImporter(t, ms, fakeWindows{}, rec, rawTx("2024-03-03", "Payment from client", "150.00"))

	result, err := im.Import(context.Background(), upload("fake.csv", "x"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.SkippedTransactions)
	assert.Equal(t, 1, result.Summary.Errors)
	assert.False(t, result.Transactions[0].Imported)
	assert.Equal(t, "invoice table locked", result.Transactions[0].Error)
}

func TestImport_WindowFailureIsFatal(t *testing.T) {
	ms := newMemStore()
	im := newFakeImporter(t, ms, fakeWindows{err: errors.New("connection reset")}, &fakeReconciler{},
		rawTx("2024-03-02", "Bakery", "-3.20"))

	result, err := im.Import(context.Background(), upload("fake.csv", "x"))
	var fatal *parsererror.BatchFatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "duplicate window", fatal.Stage)
	assert.False(t, result.Success)

	b := ms.batches[result.BatchID]
	assert.Equal(t, models.BatchFailed, b.Status)
	assert.Contains(t, b.ErrorMessage, "connection reset")
	assert.Empty(t, ms.expenses)
}

func TestImport_InBatchDuplicatesWithoutTracking(t *testing.T) {
	ms := newMemStore()
	im := newFakeImporter(t, ms, dedup.NewDetector(emptySource{}, 0, false), &fakeReconciler{},
		rawTx("2024-03-02", "Bakery", "-3.20"),
		rawTx("2024-03-02", "Bakery", "-3.20"),
	)

	result, err := im.Import(context.Background(), upload("fake.csv", "x"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.ImportedExpenses)
}

func TestImport_SameDayDirection(t *testing.T) {
	tests := []struct {
		name     string
		txs      []models.RawTransaction
		expenses int
		income   int
		skipped  int
	}{
		{
			name:     "refund after purchase",
			txs:      []models.RawTransaction{rawTx("2024-03-02", "Staples", "-50.00"), rawTx("2024-03-02", "Refund Staples", "50.00")},
			expenses: 1,
			income:   1,
		},
		{
			name:     "repeated purchase",
			txs:      []models.RawTransaction{rawTx("2024-03-02", "Staples", "-50.00"), rawTx("2024-03-02", "Staples", "-50.00")},
			expenses: 1,
			skipped:  1,
		},
		{
			name:    "repeated payment in",
			txs:     []models.RawTransaction{rawTx("2024-03-02", "Payment from client", "50.00"), rawTx("2024-03-02", "Payment from client", "50.00")},
			income:  1,
			skipped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := newMemStore()
			im := newFakeImporter(t, ms, fakeWindows{}, &fakeReconciler{}, tt.txs...)

			result, err := im.Import(context.Background(), upload("fake.csv", "x"))
			require.NoError(t, err)
			assert.Equal(t, tt.expenses, result.Summary.ImportedExpenses)
			assert.Equal(t, tt.income, result.Summary.ImportedIncome)
			assert.Equal(t, tt.skipped, result.Summary.SkippedTransactions)
		})
	}
}

type emptySource struct{}

func (emptySource) RecentEntries(context.Context, string, int) ([]models.LedgerEntry, error) {
	return nil, nil
}

// snapshotWindows records the stored batch at the moment the window is loaded.
type snapshotWindows struct {
	ms   *memStore
	seen []models.ImportBatch
}

func (s *snapshotWindows) Load(context.Context, string) (*dedup.Window, error) {
	for _, b := range s.ms.batches {
		s.seen = append(s.seen, *b)
	}
	return dedup.NewWindow(nil, true), nil
}

func TestImport_StatementMetadataSavedBeforeProcessing(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		result  *models.ParseResult
		bank    string
		account string
	}{
		{
			name: "bank and period",
			result: &models.ParseResult{
				Success: true, BankName: "PostFinance", AccountNumber: "CH93 0076 2011 6238 5295 7",
				PeriodStart: &start, PeriodEnd: &end,
				Transactions: []models.RawTransaction{rawTx("2024-03-02", "Bakery", "-3.20")},
			},
			bank:    "PostFinance",
			account: "CH93 0076 2011 6238 5295 7",
		},
		{
			name: "bank only",
			result: &models.ParseResult{
				Success: true, BankName: "Fake",
				Transactions: []models.RawTransaction{rawTx("2024-03-02", "Bakery", "-3.20")},
			},
			bank: "Fake",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := newMemStore()
			windows := &snapshotWindows{ms: ms}
			im := newFakeImporter(t, ms, windows, &fakeReconciler{})
			im.detector = fakeDetector{p: &fakeParser{result: tt.result}}

			result, err := im.Import(context.Background(), upload("fake.csv", "x"))
			require.NoError(t, err)
			require.True(t, result.Success)

			require.Len(t, windows.seen, 1)
			during := windows.seen[0]
			assert.Equal(t, models.BatchProcessing, during.Status)
			assert.Equal(t, tt.bank, during.BankName)
			assert.Equal(t, tt.account, during.AccountNumber)
			assert.Equal(t, tt.result.PeriodStart, during.PeriodStart)
			assert.Equal(t, tt.result.PeriodEnd, during.PeriodEnd)
		})
	}
}
