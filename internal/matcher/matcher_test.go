package matcher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	invoices []models.Invoice
	receipts []models.Receipt
	created  []models.Invoice
	loadErr  error
	writeErr error
}

func (f *fakeStore) OutstandingInvoices(_ context.Context, userID string) ([]models.Invoice, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	var out []models.Invoice
	for _, inv := range f.invoices {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkInvoicePaid(_ context.Context, userID string, r models.Receipt) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	for i := range f.invoices {
		if f.invoices[i].ID == r.InvoiceID && f.invoices[i].UserID == userID {
			r.PreviousStatus = f.invoices[i].Status
			f.invoices[i].Status = models.InvoicePaid
			f.receipts = append(f.receipts, r)
			return nil
		}
	}
	return errors.New("invoice not found")
}

func (f *fakeStore) CreateInvoice(_ context.Context, inv models.Invoice, r *models.Receipt) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.created = append(f.created, inv)
	if r != nil {
		f.receipts = append(f.receipts, *r)
	}
	return nil
}

// fixedScorer returns a preset confidence per invoice id.
type fixedScorer map[string]float64

func (s fixedScorer) Score(_ models.CategorizedTransaction, inv models.Invoice) float64 {
	return s[inv.ID]
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func invoice(id, client, total string, due time.Time) models.Invoice {
	return models.Invoice{
		ID:         id,
		UserID:     "u1",
		Number:     "INV-" + id,
		ClientName: client,
		Status:     models.InvoiceSent,
		DueDate:    due,
		Currency:   "CHF",
		Total:      decimal.RequireFromString(total),
	}
}

func income(description, vendor, amount string, date time.Time) models.CategorizedTransaction {
	return models.CategorizedTransaction{
		RawTransaction: models.RawTransaction{
			Date:        date,
			Description: description,
			Amount:      decimal.RequireFromString(amount),
			Reference:   "REF-" + amount,
		},
		Type:       models.TypeIncome,
		VendorName: vendor,
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestWeightedScorer(t *testing.T) {
	s := NewWeightedScorer(DefaultConfig())
	inv := invoice("a", "ACME SA", "1000.00", day(10))

	tests := []struct {
		name     string
		tx       models.CategorizedTransaction
		expected float64
	}{
		{"exact amount, due date, same name", income("Payment ACME SA", "ACME SA", "1000.00", day(10)), 1},
		{"exact amount, 15 days late, same name", income("Payment ACME", "ACME", "1000.00", day(25)), 0.9},
		{"2.5% short, on time, unknown payer", income("Transfer", "John Doe", "975.00", day(10)), 0.45},
		{"outside tolerance and window", income("Transfer", "John Doe", "500.00", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.Score(tt.tx, inv), 1e-9)
		})
	}
}

func TestWeightedScorer_PartialName(t *testing.T) {
	s := NewWeightedScorer(DefaultConfig())
	inv := invoice("a", "Globex Consulting GmbH", "200.00", day(1))
	tx := income("Globex Trading", "Globex Trading", "200.00", day(1))

	// tokens {globex, trading} vs {globex, consulting}: jaccard 1/3
	assert.InDelta(t, 0.5+0.2+0.1, s.Score(tx, inv), 1e-4)
}

func TestWeightedScorer_RoundsToFourDecimals(t *testing.T) {
	s := NewWeightedScorer(DefaultConfig())
	inv := invoice("a", "Nobody", "300.00", day(1))
	tx := income("x", "x", "300.00", day(8))

	// 0.5 + 0.2*(1-7/30)
	assert.Equal(t, 0.6533, s.Score(tx, inv))
}

func TestDecide_ThresholdIsInclusive(t *testing.T) {
	m := NewWithScorer(&fakeStore{}, fixedScorer{}, 0.6, logging.NewMockLogger())

	assert.False(t, m.Decide(nil))
	assert.False(t, m.Decide(&models.MatchResult{InvoiceID: "a", Confidence: 0.59}))
	assert.False(t, m.Decide(&models.MatchResult{InvoiceID: "a", Confidence: 0.5999}))
	assert.True(t, m.Decide(&models.MatchResult{InvoiceID: "a", Confidence: 0.60}))
	assert.True(t, m.Decide(&models.MatchResult{InvoiceID: "a", Confidence: 1}))
}

func TestReconcile_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		action     Action
	}{
		{"0.59 creates a new invoice", 0.59, ActionCreated},
		{"0.60 marks the invoice paid", 0.60, ActionMarkedPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{invoices: []models.Invoice{invoice("inv-1", "ACME", "100.00", day(1))}}
			m := NewWithScorer(store, fixedScorer{"inv-1": tt.confidence}, 0.6, logging.NewMockLogger())
			m.newID = sequentialIDs()

			d, err := m.Reconcile(context.Background(), income("Payment", "ACME", "100.00", day(2)), "u1", "CHF", "batch-1")
			require.NoError(t, err)
			assert.Equal(t, tt.action, d.Action)
			assert.Equal(t, tt.confidence, d.Confidence)
			require.Len(t, store.receipts, 1)
			assert.Equal(t, "batch-1", store.receipts[0].ImportBatchID)

			if tt.action == ActionMarkedPaid {
				assert.Equal(t, "inv-1", d.InvoiceID)
				assert.Equal(t, models.InvoicePaid, store.invoices[0].Status)
				assert.Equal(t, models.InvoiceSent, store.receipts[0].PreviousStatus)
				assert.Empty(t, store.created)
			} else {
				assert.Equal(t, models.InvoiceSent, store.invoices[0].Status)
				require.Len(t, store.created, 1)
				assert.Equal(t, d.InvoiceID, store.created[0].ID)
				assert.Equal(t, models.ReceiptCreated, store.receipts[0].Mode)
			}
		})
	}
}

func TestFindMatchingInvoice_TieBreak(t *testing.T) {
	store := &fakeStore{invoices: []models.Invoice{
		invoice("c", "X", "100.00", day(10)),
		invoice("b", "X", "100.00", day(5)),
		invoice("a", "X", "100.00", day(5)),
		invoice("d", "X", "100.00", day(1)),
	}}
	scores := fixedScorer{"a": 0.8, "b": 0.8, "c": 0.8, "d": 0.7}
	m := NewWithScorer(store, scores, 0.6, logging.NewMockLogger())

	result, err := m.FindMatchingInvoice(context.Background(), income("p", "X", "100.00", day(5)), "u1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "a", result.InvoiceID)
	assert.Equal(t, 0.8, result.Confidence)
}

func TestFindMatchingInvoice_IgnoresPaidAndOtherUsers(t *testing.T) {
	paid := invoice("paid", "ACME", "100.00", day(1))
	paid.Status = models.InvoicePaid
	other := invoice("other", "ACME", "100.00", day(1))
	other.UserID = "u2"
	draft := invoice("draft", "ACME", "100.00", day(1))
	draft.Status = models.InvoiceDraft

	store := &fakeStore{invoices: []models.Invoice{paid, other, draft}}
	m := New(store, DefaultConfig(), logging.NewMockLogger())

	result, err := m.FindMatchingInvoice(context.Background(), income("ACME", "ACME", "100.00", day(1)), "u1")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestReconcile_NoOutstandingCreatesInvoice(t *testing.T) {
	store := &fakeStore{}
	m := New(store, DefaultConfig(), logging.NewMockLogger())
	m.newID = sequentialIDs()

	tx := income("Payment from Initech", "Initech", "750.00", day(12))
	d, err := m.Reconcile(context.Background(), tx, "u1", "EUR", "batch-9")
	require.NoError(t, err)

	assert.Equal(t, ActionCreated, d.Action)
	require.Len(t, store.created, 1)
	inv := store.created[0]
	assert.Equal(t, "id-1", inv.ID)
	assert.Equal(t, "IMP-20240312-ID1", inv.Number)
	assert.Equal(t, "Initech", inv.ClientName)
	assert.Equal(t, models.InvoicePaid, inv.Status)
	assert.Equal(t, "EUR", inv.Currency)
	assert.Equal(t, day(12), inv.IssueDate)
	assert.Equal(t, day(12), inv.DueDate)
	assert.Equal(t, "batch-9", inv.ImportBatchID)
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].Total().Equal(decimal.RequireFromString("750.00")))
	assert.True(t, inv.Total.Equal(inv.Items[0].Total()))

	require.Len(t, store.receipts, 1)
	assert.Equal(t, d.ReceiptID, store.receipts[0].ID)
	assert.Equal(t, "REF-750.00", store.receipts[0].BankTransactionID)
}

func TestReconcile_StoreErrors(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		m := New(&fakeStore{loadErr: errors.New("db locked")}, DefaultConfig(), logging.NewMockLogger())
		_, err := m.Reconcile(context.Background(), income("p", "p", "1.00", day(1)), "u1", "CHF", "b")
		assert.ErrorContains(t, err, "db locked")
	})
	t.Run("write", func(t *testing.T) {
		m := New(&fakeStore{writeErr: errors.New("disk full")}, DefaultConfig(), logging.NewMockLogger())
		_, err := m.Reconcile(context.Background(), income("p", "p", "1.00", day(1)), "u1", "CHF", "b")
		assert.ErrorContains(t, err, "disk full")
	})
}
