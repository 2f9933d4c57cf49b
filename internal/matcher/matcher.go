// Package matcher reconciles incoming payments with outstanding invoices.
// An income transaction either marks its best matching invoice as paid or,
// below the confidence threshold, becomes a new paid invoice.
package matcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStore is the persistence the matcher needs. Both mutations write the
// invoice change and its receipt atomically.
type InvoiceStore interface {
	OutstandingInvoices(ctx context.Context, userID string) ([]models.Invoice, error)
	MarkInvoicePaid(ctx context.Context, userID string, receipt models.Receipt) error
	CreateInvoice(ctx context.Context, inv models.Invoice, receipt *models.Receipt) error
}

// Action is what the matcher did with an income transaction.
type Action string

const (
	ActionMarkedPaid Action = "marked_paid"
	ActionCreated    Action = "created"
)

// Decision is the outcome of Reconcile.
type Decision struct {
	Action     Action
	InvoiceID  string
	ReceiptID  string
	Confidence float64
}

// Matcher scores invoices and applies the threshold decision.
type Matcher struct {
	store     InvoiceStore
	scorer    Scorer
	threshold float64
	logger    logging.Logger
	newID     func() string
}

// New creates a matcher with a WeightedScorer built from cfg.
func New(store InvoiceStore, cfg Config, logger logging.Logger) *Matcher {
	return NewWithScorer(store, NewWeightedScorer(cfg), cfg.Threshold, logger)
}

// NewWithScorer creates a matcher with a custom scorer.
func NewWithScorer(store InvoiceStore, scorer Scorer, threshold float64, logger logging.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Matcher{
		store:     store,
		scorer:    scorer,
		threshold: threshold,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Threshold returns the inclusive mark-paid threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Decide reports whether a match is strong enough to mark the invoice paid.
func (m *Matcher) Decide(result *models.MatchResult) bool {
	return result != nil && result.Confidence >= m.threshold
}

// FindMatchingInvoice returns the best outstanding invoice for tx, or nil when
// the user has none. The best candidate has the highest confidence; ties go
// to the earlier due date, then to the lower invoice id.
func (m *Matcher) FindMatchingInvoice(ctx context.Context, tx models.CategorizedTransaction, userID string) (*models.MatchResult, error) {
	invoices, err := m.store.OutstandingInvoices(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load outstanding invoices: %w", err)
	}

	type scored struct {
		inv   models.Invoice
		score float64
	}
	candidates := make([]scored, 0, len(invoices))
	for _, inv := range invoices {
		if !inv.Status.Outstanding() {
			continue
		}
		candidates = append(candidates, scored{inv: inv, score: m.scorer.Score(tx, inv)})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.inv.DueDate.Equal(b.inv.DueDate) {
			return a.inv.DueDate.Before(b.inv.DueDate)
		}
		return a.inv.ID < b.inv.ID
	})

	best := candidates[0]
	return &models.MatchResult{InvoiceID: best.inv.ID, Confidence: best.score}, nil
}

func (m *Matcher) receipt(tx models.CategorizedTransaction, userID, invoiceID, batchID string, mode models.ReceiptMode, confidence float64) models.Receipt {
	return models.Receipt{
		ID:                m.newID(),
		UserID:            userID,
		InvoiceID:         invoiceID,
		Mode:              mode,
		Amount:            tx.Amount.Abs(),
		Date:              tx.Date,
		BankTransactionID: tx.Reference,
		ImportBatchID:     batchID,
		Confidence:        confidence,
	}
}

// MarkInvoiceAsPaid marks the invoice paid on the transaction date and
// records a receipt for the batch. It returns the receipt id.
func (m *Matcher) MarkInvoiceAsPaid(ctx context.Context, invoiceID, userID string, tx models.CategorizedTransaction, batchID string, confidence float64) (string, error) {
	r := m.receipt(tx, userID, invoiceID, batchID, models.ReceiptMarkedPaid, confidence)
	if err := m.store.MarkInvoicePaid(ctx, userID, r); err != nil {
		return "", fmt.Errorf("failed to mark invoice %s as paid: %w", invoiceID, err)
	}
	return r.ID, nil
}

// CreateInvoiceFromTransaction records an unmatched payment as a paid
// invoice with a single line item for the full amount, issued and due on the
// transaction date. It returns the invoice id and the receipt id.
func (m *Matcher) CreateInvoiceFromTransaction(ctx context.Context, tx models.CategorizedTransaction, userID, currency, batchID string) (string, string, error) {
	inv := m.invoiceFromTransaction(tx, userID, currency, batchID)
	r := m.receipt(tx, userID, inv.ID, batchID, models.ReceiptCreated, 0)
	if err := m.store.CreateInvoice(ctx, inv, &r); err != nil {
		return "", "", fmt.Errorf("failed to create invoice from transaction: %w", err)
	}
	return inv.ID, r.ID, nil
}

func (m *Matcher) invoiceFromTransaction(tx models.CategorizedTransaction, userID, currency, batchID string) models.Invoice {
	id := m.newID()
	client := tx.VendorName
	if client == "" {
		client = tx.Description
	}
	date := tx.Date
	amount := tx.Amount.Abs()
	return models.Invoice{
		ID:            id,
		UserID:        userID,
		Number:        invoiceNumber(date, id),
		ClientName:    client,
		Status:        models.InvoicePaid,
		IssueDate:     date,
		DueDate:       date,
		Currency:      currency,
		Total:         amount,
		PaidAt:        &date,
		ImportBatchID: batchID,
		Items: []models.LineItem{{
			ID:          m.newID(),
			Description: tx.Description,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   amount,
		}},
	}
}

func invoiceNumber(date time.Time, id string) string {
	short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(short) > 6 {
		short = short[:6]
	}
	return fmt.Sprintf("IMP-%s-%s", date.Format("20060102"), short)
}

// Reconcile applies the full decision for one income transaction.
func (m *Matcher) Reconcile(ctx context.Context, tx models.CategorizedTransaction, userID, currency, batchID string) (Decision, error) {
	match, err := m.FindMatchingInvoice(ctx, tx, userID)
	if err != nil {
		return Decision{}, err
	}

	if m.Decide(match) {
		receiptID, err := m.MarkInvoiceAsPaid(ctx, match.InvoiceID, userID, tx, batchID, match.Confidence)
		if err != nil {
			return Decision{}, err
		}
		m.logger.Debug("Invoice matched",
			logging.F(logging.FieldInvoiceID, match.InvoiceID),
			logging.F(logging.FieldConfidence, match.Confidence))
		return Decision{Action: ActionMarkedPaid, InvoiceID: match.InvoiceID, ReceiptID: receiptID, Confidence: match.Confidence}, nil
	}

	invoiceID, receiptID, err := m.CreateInvoiceFromTransaction(ctx, tx, userID, currency, batchID)
	if err != nil {
		return Decision{}, err
	}
	var confidence float64
	if match != nil {
		confidence = match.Confidence
	}
	m.logger.Debug("No invoice above threshold, created one",
		logging.F(logging.FieldInvoiceID, invoiceID),
		logging.F(logging.FieldConfidence, confidence))
	return Decision{Action: ActionCreated, InvoiceID: invoiceID, ReceiptID: receiptID, Confidence: confidence}, nil
}
