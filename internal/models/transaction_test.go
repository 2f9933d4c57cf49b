package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionType_Valid(t *testing.T) {
	assert.True(t, TypeExpense.Valid())
	assert.True(t, TypeUnknown.Valid())
	assert.False(t, TransactionType("refund").Valid())
}

func TestCategorizedTransaction_Outcome(t *testing.T) {
	ct := CategorizedTransaction{
		RawTransaction: RawTransaction{Amount: decimal.RequireFromString("-12.50")},
		Type:           TypeExpense,
	}
	assert.False(t, ct.HasOutcome())
	assert.Equal(t, "", ct.CategoryName())
	assert.Equal(t, "12.5", ct.AbsAmount().String())

	ct.MatchedInvoiceID = "inv-1"
	ct.MarkImported("rec-1")
	assert.True(t, ct.Imported)
	assert.Equal(t, "rec-1", ct.ImportedRecordID)
	assert.Equal(t, "inv-1", ct.MatchedInvoiceID)

	ct.MarkSkipped("Skipped: Duplicate transaction")
	assert.False(t, ct.Imported)
	assert.Empty(t, ct.ImportedRecordID)
	assert.True(t, ct.HasOutcome())
}

func TestParseResult_FillPeriodFromTransactions(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 2, day, 0, 0, 0, 0, time.UTC) }
	declared := d(1)
	r := &ParseResult{
		PeriodStart: &declared,
		Transactions: []RawTransaction{
			{Date: d(10)}, {Date: d(3)}, {Date: d(21)},
		},
	}
	r.FillPeriodFromTransactions()

	assert.Equal(t, d(1), *r.PeriodStart)
	assert.Equal(t, d(21), *r.PeriodEnd)

	empty := &ParseResult{}
	empty.FillPeriodFromTransactions()
	assert.Nil(t, empty.PeriodStart)
}

func TestInvoiceStatus_Outstanding(t *testing.T) {
	assert.True(t, InvoiceSent.Outstanding())
	assert.True(t, InvoiceUnpaid.Outstanding())
	assert.True(t, InvoiceOverdue.Outstanding())
	assert.False(t, InvoicePaid.Outstanding())
	assert.False(t, InvoiceDraft.Outstanding())
}

func TestLineItem_Total(t *testing.T) {
	li := LineItem{Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("19.90")}
	assert.True(t, li.Total().Equal(decimal.RequireFromString("59.70")))
}
