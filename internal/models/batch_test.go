package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to BatchStatus
		allowed  bool
	}{
		{BatchProcessing, BatchCompleted, true},
		{BatchProcessing, BatchFailed, true},
		{BatchCompleted, BatchUndone, true},
		{BatchProcessing, BatchUndone, false},
		{BatchFailed, BatchUndone, false},
		{BatchFailed, BatchCompleted, false},
		{BatchUndone, BatchUndone, false},
		{BatchUndone, BatchProcessing, false},
		{BatchCompleted, BatchFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestImportBatch_Lifecycle(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	b := NewImportBatch("b1", "u1", "march.csv", "csv", 120, now)
	assert.Equal(t, BatchProcessing, b.Status)

	err := b.Complete(Summary{TotalTransactions: 3, ImportedExpenses: 1, ImportedIncome: 1, SkippedTransactions: 1}, now)
	require.NoError(t, err)
	assert.Equal(t, BatchCompleted, b.Status)
	assert.True(t, b.Balanced())
	require.NotNil(t, b.CompletedAt)

	require.NoError(t, b.Undo())
	assert.Equal(t, BatchUndone, b.Status)

	err = b.Undo()
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, BatchUndone, te.From)
}

func TestImportBatch_FailedCannotBeUndone(t *testing.T) {
	now := time.Now()
	b := NewImportBatch("b2", "u1", "x.pdf", "pdf", 10, now)
	require.NoError(t, b.Fail("no transactions", now))
	assert.Equal(t, "no transactions", b.ErrorMessage)

	assert.Error(t, b.Undo())
	assert.Error(t, b.Complete(Summary{}, now))
	assert.Equal(t, BatchFailed, b.Status)
}

func TestImportBatch_ApplyStatement(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewImportBatch("b3", "u1", "s.ofx", "ofx", 1, start)
	b.ApplyStatement(&ParseResult{BankName: "TESTBANK", AccountNumber: "987", PeriodStart: &start})

	assert.Equal(t, "TESTBANK", b.BankName)
	assert.Equal(t, "987", b.AccountNumber)
	assert.Equal(t, &start, b.PeriodStart)
	assert.Nil(t, b.PeriodEnd)

	b.ApplyStatement(nil)
	assert.Equal(t, "TESTBANK", b.BankName)
}
