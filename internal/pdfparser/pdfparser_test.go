package pdfparser

import (
	"errors"
	"testing"
	"time"

	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/parser"
	"fjacquet/statement-reconciler/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStatement = `
                     Example Bank AG
  Account statement
  IBAN: CH93 0076 2011 6238 5295 7
  Statement period: 01.03.2024 - 31.03.2024

  Date        Value       Text                                  Debit        Credit       Balance
  01.03.2024              Opening balance                                                 1'000.00
  05.03.2024  05.03.2024  Card purchase at Migros Zurich        45.60                     954.40
                          Card no. XXXX 1234
  06.03.2024  06.03.2024  Salary ACME SA                                     5'000.00     5'954.40
  07.03.2024              Transfer to savings                   200.00-
  08.03.2024              Standing order
                          Landlord Ltd                          1'500.00
  09.03.2024              Fee without amount
                                                               Page 1 of 1
  31.03.2024              Closing balance                                                 4'254.40
`

var pdfBytes = []byte("%PDF-1.7\n%mock\n")

func newTestParser(text string, extractErr error) (*Parser, *MockPDFExtractor) {
	extractor := NewMockPDFExtractor(text, extractErr)
	p := New(extractor, logging.NewMockLogger())
	p.inspect = func(data []byte, fileName string) (documentInfo, error) {
		return documentInfo{Pages: 1}, nil
	}
	return p, extractor
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestScanText(t *testing.T) {
	stmt := ScanText(sampleStatement)

	assert.Equal(t, "CH9300762011623852957", stmt.Account)
	require.NotNil(t, stmt.PeriodStart)
	assert.Equal(t, day(1), *stmt.PeriodStart)
	assert.Equal(t, day(31), *stmt.PeriodEnd)

	require.Len(t, stmt.Transactions, 4)

	tests := []struct {
		date        time.Time
		description string
		amount      string
	}{
		{day(5), "Card purchase at Migros Zurich Card no. XXXX 1234", "-45.60"},
		{day(6), "Salary ACME SA", "5000.00"},
		{day(7), "Transfer to savings", "-200.00"},
		{day(8), "Standing order Landlord Ltd", "-1500.00"},
	}
	for i, tt := range tests {
		tx := stmt.Transactions[i]
		assert.Equal(t, tt.date, tx.Date, tt.description)
		assert.Equal(t, tt.description, tx.Description)
		assert.Equal(t, tt.amount, tx.Amount.StringFixed(2), tt.description)
	}

	require.Len(t, stmt.Warnings, 1)
	assert.Contains(t, stmt.Warnings[0], "Fee without amount")
}

func TestParseAmountCell(t *testing.T) {
	tests := []struct {
		in    string
		ok    bool
		value string
		sign  int
	}{
		{"45.60", true, "45.6", 0},
		{"1'500.00", true, "1500", 0},
		{"200.00-", true, "200", -1},
		{"-12,50", true, "12.5", -1},
		{"(9.99)", true, "9.99", -1},
		{"75.00 CR", true, "75", 1},
		{"CHF 10.00 DR", true, "10", -1},
		{"05.03.24", false, "", 0},
		{"Migros", false, "", 0},
		{"12345", false, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cell, ok := parseAmountCell(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.value, cell.value.String())
				assert.Equal(t, tt.sign, cell.sign)
			}
		})
	}
}

func TestCanParse(t *testing.T) {
	p, _ := newTestParser("", nil)
	assert.True(t, p.CanParse("statement.pdf", pdfBytes))
	assert.True(t, p.CanParse("download", pdfBytes))
	assert.True(t, p.CanParse("statement.PDF", nil))
	assert.False(t, p.CanParse("statement.pdf", []byte("Date,Amount")))
	assert.False(t, p.CanParse("statement.csv", []byte("Date,Amount")))
}

func TestParse_WithMockExtractor(t *testing.T) {
	p, extractor := newTestParser(sampleStatement, nil)
	result, err := p.Parse(parser.Input{FileName: "march.pdf", Data: pdfBytes, BankHint: "Example Bank"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, extractor.Calls)
	assert.Equal(t, "Example Bank", result.BankName)
	assert.Equal(t, "CH9300762011623852957", result.AccountNumber)
	assert.Len(t, result.Transactions, 4)
	assert.Equal(t, day(1), *result.PeriodStart)
}

func TestParse_Errors(t *testing.T) {
	t.Run("not a pdf", func(t *testing.T) {
		p, _ := newTestParser("", nil)
		_, err := p.Parse(parser.Input{FileName: "x.pdf", Data: []byte("hello")})
		var formatErr *parsererror.InvalidFormatError
		assert.True(t, errors.As(err, &formatErr))
	})

	t.Run("structurally invalid", func(t *testing.T) {
		p := New(NewMockPDFExtractor("", nil), logging.NewMockLogger())
		_, err := p.Parse(parser.Input{FileName: "x.pdf", Data: pdfBytes})
		var formatErr *parsererror.InvalidFormatError
		require.True(t, errors.As(err, &formatErr))
		assert.Contains(t, formatErr.Msg, "not a valid PDF")
	})

	t.Run("extractor failure", func(t *testing.T) {
		p, _ := newTestParser("", errors.New("pdftotext missing"))
		_, err := p.Parse(parser.Input{FileName: "x.pdf", Data: pdfBytes})
		var parseErr *parsererror.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, "text extraction", parseErr.Field)
	})

	t.Run("no text layer", func(t *testing.T) {
		p, _ := newTestParser("  \n\f", nil)
		_, err := p.Parse(parser.Input{FileName: "scan.pdf", Data: pdfBytes})
		var extractErr *parsererror.DataExtractionError
		assert.True(t, errors.As(err, &extractErr))
	})

	t.Run("no transactions", func(t *testing.T) {
		p, _ := newTestParser("Account statement\nNo movements this period\n", nil)
		result, err := p.Parse(parser.Input{FileName: "empty.pdf", Data: pdfBytes})
		assert.ErrorIs(t, err, parsererror.ErrNoTransactions)
		require.NotNil(t, result)
		assert.False(t, result.Success)
	})
}
