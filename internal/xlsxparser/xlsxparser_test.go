package xlsxparser

import (
	"errors"
	"testing"
	"time"

	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/parser"
	"fjacquet/statement-reconciler/internal/parsererror"
	"fjacquet/statement-reconciler/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	banks, err := store.NewRuleStore("", "", logging.NewMockLogger()).LoadBanks()
	require.NoError(t, err)
	return New(banks, logging.NewMockLogger())
}

func workbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestCanParse(t *testing.T) {
	p := newTestParser(t)
	assert.True(t, p.CanParse("statement.xlsx", []byte("PK\x03\x04rest")))
	assert.True(t, p.CanParse("statement.XLSM", nil))
	assert.False(t, p.CanParse("statement.xlsx", []byte("Date,Amount")))
	assert.False(t, p.CanParse("statement.csv", []byte("PK\x03\x04")))
}

func TestParse_TypedCells(t *testing.T) {
	data := workbook(t, [][]interface{}{
		{"Account:", "CH93 0076 2011 6238 5295 7"},
		{},
		{"Date", "Description", "Debit", "Credit"},
		{time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), "Office supplies", 120.5, nil},
		{"06.03.2024", "Client payment", nil, 1500},
	})

	result, err := newTestParser(t).Parse(parser.Input{FileName: "statement.xlsx", Data: data})
	require.NoError(t, err)

	require.Len(t, result.Transactions, 2)
	assert.Equal(t, "Generic Split", result.BankName)
	assert.Equal(t, "CH9300762011623852957", result.AccountNumber)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), result.Transactions[0].Date)
	assert.Equal(t, "-120.50", result.Transactions[0].Amount.StringFixed(2))
	assert.Equal(t, time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC), result.Transactions[1].Date)
	assert.Equal(t, "1500.00", result.Transactions[1].Amount.StringFixed(2))
}

func TestParse_NotAWorkbook(t *testing.T) {
	_, err := newTestParser(t).Parse(parser.Input{FileName: "broken.xlsx", Data: []byte("not a zip")})
	var formatErr *parsererror.InvalidFormatError
	assert.True(t, errors.As(err, &formatErr))
}

func TestParse_EmptyWorkbook(t *testing.T) {
	data := workbook(t, nil)
	_, err := newTestParser(t).Parse(parser.Input{FileName: "empty.xlsx", Data: data})
	var formatErr *parsererror.InvalidFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Contains(t, formatErr.Msg, "no rows")
}

func TestSerialDate(t *testing.T) {
	d, ok := SerialDate("45356")
	require.True(t, ok)
	assert.Equal(t, "2024-03-05", d.Format("2006-01-02"))

	_, ok = SerialDate("05.03.2024")
	assert.False(t, ok)
	_, ok = SerialDate("0")
	assert.False(t, ok)
}
