package parser

import (
	"fmt"
	"io"
	"strings"
	"time"

	"fjacquet/statement-reconciler/internal/currencyutils"
	"fjacquet/statement-reconciler/internal/dateutils"
	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/parsererror"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// maxHeaderScan bounds how far down a sheet the header row may start; bank
// exports often put account details above the table.
const maxHeaderScan = 25

// statementRow is one data row after its columns were renamed to canonical names.
type statementRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Debit       string `csv:"debit"`
	Credit      string `csv:"credit"`
	Indicator   string `csv:"indicator"`
	Reference   string `csv:"reference"`
	Account     string `csv:"account"`
}

// tableReader feeds an in-memory table to gocsv.
type tableReader struct {
	rows [][]string
	pos  int
}

func (r *tableReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *tableReader) ReadAll() ([][]string, error) {
	rest := r.rows[r.pos:]
	r.pos = len(r.rows)
	return rest, nil
}

// TabularDecoder turns rows from any tabular family (delimited text,
// spreadsheets) into raw transactions using the bank profile catalog.
type TabularDecoder struct {
	BaseParser
	Banks  *models.BankCatalog
	Family FileType
	// DateFallback, when set, is tried for date cells no layout matched.
	// Spreadsheets use it for serial day numbers.
	DateFallback func(string) (time.Time, bool)
}

// NewTabularDecoder creates a decoder for the given family.
func NewTabularDecoder(family FileType, banks *models.BankCatalog, logger logging.Logger) *TabularDecoder {
	return &TabularDecoder{
		BaseParser: NewBaseParser(logger),
		Banks:      banks,
		Family:     family,
	}
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// findHeader returns the index of the first row that resolves to a bank profile.
// A hint that names no profile, or one whose columns fit no row, is dropped in
// favour of auto-detection; hinted reports whether the hint was honoured.
func (d *TabularDecoder) findHeader(fileName string, rows [][]string, hint string) (int, *models.BankProfile, ColumnIndex, bool, error) {
	at, profile, idx, err := d.scanHeader(rows, hint)
	if err == nil || hint == "" {
		return at, profile, idx, hint != "", err
	}

	d.GetLogger().Warn("Bank hint does not fit the file, detecting the profile from the header",
		logging.F(logging.FieldFile, fileName),
		logging.F(logging.FieldBank, hint),
		logging.F(logging.FieldReason, err.Error()))
	at, profile, idx, err = d.scanHeader(rows, "")
	return at, profile, idx, false, err
}

func (d *TabularDecoder) scanHeader(rows [][]string, hint string) (int, *models.BankProfile, ColumnIndex, error) {
	var lastErr error
	limit := len(rows)
	if limit > maxHeaderScan {
		limit = maxHeaderScan
	}
	for i := 0; i < limit; i++ {
		if blank(rows[i]) {
			continue
		}
		profile, idx, err := ResolveProfile(d.Banks, hint, rows[i])
		if err == nil {
			return i, profile, idx, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("file has no header row")
	}
	return -1, nil, nil, lastErr
}

// Decode converts a table whose header row is somewhere in the first rows.
func (d *TabularDecoder) Decode(fileName string, rows [][]string, hint string) (*models.ParseResult, error) {
	headerAt, profile, idx, hinted, err := d.findHeader(fileName, rows, hint)
	if err != nil {
		snippet := ""
		if len(rows) > 0 {
			snippet = strings.Join(rows[0], ",")
		}
		return nil, &parsererror.InvalidFormatError{
			FilePath:             fileName,
			ExpectedFormat:       string(d.Family) + " statement with a recognizable header row",
			ActualContentSnippet: truncate(snippet, 120),
			Msg:                  err.Error(),
		}
	}

	logger := d.GetLogger().WithFields(
		logging.F(logging.FieldFile, fileName),
		logging.F(logging.FieldBank, profile.Name),
		logging.F(logging.FieldParser, string(d.Family)))
	logger.Debug("Resolved bank profile", logging.F(logging.FieldRow, headerAt+1))

	columns := make([]string, 0, len(idx))
	positions := make([]int, 0, len(idx))
	for _, c := range candidates(profile.Columns) {
		if pos, ok := idx[c.column]; ok {
			columns = append(columns, c.column)
			positions = append(positions, pos)
		}
	}

	table := [][]string{columns}
	lineNumbers := []int{}
	for i := headerAt + 1; i < len(rows); i++ {
		if blank(rows[i]) {
			continue
		}
		record := make([]string, len(positions))
		for j, pos := range positions {
			if pos < len(rows[i]) {
				record[j] = strings.TrimSpace(rows[i][pos])
			}
		}
		table = append(table, record)
		lineNumbers = append(lineNumbers, i+1)
	}

	var decoded []statementRow
	if err := gocsv.UnmarshalCSV(&tableReader{rows: table}, &decoded); err != nil {
		return nil, &parsererror.InvalidFormatError{
			FilePath:       fileName,
			ExpectedFormat: string(d.Family),
			Msg:            fmt.Sprintf("failed to decode rows: %v", err),
		}
	}

	var (
		txs     []models.RawTransaction
		account string
		invalid int
		lastErr error
	)
	for i, row := range decoded {
		if row.Date == "" {
			// balance and footer lines carry no booking date
			logger.Debug("Skipping row without date", logging.F(logging.FieldRow, lineNumbers[i]))
			continue
		}
		tx, err := d.rowToTransaction(profile, row)
		if err != nil {
			invalid++
			lastErr = err
			logger.WithError(err).Warn("Skipping invalid row", logging.F(logging.FieldRow, lineNumbers[i]))
			continue
		}
		if account == "" {
			account = row.Account
		}
		txs = append(txs, tx)
	}
	if account == "" {
		account = preambleAccount(rows[:headerAt])
	}

	if len(txs) == 0 && invalid > 0 {
		return nil, &parsererror.DataExtractionError{
			FilePath:  fileName,
			FieldName: "transactions",
			Reason:    fmt.Sprintf("all %d rows were invalid, last error: %v", invalid, lastErr),
		}
	}

	bankName := profile.Name
	if hint != "" && !hinted && len(profile.RequireHeaders) == 0 {
		// a generic layout says nothing about the bank; the user's hint does
		bankName = hint
	}
	return d.Finish(fileName, Statement{BankName: bankName, AccountNumber: account}, txs)
}

func (d *TabularDecoder) rowToTransaction(p *models.BankProfile, row statementRow) (models.RawTransaction, error) {
	family := string(d.Family)
	date, err := dateutils.ParseDate(row.Date, p.DateLayouts...)
	if err != nil {
		fallback, ok := time.Time{}, false
		if d.DateFallback != nil {
			fallback, ok = d.DateFallback(row.Date)
		}
		if !ok {
			return models.RawTransaction{}, &parsererror.ParseError{Parser: family, Field: ColDate, Value: row.Date, Err: err}
		}
		date = dateutils.StartOfDay(fallback)
	}

	amount, err := SignedAmount(p, row.Amount, row.Debit, row.Credit, row.Indicator)
	if err != nil {
		return models.RawTransaction{}, &parsererror.ParseError{Parser: family, Field: ColAmount, Value: row.Amount + row.Debit + row.Credit, Err: err}
	}

	return models.RawTransaction{
		Date:        date,
		Description: strings.Join(strings.Fields(row.Description), " "),
		Amount:      amount,
		Reference:   row.Reference,
	}, nil
}

func parseAmount(p *models.BankProfile, s string) (decimal.Decimal, error) {
	if p.DecimalComma {
		return currencyutils.ParseAmountDecimalComma(s)
	}
	return currencyutils.ParseAmount(s)
}

func hasMarker(markers []string, value string) bool {
	for _, m := range markers {
		if strings.EqualFold(strings.TrimSpace(m), value) {
			return true
		}
	}
	return false
}

// SignedAmount applies the profile's sign convention so that the result is
// negative for outflows.
func SignedAmount(p *models.BankProfile, amount, debit, credit, indicator string) (decimal.Decimal, error) {
	switch p.Sign {
	case models.SignInverted:
		v, err := parseAmount(p, amount)
		if err != nil {
			return decimal.Zero, err
		}
		return v.Neg(), nil

	case models.SignIndicator:
		v, err := parseAmount(p, amount)
		if err != nil {
			return decimal.Zero, err
		}
		flag := strings.TrimSpace(indicator)
		switch {
		case hasMarker(p.DebitMarkers, flag):
			return v.Abs().Neg(), nil
		case hasMarker(p.CreditMarkers, flag):
			return v.Abs(), nil
		}
		return decimal.Zero, fmt.Errorf("unknown debit/credit indicator %q", indicator)

	case models.SignSplit:
		if strings.TrimSpace(debit) == "" && strings.TrimSpace(credit) == "" {
			return decimal.Zero, fmt.Errorf("neither debit nor credit is set")
		}
		total := decimal.Zero
		if strings.TrimSpace(debit) != "" {
			v, err := parseAmount(p, debit)
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Sub(v.Abs())
		}
		if strings.TrimSpace(credit) != "" {
			v, err := parseAmount(p, credit)
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Add(v.Abs())
		}
		return total, nil

	default:
		return parseAmount(p, amount)
	}
}

var accountLabels = map[string]bool{
	"iban": true, "account": true, "account number": true, "account no": true,
	"a/c no": true, "konto": true, "kontonummer": true, "compte": true,
}

// preambleAccount looks for "IBAN: CH93..." style label/value pairs above the
// header row.
func preambleAccount(rows [][]string) string {
	for _, row := range rows {
		for j, cell := range row {
			label := strings.TrimSuffix(NormalizeHeader(cell), ":")
			if !accountLabels[strings.TrimSpace(label)] {
				continue
			}
			for _, value := range row[j+1:] {
				if v := strings.TrimSpace(value); v != "" {
					return strings.ReplaceAll(v, " ", "")
				}
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
