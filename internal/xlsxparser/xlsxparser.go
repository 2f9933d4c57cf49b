// Package xlsxparser parses spreadsheet bank exports with excelize.
package xlsxparser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/parser"
	"fjacquet/statement-reconciler/internal/parsererror"

	"github.com/xuri/excelize/v2"
)

// xlsx files are zip archives
var zipSignature = []byte("PK\x03\x04")

// Parser reads the first non-empty worksheet of an .xlsx workbook.
type Parser struct {
	*parser.TabularDecoder
}

// New creates a spreadsheet parser.
func New(banks *models.BankCatalog, logger logging.Logger) *Parser {
	d := parser.NewTabularDecoder(parser.FileTypeXLSX, banks, logger)
	d.DateFallback = SerialDate
	return &Parser{TabularDecoder: d}
}

func (p *Parser) Type() parser.FileType {
	return parser.FileTypeXLSX
}

// CanParse accepts .xlsx/.xlsm files that carry the zip signature.
func (p *Parser) CanParse(fileName string, head []byte) bool {
	switch parser.Extension(fileName) {
	case "xlsx", "xlsm":
		return len(head) == 0 || bytes.HasPrefix(head, zipSignature)
	}
	return false
}

func (p *Parser) Parse(in parser.Input) (*models.ParseResult, error) {
	book, err := excelize.OpenReader(bytes.NewReader(in.Data))
	if err != nil {
		return nil, &parsererror.InvalidFormatError{
			FilePath:       in.FileName,
			ExpectedFormat: "xlsx workbook",
			Msg:            fmt.Sprintf("failed to open workbook: %v", err),
		}
	}
	defer func() {
		if err := book.Close(); err != nil {
			p.GetLogger().WithError(err).Warn("Failed to close workbook", logging.F(logging.FieldFile, in.FileName))
		}
	}()

	for _, sheet := range book.GetSheetList() {
		// raw values keep amounts unformatted and dates as serial numbers
		rows, err := book.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, &parsererror.DataExtractionError{
				FilePath:  in.FileName,
				FieldName: "sheet " + sheet,
				Reason:    err.Error(),
			}
		}
		if len(rows) == 0 {
			continue
		}
		p.GetLogger().Debug("Reading worksheet",
			logging.F(logging.FieldFile, in.FileName),
			logging.F("sheet", sheet),
			logging.F(logging.FieldCount, len(rows)))
		return p.Decode(in.FileName, rows, in.BankHint)
	}

	return nil, &parsererror.InvalidFormatError{
		FilePath:       in.FileName,
		ExpectedFormat: "xlsx workbook",
		Msg:            "workbook has no rows",
	}
}

// SerialDate converts a spreadsheet serial day number (1900 date system) to a date.
func SerialDate(value string) (time.Time, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f < 1 || f > 2958465 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
