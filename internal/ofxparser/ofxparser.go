// Package ofxparser reads OFX and QFX statement downloads (SGML v1 and XML v2)
// for bank and credit card accounts.
package ofxparser

import (
	"bytes"
	"fmt"
	"strings"

	"fjacquet/statement-reconciler/internal/dateutils"
	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/parser"
	"fjacquet/statement-reconciler/internal/parsererror"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

// Parser implements parser.Parser for OFX files.
type Parser struct {
	parser.BaseParser
}

// New creates an OFX parser.
func New(logger logging.Logger) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser(logger)}
}

func (p *Parser) Type() parser.FileType {
	return parser.FileTypeOFX
}

// CanParse looks for the OFX header markers. The .ofx and .qfx extensions
// are enough when no content is available.
func (p *Parser) CanParse(fileName string, head []byte) bool {
	upper := bytes.ToUpper(head)
	if bytes.Contains(upper, []byte("OFXHEADER")) ||
		bytes.Contains(upper, []byte("<?OFX")) ||
		bytes.Contains(upper, []byte("<OFX>")) {
		return true
	}
	ext := parser.Extension(fileName)
	return (ext == "ofx" || ext == "qfx") && len(head) == 0
}

// statement is the part of a bank or credit card response we read.
type statement struct {
	account string
	list    *ofxgo.TransactionList
}

func (p *Parser) Parse(in parser.Input) (*models.ParseResult, error) {
	logger := p.GetLogger().WithFields(
		logging.F(logging.FieldFile, in.FileName),
		logging.F(logging.FieldParser, string(parser.FileTypeOFX)))

	resp, err := ofxgo.ParseResponse(bytes.NewReader(parser.StripBOM(in.Data)))
	if err != nil {
		return nil, &parsererror.InvalidFormatError{
			FilePath:       in.FileName,
			ExpectedFormat: "OFX",
			Msg:            fmt.Sprintf("failed to parse OFX response: %v", err),
		}
	}

	var stmts []statement
	for _, msg := range resp.Bank {
		if s, ok := msg.(*ofxgo.StatementResponse); ok {
			stmts = append(stmts, statement{account: s.BankAcctFrom.AcctID.String(), list: s.BankTranList})
		}
	}
	for _, msg := range resp.CreditCard {
		if s, ok := msg.(*ofxgo.CCStatementResponse); ok {
			stmts = append(stmts, statement{account: s.CCAcctFrom.AcctID.String(), list: s.BankTranList})
		}
	}
	if len(stmts) == 0 {
		return nil, &parsererror.DataExtractionError{
			FilePath:  in.FileName,
			FieldName: "BANKMSGSRSV1/CREDITCARDMSGSRSV1",
			Reason:    "no bank or credit card statement in OFX response",
		}
	}

	meta := parser.Statement{
		BankName:      in.BankHint,
		AccountNumber: stmts[0].account,
	}
	if meta.BankName == "" {
		meta.BankName = resp.Signon.Org.String()
	}
	if list := stmts[0].list; list != nil {
		if !list.DtStart.IsZero() {
			start := dateutils.StartOfDay(list.DtStart.Time)
			meta.PeriodStart = &start
		}
		if !list.DtEnd.IsZero() {
			end := dateutils.StartOfDay(list.DtEnd.Time)
			meta.PeriodEnd = &end
		}
	}

	var txs []models.RawTransaction
	for _, s := range stmts {
		if s.list == nil {
			continue
		}
		for i, txn := range s.list.Transactions {
			tx, err := convert(txn)
			if err != nil {
				logger.WithError(err).Warn("Skipping OFX transaction", logging.F(logging.FieldRow, i))
				continue
			}
			txs = append(txs, tx)
		}
	}
	return p.Finish(in.FileName, meta, txs)
}

// convert maps one STMTTRN. The memo is appended to the payee name when it adds information.
func convert(txn ofxgo.Transaction) (models.RawTransaction, error) {
	date := txn.DtPosted.Time
	if date.IsZero() {
		return models.RawTransaction{}, fmt.Errorf("transaction %s has no date", txn.FiTID.String())
	}

	name := strings.TrimSpace(txn.Name.String())
	memo := strings.TrimSpace(txn.Memo.String())
	description := name
	switch {
	case description == "":
		description = memo
	case memo != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(memo)):
		description = name + " " + memo
	}

	amount, err := decimal.NewFromString(txn.TrnAmt.FloatString(2))
	if err != nil {
		return models.RawTransaction{}, fmt.Errorf("transaction %s: invalid amount: %w", txn.FiTID.String(), err)
	}

	return models.RawTransaction{
		Date:        dateutils.StartOfDay(date),
		Description: description,
		Amount:      amount,
		Reference:   txn.FiTID.String(),
	}, nil
}
