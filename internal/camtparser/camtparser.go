// Package camtparser provides functionality to parse ISO 20022 CAMT.053
// bank-to-customer statements.
package camtparser

import (
	"bytes"
	"fmt"
	"strings"

	"fjacquet/statement-reconciler/internal/currencyutils"
	"fjacquet/statement-reconciler/internal/dateutils"
	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/parser"
	"fjacquet/statement-reconciler/internal/parsererror"
	"fjacquet/statement-reconciler/internal/textutils"
	"fjacquet/statement-reconciler/internal/xmlutils"

	"gopkg.in/xmlpath.v2"
)

var (
	camtNamespace = []byte("camt.053")
	statementRoot = []byte("<BkToCstmrStmt")
)

// Parser reads CAMT.053 XML statements.
type Parser struct {
	parser.BaseParser
	paths xmlutils.CAMT053
}

// New creates a CAMT.053 parser.
func New(logger logging.Logger) *Parser {
	return &Parser{
		BaseParser: parser.NewBaseParser(logger),
		paths:      xmlutils.DefaultCamt053XPaths(),
	}
}

func (p *Parser) Type() parser.FileType {
	return parser.FileTypeCAMT
}

// CanParse accepts XML whose head names the camt.053 namespace or the
// BkToCstmrStmt element.
func (p *Parser) CanParse(fileName string, head []byte) bool {
	if bytes.Contains(head, camtNamespace) || bytes.Contains(head, statementRoot) {
		return true
	}
	return parser.Extension(fileName) == "xml" && len(head) == 0
}

func (p *Parser) Parse(in parser.Input) (*models.ParseResult, error) {
	logger := p.GetLogger().WithFields(
		logging.F(logging.FieldFile, in.FileName),
		logging.F(logging.FieldParser, string(parser.FileTypeCAMT)))

	root, err := xmlutils.ParseXML(parser.StripBOM(in.Data))
	if err != nil {
		return nil, &parsererror.InvalidFormatError{
			FilePath:       in.FileName,
			ExpectedFormat: "CAMT.053 XML",
			Msg:            err.Error(),
		}
	}

	stmtPaths := p.paths.Statement
	if len(xmlutils.Nodes(root, stmtPaths.Stmt)) == 0 {
		return nil, &parsererror.InvalidFormatError{
			FilePath:       in.FileName,
			ExpectedFormat: "CAMT.053 XML",
			Msg:            "document has no BkToCstmrStmt/Stmt element",
		}
	}

	meta := parser.Statement{
		BankName:      in.BankHint,
		AccountNumber: strings.ReplaceAll(xmlutils.First(root, stmtPaths.IBAN), " ", ""),
	}
	if meta.AccountNumber == "" {
		meta.AccountNumber = xmlutils.First(root, stmtPaths.OtherAcctID)
	}
	if meta.BankName == "" {
		meta.BankName = xmlutils.First(root, stmtPaths.Servicer)
	}
	if from, err := dateutils.ParseDate(xmlutils.First(root, stmtPaths.FromDate)); err == nil {
		meta.PeriodStart = &from
	}
	if to, err := dateutils.ParseDate(xmlutils.First(root, stmtPaths.ToDate)); err == nil {
		meta.PeriodEnd = &to
	}

	var txs []models.RawTransaction
	for i, entry := range xmlutils.Nodes(root, stmtPaths.Entries) {
		tx, skip, err := p.entryToTransaction(entry)
		if err != nil {
			logger.WithError(err).Warn("Skipping invalid entry", logging.F(logging.FieldRow, i+1))
			continue
		}
		if skip {
			logger.Debug("Skipping pending entry", logging.F(logging.FieldRow, i+1))
			continue
		}
		txs = append(txs, tx)
	}
	return p.Finish(in.FileName, meta, txs)
}

// entryToTransaction converts one Ntry. Pending entries are reported with
// skip=true; they are not booked yet and would be imported twice.
func (p *Parser) entryToTransaction(entry *xmlpath.Node) (models.RawTransaction, bool, error) {
	e := p.paths.Entry
	if strings.EqualFold(xmlutils.First(entry, e.Status), "PDNG") {
		return models.RawTransaction{}, true, nil
	}

	amount, err := currencyutils.ParseAmount(xmlutils.First(entry, e.Amount))
	if err != nil {
		return models.RawTransaction{}, false, err
	}
	indicator := strings.ToUpper(xmlutils.First(entry, e.CreditDebitInd))
	switch indicator {
	case "DBIT":
		amount = amount.Abs().Neg()
	case "CRDT":
		amount = amount.Abs()
	default:
		return models.RawTransaction{}, false, fmt.Errorf("unknown CdtDbtInd %q", indicator)
	}

	rawDate := xmlutils.First(entry, e.BookingDate)
	if rawDate == "" {
		rawDate = xmlutils.First(entry, e.BookingDateTime)
	}
	if rawDate == "" {
		rawDate = xmlutils.First(entry, e.ValueDate)
	}
	date, err := dateutils.ParseDate(rawDate)
	if err != nil {
		return models.RawTransaction{}, false, err
	}

	reference := xmlutils.First(entry, p.paths.References.TransactionID)
	if reference == "" || strings.EqualFold(reference, "NOTPROVIDED") {
		reference = xmlutils.First(entry, e.AccountSvcRef)
	}

	return models.RawTransaction{
		Date:        date,
		Description: p.describe(entry, indicator),
		Amount:      amount,
		Reference:   reference,
	}, false, nil
}

// describe builds the description from the counterparty and the remittance
// text, falling back to the entry's additional information.
func (p *Parser) describe(entry *xmlpath.Node, indicator string) string {
	remittance := strings.Join(xmlutils.All(entry, p.paths.Remittance.UnstructuredInfo), " ")

	party := textutils.ExtractPayee(remittance)
	if party == "" {
		// the counterparty of an outflow is the creditor
		if indicator == "DBIT" {
			party = xmlutils.First(entry, p.paths.Party.CreditorName)
		} else {
			party = xmlutils.First(entry, p.paths.Party.DebtorName)
		}
	}

	var parts []string
	if party != "" {
		parts = append(parts, party)
	}
	if remittance != "" && (party == "" || !strings.Contains(strings.ToLower(remittance), strings.ToLower(party))) {
		parts = append(parts, remittance)
	}
	if len(parts) == 0 {
		if info := xmlutils.First(entry, p.paths.Remittance.AdditionalTxInfo); info != "" {
			parts = append(parts, info)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, xmlutils.First(entry, p.paths.Entry.AddEntryInfo))
	}
	return strings.Join(parts, " ")
}
