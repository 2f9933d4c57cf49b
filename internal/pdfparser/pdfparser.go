// Package pdfparser provides functionality to parse PDF bank statements and
// extract transaction data from their text layer.
package pdfparser

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/parser"
	"fjacquet/statement-reconciler/internal/parsererror"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfSignature = []byte("%PDF-")

// documentInfo is what the structural check reports about a PDF.
type documentInfo struct {
	Pages int
	Title string
}

// Parser reads paginated statements.
type Parser struct {
	parser.BaseParser
	extractor PDFExtractor
	inspect   func(data []byte, fileName string) (documentInfo, error)
}

// New creates a PDF parser. A nil extractor uses pdftotext.
func New(extractor PDFExtractor, logger logging.Logger) *Parser {
	if extractor == nil {
		extractor = NewRealPDFExtractor("")
	}
	return &Parser{
		BaseParser: parser.NewBaseParser(logger),
		extractor:  extractor,
		inspect:    inspectPDF,
	}
}

func (p *Parser) Type() parser.FileType {
	return parser.FileTypePDF
}

// CanParse accepts files with a .pdf extension or the %PDF- signature.
func (p *Parser) CanParse(fileName string, head []byte) bool {
	if bytes.HasPrefix(head, pdfSignature) {
		return true
	}
	return parser.Extension(fileName) == "pdf" && len(head) == 0
}

// inspectPDF validates the document structure with pdfcpu.
func inspectPDF(data []byte, fileName string) (documentInfo, error) {
	info, err := api.PDFInfo(bytes.NewReader(data), fileName, nil, model.NewDefaultConfiguration())
	if err != nil {
		return documentInfo{}, err
	}
	return documentInfo{Pages: info.PageCount, Title: info.Title}, nil
}

func (p *Parser) Parse(in parser.Input) (*models.ParseResult, error) {
	logger := p.GetLogger().WithFields(
		logging.F(logging.FieldFile, in.FileName),
		logging.F(logging.FieldParser, string(parser.FileTypePDF)))

	if !bytes.HasPrefix(in.Data, pdfSignature) {
		return nil, &parsererror.InvalidFormatError{
			FilePath:             in.FileName,
			ExpectedFormat:       "PDF",
			ActualContentSnippet: snippet(in.Data),
			Msg:                  "missing %PDF header",
		}
	}

	info, err := p.inspect(in.Data, in.FileName)
	if err != nil {
		return nil, &parsererror.InvalidFormatError{
			FilePath:       in.FileName,
			ExpectedFormat: "PDF",
			Msg:            fmt.Sprintf("file is not a valid PDF: %v", err),
		}
	}
	logger.Debug("Validated PDF", logging.F(logging.FieldPages, info.Pages))

	tempFile, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary PDF file: %w", err)
	}
	defer func() {
		if err := os.Remove(tempFile.Name()); err != nil {
			logger.WithError(err).Warn("Failed to remove temporary file")
		}
	}()
	if _, err := tempFile.Write(in.Data); err != nil {
		_ = tempFile.Close()
		return nil, fmt.Errorf("failed to write temporary PDF file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temporary PDF file: %w", err)
	}

	text, err := p.extractor.ExtractText(tempFile.Name())
	if err != nil {
		return nil, &parsererror.ParseError{
			Parser: "PDF",
			Field:  "text extraction",
			Value:  in.FileName,
			Err:    err,
		}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &parsererror.DataExtractionError{
			FilePath:  in.FileName,
			FieldName: "text",
			Reason:    "document has no text layer (scanned statements are not supported)",
		}
	}

	stmt := ScanText(text)
	for _, w := range stmt.Warnings {
		logger.Warn("Skipping statement line", logging.F(logging.FieldReason, w))
	}

	meta := parser.Statement{
		BankName:      in.BankHint,
		AccountNumber: stmt.Account,
		PeriodStart:   stmt.PeriodStart,
		PeriodEnd:     stmt.PeriodEnd,
	}
	if meta.BankName == "" {
		meta.BankName = info.Title
	}
	return p.Finish(in.FileName, meta, stmt.Transactions)
}

func snippet(data []byte) string {
	if len(data) > 32 {
		data = data[:32]
	}
	return strings.ToValidUTF8(string(data), "?")
}
