// Package factory detects the statement family of an upload and hands it to
// the matching parser.
package factory

import (
	"fmt"

	"fjacquet/statement-reconciler/internal/camtparser"
	"fjacquet/statement-reconciler/internal/csvparser"
	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/ofxparser"
	"fjacquet/statement-reconciler/internal/parser"
	"fjacquet/statement-reconciler/internal/parsererror"
	"fjacquet/statement-reconciler/internal/pdfparser"
	"fjacquet/statement-reconciler/internal/xlsxparser"
)

// Options tunes the default parsers.
type Options struct {
	// CSVDelimiter forces a delimiter; empty means auto-detect.
	CSVDelimiter string
	// PDFExtractor replaces pdftotext, mainly in tests.
	PDFExtractor pdfparser.PDFExtractor
	// PDFCommand is the pdftotext binary used when PDFExtractor is nil.
	PDFCommand string
}

// Registry holds the parsers in detection order.
type Registry struct {
	parsers []parser.Parser
	logger  logging.Logger
}

// NewRegistry creates a registry over the given parsers. Detection tries them
// in order, so parsers with a strong content signature should come first.
func NewRegistry(logger logging.Logger, parsers ...parser.Parser) *Registry {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Registry{parsers: parsers, logger: logger}
}

// NewDefaultRegistry wires every supported family.
func NewDefaultRegistry(banks *models.BankCatalog, opts Options, logger logging.Logger) *Registry {
	extractor := opts.PDFExtractor
	if extractor == nil {
		extractor = pdfparser.NewRealPDFExtractor(opts.PDFCommand)
	}
	return NewRegistry(logger,
		pdfparser.New(extractor, logger),
		ofxparser.New(logger),
		camtparser.New(logger),
		xlsxparser.New(banks, logger),
		csvparser.New(banks, opts.CSVDelimiter, logger),
	)
}

// GetParser returns the parser registered for a family.
func (r *Registry) GetParser(fileType parser.FileType) (parser.Parser, error) {
	for _, p := range r.parsers {
		if p.Type() == fileType {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown parser type: %s", fileType)
}

// Types lists the registered families in detection order.
func (r *Registry) Types() []parser.FileType {
	types := make([]parser.FileType, 0, len(r.parsers))
	for _, p := range r.parsers {
		types = append(types, p.Type())
	}
	return types
}

// Detect picks the parser for an upload from its name and leading bytes. It
// does no parsing work and fails with FileTypeUnsupportedError when no family
// claims the file.
func (r *Registry) Detect(fileName string, data []byte) (parser.Parser, error) {
	if len(data) == 0 {
		return nil, &parsererror.FileTypeUnsupportedError{
			FileName:  fileName,
			Extension: parser.Extension(fileName),
			Reason:    "file is empty",
		}
	}

	head := parser.Head(data)
	for _, p := range r.parsers {
		if p.CanParse(fileName, head) {
			r.logger.Debug("Detected statement type",
				logging.F(logging.FieldFile, fileName),
				logging.F(logging.FieldParser, string(p.Type())))
			return p, nil
		}
	}
	return nil, &parsererror.FileTypeUnsupportedError{
		FileName:  fileName,
		Extension: parser.Extension(fileName),
		Reason:    "content does not match any supported statement format",
	}
}

// Parse detects and parses in one step.
func (r *Registry) Parse(in parser.Input) (*models.ParseResult, parser.FileType, error) {
	p, err := r.Detect(in.FileName, in.Data)
	if err != nil {
		return nil, "", err
	}
	result, err := p.Parse(in)
	return result, p.Type(), err
}

// SetLogger propagates a logger to the registry and every parser that accepts one.
func (r *Registry) SetLogger(logger logging.Logger) {
	if logger == nil {
		return
	}
	r.logger = logger
	for _, p := range r.parsers {
		if lc, ok := p.(parser.LoggerConfigurable); ok {
			lc.SetLogger(logger)
		}
	}
}
