// Package parser provides the base parser functionality and common interfaces.
package parser

import (
	"fmt"
	"time"

	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/parsererror"
)

// BaseParser provides common functionality for all parser implementations.
// Parsers embed it to share the logger and result assembly:
//
//	type MyParser struct {
//		parser.BaseParser
//		// parser-specific fields
//	}
type BaseParser struct {
	logger logging.Logger
}

// NewBaseParser creates a new BaseParser instance with the provided logger.
// If logger is nil, a default logger will be used.
func NewBaseParser(logger logging.Logger) BaseParser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return BaseParser{logger: logger}
}

// SetLogger implements the LoggerConfigurable interface.
func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// GetLogger returns the current logger instance.
func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}

// Statement carries the metadata a parser could read from the file itself.
type Statement struct {
	BankName      string
	AccountNumber string
	PeriodStart   *time.Time
	PeriodEnd     *time.Time
}

// Finish assembles the ParseResult. When the file did not state its period,
// it is derived from the transaction dates.
func (b *BaseParser) Finish(fileName string, meta Statement, txs []models.RawTransaction) (*models.ParseResult, error) {
	result := &models.ParseResult{
		Transactions:  txs,
		BankName:      meta.BankName,
		AccountNumber: meta.AccountNumber,
		PeriodStart:   meta.PeriodStart,
		PeriodEnd:     meta.PeriodEnd,
	}

	if len(txs) == 0 {
		err := fmt.Errorf("%s: %w", fileName, parsererror.ErrNoTransactions)
		result.Error = err.Error()
		b.logger.Warn("Statement contains no transactions",
			logging.F(logging.FieldFile, fileName),
			logging.F(logging.FieldBank, meta.BankName))
		return result, err
	}

	result.Success = true
	result.FillPeriodFromTransactions()
	b.logger.Info("Parsed statement",
		logging.F(logging.FieldFile, fileName),
		logging.F(logging.FieldBank, meta.BankName),
		logging.F(logging.FieldCount, len(txs)))
	return result, nil
}
