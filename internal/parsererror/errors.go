// Package parsererror holds the typed errors shared by parsers, the importer
// and the CLI. Callers inspect them with errors.As / errors.Is.
package parsererror

import (
	"errors"
	"fmt"
)

// ErrNoTransactions marks a statement that parsed cleanly but held nothing to import.
var ErrNoTransactions = errors.New("statement contains no transactions")

// ErrBatchNotFound is returned by stores when a batch id is unknown.
var ErrBatchNotFound = errors.New("import batch not found")

// ErrInvoiceNotFound is returned by stores when an invoice id is unknown.
var ErrInvoiceNotFound = errors.New("invoice not found")

// FileTypeUnsupportedError is raised before any parsing work when the upload
// does not belong to a supported family.
type FileTypeUnsupportedError struct {
	FileName  string
	Extension string
	Reason    string
}

func (e *FileTypeUnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported file type for '%s' (%s): %s", e.FileName, e.Extension, e.Reason)
	}
	return fmt.Sprintf("unsupported file type for '%s' (%s)", e.FileName, e.Extension)
}

// ParseError represents a single field that could not be parsed.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v", e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidFormatError means the content does not conform to the detected format.
type InvalidFormatError struct {
	FilePath             string
	ExpectedFormat       string
	ActualContentSnippet string
	Msg                  string
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s. Content snippet: '%s'",
			e.FilePath, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s", e.FilePath, e.Msg, e.ExpectedFormat)
}

// DataExtractionError means the format was recognized but a required field
// could not be located.
type DataExtractionError struct {
	FilePath       string
	FieldName      string
	RawDataSnippet string
	Reason         string
}

func (e *DataExtractionError) Error() string {
	if e.RawDataSnippet != "" {
		return fmt.Sprintf("data extraction failed in file '%s' for field '%s': %s. Raw data snippet: '%s'",
			e.FilePath, e.FieldName, e.Reason, e.RawDataSnippet)
	}
	return fmt.Sprintf("data extraction failed in file '%s' for field '%s': %s", e.FilePath, e.FieldName, e.Reason)
}

// ParseFailureError moves a batch to failed. It wraps the structural cause.
type ParseFailureError struct {
	FileName string
	Err      error
}

func (e *ParseFailureError) Error() string {
	return fmt.Sprintf("failed to parse statement '%s': %v", e.FileName, e.Err)
}

func (e *ParseFailureError) Unwrap() error {
	return e.Err
}

// BatchFatalError is any failure outside the per-transaction loop.
type BatchFatalError struct {
	BatchID string
	Stage   string
	Err     error
}

func (e *BatchFatalError) Error() string {
	return fmt.Sprintf("import batch %s failed during %s: %v", e.BatchID, e.Stage, e.Err)
}

func (e *BatchFatalError) Unwrap() error {
	return e.Err
}

// UndoReason classifies why an undo request was refused.
type UndoReason string

const (
	UndoWrongState UndoReason = "wrong_state"
	UndoNotFound   UndoReason = "not_found"
	UndoNotOwned   UndoReason = "not_owned"
)

// UndoRejectedError is returned when undo is requested for a batch that cannot
// be undone. No mutation has happened when it is returned.
type UndoRejectedError struct {
	BatchID string
	Reason  UndoReason
	Status  string
}

func (e *UndoRejectedError) Error() string {
	switch e.Reason {
	case UndoNotFound:
		return fmt.Sprintf("cannot undo batch %s: batch not found", e.BatchID)
	case UndoNotOwned:
		return fmt.Sprintf("cannot undo batch %s: batch belongs to another user", e.BatchID)
	default:
		return fmt.Sprintf("cannot undo batch %s: status is %s, only completed batches can be undone", e.BatchID, e.Status)
	}
}

// ValidationError represents invalid user input outside of file parsing,
// e.g. a malformed invoice on the CLI.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
