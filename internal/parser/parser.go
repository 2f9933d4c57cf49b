package parser

import (
	"bytes"
	"path/filepath"
	"strings"

	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"
)

// FileType identifies a statement format family.
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
	FileTypePDF  FileType = "pdf"
	FileTypeOFX  FileType = "ofx"
	FileTypeCAMT FileType = "camt053"
)

// Input is one uploaded statement. BankHint optionally names a bank profile.
type Input struct {
	FileName string
	Data     []byte
	BankHint string
}

// Parser is implemented by every statement format family.
type Parser interface {
	// Type returns the family this parser handles.
	Type() FileType
	// CanParse reports whether a file looks like this family, judged from the
	// file name and the first bytes of content only.
	CanParse(fileName string, head []byte) bool
	// Parse converts the whole file into raw transactions. A structurally
	// valid file without transactions returns a result with Success=false
	// together with an error wrapping parsererror.ErrNoTransactions.
	Parse(in Input) (*models.ParseResult, error)
}

// LoggerConfigurable is implemented by parsers that accept a logger after construction.
type LoggerConfigurable interface {
	SetLogger(logger logging.Logger)
}

// HeadSize is how many leading bytes detection looks at.
const HeadSize = 4096

// Head returns the leading bytes of data used for signature checks.
func Head(data []byte) []byte {
	if len(data) > HeadSize {
		return data[:HeadSize]
	}
	return data
}

// Extension returns the lowercased extension of fileName without the dot.
func Extension(fileName string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
}
