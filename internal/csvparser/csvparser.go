// Package csvparser parses delimited-text bank exports.
package csvparser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"fjacquet/statement-reconciler/internal/logging"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/parser"
	"fjacquet/statement-reconciler/internal/parsererror"

	"golang.org/x/text/encoding/charmap"
)

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// Parser reads CSV, TSV and semicolon-separated exports.
type Parser struct {
	*parser.TabularDecoder
	delimiter rune
}

// New creates a CSV parser. An empty delimiter means it is detected per file.
func New(banks *models.BankCatalog, delimiter string, logger logging.Logger) *Parser {
	p := &Parser{TabularDecoder: parser.NewTabularDecoder(parser.FileTypeCSV, banks, logger)}
	if r, _ := utf8.DecodeRuneInString(delimiter); r != utf8.RuneError {
		p.delimiter = r
	}
	return p
}

func (p *Parser) Type() parser.FileType {
	return parser.FileTypeCSV
}

// CanParse accepts .csv and .tsv files, and extension-less or .txt files whose
// first line looks delimited.
func (p *Parser) CanParse(fileName string, head []byte) bool {
	switch parser.Extension(fileName) {
	case "csv", "tsv":
		return true
	case "txt", "":
		text := bytes.TrimSpace(parser.StripBOM(head))
		if len(text) == 0 || text[0] == '<' || bytes.HasPrefix(text, []byte("%PDF")) || bytes.HasPrefix(text, []byte("OFXHEADER")) {
			return false
		}
		_, count := DetectDelimiter(firstLine(string(text)))
		return count > 0
	}
	return false
}

func (p *Parser) Parse(in parser.Input) (*models.ParseResult, error) {
	text := decodeText(parser.StripBOM(in.Data))
	if strings.TrimSpace(text) == "" {
		return nil, &parsererror.InvalidFormatError{
			FilePath:       in.FileName,
			ExpectedFormat: "delimited text",
			Msg:            "file is empty",
		}
	}

	delimiter := p.delimiter
	if delimiter == 0 {
		if parser.Extension(in.FileName) == "tsv" {
			delimiter = '\t'
		} else {
			delimiter, _ = DetectDelimiter(headerCandidate(text))
		}
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &parsererror.InvalidFormatError{
			FilePath:       in.FileName,
			ExpectedFormat: "delimited text",
			Msg:            fmt.Sprintf("failed to read CSV: %v", err),
		}
	}

	p.GetLogger().Debug("Read delimited file",
		logging.F(logging.FieldFile, in.FileName),
		logging.F("delimiter", string(delimiter)),
		logging.F(logging.FieldCount, len(rows)))

	return p.Decode(in.FileName, rows, in.BankHint)
}

// DetectDelimiter returns the candidate delimiter occurring most often outside
// quotes in line, and its count. Ties keep the earlier candidate; a comma is
// returned when none occurs.
func DetectDelimiter(line string) (rune, int) {
	counts := make(map[rune]int)
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best, bestCount
}

// headerCandidate returns the line with the most delimiter characters among the
// first few, so preamble lines do not decide the delimiter.
func headerCandidate(text string) string {
	lines := strings.SplitN(text, "\n", 12)
	best, bestCount := "", -1
	for _, line := range lines {
		if _, c := DetectDelimiter(line); c > bestCount {
			best, bestCount = line, c
		}
	}
	return best
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

// decodeText returns data as UTF-8. Exports that are not valid UTF-8 are
// assumed to be Windows-1252, which covers ISO-8859-1 as well.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}
