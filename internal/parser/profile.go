package parser

import (
	"fmt"
	"strings"
	"unicode"

	"fjacquet/statement-reconciler/internal/models"
)

// Canonical column names. They double as csv tags on statementRow.
const (
	ColDate        = "date"
	ColDescription = "description"
	ColAmount      = "amount"
	ColDebit       = "debit"
	ColCredit      = "credit"
	ColIndicator   = "indicator"
	ColReference   = "reference"
	ColAccount     = "account"
)

type candidate struct {
	column  string
	headers []string
}

func candidates(c models.ColumnMap) []candidate {
	return []candidate{
		{ColDate, c.Date},
		{ColDescription, c.Description},
		{ColAmount, c.Amount},
		{ColDebit, c.Debit},
		{ColCredit, c.Credit},
		{ColIndicator, c.Indicator},
		{ColReference, c.Reference},
		{ColAccount, c.Account},
	}
}

// NormalizeHeader lowercases a header cell and collapses its whitespace.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.Trim(h, " \t\"'")
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

func compactName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FindProfile looks a bank profile up by name or alias, ignoring case,
// spaces and punctuation.
func FindProfile(catalog *models.BankCatalog, name string) *models.BankProfile {
	key := compactName(name)
	if key == "" || catalog == nil {
		return nil
	}
	for i := range catalog.Banks {
		p := &catalog.Banks[i]
		if compactName(p.Name) == key {
			return p
		}
		for _, alias := range p.Aliases {
			if compactName(alias) == key {
				return p
			}
		}
	}
	return nil
}

// ColumnIndex maps canonical column names to positions in the header row.
type ColumnIndex map[string]int

// Has reports whether the canonical column was found.
func (c ColumnIndex) Has(column string) bool {
	_, ok := c[column]
	return ok
}

// MatchColumns maps the profile's columns onto a header row. The second return
// value is false when a column required by the profile's sign convention is missing.
func MatchColumns(p *models.BankProfile, header []string) (ColumnIndex, bool) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		n := NormalizeHeader(h)
		if _, dup := positions[n]; !dup && n != "" {
			positions[n] = i
		}
	}

	idx := make(ColumnIndex)
	used := make(map[int]bool)
	for _, c := range candidates(p.Columns) {
		for _, name := range c.headers {
			if pos, ok := positions[NormalizeHeader(name)]; ok && !used[pos] {
				idx[c.column] = pos
				used[pos] = true
				break
			}
		}
	}

	if !idx.Has(ColDate) || !idx.Has(ColDescription) {
		return idx, false
	}
	switch p.Sign {
	case models.SignSplit:
		return idx, idx.Has(ColDebit) || idx.Has(ColCredit)
	case models.SignIndicator:
		return idx, idx.Has(ColAmount) && idx.Has(ColIndicator)
	default:
		return idx, idx.Has(ColAmount)
	}
}

func hasRequiredHeaders(p *models.BankProfile, header []string) bool {
	if len(p.RequireHeaders) == 0 {
		return false
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[NormalizeHeader(h)] = true
	}
	for _, r := range p.RequireHeaders {
		if !present[NormalizeHeader(r)] {
			return false
		}
	}
	return true
}

// ResolveProfile picks the bank profile for a header row. With a hint, only the
// named profile is considered. Otherwise profiles whose required headers are
// all present win, then the first generic profile (no required headers) whose
// columns fit.
func ResolveProfile(catalog *models.BankCatalog, hint string, header []string) (*models.BankProfile, ColumnIndex, error) {
	if catalog == nil || len(catalog.Banks) == 0 {
		return nil, nil, fmt.Errorf("no bank profiles configured")
	}

	if hint != "" {
		p := FindProfile(catalog, hint)
		if p == nil {
			return nil, nil, fmt.Errorf("unknown bank profile %q", hint)
		}
		idx, ok := MatchColumns(p, header)
		if !ok {
			return nil, nil, fmt.Errorf("header does not match bank profile %q", p.Name)
		}
		return p, idx, nil
	}

	for i := range catalog.Banks {
		p := &catalog.Banks[i]
		if !hasRequiredHeaders(p, header) {
			continue
		}
		if idx, ok := MatchColumns(p, header); ok {
			return p, idx, nil
		}
	}
	for i := range catalog.Banks {
		p := &catalog.Banks[i]
		if len(p.RequireHeaders) > 0 {
			continue
		}
		if idx, ok := MatchColumns(p, header); ok {
			return p, idx, nil
		}
	}
	return nil, nil, fmt.Errorf("no bank profile matches header")
}
