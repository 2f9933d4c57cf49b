// Package batch plans multi-file imports: statement files found in a
// directory are grouped by account and ordered by statement period so that
// each account's history is imported oldest first.
package batch

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"fjacquet/statement-reconciler/internal/fileutils"
	"fjacquet/statement-reconciler/internal/logging"
)

// StatementExtensions are the file extensions picked up from a directory.
var StatementExtensions = []string{"csv", "tsv", "txt", "xlsx", "pdf", "ofx", "qfx", "xml"}

// DateRange represents a date range with start and end dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s", dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"))
}

// Merge combines this date range with another, returning the overall range
func (dr DateRange) Merge(other DateRange) DateRange {
	start := dr.Start
	end := dr.End

	if dr.Start.IsZero() {
		start = other.Start
	} else if !other.Start.IsZero() && other.Start.Before(start) {
		start = other.Start
	}

	if dr.End.IsZero() {
		end = other.End
	} else if !other.End.IsZero() && other.End.After(end) {
		end = other.End
	}

	return DateRange{Start: start, End: end}
}

// File is one statement file with what its name tells about it.
type File struct {
	Path      string
	AccountID string
	Period    DateRange
}

// FileGroup represents the files that belong to the same account
type FileGroup struct {
	AccountID string
	Files     []File
	DateRange DateRange
}

// CAMT.053_{account}_{start}_{end}_{sequence}.{ext}
var camtFilenamePattern = regexp.MustCompile(`(?i)^CAMT\.053_([0-9A-Z]+)_(\d{4}-\d{2}-\d{2})_(\d{4}-\d{2}-\d{2})(?:_\d+)?$`)

var isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// Planner groups and orders statement files.
type Planner struct {
	logger logging.Logger
}

// NewPlanner creates a Planner.
func NewPlanner(logger logging.Logger) *Planner {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Planner{logger: logger}
}

// Plan lists the statement files in dir and returns them grouped by account.
// Groups are sorted by account id; files within a group by period start,
// files without a period last, then by name.
func (p *Planner) Plan(dir string) ([]FileGroup, error) {
	paths, err := fileutils.ListFiles(dir, StatementExtensions...)
	if err != nil {
		return nil, err
	}
	groups := p.Group(paths)

	p.logger.Info("Planned directory import",
		logging.F(logging.FieldCount, len(paths)),
		logging.F("account_groups", len(groups)))
	return groups, nil
}

// Group groups file paths by the account named in the file name.
func (p *Planner) Group(paths []string) []FileGroup {
	byAccount := make(map[string]*FileGroup)
	for _, path := range paths {
		f := Describe(path)
		p.logger.Debug("File mapped to account",
			logging.F(logging.FieldFile, filepath.Base(path)),
			logging.F("account", f.AccountID))

		g, ok := byAccount[f.AccountID]
		if !ok {
			g = &FileGroup{AccountID: f.AccountID}
			byAccount[f.AccountID] = g
		}
		g.Files = append(g.Files, f)
		g.DateRange = g.DateRange.Merge(f.Period)
	}

	groups := make([]FileGroup, 0, len(byAccount))
	for _, g := range byAccount {
		sort.SliceStable(g.Files, func(i, j int) bool {
			a, b := g.Files[i].Period.Start, g.Files[j].Period.Start
			switch {
			case a.IsZero() != b.IsZero():
				return !a.IsZero()
			case !a.Equal(b):
				return a.Before(b)
			}
			return g.Files[i].Path < g.Files[j].Path
		})
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].AccountID < groups[j].AccountID
	})
	return groups
}

// Ordered flattens groups into import order.
func Ordered(groups []FileGroup) []File {
	var files []File
	for _, g := range groups {
		files = append(files, g.Files...)
	}
	return files
}

// Describe extracts the account and period from a statement file name.
// CAMT exports name both; other files use the first two ISO dates found and
// the remaining name as the account.
func Describe(path string) File {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if m := camtFilenamePattern.FindStringSubmatch(stem); m != nil {
		return File{Path: path, AccountID: m[1], Period: parseRange(m[2], m[3])}
	}

	dates := isoDatePattern.FindAllString(stem, 2)
	var period DateRange
	switch len(dates) {
	case 2:
		period = parseRange(dates[0], dates[1])
	case 1:
		period = parseRange(dates[0], dates[0])
	}
	account := isoDatePattern.ReplaceAllString(stem, "")
	return File{Path: path, AccountID: SanitizeAccountID(account), Period: period}
}

func parseRange(start, end string) DateRange {
	s, err1 := time.Parse("2006-01-02", start)
	e, err2 := time.Parse("2006-01-02", end)
	if err1 != nil || err2 != nil {
		return DateRange{}
	}
	if e.Before(s) {
		s, e = e, s
	}
	return DateRange{Start: s, End: e}
}

// SanitizeAccountID makes an account identifier safe to print and group on.
// Everything but letters, digits, dots, dashes and underscores becomes an
// underscore; runs of underscores and ".." sequences are collapsed.
func SanitizeAccountID(accountID string) string {
	sanitized := strings.TrimSpace(accountID)

	var result strings.Builder
	for _, r := range sanitized {
		if (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '_' || r == '-' || r == '.' {
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}
	sanitized = result.String()

	for strings.Contains(sanitized, "..") {
		sanitized = strings.ReplaceAll(sanitized, "..", "_")
	}
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_.-")

	if sanitized == "" {
		sanitized = "UNKNOWN"
	}
	return sanitized
}
