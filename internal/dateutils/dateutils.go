// Package dateutils provides the date parsing and comparison helpers used by
// statement parsers, the duplicate detector and the invoice matcher.
package dateutils

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// Common date layouts found in bank exports.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutUS       = "01/02/2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
	DateLayoutCompact  = "20060102"
)

// CommonFormats is tried, in order, after any bank-specific layouts. Day-first
// layouts come before month-first ones; banks exporting US dates declare it in
// their profile.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutEuropean,
	DateLayoutFull,
	DateLayoutISO + "T15:04:05Z07:00",
	DateLayoutISO + "T15:04:05",
	"02/01/2006",
	"02-01-2006",
	"2.1.2006",
	"02.01.06",
	"2006/01/02",
	DateLayoutCompact,
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

var spaces = regexp.MustCompile(`\s+`)

// CleanDateString trims and collapses whitespace.
func CleanDateString(dateStr string) string {
	return spaces.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ParseDate tries the preferred layouts first and then CommonFormats. The
// result is truncated to a calendar date in UTC.
func ParseDate(dateStr string, preferred ...string) (time.Time, error) {
	clean := CleanDateString(dateStr)
	if clean == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layouts := range [][]string{preferred, CommonFormats} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, clean); err == nil {
				return StartOfDay(t), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// StartOfDay drops the clock part and normalizes to UTC.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two instants fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b time.Time) int {
	d := StartOfDay(a).Sub(StartOfDay(b)).Hours() / 24
	return int(math.Abs(math.Round(d)))
}

// ToISODate formats a date as YYYY-MM-DD.
func ToISODate(t time.Time) string {
	return t.Format(DateLayoutISO)
}
