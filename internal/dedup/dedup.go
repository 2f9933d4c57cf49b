// Package dedup decides whether a statement line was already imported.
package dedup

import (
	"context"
	"fmt"

	"fjacquet/statement-reconciler/internal/dateutils"
	"fjacquet/statement-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

// SkipReason is recorded on transactions skipped as duplicates.
const SkipReason = "Skipped: Duplicate transaction"

// DefaultWindowSize is how many recent records the window holds.
const DefaultWindowSize = 500

// amounts closer than this are the same amount
var amountTolerance = decimal.New(1, -2)

// IsDuplicate reports whether tx, about to be recorded as kind, matches a
// committed record: either its reference equals a stored bank transaction id,
// or a record of the same kind falls on the same day with an amount differing
// by less than 0.01. Stored amounts are unsigned; the kind stands in for the
// sign. An empty kind matches both.
func IsDuplicate(tx models.RawTransaction, kind models.EntryKind, window []models.LedgerEntry) bool {
	amount := tx.Amount.Abs()
	for _, e := range window {
		if tx.Reference != "" && e.BankTransactionID == tx.Reference {
			return true
		}
		if !sameKind(kind, e.Kind) {
			continue
		}
		if dateutils.SameDay(e.Date, tx.Date) && e.Amount.Sub(amount).Abs().LessThan(amountTolerance) {
			return true
		}
	}
	return false
}

func sameKind(a, b models.EntryKind) bool {
	return a == "" || b == "" || a == b
}

// Window is the duplicate window of one batch. When tracking is on, records
// committed during the batch are added so that repeated lines within one file
// are skipped too.
type Window struct {
	entries []models.LedgerEntry
	track   bool
}

// NewWindow wraps the recent records loaded for a batch.
func NewWindow(entries []models.LedgerEntry, track bool) *Window {
	return &Window{entries: entries, track: track}
}

// Contains applies IsDuplicate to the window.
func (w *Window) Contains(tx models.RawTransaction, kind models.EntryKind) bool {
	return IsDuplicate(tx, kind, w.entries)
}

// Add records a committed entry when in-batch tracking is enabled.
func (w *Window) Add(entry models.LedgerEntry) {
	if w.track {
		w.entries = append(w.entries, entry)
	}
}

// Len returns the number of records in the window.
func (w *Window) Len() int {
	return len(w.entries)
}

// EntrySource reads a user's most recent committed records, newest first.
type EntrySource interface {
	RecentEntries(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error)
}

// Detector loads duplicate windows from the store.
type Detector struct {
	source EntrySource
	size   int
	track  bool
}

// NewDetector creates a detector. A size <= 0 uses DefaultWindowSize.
func NewDetector(source EntrySource, size int, trackInBatch bool) *Detector {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Detector{source: source, size: size, track: trackInBatch}
}

// Load reads the window once for a batch.
func (d *Detector) Load(ctx context.Context, userID string) (*Window, error) {
	entries, err := d.source.RecentEntries(ctx, userID, d.size)
	if err != nil {
		return nil, fmt.Errorf("failed to load duplicate window: %w", err)
	}
	return NewWindow(entries, d.track), nil
}
