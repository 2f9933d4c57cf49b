package matcher

import (
	"math"

	"fjacquet/statement-reconciler/internal/dateutils"
	"fjacquet/statement-reconciler/internal/models"
	"fjacquet/statement-reconciler/internal/textutils"

	"github.com/shopspring/decimal"
)

// Weights are the contributions of each signal to the confidence. They sum to 1.
type Weights struct {
	Amount float64
	Date   float64
	Name   float64
}

// Config holds the scoring parameters and the mark-paid threshold.
type Config struct {
	Weights
	Threshold float64
	// AmountTolerance is the relative amount difference at which the amount
	// score reaches zero.
	AmountTolerance float64
	// DateWindowDays is the distance from the due date at which the date score
	// reaches zero.
	DateWindowDays int
}

// DefaultConfig returns the standard parameters.
func DefaultConfig() Config {
	return Config{
		Weights:         Weights{Amount: 0.5, Date: 0.2, Name: 0.3},
		Threshold:       0.6,
		AmountTolerance: 0.05,
		DateWindowDays:  30,
	}
}

// Scorer computes the confidence that a transaction pays an invoice, in [0,1].
type Scorer interface {
	Score(tx models.CategorizedTransaction, inv models.Invoice) float64
}

// WeightedScorer combines amount, date and name scores linearly.
type WeightedScorer struct {
	cfg Config
}

// NewWeightedScorer creates a scorer. Zero tolerance or window fall back to defaults.
func NewWeightedScorer(cfg Config) *WeightedScorer {
	def := DefaultConfig()
	if cfg.AmountTolerance <= 0 {
		cfg.AmountTolerance = def.AmountTolerance
	}
	if cfg.DateWindowDays <= 0 {
		cfg.DateWindowDays = def.DateWindowDays
	}
	return &WeightedScorer{cfg: cfg}
}

// Score returns the weighted confidence rounded to 4 decimals.
func (s *WeightedScorer) Score(tx models.CategorizedTransaction, inv models.Invoice) float64 {
	total := s.cfg.Amount*s.AmountScore(tx, inv) +
		s.cfg.Date*s.DateScore(tx, inv) +
		s.cfg.Name*NameScore(tx, inv)
	return round4(clamp(total))
}

// AmountScore is 1 for an exact amount and falls linearly to 0 at the
// tolerance, relative to the invoice total.
func (s *WeightedScorer) AmountScore(tx models.CategorizedTransaction, inv models.Invoice) float64 {
	diff := tx.Amount.Abs().Sub(inv.Total.Abs()).Abs()
	if diff.IsZero() {
		return 1
	}
	if !inv.Total.IsPositive() {
		return 0
	}
	ratio, _ := diff.Div(inv.Total.Abs().Mul(decimal.NewFromFloat(s.cfg.AmountTolerance))).Float64()
	return clamp(1 - ratio)
}

// DateScore is 1 on the due date and falls linearly to 0 at the window edge,
// before or after.
func (s *WeightedScorer) DateScore(tx models.CategorizedTransaction, inv models.Invoice) float64 {
	days := dateutils.DaysBetween(tx.Date, inv.DueDate)
	return clamp(1 - float64(days)/float64(s.cfg.DateWindowDays))
}

// NameScore compares the client name with the vendor and with the full
// description and keeps the better of the two.
func NameScore(tx models.CategorizedTransaction, inv models.Invoice) float64 {
	return math.Max(
		textutils.NameSimilarity(tx.VendorName, inv.ClientName),
		textutils.NameSimilarity(tx.Description, inv.ClientName))
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
