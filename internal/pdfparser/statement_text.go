package pdfparser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"fjacquet/statement-reconciler/internal/currencyutils"
	"fjacquet/statement-reconciler/internal/dateutils"
	"fjacquet/statement-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

var (
	datePrefix   = regexp.MustCompile(`^(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})\s+(?:(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})\s+)?(.*)$`)
	dateOnly     = regexp.MustCompile(`^\d{1,2}[./-]\d{1,2}[./-]\d{2,4}$`)
	amountToken  = regexp.MustCompile(`^([-+])?\s*(\()?(?:[A-Z]{3}\s*)?(\d[\d'’.,\s]*[.,]\d{2})(\))?(-)?\s*(CR|DR|CRDT|DBIT)?$`)
	columnGap    = regexp.MustCompile(`\s{2,}`)
	ibanPattern  = regexp.MustCompile(`\b([A-Z]{2}\d{2}(?:\s?[A-Z0-9]{4}){2,7}(?:\s?[A-Z0-9]{1,3})?)\b`)
	accountLabel = regexp.MustCompile(`(?i)\b(?:account(?:\s+(?:no\.?|number))?|konto(?:nummer)?|compte)\s*:\s*([A-Z0-9][A-Z0-9 -]{3,})`)
	periodLine   = regexp.MustCompile(`(?i)(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})\s*(?:-|–|to|au|bis)\s*(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`)
	openingLine  = wordsPattern("opening balance", "previous balance", "balance brought forward", "solde initial", "solde précédent", "solde reporté", "anfangssaldo", "alter saldo")
	closingLine  = wordsPattern("closing balance", "new balance", "solde final", "nouveau solde", "endsaldo", "neuer saldo", "total", "carried forward", "à reporter")
	creditWords  = wordsPattern("deposit", "credit", "refund", "salary", "salaire", "gutschrift", "incoming", "received", "virement reçu", "payment from")
	pageNoise    = regexp.MustCompile(`(?i)^(?:(?:page|seite)\s+\d+|(?:date|datum|booking date)\b.*\b(?:balance|saldo|solde|amount|betrag)\b)`)
)

// wordsPattern matches any of the phrases as whole words, case-insensitively.
// Boundaries are letter-aware so accented phrases work.
func wordsPattern(phrases ...string) *regexp.Regexp {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:` + strings.Join(quoted, "|") + `)(?:[^\p{L}]|$)`)
}

// statementDateLayouts are tried before the common layouts; two-digit years
// are frequent in statements.
var statementDateLayouts = []string{"02.01.2006", "02.01.06", "02/01/2006", "02/01/06", "02-01-2006"}

// TextStatement is what could be read from the text layer.
type TextStatement struct {
	Transactions []models.RawTransaction
	Account      string
	PeriodStart  *time.Time
	PeriodEnd    *time.Time
	Warnings     []string
}

type amountCell struct {
	value decimal.Decimal
	// +1 or -1 when the cell carries an explicit direction, 0 otherwise
	sign int
}

type pendingLine struct {
	date    time.Time
	desc    []string
	amount  *amountCell
	balance *decimal.Decimal
}

// ScanText walks pdftotext -layout output. A transaction starts on a line
// beginning with a booking date; following undated lines continue its
// description. The last one or two amount columns of a line are the amount and
// the running balance.
func ScanText(text string) TextStatement {
	var (
		out         TextStatement
		current     *pendingLine
		lastBalance *decimal.Decimal
	)

	flush := func() {
		if current == nil {
			return
		}
		defer func() { current = nil }()
		if current.amount == nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("no amount for %s %s", dateutils.ToISODate(current.date), strings.Join(current.desc, " ")))
			return
		}
		description := strings.Join(strings.Fields(strings.Join(current.desc, " ")), " ")
		amount := resolveSign(*current.amount, current.balance, lastBalance, description)
		if current.balance != nil {
			b := *current.balance
			lastBalance = &b
		}
		out.Transactions = append(out.Transactions, models.RawTransaction{
			Date:        current.date,
			Description: description,
			Amount:      amount,
		})
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.ReplaceAll(raw, "\f", ""))
		if line == "" || pageNoise.MatchString(line) {
			continue
		}

		if out.Account == "" {
			out.Account = findAccount(line)
		}
		if out.PeriodStart == nil && !datePrefix.MatchString(line) {
			if m := periodLine.FindStringSubmatch(line); m != nil {
				start, err1 := dateutils.ParseDate(m[1], statementDateLayouts...)
				end, err2 := dateutils.ParseDate(m[2], statementDateLayouts...)
				if err1 == nil && err2 == nil {
					out.PeriodStart, out.PeriodEnd = &start, &end
					continue
				}
			}
		}

		if openingLine.MatchString(line) {
			flush()
			if amounts, _ := trailingAmounts(line); len(amounts) > 0 {
				b := amounts[len(amounts)-1].value
				if amounts[len(amounts)-1].sign < 0 {
					b = b.Neg()
				}
				lastBalance = &b
			}
			continue
		}
		if closingLine.MatchString(line) {
			flush()
			continue
		}

		if m := datePrefix.FindStringSubmatch(line); m != nil {
			date, err := dateutils.ParseDate(m[1], statementDateLayouts...)
			if err == nil {
				flush()
				current = &pendingLine{date: date}
				current.absorb(m[3])
				continue
			}
		}

		if current != nil {
			current.absorb(line)
		}
	}
	flush()
	return out
}

// absorb adds a line fragment: trailing amount columns fill the amount and
// balance, the rest extends the description.
func (p *pendingLine) absorb(fragment string) {
	amounts, rest := trailingAmounts(fragment)
	if rest != "" {
		p.desc = append(p.desc, rest)
	}
	if len(amounts) == 0 || p.amount != nil {
		return
	}
	p.amount = &amounts[0]
	if len(amounts) > 1 {
		b := amounts[1].value
		if amounts[1].sign < 0 {
			b = b.Neg()
		}
		p.balance = &b
	}
}

// trailingAmounts splits a fragment on column gaps and returns up to two
// amount columns from its end, in reading order, plus the leading text.
func trailingAmounts(fragment string) ([]amountCell, string) {
	cols := columnGap.Split(strings.TrimSpace(fragment), -1)
	var cells []amountCell
	end := len(cols)
	for end > 0 && len(cells) < 2 {
		cell, ok := parseAmountCell(cols[end-1])
		if !ok {
			break
		}
		cells = append([]amountCell{cell}, cells...)
		end--
	}
	return cells, strings.TrimSpace(strings.Join(cols[:end], " "))
}

func parseAmountCell(s string) (amountCell, bool) {
	s = strings.TrimSpace(s)
	if dateOnly.MatchString(s) {
		return amountCell{}, false
	}
	m := amountToken.FindStringSubmatch(s)
	if m == nil {
		return amountCell{}, false
	}
	v, err := currencyutils.ParseAmount(m[3])
	if err != nil {
		return amountCell{}, false
	}
	cell := amountCell{value: v.Abs()}
	switch {
	case m[1] == "-" || m[5] == "-" || (m[2] == "(" && m[4] == ")") || m[6] == "DR" || m[6] == "DBIT":
		cell.sign = -1
	case m[1] == "+" || m[6] == "CR" || m[6] == "CRDT":
		cell.sign = 1
	}
	return cell, true
}

// resolveSign decides the direction of an amount: an explicit marker wins,
// then the movement of the running balance, then credit keywords in the
// description. Anything else is treated as an outflow.
func resolveSign(cell amountCell, balance, previous *decimal.Decimal, description string) decimal.Decimal {
	switch {
	case cell.sign < 0:
		return cell.value.Neg()
	case cell.sign > 0:
		return cell.value
	}
	if balance != nil && previous != nil {
		if previous.Add(cell.value).Equal(*balance) {
			return cell.value
		}
		if previous.Sub(cell.value).Equal(*balance) {
			return cell.value.Neg()
		}
	}
	if creditWords.MatchString(description) {
		return cell.value
	}
	return cell.value.Neg()
}

func findAccount(line string) string {
	if m := ibanPattern.FindStringSubmatch(line); m != nil {
		return strings.ReplaceAll(m[1], " ", "")
	}
	if m := accountLabel.FindStringSubmatch(line); m != nil {
		return strings.ReplaceAll(strings.TrimSpace(m[1]), " ", "")
	}
	return ""
}
