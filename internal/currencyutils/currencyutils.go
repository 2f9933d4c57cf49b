// Package currencyutils parses the many textual amount formats banks export.
package currencyutils

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount parses amounts like "1,234.56", "1.234,56", "CHF 1'234.50",
// "(12.00)" and "12.00-". Parentheses and a trailing minus mean negative.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	return parse(amountStr, false)
}

// ParseAmountDecimalComma is ParseAmount for exports that always use a comma
// as the decimal separator, where "1.234" means one thousand two hundred.
func ParseAmountDecimalComma(amountStr string) (decimal.Decimal, error) {
	return parse(amountStr, true)
}

func parse(amountStr string, decimalComma bool) (decimal.Decimal, error) {
	raw := strings.TrimSpace(amountStr)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		negative = true
		raw = raw[1 : len(raw)-1]
	}
	if strings.HasSuffix(raw, "-") {
		negative = true
		raw = strings.TrimSuffix(raw, "-")
	}

	standardized := StandardizeAmount(raw, decimalComma)
	if strings.HasPrefix(standardized, "-") {
		negative = !negative
		standardized = strings.TrimPrefix(standardized, "-")
	}
	standardized = strings.TrimPrefix(standardized, "+")
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': no digits", amountStr)
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// StandardizeAmount strips currency symbols, spaces and thousands separators
// and leaves a string decimal.NewFromString understands.
func StandardizeAmount(amountStr string, decimalComma bool) string {
	var b strings.Builder
	for _, r := range amountStr {
		if unicode.IsDigit(r) || r == '.' || r == ',' || r == '-' || r == '+' {
			b.WriteRune(r)
		}
	}
	s := b.String()

	if decimalComma {
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", ".")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	return s
}

// FormatAmount renders an amount with two decimals and an optional currency code.
func FormatAmount(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return amount.StringFixed(2)
	}
	return currency + " " + amount.StringFixed(2)
}
