// Package textutils provides text extraction and manipulation utilities.
package textutils

import (
	"regexp"
	"strings"
)

var (
	payeePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Payee:\s*([^,;]+)`),
		regexp.MustCompile(`(?i)Bénéficiaire:\s*([^,;]+)`),
		regexp.MustCompile(`(?i)Recipient:\s*([^,;]+)`),
		regexp.MustCompile(`(?i)Payment to:\s*([^,;]+)`),
	}

	merchantPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bat\s+(.+?)(?:\s+on\s+.*|$)`),
		regexp.MustCompile(`(?i)\bchez\s+(.+?)(?:\s+le\s+.*|$)`),
		regexp.MustCompile(`(?i)\bauprès de\s+(.+?)(?:\s+le\s+.*|$)`),
	}

	maskedCardPattern = regexp.MustCompile(`(?i)(?:\d{4}[\s-]?)?(?:[x*]{2,}[\s-]?)+\d{2,4}`)
	refCodePattern    = regexp.MustCompile(`(?i)\b(?:ref|reference|trx|txn|auth|tid|id|no)\b[.:#]?\s*[:#]?\s*[a-z0-9-]*\d[a-z0-9-]*`)
	datePattern       = regexp.MustCompile(`\b\d{1,4}[./-]\d{1,2}(?:[./-]\d{2,4})?\b`)
	timePattern       = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
	digitRunPattern   = regexp.MustCompile(`#?\b\d{4,}\b`)
	spacePattern      = regexp.MustCompile(`\s+`)
)

// ExtractPayee tries to extract a payee from remittance information.
func ExtractPayee(ustrd string) string {
	for _, re := range payeePatterns {
		if matches := re.FindStringSubmatch(ustrd); len(matches) > 1 {
			return strings.TrimSpace(matches[1])
		}
	}
	return ""
}

// ExtractMerchant extracts the merchant from card and TWINT descriptions such
// as "Card purchase at Migros on 12.03". Case is preserved.
func ExtractMerchant(description string) string {
	lower := strings.ToLower(description)
	if !strings.Contains(lower, "purchase") && !strings.Contains(lower, "twint") && !strings.Contains(lower, "paiement") {
		return ""
	}
	for _, re := range merchantPatterns {
		if matches := re.FindStringSubmatch(description); len(matches) > 1 {
			return strings.TrimSpace(matches[1])
		}
	}
	return ""
}

// StripNoise removes card masks, reference codes, dates, times and long digit
// runs from a bank description, then drops any of the given prefixes
// (case-insensitive) from the start. The result may be empty.
func StripNoise(description string, prefixes []string) string {
	s := description
	s = maskedCardPattern.ReplaceAllString(s, " ")
	s = refCodePattern.ReplaceAllString(s, " ")
	s = datePattern.ReplaceAllString(s, " ")
	s = timePattern.ReplaceAllString(s, " ")
	s = digitRunPattern.ReplaceAllString(s, " ")
	s = collapse(s)

	for changed := true; changed; {
		changed = false
		for _, p := range prefixes {
			if p == "" {
				continue
			}
			if hasWordPrefix(s, p) {
				s = collapse(s[len(p):])
				changed = true
			}
		}
	}
	return s
}

func hasWordPrefix(s, prefix string) bool {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return false
	}
	if len(s) == len(prefix) {
		return true
	}
	next := s[len(prefix)]
	return next == ' ' || next == ':' || next == '-' || next == '*' || next == '/'
}

func collapse(s string) string {
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.Trim(s, " -*/#:,.;")
}
