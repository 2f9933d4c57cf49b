package textutils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// legal-form suffixes carry no identity when comparing names
var stopTokens = map[string]bool{
	"ag": true, "sa": true, "sarl": true, "gmbh": true, "ltd": true, "llc": true,
	"inc": true, "the": true, "and": true, "co": true, "bv": true, "sas": true,
}

// FoldName lowercases a name, removes diacritics and replaces punctuation with
// single spaces. "Café Müller & Co." becomes "cafe muller co".
func FoldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = nonAlnum.ReplaceAllString(strings.ToLower(folded), " ")
	return strings.TrimSpace(folded)
}

// Tokens returns the distinct significant tokens of a folded name, in order.
func Tokens(name string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range strings.Fields(FoldName(name)) {
		if len(tok) < 2 || stopTokens[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// NameSimilarity scores two names in [0,1]. When the significant tokens of one
// name are all contained in the other the score is 1, otherwise it is the
// Jaccard overlap of the two token sets.
func NameSimilarity(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(ta))
	for _, t := range ta {
		setA[t] = true
	}
	common := 0
	for _, t := range tb {
		if setA[t] {
			common++
		}
	}
	if common == len(ta) || common == len(tb) {
		return 1
	}
	union := len(ta) + len(tb) - common
	return float64(common) / float64(union)
}
