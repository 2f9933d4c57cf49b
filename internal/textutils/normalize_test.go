package textutils_test

import (
	"testing"

	"fjacquet/statement-reconciler/internal/textutils"

	"github.com/stretchr/testify/assert"
)

func TestFoldName(t *testing.T) {
	assert.Equal(t, "cafe muller co", textutils.FoldName("Café Müller & Co."))
	assert.Equal(t, "zurich", textutils.FoldName("  ZÜRICH "))
	assert.Equal(t, "", textutils.FoldName("--"))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"acme", "consulting"}, textutils.Tokens("ACME Consulting GmbH"))
	assert.Equal(t, []string{"nestle"}, textutils.Tokens("Nestlé S.A. Nestle"))
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Acme Corp", "ACME CORP", 1},
		{"containment", "Acme", "Acme Consulting GmbH", 1},
		{"diacritics", "Société Générale", "societe generale", 1},
		{"partial", "Acme Consulting", "Acme Holdings", 1.0 / 3.0},
		{"disjoint", "Globex", "Initech", 0},
		{"empty", "", "Initech", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, textutils.NameSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
