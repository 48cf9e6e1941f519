package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}

func TestCheckGPA(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "sufficient with decimal comma",
			text:     lines("Genel Not Ortalaması", "3,42"),
			expected: nil,
		},
		{
			name:     "too low",
			text:     lines("Genel Not Ortalaması", "2,10"),
			expected: []string{"Genel Not Ortalamanız 2.10 olduğu için mezun olamazsınız."},
		},
		{
			name:     "not found",
			text:     lines("Genel Not Ortalaması", "yok"),
			expected: []string{"Genel Not Ortalaması bulunamadı."},
		},
		{
			name:     "empty text",
			text:     "",
			expected: []string{"Genel Not Ortalaması bulunamadı."},
		},
		{
			name:     "threshold is inclusive",
			text:     "2.50",
			expected: nil,
		},
	}

	checker := NewChecker(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.CheckGPA(tt.text))
		})
	}
}

func TestFindGPA(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		gpa   float64
		found bool
	}{
		{"last candidate wins", lines("1.50", "3.10", "MAT101"), 3.10, true},
		{"out of range skipped", lines("2.75", "15.09"), 2.75, true},
		{"two decimal points skipped", lines("3.20", "15.09.2020"), 3.20, true},
		{"letter O read as zero", "3.O5", 3.05, true},
		{"embedded blanks removed", "3, 45", 3.45, true},
		{"integers are not candidates", lines("3", "4"), 0, false},
		{"words are not candidates", "Ort. yok", 0, false},
		{"negative rejected", "-1.0", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gpa, found := FindGPA(tt.text)
			assert.Equal(t, tt.found, found)
			assert.InDelta(t, tt.gpa, gpa, 1e-9)
		})
	}
}

func TestCheckTermECTS(t *testing.T) {
	text := lines(
		"1. Yarıyıl", "MAT101", "Matematik I", "4.0", "6.0", "AA",
		"Dönem Sonu", "10", "30.0", "60", "2.50",
		"2. Yarıyıl", "FIZ102", "Fizik II", "3.0", "5.0", "BB",
		"Dönem Sonu", "10", "29,5", "60", "2.50",
		"3. Yarıyıl", "BIL201", "Algoritmalar", "3.0", "5.0", "CC",
		"Dönem Sonu 12 28 88 2.61",
	)

	warnings := NewChecker(nil).CheckTermECTS(text)
	assert.Equal(t, []string{
		"2. Yarıyıl toplam AKTS'niz 29.5 olduğu için mezun olamazsınız.",
		"3. Yarıyıl toplam AKTS'niz 28.0 olduğu için mezun olamazsınız.",
	}, warnings)
}

func TestCheckTermECTS_MissingSummaryLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	checker := NewChecker(zap.New(core))

	warnings := checker.CheckTermECTS(lines("4. Yarıyıl", "BIL401", "Proje", "3.0", "8.0", "AA"))
	assert.Empty(t, warnings)

	entries := logs.FilterMessage("term summary not found").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "4. Yarıyıl", entries[0].ContextMap()["term"])
}

func TestCheck_ConfigurableThresholds(t *testing.T) {
	text := lines("1. Yarıyıl", "Dönem Sonu", "10", "30.0", "60", "2.80", "2,80")

	checker := NewChecker(nil)
	assert.Empty(t, checker.Check(text))

	checker.MinGPA = 3.0
	checker.MinTermECTS = 31
	assert.Equal(t, []string{
		"Genel Not Ortalamanız 2.80 olduğu için mezun olamazsınız.",
		"1. Yarıyıl toplam AKTS'niz 30.0 olduğu için mezun olamazsınız.",
	}, checker.Check(text))
}

func TestTermTotals(t *testing.T) {
	text := "1. Yarıyıl\nDönem Sonu\n10\n31.5\n60\n3.00\n10. Yarıyıl\nDönem Sonu\n8\n24\n240\n3.10"
	totals := NewChecker(nil).TermTotals(text)
	assert.Equal(t, []TermECTS{{Term: "1. Yarıyıl", Value: 31.5}, {Term: "10. Yarıyıl", Value: 24}}, totals)
}

func TestFormatECTS(t *testing.T) {
	assert.Equal(t, "29.5", formatECTS(29.5))
	assert.Equal(t, "30.0", formatECTS(30))
	assert.Equal(t, "0.25", formatECTS(0.25))
}
