// Package rules scans raw transcript text for graduation-blocking conditions.
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/graduation-audit/internal/parsing"
)

// Default graduation thresholds.
const (
	DefaultMinGPA      = 2.5
	DefaultMinTermECTS = 30.0
	maxGPA             = 4.0
)

// Warning texts shown to the student.
const (
	gpaNotFoundWarning = "Genel Not Ortalaması bulunamadı."
	gpaTooLowFormat    = "Genel Not Ortalamanız %.2f olduğu için mezun olamazsınız."
	termECTSLowFormat  = "%s toplam AKTS'niz %s olduğu için mezun olamazsınız."
)

var (
	termHeaderPattern = regexp.MustCompile(`\d+\. Yarıyıl`)
	termEndPattern    = regexp.MustCompile(`Dönem Sonu\s*([\d.,]+)\s*([\d.,]+)\s*([\d.,]+)\s*([\d.,]+)`)
	gpaCandidate      = regexp.MustCompile(`^[+-]?\d*\.\d*$`)
	whitespace        = strings.NewReplacer(" ", "", "\t", "")
)

// Checker applies the GPA and per-term ECTS rules. The zero value is not usable;
// construct with NewChecker.
type Checker struct {
	MinGPA      float64
	MinTermECTS float64
	logger      *zap.Logger
}

// NewChecker returns a checker with the default thresholds.
func NewChecker(logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		MinGPA:      DefaultMinGPA,
		MinTermECTS: DefaultMinTermECTS,
		logger:      logger,
	}
}

// Check runs every rule over the transcript text and returns the warnings in
// rule order: GPA first, then terms in document order. It never fails.
func (c *Checker) Check(text string) []string {
	warnings := c.CheckGPA(text)
	warnings = append(warnings, c.CheckTermECTS(text)...)
	c.logger.Debug("graduation rules checked", zap.Int("warnings", len(warnings)))
	return warnings
}

// CheckGPA finds the cumulative GPA, the last line of the text that reads as a
// decimal in [0, 4], and warns when it is missing or below the threshold.
func (c *Checker) CheckGPA(text string) []string {
	gpa, ok := FindGPA(text)
	if !ok {
		return []string{gpaNotFoundWarning}
	}
	c.logger.Debug("gpa found", zap.Float64("gpa", gpa))
	if gpa < c.MinGPA {
		return []string{fmt.Sprintf(gpaTooLowFormat, gpa)}
	}
	return nil
}

// FindGPA scans lines from the end and returns the first GPA candidate.
func FindGPA(text string) (float64, bool) {
	lines := parsing.SplitLines(text)
	for i := len(lines) - 1; i >= 0; i-- {
		if gpa, ok := gpaValue(lines[i]); ok {
			return gpa, true
		}
	}
	return 0, false
}

// gpaValue normalizes a line (decimal comma, stray blanks, letter O read for zero)
// and accepts it when it holds exactly one decimal point and lies in range.
func gpaValue(line string) (float64, bool) {
	s := strings.TrimSpace(line)
	s = strings.ReplaceAll(s, ",", ".")
	s = whitespace.Replace(s)
	s = strings.ReplaceAll(s, "O", "0")

	if strings.Count(s, ".") != 1 || !gpaCandidate.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > maxGPA {
		return 0, false
	}
	return v, true
}

// TermECTS is the cumulative ECTS read from one term's closing summary.
type TermECTS struct {
	Term  string
	Value float64
}

// CheckTermECTS warns for every term whose cumulative ECTS is below the threshold.
// Terms without a summary line are skipped.
func (c *Checker) CheckTermECTS(text string) []string {
	var warnings []string
	for _, term := range c.TermTotals(text) {
		if term.Value < c.MinTermECTS {
			warnings = append(warnings, fmt.Sprintf(termECTSLowFormat, term.Term, formatECTS(term.Value)))
		}
	}
	return warnings
}

// TermTotals splits the text at term headers and reads the second numeric field
// after each term's "Dönem Sonu" marker.
func (c *Checker) TermTotals(text string) []TermECTS {
	headers := termHeaderPattern.FindAllStringIndex(text, -1)

	var totals []TermECTS
	for i, loc := range headers {
		title := strings.TrimSpace(text[loc[0]:loc[1]])
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}

		m := termEndPattern.FindStringSubmatch(text[loc[1]:end])
		if m == nil {
			c.logger.Debug("term summary not found", zap.String("term", title))
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64)
		if err != nil {
			c.logger.Debug("term ECTS not numeric", zap.String("term", title), zap.String("value", m[2]))
			continue
		}
		totals = append(totals, TermECTS{Term: title, Value: v})
	}
	return totals
}

// formatECTS renders a value the way it reads on the transcript: shortest form,
// with a trailing ".0" for whole numbers.
func formatECTS(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
