// Package parsing turns transcript body tokens into semester and course records.
package parsing

import (
	"regexp"
	"strings"

	"github.com/jonathan/graduation-audit/internal/types"
)

var (
	termPattern   = regexp.MustCompile(`^(\d+)\. Yarıyıl$`)
	codePattern   = regexp.MustCompile(`^[A-ZÇĞİÖŞÜ]{2,4}\s?\d{3}$`)
	creditPattern = regexp.MustCompile(`^\d+\.\d+$`)
	gradePattern  = regexp.MustCompile(`^[A-Z]{1,2}$|^YT$|^YZ$|^DVZ$|^FD$|^FF$`)
)

// footerWidth is the number of tokens after the course name: credit, ECTS and the grade slot.
// The grade slot is consumed even when its token is not a grade.
const footerWidth = 3

// TermKey returns the semester key for a term header: its ordinal digits.
func TermKey(token string) (string, bool) {
	m := termPattern.FindStringSubmatch(token)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsCourseCode reports whether token looks like a course code ("BİL 101", "MAT102").
func IsCourseCode(token string) bool {
	return codePattern.MatchString(token)
}

// IsGrade reports whether token belongs to the grade vocabulary.
func IsGrade(token string) bool {
	return gradePattern.MatchString(token)
}

// ParseSemesters runs a single forward pass over body tokens and groups course
// rows under the most recent term header. Tokens that match nothing are skipped,
// as are course codes seen before any term header.
func ParseSemesters(tokens []string) *types.Transcript {
	transcript := &types.Transcript{}
	currentTerm := ""

	i := 0
	for i < len(tokens) {
		token := tokens[i]

		if key, ok := TermKey(token); ok {
			currentTerm = key
			i++
			continue
		}

		if currentTerm == "" || !IsCourseCode(token) {
			i++
			continue
		}

		j := i + 1
		var name []string
		for j < len(tokens) && !creditPattern.MatchString(tokens[j]) {
			name = append(name, tokens[j])
			j++
		}

		course := types.TranscriptCourse{
			Code:   NormalizeCourseCode(token),
			Name:   strings.Join(name, " "),
			Credit: tokenAt(tokens, j),
			ECTS:   tokenAt(tokens, j+1),
		}
		if grade := tokenAt(tokens, j+2); IsGrade(grade) {
			course.Grade = grade
		}

		transcript.Add(currentTerm, course)
		i = j + footerWidth
	}

	return transcript
}

// SplitLines returns the trimmed, non-empty lines of text.
func SplitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func tokenAt(tokens []string, i int) string {
	if i < len(tokens) {
		return tokens[i]
	}
	return ""
}
