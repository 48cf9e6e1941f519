package parsing

import "strings"

// codeReplacer strips whitespace and folds the dotted capital I.
var codeReplacer = strings.NewReplacer(
	" ", "",
	"\t", "",
	"İ", "I",
)

// NormalizeCourseCode returns the canonical form of a course code:
// no internal spaces and "İ" folded to "I", so "BİL 101" and "BIL101" compare equal.
func NormalizeCourseCode(code string) string {
	if code == "" {
		return ""
	}
	return codeReplacer.Replace(strings.TrimSpace(code))
}

// failingGrades are outcomes that do not earn credit.
var failingGrades = map[string]bool{
	"FF":  true,
	"FD":  true,
	"DVZ": true,
	"YZ":  true,
}

// IsFailingGrade reports whether grade is a failing outcome.
func IsFailingGrade(grade string) bool {
	return failingGrades[grade]
}
