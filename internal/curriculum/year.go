// Package curriculum resolves the academic year of a transcript, retrieves the
// published curriculum for that year, and parses its course tables.
package curriculum

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/graduation-audit/internal/types"
)

// dateLayout is the D.M.YYYY format used on transcripts; day and month may carry a leading zero.
const dateLayout = "2.1.2006"

// lastSpringMonth is the final month that still belongs to the previous academic year.
const lastSpringMonth = time.July

// ResolveAcademicYear maps an enrollment date to the curriculum's year label.
// August onward starts a new academic year: 15.09.2020 → "2020-2021", 01.07.2021 → "2020-2021".
func ResolveAcademicYear(startDate string) (string, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(startDate))
	if err != nil {
		return "", &types.FormatError{
			Field: types.FieldStartDate,
			Value: startDate,
			Cause: err,
		}
	}

	year := date.Year()
	if date.Month() > lastSpringMonth {
		return fmt.Sprintf("%d-%d", year, year+1), nil
	}
	return fmt.Sprintf("%d-%d", year-1, year), nil
}

// normalizeYearLabel drops whitespace so "2020 - 2021" and "2020-2021" compare equal.
func normalizeYearLabel(label string) string {
	return strings.Join(strings.Fields(label), "")
}
