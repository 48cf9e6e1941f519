package curriculum

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/graduation-audit/internal/parsing"
	"github.com/jonathan/graduation-audit/internal/types"
)

// Column headers of the curriculum tables.
const (
	ColumnCode      = "Kodu"
	ColumnName      = "Ders Adı"
	ColumnMandatory = "Zorunlu mu?"
	ColumnCredit    = "Kredi"
	ColumnECTS      = "AKTS"
)

// MandatoryYes is the value of the mandatory column for required courses.
const MandatoryYes = "Evet"

// electiveTitleWord marks a table title as an elective pool.
const electiveTitleWord = "Seçmeli"

// unknownSemesterTitle is used when a box has no title.
const unknownSemesterTitle = "Bilinmeyen Yarıyıl"

// Selectors for the curriculum page layout.
const (
	boxSelector           = ".ibox"
	boxTitleSelector      = ".ibox-title h5"
	boxContentSelector    = ".ibox-content"
	tableSelector         = "table.table"
	electiveTitleSelector = "div[style*='background-color']"
)

// ParseTables reads every box section of the curriculum page. In each box the first
// table lists that semester's requirements under the box title; further tables take
// their titles from the highlighted title blocks in the same box, in order.
func ParseTables(html string) (*types.Curriculum, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &types.StructuralError{
			Source:  "curriculum",
			Message: "failed to parse HTML",
			Cause:   err,
		}
	}

	curriculum := types.NewCurriculum()

	var parseErr error
	doc.Find(boxSelector).EachWithBreak(func(_ int, box *goquery.Selection) bool {
		baseTitle := unknownSemesterTitle
		if title := box.Find(boxTitleSelector).First(); title.Length() > 0 {
			baseTitle = strings.TrimSpace(title.Text())
		}

		content := box.Find(boxContentSelector).First()
		if content.Length() == 0 {
			return true
		}

		titles := []string{baseTitle}
		content.Find(electiveTitleSelector).Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				titles = append(titles, t)
			}
		})

		content.Find(tableSelector).EachWithBreak(func(idx int, table *goquery.Selection) bool {
			title := fmt.Sprintf("%s Tablo %d", baseTitle, idx+1)
			if idx < len(titles) {
				title = titles[idx]
			}
			if parseErr = parseTable(curriculum, table, title); parseErr != nil {
				return false
			}
			return true
		})
		return parseErr == nil
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return curriculum, nil
}

// parseTable adds the rows of one table whose cell count matches its header count.
func parseTable(curriculum *types.Curriculum, table *goquery.Selection, title string) error {
	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(th.Text()))
	})

	label, elective := tableLabel(title)
	if label == "" {
		return nil
	}

	var rowErr error
	table.Find("tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		var cells []string
		row.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) != len(headers) {
			return true
		}

		columns := make(map[string]string, len(headers))
		for i, h := range headers {
			columns[h] = cells[i]
		}

		code, ok := columns[ColumnCode]
		if !ok {
			rowErr = &types.StructuralError{
				Source:  "curriculum",
				Message: fmt.Sprintf("table %q has no %q column", title, ColumnCode),
			}
			return false
		}

		course := types.CurriculumCourse{
			Code:          parsing.NormalizeCourseCode(code),
			Name:          columns[ColumnName],
			Mandatory:     columns[ColumnMandatory] == MandatoryYes,
			Credit:        columns[ColumnCredit],
			ECTS:          columns[ColumnECTS],
			SemesterLabel: label,
			Columns:       columns,
		}
		curriculum.Add(course)

		if elective {
			// Labels accumulate so a code offered in several pools matches each of them.
			if existing, seen := curriculum.Index[course.Code]; seen {
				curriculum.Index[course.Code] = existing + label
			} else {
				curriculum.Index[course.Code] = label
			}
		} else {
			curriculum.Index[course.Code] = label
		}
		return true
	})

	return rowErr
}

// tableLabel derives the group label from a table title: the leading character
// for a semester table, or the elective marker plus that character for a pool.
func tableLabel(title string) (string, bool) {
	first := firstRune(title)
	if first == "" {
		return "", false
	}
	if strings.Contains(title, electiveTitleWord) {
		return types.ElectiveMarker + first, true
	}
	return first, false
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
