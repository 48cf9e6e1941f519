package document

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonathan/graduation-audit/internal/types"
)

// transcriptLabel marks the document title; it carries no field value.
const transcriptLabel = "TRANSKRİPT"

// headerLabels lists the known header labels in match priority order.
var headerLabels = []string{
	"FAKÜLTESİ",
	"BÖLÜMÜ",
	"PROGRAMI",
	"TC KİMLİK NO",
	"ÖĞRENCİ NUMARASI",
	"ADI SOYADI",
	"KAYIT TARİHİ",
	"AYRILIŞ TARİHİ",
	transcriptLabel,
}

// headerFieldNames maps header labels to canonical field names.
var headerFieldNames = map[string]string{
	"FAKÜLTESİ":        types.FieldFaculty,
	"BÖLÜMÜ":           types.FieldDepartment,
	"PROGRAMI":         types.FieldProgram,
	"TC KİMLİK NO":     types.FieldTCID,
	"ÖĞRENCİ NUMARASI": types.FieldStudentID,
	"ADI SOYADI":       types.FieldName,
	"KAYIT TARİHİ":     types.FieldStartDate,
	"AYRILIŞ TARİHİ":   types.FieldEndDate,
}

var headerLabelPattern = buildLabelPattern(headerLabels)

func buildLabelPattern(labels []string) *regexp.Regexp {
	quoted := make([]string, len(labels))
	for i, label := range labels {
		quoted[i] = regexp.QuoteMeta(label)
	}
	return regexp.MustCompile("(" + strings.Join(quoted, "|") + ")")
}

// ParseHeaderFields splits the concatenated header text on known labels and pairs
// each label with the text that follows it up to the next label.
// Empty values and the transcript title are dropped.
func ParseHeaderFields(headerText string) types.StudentHeader {
	fields := make(types.StudentHeader)

	matches := headerLabelPattern.FindAllStringIndex(headerText, -1)
	for i, m := range matches {
		end := len(headerText)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		label := strings.TrimSpace(headerText[m[0]:m[1]])
		value := strings.TrimSpace(headerText[m[1]:end])

		if value == "" || cases.Upper(language.Turkish).String(label) == transcriptLabel {
			continue
		}

		fields[FieldKey(label)] = value
	}

	return fields
}

// FieldKey returns the canonical field name for a header label.
// Unknown labels are lowercased with Turkish casing rules and stripped of spaces.
func FieldKey(label string) string {
	if key, ok := headerFieldNames[label]; ok {
		return key
	}
	return strings.ReplaceAll(cases.Lower(language.Turkish).String(label), " ", "")
}
