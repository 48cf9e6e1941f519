package observability

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/graduation-audit/internal/types"
)

func intPtr(v int) *int { return &v }

func TestPrintStudent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStudent(types.StudentHeader{
		types.FieldName:      "Ayşe Yılmaz",
		types.FieldStudentID: "201001001",
		types.FieldTCID:      "12345678901",
		"danışmanadı":        "Dr. Kaya",
	}, "2020-2021")
	output := buf.String()

	assert.Contains(t, output, "STUDENT")
	assert.Contains(t, output, "Ayşe Yılmaz")
	assert.Contains(t, output, "201001001")
	assert.Contains(t, output, "danışmanadı")
	assert.Contains(t, output, "2020-2021")
	assert.NotContains(t, output, "12345678901")
}

func TestPrintStudent_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStudent(nil, "")
	assert.Empty(t, buf.String())
}

func TestPrintTranscript(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	tr := &types.Transcript{}
	for i := 0; i < 7; i++ {
		tr.Add("1", types.TranscriptCourse{Code: "MAT10" + string(rune('0'+i)), Name: "Ders", Grade: "AA"})
	}
	tr.Add("2", types.TranscriptCourse{Code: "FIZ102", Name: "Fizik II"})

	p.PrintTranscript(tr)
	output := buf.String()

	assert.Contains(t, output, "PARSED TRANSCRIPT")
	assert.Contains(t, output, "Total courses: 8")
	assert.Contains(t, output, "... and 2 more")
	assert.Contains(t, output, "FIZ102   ?")
}

func TestPrintRemaining(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRemaining([]types.RemainingCourse{
		{Code: "BIL401", Name: "Bitirme Projesi", IsMust: true, Credit: 3, ECTS: 8, Semester: 7, Grade: "-"},
		{Code: "SEC501", Name: "Seçmeli", Credit: 6, ECTS: 10, Semester: 5, Grade: "-", RemainingCredits: intPtr(3)},
	})
	output := buf.String()

	assert.Contains(t, output, "REMAINING COURSES (2)")
	assert.Contains(t, output, "BIL401")
	assert.Contains(t, output, "3 credits left")
}

func TestPrintRemaining_None(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRemaining(nil)
	assert.Contains(t, buf.String(), "All curriculum requirements are satisfied.")
}

func TestPrintReport_Verdict(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintReport(&types.Report{AcademicYear: "2020-2021"})
	assert.Contains(t, buf.String(), "No graduation blockers found.")

	buf.Reset()
	p.PrintReport(&types.Report{
		AcademicYear: "2020-2021",
		Warnings:     []string{"Genel Not Ortalaması bulunamadı."},
	})
	output := buf.String()
	assert.Contains(t, output, "GRADUATION WARNINGS")
	assert.Contains(t, output, "Not eligible: 0 remaining courses, 1 warnings.")
}

func TestPrintReport_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintReport(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBox_TruncatesByRune(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("T", strings.Repeat("ğ", 200))
	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), line)
	}
}

func TestPrintStep(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStep(3, 7, "Resolving academic year")
	assert.Equal(t, "Step 3/7: Resolving academic year\n", buf.String())
}
