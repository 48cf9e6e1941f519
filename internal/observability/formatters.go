// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/graduation-audit/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// studentFieldOrder lists header fields in display order; other fields follow sorted by key.
var studentFieldOrder = []struct {
	key   string
	label string
}{
	{types.FieldName, "Name"},
	{types.FieldStudentID, "Student No"},
	{types.FieldFaculty, "Faculty"},
	{types.FieldDepartment, "Department"},
	{types.FieldProgram, "Program"},
	{types.FieldStartDate, "Enrolled"},
	{types.FieldEndDate, "Left"},
}

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most width runes.
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintStep prints a pipeline progress line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStep(position, total int, message string) {
	fmt.Fprintf(p.out, "Step %d/%d: %s\n", position, total, message)
}

// PrintStudent outputs the transcript header fields.
func (p *Printer) PrintStudent(header types.StudentHeader, academicYear string) {
	if len(header) == 0 && academicYear == "" {
		return
	}

	var sb strings.Builder
	known := make(map[string]bool)
	for _, f := range studentFieldOrder {
		known[f.key] = true
		if v := header[f.key]; v != "" {
			sb.WriteString(fmt.Sprintf("%-12s %s\n", f.label+":", v))
		}
	}

	var extra []string
	for key := range header {
		if !known[key] && key != types.FieldTCID {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		sb.WriteString(fmt.Sprintf("%-12s %s\n", key+":", header[key]))
	}

	if academicYear != "" {
		sb.WriteString(fmt.Sprintf("%-12s %s\n", "Curriculum:", academicYear))
	}

	p.printBox("STUDENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTranscript outputs a per-semester summary of the parsed transcript.
func (p *Printer) PrintTranscript(transcript *types.Transcript) {
	if transcript == nil || len(transcript.Semesters) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total courses: %d\n\n", transcript.CourseCount()))
	for _, s := range transcript.Semesters {
		sb.WriteString(fmt.Sprintf("Semester %s: %d courses\n", s.Key, len(s.Courses)))
		count := min(len(s.Courses), maxItemsToShow)
		for i := 0; i < count; i++ {
			c := s.Courses[i]
			grade := c.Grade
			if grade == "" {
				grade = "?"
			}
			sb.WriteString(fmt.Sprintf("  • %-8s %-3s %s\n", c.Code, grade, c.Name))
		}
		if len(s.Courses) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(s.Courses)-maxItemsToShow))
		}
	}

	p.printBox("PARSED TRANSCRIPT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRemaining outputs the courses still required, mandatory ones first within each semester.
func (p *Printer) PrintRemaining(remaining []types.RemainingCourse) {
	var sb strings.Builder
	if len(remaining) == 0 {
		sb.WriteString("All curriculum requirements are satisfied.")
		p.printBox("REMAINING COURSES", sb.String())
		return
	}

	sb.WriteString(fmt.Sprintf("%-8s %-3s %-4s %-4s %-5s %s\n", "CODE", "SEM", "KR", "AKTS", "GRADE", "NAME"))
	for _, c := range remaining {
		name := c.Name
		if !c.IsMust && c.RemainingCredits != nil {
			name = fmt.Sprintf("%s (elective, %d credits left)", name, *c.RemainingCredits)
		}
		sb.WriteString(fmt.Sprintf("%-8s %-3d %-4d %-4d %-5s %s\n", c.Code, c.Semester, c.Credit, c.ECTS, c.Grade, name))
	}

	p.printBox(fmt.Sprintf("REMAINING COURSES (%d)", len(remaining)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWarnings outputs graduation-blocking warnings.
func (p *Printer) PrintWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}

	var sb strings.Builder
	for _, w := range warnings {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", w))
	}

	p.printBox("GRADUATION WARNINGS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReport outputs a complete audit report followed by the verdict.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintReport(report *types.Report) {
	if report == nil {
		return
	}

	p.PrintStudent(report.Student, report.AcademicYear)
	p.PrintRemaining(report.Remaining)
	p.PrintWarnings(report.Warnings)

	if report.Eligible() {
		fmt.Fprintln(p.out, "✅ No graduation blockers found.")
		return
	}
	fmt.Fprintf(p.out, "❌ Not eligible: %d remaining courses, %d warnings.\n", len(report.Remaining), len(report.Warnings))
}
