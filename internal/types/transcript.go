// Package types provides type definitions for structured data used throughout the graduation-audit system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Canonical student header field names
const (
	FieldFaculty    = "faculty"
	FieldDepartment = "department"
	FieldProgram    = "program"
	FieldTCID       = "tc_id"
	FieldStudentID  = "student_id"
	FieldName       = "name"
	FieldStartDate  = "start_date"
	FieldEndDate    = "end_date"
)

// StudentHeader maps canonical field names to values read from the transcript header.
// Labels the extractor does not know are kept under a synthesized key.
type StudentHeader map[string]string

// StartDate returns the enrollment date (D.M.YYYY, zero padding optional) if present.
func (h StudentHeader) StartDate() (string, bool) {
	v, ok := h[FieldStartDate]
	return v, ok && v != ""
}

// TranscriptCourse is a single course row read from the transcript body.
// Credit and ECTS hold the raw document text.
type TranscriptCourse struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Credit string `json:"credit"`
	ECTS   string `json:"ects"`
	Grade  string `json:"grade"`
}

// Semester groups the courses listed under one term header.
type Semester struct {
	Key     string             `json:"key"`
	Courses []TranscriptCourse `json:"courses"`
}

// Transcript holds semesters in the order they appear in the document.
type Transcript struct {
	Semesters []Semester `json:"semesters"`
}

// Semester returns the semester with the given key, or nil.
func (t *Transcript) Semester(key string) *Semester {
	for i := range t.Semesters {
		if t.Semesters[i].Key == key {
			return &t.Semesters[i]
		}
	}
	return nil
}

// Add appends a course under key, creating the semester on first use.
func (t *Transcript) Add(key string, course TranscriptCourse) {
	if s := t.Semester(key); s != nil {
		s.Courses = append(s.Courses, course)
		return
	}
	t.Semesters = append(t.Semesters, Semester{Key: key, Courses: []TranscriptCourse{course}})
}

// Courses returns every course in encounter order: semester order, then row order.
func (t *Transcript) Courses() []TranscriptCourse {
	var all []TranscriptCourse
	for _, s := range t.Semesters {
		all = append(all, s.Courses...)
	}
	return all
}

// CourseCount returns the total number of course rows.
func (t *Transcript) CourseCount() int {
	count := 0
	for _, s := range t.Semesters {
		count += len(s.Courses)
	}
	return count
}
