package types

import "time"

// NotTakenGrade is reported for curriculum courses that never appear in the transcript.
const NotTakenGrade = "-"

// RemainingCourse is a curriculum requirement the student still owes.
// RemainingCredits is set only for elective slots (IsMust false).
type RemainingCourse struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	IsMust           bool   `json:"is_must"`
	Credit           int    `json:"credit"`
	ECTS             int    `json:"ects"`
	Semester         int    `json:"semester"`
	RemainingCredits *int   `json:"remaining_credits,omitempty"`
	Grade            string `json:"grade"`
}

// Report is the complete result of auditing one transcript.
type Report struct {
	ID           string            `json:"id"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Student      StudentHeader     `json:"student"`
	AcademicYear string            `json:"academic_year"`
	Remaining    []RemainingCourse `json:"remaining"`
	Consumed     []string          `json:"consumed_electives"`
	Warnings     []string          `json:"warnings"`
}

// Eligible reports whether nothing blocks graduation.
func (r *Report) Eligible() bool {
	return len(r.Remaining) == 0 && len(r.Warnings) == 0
}
