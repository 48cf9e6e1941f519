package types

import "strings"

// ElectiveMarker prefixes elective-pool labels ("S5" is the semester 5 pool).
const ElectiveMarker = "S"

// CurriculumCourse is one requirement row from the curriculum tables.
// Columns holds every header→cell pair of the source row.
type CurriculumCourse struct {
	Code          string            `json:"code"`
	Name          string            `json:"name"`
	Mandatory     bool              `json:"mandatory"`
	Credit        string            `json:"credit"`
	ECTS          string            `json:"ects"`
	SemesterLabel string            `json:"semester_label"`
	Columns       map[string]string `json:"columns,omitempty"`
}

// CourseGroup is the list of courses sharing a semester or elective-pool label.
type CourseGroup struct {
	Label   string             `json:"label"`
	Courses []CurriculumCourse `json:"courses"`
}

// IsElectivePool reports whether the group is an elective pool rather than a semester table.
func (g CourseGroup) IsElectivePool() bool {
	return IsElectiveLabel(g.Label)
}

// IsElectiveLabel reports whether label names an elective pool.
func IsElectiveLabel(label string) bool {
	return strings.HasPrefix(label, ElectiveMarker)
}

// Curriculum holds the parsed curriculum tables in page order plus the code→label index.
//
// The index is not deduplicated for elective pools: a code listed in pools S5 and S7
// is indexed as "S5S7", and matching relies on substring containment.
type Curriculum struct {
	Groups []CourseGroup     `json:"groups"`
	Index  map[string]string `json:"index"`
}

// NewCurriculum returns an empty curriculum ready for use.
func NewCurriculum() *Curriculum {
	return &Curriculum{Index: make(map[string]string)}
}

// Group returns the group with the given label, or nil.
func (c *Curriculum) Group(label string) *CourseGroup {
	for i := range c.Groups {
		if c.Groups[i].Label == label {
			return &c.Groups[i]
		}
	}
	return nil
}

// Add appends a course to the group named by its semester label.
func (c *Curriculum) Add(course CurriculumCourse) {
	if g := c.Group(course.SemesterLabel); g != nil {
		g.Courses = append(g.Courses, course)
		return
	}
	c.Groups = append(c.Groups, CourseGroup{Label: course.SemesterLabel, Courses: []CurriculumCourse{course}})
}
