// Package reconcile matches a transcript against the curriculum and computes the
// courses still required for graduation.
package reconcile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/graduation-audit/internal/parsing"
	"github.com/jonathan/graduation-audit/internal/types"
)

// poolDigitOffset is the position, counted from the end of an elective slot's code,
// of the digit naming the semester whose pool satisfies it ("SEC501" → '5').
const poolDigitOffset = 3

// Result is the outcome of reconciling one transcript.
type Result struct {
	Remaining []types.RemainingCourse
	// Consumed lists passed elective codes whose credit was applied, in consumption order.
	Consumed []string
}

// passedCourse is a transcript course that earned credit.
type passedCourse struct {
	course   types.TranscriptCourse
	consumed bool
}

// requirement is a curriculum course still owed, with its elective deficit.
type requirement struct {
	course    types.CurriculumCourse
	remaining int
}

// Reconcile computes the remaining requirements.
//
// Mandatory semester courses that were not passed remain owed. Each unpassed elective
// slot starts with a deficit equal to its credit, and passed courses indexed under the
// slot's pool are applied against it in transcript order; a course applied to one slot
// cannot be applied to another. Slots whose deficit drops to zero are satisfied.
func Reconcile(transcript *types.Transcript, curriculum *types.Curriculum) (*Result, error) {
	gradeByCode := make(map[string]string)
	for _, c := range transcript.Courses() {
		gradeByCode[c.Code] = c.Grade
	}

	passed := passedInOrder(transcript)
	passedByCode := make(map[string]bool, len(passed))
	for _, p := range passed {
		passedByCode[p.course.Code] = true
	}

	var owed []*requirement
	for _, group := range curriculum.Groups {
		if group.IsElectivePool() {
			continue
		}
		for _, course := range group.Courses {
			if !passedByCode[course.Code] {
				owed = append(owed, &requirement{course: course})
			}
		}
	}

	var consumed []string
	for _, req := range owed {
		if req.course.Mandatory {
			continue
		}

		pool, err := poolLabel(req.course.Code)
		if err != nil {
			return nil, err
		}
		deficit, err := parseNumber("credit", req.course.Code, req.course.Credit)
		if err != nil {
			return nil, err
		}

		for _, p := range passed {
			if deficit <= 0 {
				break
			}
			if p.consumed || !strings.Contains(curriculum.Index[p.course.Code], pool) {
				continue
			}
			credit, err := parseTranscriptCredit(p.course)
			if err != nil {
				return nil, err
			}
			deficit -= credit
			p.consumed = true
			consumed = append(consumed, p.course.Code)
		}

		req.remaining = int(math.Floor(deficit))
	}

	result := &Result{Consumed: consumed}
	for _, req := range owed {
		if !req.course.Mandatory && req.remaining <= 0 {
			continue
		}
		rc, err := toRemaining(req, gradeByCode)
		if err != nil {
			return nil, err
		}
		result.Remaining = append(result.Remaining, rc)
	}

	return result, nil
}

// passedInOrder returns courses with a non-failing grade in transcript order.
// A code taken more than once keeps its first position and its latest record.
func passedInOrder(transcript *types.Transcript) []*passedCourse {
	var order []*passedCourse
	byCode := make(map[string]*passedCourse)

	for _, c := range transcript.Courses() {
		if parsing.IsFailingGrade(c.Grade) {
			continue
		}
		if existing, ok := byCode[c.Code]; ok {
			existing.course = c
			continue
		}
		p := &passedCourse{course: c}
		byCode[c.Code] = p
		order = append(order, p)
	}

	return order
}

// poolLabel returns the elective-pool label an elective slot draws from.
func poolLabel(code string) (string, error) {
	runes := []rune(code)
	if len(runes) < poolDigitOffset {
		return "", &types.StructuralError{
			Source:  "curriculum",
			Message: fmt.Sprintf("elective slot code %q too short to name a pool", code),
		}
	}
	return types.ElectiveMarker + string(runes[len(runes)-poolDigitOffset]), nil
}

func toRemaining(req *requirement, gradeByCode map[string]string) (types.RemainingCourse, error) {
	c := req.course

	credit, err := parseNumber("credit", c.Code, c.Credit)
	if err != nil {
		return types.RemainingCourse{}, err
	}
	ects, err := parseNumber("ECTS", c.Code, c.ECTS)
	if err != nil {
		return types.RemainingCourse{}, err
	}
	semester, err := strconv.Atoi(c.SemesterLabel)
	if err != nil {
		return types.RemainingCourse{}, &types.StructuralError{
			Source:  "curriculum",
			Message: fmt.Sprintf("semester label %q of %s is not a number", c.SemesterLabel, c.Code),
			Cause:   err,
		}
	}

	grade, ok := gradeByCode[c.Code]
	if !ok {
		grade = types.NotTakenGrade
	}

	rc := types.RemainingCourse{
		Code:     c.Code,
		Name:     c.Name,
		IsMust:   c.Mandatory,
		Credit:   int(credit),
		ECTS:     int(ects),
		Semester: semester,
		Grade:    grade,
	}
	if !c.Mandatory {
		remaining := req.remaining
		rc.RemainingCredits = &remaining
	}
	return rc, nil
}

// parseNumber reads a curriculum numeric cell; a failure means the page layout changed.
func parseNumber(field, code, value string) (float64, error) {
	n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(value), ",", "."), 64)
	if err != nil {
		return 0, &types.StructuralError{
			Source:  "curriculum",
			Message: fmt.Sprintf("%s of %s is not numeric: %q", field, code, value),
			Cause:   err,
		}
	}
	return n, nil
}

func parseTranscriptCredit(c types.TranscriptCourse) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(c.Credit), 64)
	if err != nil {
		return 0, &types.FormatError{
			Field: "credit of " + c.Code,
			Value: c.Credit,
			Cause: err,
		}
	}
	return n, nil
}
