// Package steps provides step definitions and dependency validation
// for the graduation audit pipeline.
package steps

import (
	"fmt"
	"sort"
)

// Step categories
const (
	CategoryTranscript = "transcript"
	CategoryCurriculum = "curriculum"
	CategoryAudit      = "audit"
)

// Step names
const (
	ExtractDocument = "extract_document"
	ParseSemesters  = "parse_semesters"
	ResolveYear     = "resolve_year"
	FetchCurriculum = "fetch_curriculum"
	ParseCurriculum = "parse_curriculum"
	Reconcile       = "reconcile"
	CheckRules      = "check_rules"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
}

// Order is the execution order of the pipeline.
var Order = []string{
	ExtractDocument,
	ParseSemesters,
	ResolveYear,
	FetchCurriculum,
	ParseCurriculum,
	Reconcile,
	CheckRules,
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	ExtractDocument: {
		Name:         ExtractDocument,
		Category:     CategoryTranscript,
		Dependencies: []string{},
	},
	ParseSemesters: {
		Name:         ParseSemesters,
		Category:     CategoryTranscript,
		Dependencies: []string{ExtractDocument},
	},
	ResolveYear: {
		Name:         ResolveYear,
		Category:     CategoryCurriculum,
		Dependencies: []string{ExtractDocument},
	},
	FetchCurriculum: {
		Name:         FetchCurriculum,
		Category:     CategoryCurriculum,
		Dependencies: []string{ResolveYear},
	},
	ParseCurriculum: {
		Name:         ParseCurriculum,
		Category:     CategoryCurriculum,
		Dependencies: []string{FetchCurriculum},
	},
	Reconcile: {
		Name:         Reconcile,
		Category:     CategoryAudit,
		Dependencies: []string{ParseSemesters, ParseCurriculum},
	},
	CheckRules: {
		Name:         CheckRules,
		Category:     CategoryAudit,
		Dependencies: []string{ExtractDocument},
	},
}

// Completed is the set of steps finished within one run.
type Completed map[string]bool

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("missing dependencies: %v", e.MissingDependencies)
}

// Position returns the 1-based position of a step in Order, or 0 if unknown.
func Position(stepName string) int {
	for i, name := range Order {
		if name == stepName {
			return i + 1
		}
	}
	return 0
}

// ValidateDependencies checks if all required dependencies for a step are completed
func ValidateDependencies(completed Completed, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}

	return nil
}

// GetAvailableSteps returns steps that can be executed (dependencies met), sorted by name
func GetAvailableSteps(completed Completed) []string {
	var available []string
	for stepName := range StepRegistry {
		if completed[stepName] {
			continue
		}
		if err := ValidateDependencies(completed, stepName); err != nil {
			continue
		}
		available = append(available, stepName)
	}
	sort.Strings(available)
	return available
}

// GetBlockedSteps returns steps that are blocked (dependencies not met), sorted by name
func GetBlockedSteps(completed Completed) []string {
	var blocked []string
	for stepName := range StepRegistry {
		if completed[stepName] {
			continue
		}
		if err := ValidateDependencies(completed, stepName); err != nil {
			blocked = append(blocked, stepName)
		}
	}
	sort.Strings(blocked)
	return blocked
}
