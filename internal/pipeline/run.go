// Package pipeline provides the high-level orchestration for auditing one transcript.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/graduation-audit/internal/curriculum"
	"github.com/jonathan/graduation-audit/internal/document"
	"github.com/jonathan/graduation-audit/internal/logging"
	"github.com/jonathan/graduation-audit/internal/parsing"
	"github.com/jonathan/graduation-audit/internal/pipeline/steps"
	"github.com/jonathan/graduation-audit/internal/reconcile"
	"github.com/jonathan/graduation-audit/internal/rules"
	"github.com/jonathan/graduation-audit/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`

	// Available and Blocked list the steps runnable or still waiting after this one.
	Available []string `json:"available,omitempty"`
	Blocked   []string `json:"blocked,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	Source     curriculum.Source // Required
	Checker    *rules.Checker
	Logger     *zap.Logger
	OnProgress ProgressCallback
	// Now overrides the report timestamp; used by tests.
	Now func() time.Time
}

// run carries the state of one pipeline invocation.
type run struct {
	id        string
	opts      RunOptions
	logger    *zap.Logger
	completed steps.Completed
}

// begin validates that a step's dependencies have finished.
func (r *run) begin(step string) error {
	if err := steps.ValidateDependencies(r.completed, step); err != nil {
		return fmt.Errorf("pipeline step %s: %w", step, err)
	}
	r.logger.Debug("step started",
		zap.String("step", step),
		zap.String("position", fmt.Sprintf("%d/%d", steps.Position(step), len(steps.Order))))
	return nil
}

// done marks a step complete and emits progress if a callback is configured.
func (r *run) done(step, message string, content any) {
	r.completed[step] = true
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(ProgressEvent{
			Step:      step,
			Category:  steps.StepRegistry[step].Category,
			Message:   message,
			RunID:     r.id,
			Content:   content,
			Available: steps.GetAvailableSteps(r.completed),
			Blocked:   steps.GetBlockedSteps(r.completed),
		})
	}
}

// Run audits the transcript document read from r and returns the report.
// Curriculum and document failures abort the run; rule checks only add warnings.
func Run(ctx context.Context, r io.ReaderAt, size int64, opts RunOptions) (*types.Report, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("pipeline: curriculum source is required")
	}
	logger := logging.OrNop(opts.Logger)
	checker := opts.Checker
	if checker == nil {
		checker = rules.NewChecker(logger)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	runID := uuid.New().String()
	st := &run{
		id:        runID,
		opts:      opts,
		logger:    logger.With(zap.String("run_id", runID)),
		completed: steps.Completed{},
	}

	// Step 1: Extract document
	if err := st.begin(steps.ExtractDocument); err != nil {
		return nil, err
	}
	doc, err := document.Read(r, size)
	if err != nil {
		return nil, fmt.Errorf("document extraction failed: %w", err)
	}
	header := doc.Header()
	st.done(steps.ExtractDocument,
		fmt.Sprintf("Extracted %d tokens and %d header fields", len(doc.Tokens), len(header)), header)

	// Step 2: Parse semesters
	if err := st.begin(steps.ParseSemesters); err != nil {
		return nil, err
	}
	transcript := parsing.ParseSemesters(doc.Tokens)
	st.done(steps.ParseSemesters,
		fmt.Sprintf("Parsed %d courses across %d semesters", transcript.CourseCount(), len(transcript.Semesters)), transcript)

	// Step 3: Resolve academic year
	if err := st.begin(steps.ResolveYear); err != nil {
		return nil, err
	}
	startDate, ok := header.StartDate()
	if !ok {
		return nil, &types.NotFoundError{
			What:    "header field",
			Key:     types.FieldStartDate,
			Message: "enrollment date missing from transcript header",
		}
	}
	year, err := curriculum.ResolveAcademicYear(startDate)
	if err != nil {
		return nil, err
	}
	st.done(steps.ResolveYear, fmt.Sprintf("Enrollment %s resolves to academic year %s", startDate, year), year)

	// Step 4: Fetch curriculum
	if err := st.begin(steps.FetchCurriculum); err != nil {
		return nil, err
	}
	html, err := opts.Source.FetchCurriculum(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("curriculum fetch for %s failed: %w", year, err)
	}
	st.done(steps.FetchCurriculum, fmt.Sprintf("Fetched curriculum page for %s (%d bytes)", year, len(html)), nil)

	// Step 5: Parse curriculum
	if err := st.begin(steps.ParseCurriculum); err != nil {
		return nil, err
	}
	plan, err := curriculum.ParseTables(html)
	if err != nil {
		return nil, fmt.Errorf("curriculum parsing failed: %w", err)
	}
	if !hasSemesterTables(plan) {
		return nil, &types.NotFoundError{
			What:    "curriculum",
			Key:     year,
			Message: "no semester course tables found on curriculum page",
		}
	}
	st.done(steps.ParseCurriculum, fmt.Sprintf("Parsed %d curriculum groups", len(plan.Groups)), plan)

	// Step 6: Reconcile
	if err := st.begin(steps.Reconcile); err != nil {
		return nil, err
	}
	result, err := reconcile.Reconcile(transcript, plan)
	if err != nil {
		return nil, fmt.Errorf("reconciliation failed: %w", err)
	}
	st.done(steps.Reconcile,
		fmt.Sprintf("%d courses remaining, %d electives applied", len(result.Remaining), len(result.Consumed)), result)

	// Step 7: Check graduation rules
	if err := st.begin(steps.CheckRules); err != nil {
		return nil, err
	}
	warnings := checker.Check(doc.Text())
	st.done(steps.CheckRules, fmt.Sprintf("%d graduation warnings", len(warnings)), warnings)

	report := &types.Report{
		ID:           st.id,
		GeneratedAt:  now().UTC(),
		Student:      header,
		AcademicYear: year,
		Remaining:    nonNil(result.Remaining),
		Consumed:     nonNil(result.Consumed),
		Warnings:     nonNil(warnings),
	}
	st.logger.Info("audit completed",
		zap.String("academic_year", year),
		zap.Int("remaining", len(report.Remaining)),
		zap.Int("warnings", len(report.Warnings)),
		zap.Bool("eligible", report.Eligible()))

	return report, nil
}

func hasSemesterTables(c *types.Curriculum) bool {
	for _, g := range c.Groups {
		if !g.IsElectivePool() {
			return true
		}
	}
	return false
}

// nonNil keeps empty lists serialized as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
