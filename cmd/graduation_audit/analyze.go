package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/graduation-audit/internal/curriculum"
	"github.com/jonathan/graduation-audit/internal/observability"
	"github.com/jonathan/graduation-audit/internal/pipeline"
	"github.com/jonathan/graduation-audit/internal/pipeline/steps"
	"github.com/jonathan/graduation-audit/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Audit a transcript against its curriculum",
	Long: `Runs the full audit: extract the transcript text, parse its semesters, resolve the
academic year, fetch and parse the curriculum, reconcile, and check the GPA and ECTS rules.`,
	RunE: runAnalyze,
}

var (
	analyzeInputFile  string
	analyzeOutputFile string
)

// curriculumSource builds the curriculum client; tests replace it.
var curriculumSource = func() curriculum.Source {
	return curriculum.NewFetcher(cfg.FetcherConfig(logger))
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInputFile, "in", "i", "", "Path to the .docx transcript")
	analyzeCmd.Flags().StringVarP(&analyzeOutputFile, "out", "o", "", "Path to write the JSON report (optional)")
	_ = analyzeCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	file, err := os.Open(analyzeInputFile)
	if err != nil {
		return fmt.Errorf("failed to open transcript: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat transcript: %w", err)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	opts := pipeline.RunOptions{
		Source:  curriculumSource(),
		Checker: cfg.Checker(logger),
		Logger:  logger,
	}
	if verbose {
		opts.OnProgress = func(event pipeline.ProgressEvent) {
			printer.PrintStep(steps.Position(event.Step), len(steps.Order), event.Message)
			if transcript, ok := event.Content.(*types.Transcript); ok {
				printer.PrintTranscript(transcript)
			}
		}
	}

	report, err := pipeline.Run(cmd.Context(), file, info.Size(), opts)
	if err != nil {
		return err
	}

	printer.PrintReport(report)

	if analyzeOutputFile != "" {
		if err := writeReport(report, analyzeOutputFile); err != nil {
			return err
		}
		if err := validateReportFile(analyzeOutputFile); err != nil {
			return err
		}
		logger.Info("report written", zap.String("path", analyzeOutputFile), zap.String("run_id", report.ID))
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", analyzeOutputFile)
	}
	return nil
}

func writeReport(report *types.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
