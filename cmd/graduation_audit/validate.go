package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/graduation-audit/internal/schemas"
	reportschema "github.com/jonathan/graduation-audit/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a saved report against the report schema",
	RunE:  runValidate,
}

var validateInputFile string

func init() {
	validateCmd.Flags().StringVarP(&validateInputFile, "in", "i", "", "Path to a report JSON file")
	_ = validateCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	if err := validateReportFile(validateInputFile); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is a valid report\n", validateInputFile)
	return nil
}

// validateReportFile checks a report file against the on-disk schema when one is
// reachable from the working directory, and the embedded copy otherwise.
func validateReportFile(path string) error {
	if schemaPath := schemas.ResolveSchemaPath(schemas.ReportSchemaPath); schemaPath != "" {
		return schemas.ValidateJSON(schemaPath, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	return schemas.ValidateJSONString(reportschema.Report, string(data))
}
