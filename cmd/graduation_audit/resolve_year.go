package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/graduation-audit/internal/curriculum"
)

var resolveYearCmd = &cobra.Command{
	Use:   "resolve-year",
	Short: "Print the academic year label for a registration date",
	RunE:  runResolveYear,
}

var resolveDate string

func init() {
	resolveYearCmd.Flags().StringVar(&resolveDate, "date", "", "Registration date (DD.MM.YYYY)")
	_ = resolveYearCmd.MarkFlagRequired("date")

	rootCmd.AddCommand(resolveYearCmd)
}

func runResolveYear(cmd *cobra.Command, _ []string) error {
	label, err := curriculum.ResolveAcademicYear(resolveDate)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), label)
	return err
}
