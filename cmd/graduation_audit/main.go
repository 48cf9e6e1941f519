// Package main provides the graduation_audit command line tool and HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/graduation-audit/internal/config"
	"github.com/jonathan/graduation-audit/internal/logging"
)

var (
	configPath string
	verbose    bool

	// Set by PersistentPreRunE for every subcommand.
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "graduation_audit",
	Short: "Graduation requirement audit for university transcripts",
	Long: `graduation_audit reads a student's .docx transcript, fetches the curriculum for the
student's entry year, and reports the courses still owed plus any GPA or per-term ECTS
rule the student fails.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json (environment variables override file values)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging and per-step progress")
}

// setup loads configuration and builds the logger.
func setup(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = loaded
	verbose = verbose || cfg.Verbose

	logger, err = logging.New(verbose)
	if err != nil {
		return err
	}
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
