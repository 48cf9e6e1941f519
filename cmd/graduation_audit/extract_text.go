package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/graduation-audit/internal/document"
)

var extractTextCmd = &cobra.Command{
	Use:   "extract-text",
	Short: "Write the flattened text tokens of a transcript",
	Long:  "Extracts the body text of a .docx transcript, one token per line, as the audit sees it.",
	RunE:  runExtractText,
}

var (
	extractInputFile  string
	extractOutputFile string
)

func init() {
	extractTextCmd.Flags().StringVarP(&extractInputFile, "in", "i", "", "Path to the .docx transcript")
	extractTextCmd.Flags().StringVarP(&extractOutputFile, "out", "o", "", "Path to the text file (stdout when omitted)")
	_ = extractTextCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(extractTextCmd)
}

func runExtractText(cmd *cobra.Command, _ []string) error {
	doc, err := document.Open(extractInputFile)
	if err != nil {
		return err
	}

	text := doc.Text()
	if extractOutputFile == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	}

	if err := os.WriteFile(extractOutputFile, []byte(text+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write text: %w", err)
	}
	logger.Debug("transcript text written", zap.String("path", extractOutputFile), zap.Int("bytes", len(text)))
	return nil
}
