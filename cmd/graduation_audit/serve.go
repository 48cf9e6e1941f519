package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/graduation-audit/internal/curriculum"
	"github.com/jonathan/graduation-audit/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server that accepts transcript uploads on POST /analyze and returns audit reports.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	port := cfg.Port
	if cmd.Flags().Changed("port") {
		port = servePort
	}

	srv, err := server.New(server.Config{
		Port:           port,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Source:         curriculum.NewFetcher(cfg.FetcherConfig(logger)),
		Checker:        cfg.Checker(logger),
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
