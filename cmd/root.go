package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "match-service",
	Short: "Live match service: question-by-question quiz sessions",
	Long:  `HTTP API for teacher-driven live matches over question sets. Commands: serve, migrate, seed.`,
	RunE:  runServe, // default: run the API (same as "match-service serve")
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// Execute runs the root command and returns the error (for main to log.Fatal).
func Execute() error {
	return rootCmd.Execute()
}
