// Package main provides the entry point for the jobscout ingestion and
// recommendation CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "jobscout",
	Short: "Job posting ingestion and recommendation engine",
	Long:  "jobscout ingests job postings from configured boards, feeds and career pages, deduplicates them by content fingerprint, and scores them against user profiles.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "Path to the configuration file")
}
