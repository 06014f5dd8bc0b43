// Package main is the entry point for the searchctl CLI, a one-off
// literature pull that runs the search pipeline synchronously and prints
// ranked results without persisting anything.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the searchctl CLI.
var rootCmd = &cobra.Command{
	Use:   "searchctl",
	Short: "Treasury literature search from the command line",
	Long: `searchctl queries the configured literature sources (arXiv, Crossref,
Google Scholar, ResearchGate, Scopus) directly, without the HTTP server or
the database. Results are normalized, optionally AI-ranked, and printed to
stdout.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
