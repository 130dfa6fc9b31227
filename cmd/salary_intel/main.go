// Package main provides the entry point for the salary-intel CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "salary_intel",
	Short: "Personalized salary intelligence pipeline",
	Long:  "salary_intel gathers market evidence, synthesizes personalized salary analyses with source citations, and caches validated reports in PostgreSQL.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
