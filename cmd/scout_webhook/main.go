// Package main provides the entry point for the study webhook receiver.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scout_webhook",
	Short: "Study pipeline webhook receiver",
	Long:  "scout_webhook receives progress and result callbacks from the research and evaluation pipeline and records them against study sessions.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
