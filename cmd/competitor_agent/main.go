package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "competitor_agent",
	Short: "Discover a company's competitors and analyze their GenAI use cases",
	Long: `competitor_agent finds up to three competitors for a company website, extracts the text of
each competitor's homepage, and asks an LLM for a competitive GenAI analysis.

Configuration comes from the environment (optionally a .env file) and an optional JSON file
passed with --config.`,
	SilenceUsage: true,
}

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file (values override environment variables)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
