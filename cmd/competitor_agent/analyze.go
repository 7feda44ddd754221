package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/competitor-analyzer/internal/analysis"
	"github.com/jonathan/competitor-analyzer/internal/observability"
	"github.com/spf13/cobra"
)

var (
	analyzeJSON bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <company-url>",
	Short: "Run the full competitive analysis for a company",
	Long: `Discovers competitors, extracts each competitor's homepage text and generates a
GenAI competitive analysis with the configured LLM provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	d, err := buildDeps(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer d.Close()

	progress := func(event analysis.ProgressEvent) {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", event.Step, event.Message)
	}

	result, err := d.service.Analyze(ctx, args[0], progress)
	if err != nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return nil
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if cfg.Verbose {
		printer.PrintCompetitorContent(result.Competitors)
	}
	printer.PrintReport(result.Recommendations)
	return nil
}
