package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/competitor-analyzer/internal/observability"
	"github.com/spf13/cobra"
)

var (
	discoverJSON bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover <company-url>",
	Short: "Find up to three competitors for a company",
	Long: `Runs competitor discovery only: live web search when a search credential is configured,
then the curated catalog, then generic placeholders.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	d, err := buildDeps(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer d.Close()

	result, err := d.discoverer.Discover(ctx, args[0])
	if err != nil {
		return err
	}

	if discoverJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return nil
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintDiscovery(result)
	return nil
}
