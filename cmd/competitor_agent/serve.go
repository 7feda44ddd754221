package main

import (
	"context"
	"fmt"

	"github.com/jonathan/competitor-analyzer/internal/config"
	"github.com/jonathan/competitor-analyzer/internal/llm"
	"github.com/jonathan/competitor-analyzer/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the analysis endpoints:

  POST /analyze          full analysis (JSON)
  POST /analyze/stream   full analysis with Server-Sent Events progress
  POST /competitors      discovery only
  GET  /health

When JWT_SECRET is set the POST endpoints require a bearer token (see issue-token).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	jwtConfig, err := config.OptionalJWTConfig()
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}

	d, err := buildDeps(context.Background(), cfg, true)
	if err != nil {
		return err
	}
	defer d.Close()

	srvConfig := server.Config{
		Port:           cfg.Port,
		Analyzer:       d.service,
		JWT:            jwtConfig,
		SearchProvider: d.searchName(),
		LLMModel:       d.llmClient.GetModel(llm.TierStandard),
	}
	if d.database != nil {
		srvConfig.Database = d.database
	}

	srv, err := server.New(srvConfig)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
