package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/competitor-analyzer/internal/config"
	"github.com/jonathan/competitor-analyzer/internal/server"
	"github.com/jonathan/competitor-analyzer/internal/types"
	"github.com/spf13/cobra"
)

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token <client-id>",
	Short: "Issue a bearer token for the API",
	Long:  `Signs a token for client-id with JWT_SECRET. Tokens expire after JWT_EXPIRATION_HOURS (default 24).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runIssueToken,
}

func init() {
	rootCmd.AddCommand(issueTokenCmd)
}

func runIssueToken(cmd *cobra.Command, args []string) error {
	clientID := strings.TrimSpace(args[0])
	if clientID == "" {
		return fmt.Errorf("client id is required")
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	svc := server.NewJWTService(jwtConfig)
	token, err := svc.GenerateToken(clientID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(types.TokenResponse{
		ClientID:  clientID,
		Token:     token,
		ExpiresIn: int(svc.TTL().Seconds()),
	})
}
