// Command issue-token mints an access token for an operator or a company user.
// It is meant for local development and support; production tokens come from the identity provider.
package main

import (
	"fmt"
	"os"
	"time"

	"treeleads/internal/auth/token"
	"treeleads/platform/httpkit"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagSecret  string
	flagUserID  string
	flagCompany string
	flagAdmin   bool
	flagTTL     time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Mint an access token for the lead marketplace API",
	Long: `Signs an HS256 access token with JWT_ACCESS_SECRET.
Pass --admin for an operator token or --company <id> for a company token.`,
	Args: cobra.NoArgs,
	RunE: runIssueToken,
}

func init() {
	rootCmd.Flags().StringVar(&flagSecret, "secret", "", "signing secret (defaults to JWT_ACCESS_SECRET)")
	rootCmd.Flags().StringVar(&flagUserID, "user", "", "user id (random when omitted)")
	rootCmd.Flags().StringVar(&flagCompany, "company", "", "company id; grants the company role")
	rootCmd.Flags().BoolVar(&flagAdmin, "admin", false, "grant the admin role")
	rootCmd.Flags().DurationVar(&flagTTL, "ttl", time.Hour, "token lifetime")
}

func runIssueToken(cmd *cobra.Command, _ []string) error {
	secret := flagSecret
	if secret == "" {
		secret = os.Getenv("JWT_ACCESS_SECRET")
	}

	userID := uuid.New()
	if flagUserID != "" {
		parsed, err := uuid.Parse(flagUserID)
		if err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}
		userID = parsed
	}

	params := token.AccessParams{UserID: userID, TTL: flagTTL}
	if flagAdmin {
		params.Roles = append(params.Roles, httpkit.RoleAdmin)
	}
	if flagCompany != "" {
		companyID, err := uuid.Parse(flagCompany)
		if err != nil {
			return fmt.Errorf("invalid --company: %w", err)
		}
		params.CompanyID = &companyID
		params.Roles = append(params.Roles, httpkit.RoleCompany)
	}
	if len(params.Roles) == 0 {
		return fmt.Errorf("pass --admin or --company")
	}

	signed, err := token.SignAccess(secret, params, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), signed)
	return nil
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
