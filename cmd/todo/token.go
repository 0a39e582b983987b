package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crudkit/pkg/config"
	"crudkit/pkg/server/middleware"
)

// tokenCmd mints a guard token for local development and testing.
var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Mint a guard token for a subject",
	Long: `Mint a bearer token accepted by the API guard.

The token is signed with the configured guard secret and expires after
the configured TTL. Requires CRUDKIT_GUARD_SECRET (or guard_secret in
the config file).

Example:
  todo token alice`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		if cfg.GuardSecret == "" {
			fmt.Fprintln(os.Stderr, "guard secret is not configured")
			os.Exit(1)
		}

		guard := middleware.NewGuard([]byte(cfg.GuardSecret), cfg.TokenTTLDuration())
		token, err := guard.Issue(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to mint token: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
