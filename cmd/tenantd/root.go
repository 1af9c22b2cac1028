package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantsync/pkg/config"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "tenantd",
	Short: "Tenant resolution service for the dashboard shell",
	Long: `tenantd resolves the tenant a signed-in user works in and keeps the
identity token, tenant record service, durable storage and tenant cookie in
agreement.

Examples:
  tenantd serve                   # Run the HTTP API
  tenantd derive user-123         # Print the tenant id a new account would get
  tenantd token user-123          # Mint a development identity token`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment")

	rootCmd.AddCommand(serveCmd, deriveCmd, tokenCmd)
}

func loadConfig() (Config, error) {
	var opts []config.Option
	if len(envFiles) > 0 {
		opts = append(opts, config.WithFiles(envFiles...))
	}
	return config.Load[Config](opts...)
}
