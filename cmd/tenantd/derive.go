package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

var deriveNamespace string

var deriveCmd = &cobra.Command{
	Use:   "derive <user-id>",
	Short: "Print the tenant id derived for a user id",
	Long: `Print the name-based tenant id a new account with the given user id
receives. The result is stable across runs and machines.`,
	Args: cobra.ExactArgs(1),
	RunE: runDerive,
}

func init() {
	deriveCmd.Flags().StringVar(&deriveNamespace, "namespace", "", "namespace UUID (defaults to the built-in tenant namespace)")
}

func runDerive(cmd *cobra.Command, args []string) error {
	derive := tenant.DeriveDeterministic
	if deriveNamespace != "" {
		ns, err := uuid.Parse(deriveNamespace)
		if err != nil {
			return fmt.Errorf("invalid namespace: %w", err)
		}
		derive = tenant.NameBasedDeriver(ns)
	}

	id, err := derive(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
