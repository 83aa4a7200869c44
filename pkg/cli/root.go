// Package cli implements the anviltrack command-line client.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host   string
		output string
	)

	rootCmd := &cobra.Command{
		Use:           "anviltrack",
		Short:         "AnVIL resource tracker CLI",
		Long:          "Command-line client for the anviltrack server API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = &UserConfig{}
			}
			// Precedence: flag > env > config file > default.
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("ANVILTRACK_HOST"); v != "" {
					host = v
				} else if cfg.Host != "" {
					host = cfg.Host
				}
			}
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("ANVILTRACK_OUTPUT"); v != "" {
					output = v
				} else if cfg.Output != "" {
					output = cfg.Output
				}
			}
			return validateOutputFormat(output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "yaml", "Output format (yaml, json)")

	client := &Client{}
	originalPreRun := rootCmd.PersistentPreRunE
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := originalPreRun(cmd, args); err != nil {
			return err
		}
		client.BaseURL = host
		return nil
	}

	rootCmd.AddCommand(newStatusCmd(client))
	rootCmd.AddCommand(newAuditCmd(client))
	rootCmd.AddCommand(newBillingProjectsCmd(client))
	rootCmd.AddCommand(newAccountsCmd(client))
	rootCmd.AddCommand(newGroupsCmd(client))
	rootCmd.AddCommand(newWorkspacesCmd(client))
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
