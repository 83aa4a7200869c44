package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the CLI configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a configuration value (host, output)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return err
			}
			switch args[0] {
			case "host":
				cfg.Host = args[1]
			case "output":
				if err := validateOutputFormat(args[1]); err != nil {
					return err
				}
				cfg.Output = args[1]
			default:
				return fmt.Errorf("unknown config key %q: use 'host' or 'output'", args[0])
			}
			return SaveUserConfig(cfg)
		},
	})

	return cmd
}
