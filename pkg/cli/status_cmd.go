package cli

import (
	"github.com/spf13/cobra"
)

func newStatusCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check server and AnVIL API health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out map[string]any
			if err := client.Get("/status", &out); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), out)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), map[string]string{
				"version": version,
				"commit":  commit,
			})
		},
	}
}
