package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"anviltrack/internal/service/audit"
)

func newAuditCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run audits and inspect their reports",
	}
	cmd.AddCommand(newAuditRunCmd(client))
	cmd.AddCommand(newAuditLatestCmd(client))
	return cmd
}

func auditTypeHelp() string {
	return strings.Join(audit.Types(), ", ")
}

func newAuditRunCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "run [type]",
		Short: "Run one audit, or all of them",
		Long:  fmt.Sprintf("Run the named audit (%s), or every audit when no type is given.", auditTypeHelp()),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				var out map[string]audit.Export
				if err := client.Post("/api/audits/run", nil, &out); err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), out)
			}
			var out audit.Export
			if err := client.Post("/api/audits/"+args[0]+"/run", nil, &out); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), out)
		},
	}
}

func newAuditLatestCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "latest <type>",
		Short: "Show the most recent report for an audit type",
		Long:  fmt.Sprintf("Show the cached report for the named audit (%s).", auditTypeHelp()),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out audit.Export
			if err := client.Get("/api/audits/"+args[0], &out); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), out)
		},
	}
}
