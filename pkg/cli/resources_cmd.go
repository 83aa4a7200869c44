package cli

import (
	"github.com/spf13/cobra"
)

// resourceCmd builds the shared list/get/delete verbs for one API collection.
func resourceCmd(client *Client, use, short, basePath string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List " + use,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out []map[string]any
			if err := client.Get(basePath, &out); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), out)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one of the " + use,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := client.Get(basePath+"/"+args[0], &out); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), out)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of the " + use,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.Delete(basePath + "/" + args[0])
		},
	})

	return cmd
}

func newBillingProjectsCmd(client *Client) *cobra.Command {
	cmd := resourceCmd(client, "billing-projects", "Manage tracked billing projects", "/api/billing-projects")

	var (
		name         string
		hasAppAsUser bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Track a billing project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body := map[string]any{"name": name, "has_app_as_user": hasAppAsUser}
			var out map[string]any
			if err := client.Post("/api/billing-projects", body, &out); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), out)
		},
	}
	create.Flags().StringVar(&name, "name", "", "Billing project name")
	create.Flags().BoolVar(&hasAppAsUser, "has-app-as-user", true, "Whether the app's service account is a project user")
	_ = create.MarkFlagRequired("name")
	cmd.AddCommand(create)

	return cmd
}

func newAccountsCmd(client *Client) *cobra.Command {
	cmd := resourceCmd(client, "accounts", "Manage tracked accounts", "/api/accounts")

	var (
		email            string
		isServiceAccount bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Track an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body := map[string]any{"email": email, "is_service_account": isServiceAccount}
			var out map[string]any
			if err := client.Post("/api/accounts", body, &out); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), out)
		},
	}
	create.Flags().StringVar(&email, "email", "", "Account email")
	create.Flags().BoolVar(&isServiceAccount, "service-account", false, "Whether this is a service account")
	_ = create.MarkFlagRequired("email")
	cmd.AddCommand(create)

	for _, verb := range []string{"deactivate", "reactivate"} {
		verb := verb
		cmd.AddCommand(&cobra.Command{
			Use:   verb + " <id>",
			Short: verb + " an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var out map[string]any
				if err := client.Post("/api/accounts/"+args[0]+"/"+verb, nil, &out); err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), out)
			},
		})
	}

	return cmd
}

func newGroupsCmd(client *Client) *cobra.Command {
	cmd := resourceCmd(client, "groups", "Manage tracked managed groups", "/api/groups")

	var (
		name           string
		email          string
		isManagedByApp bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Track a managed group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body := map[string]any{"name": name, "email": email, "is_managed_by_app": isManagedByApp}
			var out map[string]any
			if err := client.Post("/api/groups", body, &out); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), out)
		},
	}
	create.Flags().StringVar(&name, "name", "", "Group name")
	create.Flags().StringVar(&email, "email", "", "Group email (derived from the name when empty)")
	create.Flags().BoolVar(&isManagedByApp, "managed", true, "Whether the app administers the remote group")
	_ = create.MarkFlagRequired("name")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "graph",
		Short: "Show the full membership graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out map[string]any
			if err := client.Get("/api/groups/graph", &out); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), out)
		},
	})

	return cmd
}

func newWorkspacesCmd(client *Client) *cobra.Command {
	cmd := resourceCmd(client, "workspaces", "Manage tracked workspaces", "/api/workspaces")

	cmd.AddCommand(&cobra.Command{
		Use:   "sharing <id>",
		Short: "List the sharing records of a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out []map[string]any
			if err := client.Get("/api/workspaces/"+args[0]+"/sharing", &out); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), getOutputFormat(cmd), out)
		},
	})

	return cmd
}
