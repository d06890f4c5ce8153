package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPermissionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "permission",
		Aliases: []string{"perm"},
		Short:   "Manage permissions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a permission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			perms, err := a.permissions()
			if err != nil {
				return err
			}
			p := perms.New(args[0])
			if err := perms.Create(cmd.Context(), a.db, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created permission %s (id %d)\n", p.Name, p.ID)
			return nil
		},
	})
	cmd.AddCommand(newPermissionGrantCmd(a))
	return cmd
}

func newPermissionGrantCmd(a *app) *cobra.Command {
	var user, group string
	cmd := &cobra.Command{
		Use:   "grant <permission>",
		Short: "Grant a permission to a user or a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" && group == "" {
				return fmt.Errorf("one of --user or --group is required")
			}
			perms, err := a.permissions()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			p, err := perms.Query(a.db).FindByName(ctx, args[0])
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("permission %q not found", args[0])
			}

			if user != "" {
				u, err := a.findUser(ctx, user)
				if err != nil {
					return err
				}
				if err := perms.GrantUser(ctx, a.db, p, u); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "granted %s to user %s\n", p.Name, u.Username)
			}
			if group != "" {
				groups, err := a.groups()
				if err != nil {
					return err
				}
				g, err := groups.Query(a.db).FindByName(ctx, group)
				if err != nil {
					return err
				}
				if g == nil {
					return fmt.Errorf("group %q not found", group)
				}
				if err := perms.GrantGroup(ctx, a.db, p, g); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "granted %s to group %s\n", p.Name, g.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Username or email to grant to")
	cmd.Flags().StringVar(&group, "group", "", "Group name to grant to")
	return cmd
}
