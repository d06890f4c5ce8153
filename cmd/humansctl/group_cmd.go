package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newGroupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.groups()
			if err != nil {
				return err
			}
			g := groups.New(args[0])
			if err := groups.Create(cmd.Context(), a.db, g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created group %s (id %d)\n", g.Name, g.ID)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <group> <username|email>",
		Short: "Add a user to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.groups()
			if err != nil {
				return err
			}
			g, err := groups.Query(a.db).FindByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if g == nil {
				return fmt.Errorf("group %q not found", args[0])
			}
			u, err := a.findUser(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if err := groups.AddMember(cmd.Context(), a.db, g, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", u.Username, g.Name)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show a group with its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.groups()
			if err != nil {
				return err
			}
			g, err := groups.Query(a.db).FindByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if g == nil {
				return fmt.Errorf("group %q not found", args[0])
			}
			members := make([]string, 0, len(g.Members))
			for _, u := range g.Members {
				members = append(members, u.Username)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:    %s\n", g.Name)
			fmt.Fprintf(out, "members: %s\n", strings.Join(members, ","))
			if g.Permissions != nil {
				perms := make([]string, 0, len(g.Permissions))
				for _, p := range g.Permissions {
					perms = append(perms, p.Name)
				}
				fmt.Fprintf(out, "perms:   %s\n", strings.Join(perms, ","))
			}
			return nil
		},
	})
	return cmd
}
