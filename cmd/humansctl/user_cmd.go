package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/panyam/humans"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserCreateCmd(a))
	cmd.AddCommand(newUserShowCmd(a))
	cmd.AddCommand(newUserCheckCmd(a))
	cmd.AddCommand(newUserPasswordCmd(a))
	return cmd
}

func newUserCreateCmd(a *app) *cobra.Command {
	var params humans.UserParams
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Username = args[0]
			u, err := a.dirs.Users.New(params)
			if err != nil {
				return err
			}
			if err := a.dirs.Users.Create(cmd.Context(), a.db, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&params.EmailAddress, "email", "", "Email address")
	cmd.Flags().StringVar(&params.Password, "password", "", "Password")
	cmd.Flags().BoolVar(&params.IsActive, "active", false, "Mark the user active")
	cmd.Flags().BoolVar(&params.IsAdmin, "admin", false, "Mark the user admin")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <username|email>",
		Short: "Show a user with its groups and permissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.findUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:       %d\n", u.ID)
			fmt.Fprintf(out, "username: %s\n", u.Username)
			fmt.Fprintf(out, "email:    %s\n", u.Email())
			fmt.Fprintf(out, "active:   %t\n", u.IsActive)
			fmt.Fprintf(out, "admin:    %t\n", u.IsAdmin)
			if member, ok := u.AsGroupMember(); ok {
				fmt.Fprintf(out, "groups:   %s\n", strings.Join(member.GroupNames(), ","))
			}
			if holder, ok := u.AsPermissionHolder(); ok {
				fmt.Fprintf(out, "perms:    %s\n", strings.Join(holder.PermissionsList(), ","))
			}
			return nil
		},
	}
}

func newUserCheckCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "check <username|email>",
		Short: "Verify a password, upgrading its hash if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.dirs.Users.Query(a.db).Authenticate(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			if u == nil {
				return errInvalidCredentials
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password to verify")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserPasswordCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "passwd <username|email>",
		Short: "Set a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.findUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := u.SetPassword(password); err != nil {
				return err
			}
			if err := a.dirs.Users.Save(cmd.Context(), a.db, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated password for %s\n", u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "New password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
