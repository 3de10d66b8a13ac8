package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrygo/arisu/server/service/member"
)

func newMembersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Inspect or edit registered numbers (run while the bot is stopped)",
	}
	cmd.AddCommand(newMembersListCmd())
	cmd.AddCommand(newMembersAddCmd())
	return cmd
}

func newMembersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print registered numbers and numbers that asked without being registered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			registry := member.NewRegistry(s)
			if err := registry.Load(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			registered, unregistered := registry.Registered(), registry.Unregistered()
			_, _ = fmt.Fprintf(out, "Registered (%d):\n", len(registered))
			for _, number := range registered {
				_, _ = fmt.Fprintf(out, "  %s\n", number)
			}
			_, _ = fmt.Fprintf(out, "Unregistered (%d):\n", len(unregistered))
			for _, number := range unregistered {
				_, _ = fmt.Fprintf(out, "  %s\n", number)
			}
			return nil
		},
	}
}

func newMembersAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <number>",
		Short: "Register a number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			registry := member.NewRegistry(s)
			if err := registry.Load(cmd.Context()); err != nil {
				return err
			}
			added, err := registry.RegisterIfAbsent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if added {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", args[0])
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is already registered\n", args[0])
			}
			return nil
		},
	}
}
