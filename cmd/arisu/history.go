package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrygo/arisu/plugin/ai/session"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage stored conversations (run while the bot is stopped)",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every stored conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			sessions := session.NewStore(s)
			// Loading first refuses to overwrite a snapshot that does not parse.
			if err := sessions.Load(cmd.Context()); err != nil {
				return err
			}
			users := len(sessions.Users())
			if err := sessions.ClearAll(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleared %d conversations\n", users)
			return nil
		},
	})
	return cmd
}
