package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hrygo/arisu/internal/profile"
	"github.com/hrygo/arisu/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server the messaging client posts to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := loggerFromViper(os.Stderr)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			p, s, err := openStore()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			srv, err := server.NewServer(ctx, p, s, logger)
			if err != nil {
				_ = s.Close()
				slog.Error("failed to create server", "error", err)
				return err
			}
			if err := srv.Start(ctx); err != nil {
				srv.Shutdown(context.Background())
				slog.Error("failed to start server", "error", err)
				return err
			}

			printGreetings(cmd, p)
			<-ctx.Done()
			srv.Shutdown(context.Background())
			return nil
		},
	}
}

func printGreetings(cmd *cobra.Command, p *profile.Profile) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Arisu %s started successfully!\n", p.Version)
	_, _ = fmt.Fprintf(out, "Data directory: %s\n", p.Data)
	_, _ = fmt.Fprintf(out, "Snapshot driver: %s\n", p.Driver)
	_, _ = fmt.Fprintf(out, "Webhook: http://%s:%d/api/v1/messages\n", hostOrLocalhost(p.Addr), p.Port)
	_, _ = fmt.Fprintf(out, "AI enabled: %t, image search enabled: %t\n", p.IsAIEnabled(), p.IsImageSearchEnabled())
}

func hostOrLocalhost(addr string) string {
	if addr == "" {
		return "localhost"
	}
	return addr
}
