package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/BrainAxe/linkace-extension-modern/internal/mcp"
)

func newHostCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "host [origin]",
		Short: "Run as the browser extension's native messaging host on stdin/stdout",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.runHost(cmd)
		},
	}
}

func (rt *runtime) runHost(cmd *cobra.Command) error {
	a, err := rt.load(cmd)
	if err != nil {
		return err
	}
	err = a.ServeNative(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("native messaging host stopped")
	return nil
}

func newMCPCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.load(cmd)
			if err != nil {
				return err
			}
			srv, err := a.MCPServer(mcp.WithVersion(Version))
			if err != nil {
				return err
			}

			slog.Info("starting LinkAce MCP server on stdio", slog.Bool("configured", a.Service.Configured()))
			if err := srv.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}
}
