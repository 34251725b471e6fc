// Package cli implements the linkace command.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BrainAxe/linkace-extension-modern/internal/app"
	"github.com/BrainAxe/linkace-extension-modern/internal/config"
	"github.com/BrainAxe/linkace-extension-modern/internal/logging"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

type runtime struct {
	configPath string
	logLevel   string

	app        *app.App
	logCleanup func() error
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}

	rootCmd := &cobra.Command{
		Use:   "linkace",
		Short: "LinkAce lookups for the browser extension and MCP clients",
		Long: "linkace looks up pages in a LinkAce instance. It runs as the browser extension's " +
			"native messaging host, as an MCP server, or as a one-shot command line lookup.",
		SilenceUsage: true,
		// Browsers start the host with the caller origin as the only argument.
		Args: cobra.ArbitraryArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && isBrowserLaunch(args) {
				return rt.runHost(cmd)
			}
			if len(args) > 0 {
				return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return cmd.Help()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return rt.close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rt.configPath, "config", "", "config file (default: <user config dir>/linkace/config.toml)")
	flags.StringVar(&rt.logLevel, "log-level", "", "override log_level: debug, info, warn, error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newHostCmd(rt),
		newMCPCmd(rt),
		newCheckCmd(rt),
		newSearchCmd(rt),
	)
	return rootCmd
}

// isBrowserLaunch recognizes the arguments Chromium (an extension origin)
// and Firefox (a manifest path and an extension id) pass to a native host.
func isBrowserLaunch(args []string) bool {
	first := args[0]
	return strings.HasPrefix(first, "chrome-extension://") ||
		(len(args) == 2 && strings.HasSuffix(first, ".json"))
}

// load reads the config, installs logging and builds the app once.
func (rt *runtime) load(cmd *cobra.Command) (*app.App, error) {
	if rt.app != nil {
		return rt.app, nil
	}

	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return nil, err
	}
	if rt.logLevel != "" {
		cfg.LogLevel = rt.logLevel
	}

	logCfg := logging.FromConfig(cfg)
	logCfg.Stderr = cmd.ErrOrStderr()
	cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	rt.logCleanup = cleanup

	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	rt.app = a
	return a, nil
}

func (rt *runtime) close() error {
	if rt.logCleanup == nil {
		return nil
	}
	err := rt.logCleanup()
	rt.logCleanup = nil
	return err
}
