// Package app assembles the lookup stack from configuration and runs it as a
// native messaging host or an MCP server.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/BrainAxe/linkace-extension-modern/internal/background"
	"github.com/BrainAxe/linkace-extension-modern/internal/cache"
	"github.com/BrainAxe/linkace-extension-modern/internal/config"
	"github.com/BrainAxe/linkace-extension-modern/internal/linksvc"
	"github.com/BrainAxe/linkace-extension-modern/internal/mcp"
	"github.com/BrainAxe/linkace-extension-modern/internal/mcp/tools"
	"github.com/BrainAxe/linkace-extension-modern/internal/nativemsg"
	"github.com/BrainAxe/linkace-extension-modern/internal/omnibox"
	"github.com/BrainAxe/linkace-extension-modern/internal/query"
	"github.com/BrainAxe/linkace-extension-modern/internal/schema"
	"github.com/BrainAxe/linkace-extension-modern/internal/tabstatus"
	"github.com/BrainAxe/linkace-extension-modern/pkg/client"
)

// App holds the shared infrastructure. One App serves one process.
type App struct {
	Config  *config.Config
	Cache   *cache.ResponseCache
	Service *linksvc.Service
	Query   *query.Engine
}

// Option configures New.
type Option func(*options)

type options struct {
	backend       linksvc.Backend
	clientOptions []client.Option
}

// WithBackend replaces the LinkAce HTTP client.
func WithBackend(b linksvc.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithClientOptions appends options applied after those derived from the
// config.
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) {
		o.clientOptions = append(o.clientOptions, opts...)
	}
}

// New builds the client, cache and link service for cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	backend := o.backend
	if backend == nil {
		c, err := newClient(cfg, o.clientOptions)
		if err != nil {
			return nil, err
		}
		backend = c
	}

	responseCache, err := cache.New(cfg.CacheMaxItems, cache.WithTTL(cfg.CacheTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}

	return &App{
		Config:  cfg,
		Cache:   responseCache,
		Service: linksvc.New(backend, responseCache),
		Query:   query.NewEngine(),
	}, nil
}

func newClient(cfg *config.Config, extra []client.Option) (*client.Client, error) {
	opts := []client.Option{
		client.WithBaseURL(cfg.APIURL),
		client.WithToken(cfg.APIToken),
	}
	if cfg.HTTPClientTimeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.HTTPClientTimeout))
	}
	if cfg.ValidateResponses {
		v, err := schema.NewResponseValidator()
		if err != nil {
			return nil, fmt.Errorf("failed to create response validator: %w", err)
		}
		opts = append(opts, client.WithValidator(v))
	}
	return client.New(append(opts, extra...)...), nil
}

// Resolver builds a tab resolver publishing to the given sinks.
func (a *App) Resolver(tabs tabstatus.Tabs, badges tabstatus.BadgeSink, store tabstatus.StatusStore) *tabstatus.Resolver {
	var opts []tabstatus.Option
	if a.Config.ActivateSettle > 0 {
		opts = append(opts, tabstatus.WithSettleDelay(a.Config.ActivateSettle))
	}
	return tabstatus.NewResolver(a.Service, tabs, badges, store, opts...)
}

// Aggregator builds an omnibox aggregator opening accepted input with nav.
func (a *App) Aggregator(nav omnibox.Navigator) *omnibox.Aggregator {
	var opts []omnibox.Option
	if a.Config.Debounce > 0 {
		opts = append(opts, omnibox.WithDebounce(a.Config.Debounce))
	}
	if a.Config.SuggestionLimit > 0 {
		opts = append(opts, omnibox.WithLimit(a.Config.SuggestionLimit))
	}
	return omnibox.New(a.Service, nav, opts...)
}

// ToolDeps returns the dependencies of the MCP tools. The resolver has no
// browser behind it, so only Classify may be used.
func (a *App) ToolDeps() *tools.Deps {
	return &tools.Deps{
		Service:    a.Service,
		Resolver:   a.Resolver(nil, nil, nil),
		Aggregator: a.Aggregator(nil),
		Query:      a.Query,
		Config:     a.Config,
	}
}

// MCPServer builds an MCP server with the builtin tools.
func (a *App) MCPServer(opts ...mcp.ServerOption) (*mcp.Server, error) {
	return mcp.NewServer(a.ToolDeps(), append([]mcp.ServerOption{mcp.WithBuiltinTools()}, opts...)...)
}

// ServeNative runs a native messaging host on r and w until the browser
// closes the stream or ctx is cancelled.
func (a *App) ServeNative(ctx context.Context, r io.Reader, w io.Writer, opts ...nativemsg.HostOption) error {
	host := nativemsg.NewHost(r, w, opts...)
	omni := a.Aggregator(host)
	worker := background.New(a.Resolver(host, host, host), omni, a.Service, host.Suggest)
	worker.Start(host)
	defer worker.Stop()

	slog.Info("native messaging host started", slog.Bool("configured", a.Service.Configured()))
	return host.Run(ctx)
}
