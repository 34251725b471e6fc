// Package tools contains the MCP tool implementations.
package tools

import (
	"github.com/BrainAxe/linkace-extension-modern/internal/config"
	"github.com/BrainAxe/linkace-extension-modern/internal/linksvc"
	"github.com/BrainAxe/linkace-extension-modern/internal/omnibox"
	"github.com/BrainAxe/linkace-extension-modern/internal/query"
	"github.com/BrainAxe/linkace-extension-modern/internal/tabstatus"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Service    *linksvc.Service
	Resolver   *tabstatus.Resolver
	Aggregator *omnibox.Aggregator
	Query      *query.Engine
	Config     *config.Config
}
