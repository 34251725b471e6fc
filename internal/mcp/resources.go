package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/BrainAxe/linkace-extension-modern/internal/mcp/tools"
)

// Resource URIs:
//
//	linkace://link/{id}
//	linkace://tag/{id}/links
//	linkace://list/{id}/links
const resourceScheme = "linkace://"

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: resourceScheme + "link/{id}",
		Name:        "Link",
		Description: "Full LinkAce API record of one link.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.6,
		},
	}, s.handleResourceLink)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: resourceScheme + "tag/{id}/links",
		Name:        "Tag Links",
		Description: "All links carrying a tag. Prefer linkace_search with #name for filtered results.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.4,
		},
	}, s.handleResourceCollection)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: resourceScheme + "list/{id}/links",
		Name:        "List Links",
		Description: "All links in a list. Prefer linkace_search with @name for filtered results.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.4,
		},
	}, s.handleResourceCollection)
}

func (s *Server) handleResourceLink(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	ref, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}
	link, err := s.deps.Service.GetLink(ctx, ref.id)
	if err != nil {
		return nil, tools.WrapLinkAceError(err)
	}
	return toResourceResult(req.Params.URI, link)
}

func (s *Server) handleResourceCollection(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	ref, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	var content any
	switch ref.kind {
	case "tag":
		content, err = s.deps.Service.TagLinks(ctx, ref.id)
	case "list":
		content, err = s.deps.Service.ListLinks(ctx, ref.id)
	default:
		return nil, tools.ErrInvalidInput("unsupported resource: " + req.Params.URI)
	}
	if err != nil {
		return nil, tools.WrapLinkAceError(err)
	}
	return toResourceResult(req.Params.URI, content)
}

type resourceRef struct {
	kind string
	id   int
}

func parseResourceURI(uri string) (resourceRef, error) {
	if !strings.HasPrefix(uri, resourceScheme) {
		return resourceRef{}, tools.ErrInvalidInput("invalid URI scheme: expected " + resourceScheme)
	}
	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	if len(parts) < 2 {
		return resourceRef{}, tools.ErrInvalidInput("resource URI requires a type and an id")
	}

	id, err := strconv.Atoi(parts[1])
	if err != nil || id <= 0 {
		return resourceRef{}, tools.ErrInvalidInput("invalid id: " + parts[1])
	}
	ref := resourceRef{kind: parts[0], id: id}

	switch ref.kind {
	case "link":
		if len(parts) != 2 {
			return resourceRef{}, tools.ErrInvalidInput("link URI takes only an id")
		}
	case "tag", "list":
		if len(parts) != 3 || parts[2] != "links" {
			return resourceRef{}, tools.ErrInvalidInput(ref.kind + " URI must end in /links")
		}
	default:
		return resourceRef{}, tools.ErrInvalidInput("unknown resource type: " + ref.kind)
	}
	return ref, nil
}

func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}
	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
