package tools

import (
	"context"
	"strconv"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/BrainAxe/linkace-extension-modern/internal/omnibox"
	"github.com/BrainAxe/linkace-extension-modern/internal/query"
	"github.com/BrainAxe/linkace-extension-modern/internal/tabstatus"
	"github.com/BrainAxe/linkace-extension-modern/pkg/client"
)

// Limits for tool output.
const (
	MaxSearchLimit     = 100
	DefaultMaxResults  = 1000
	DefaultQueryLinks  = 50
	MaxQueryLinksLimit = 500
)

// LinkSummary is a compact link representation.
type LinkSummary struct {
	ID    int    `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

func summarize(links []client.Link) []LinkSummary {
	out := make([]LinkSummary, 0, len(links))
	for _, l := range links {
		out = append(out, LinkSummary{ID: l.ID, URL: l.URL, Title: l.Title})
	}
	return out
}

// CheckURLInput is the input for linkace_check_url.
type CheckURLInput struct {
	URL string `json:"url" jsonschema:"Page URL to look up, as it appears in the address bar"`
}

// CheckURLOutput is the output of linkace_check_url.
type CheckURLOutput struct {
	URL            string          `json:"url"`
	NormalizedURL  string          `json:"normalized_url"`
	Status         string          `json:"status"`
	LinkID         int             `json:"link_id,omitempty"`
	PersistedValue *int            `json:"persisted_value,omitempty"`
	Badge          tabstatus.Badge `json:"badge"`
}

// ToolCheckURL reports whether a URL is already bookmarked, the way the
// toolbar badge would show it.
func ToolCheckURL(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input CheckURLInput) (*sdkmcp.CallToolResult, CheckURLOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input CheckURLInput) (*sdkmcp.CallToolResult, CheckURLOutput, error) {
		if strings.TrimSpace(input.URL) == "" {
			return nil, CheckURLOutput{}, ErrInvalidInput("url is required")
		}

		status := d.Resolver.Classify(ctx, input.URL)
		switch status.Kind {
		case tabstatus.KindUnconfigured:
			return nil, CheckURLOutput{}, errNotConfigured()
		case tabstatus.KindError:
			return nil, CheckURLOutput{}, WrapLinkAceError(status.Err)
		}

		out := CheckURLOutput{
			URL:           input.URL,
			NormalizedURL: tabstatus.NormalizeURL(input.URL),
			Status:        status.Kind.String(),
			LinkID:        status.LinkID,
			Badge:         status.Badge(),
		}
		if v, ok := status.Persisted(); ok {
			out.PersistedValue = &v
		}
		return nil, out, nil
	}
}

// SearchInput is the input for linkace_search.
type SearchInput struct {
	Query string `json:"query" jsonschema:"Omnibox-style input: plain words, #tag and @list terms, all of which must match"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max suggestions (default: 10, max: 100)"`
}

// TermOutput is one parsed input term.
type TermOutput struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// SearchOutput is the output of linkace_search.
type SearchOutput struct {
	Terms       []TermOutput         `json:"terms,omitempty"`
	Total       int                  `json:"total"`
	Links       []LinkSummary        `json:"links,omitempty"`
	Suggestions []omnibox.Suggestion `json:"suggestions,omitempty"`
}

// ToolSearch resolves omnibox input into the links matching every term.
func ToolSearch(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, SearchOutput, error) {
		terms := omnibox.ParseTerms(input.Query)
		if len(terms) == 0 {
			return nil, SearchOutput{}, ErrInvalidInput("query is required")
		}
		if !d.Service.Configured() {
			return nil, SearchOutput{}, errNotConfigured()
		}

		limit := input.Limit
		if limit <= 0 {
			limit = d.Config.SuggestionLimit
		}
		limit = min(limit, MaxSearchLimit)

		links, err := d.Aggregator.Links(ctx, input.Query)
		if err != nil {
			return nil, SearchOutput{}, WrapLinkAceError(err)
		}

		out := SearchOutput{
			Total:       len(links),
			Terms:       make([]TermOutput, 0, len(terms)),
			Suggestions: omnibox.Suggestions(links, limit),
		}
		for _, t := range terms {
			out.Terms = append(out.Terms, TermOutput{Kind: t.Kind.String(), Value: t.Value})
		}
		if len(links) > limit {
			links = links[:limit]
		}
		out.Links = summarize(links)
		return nil, out, nil
	}
}

// GetLinkInput is the input for linkace_get_link.
type GetLinkInput struct {
	ID int `json:"id" jsonschema:"Link ID"`
}

// GetLinkOutput is the output of linkace_get_link.
type GetLinkOutput struct {
	ID     int    `json:"id"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	Record any    `json:"record,omitempty"`
}

// ToolGetLink returns one link with its full API record.
func ToolGetLink(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetLinkInput) (*sdkmcp.CallToolResult, GetLinkOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetLinkInput) (*sdkmcp.CallToolResult, GetLinkOutput, error) {
		if input.ID <= 0 {
			return nil, GetLinkOutput{}, ErrInvalidInput("id must be a positive integer")
		}
		link, err := d.Service.GetLink(ctx, input.ID)
		if err != nil {
			return nil, GetLinkOutput{}, WrapLinkAceError(err)
		}
		if link == nil {
			return nil, GetLinkOutput{}, ErrNotFound("link", strconv.Itoa(input.ID))
		}
		record, err := toAny(link)
		if err != nil {
			return nil, GetLinkOutput{}, WrapLinkAceError(err)
		}
		return nil, GetLinkOutput{
			ID:     link.ID,
			URL:    link.URL,
			Title:  link.Title,
			Record: record,
		}, nil
	}
}

// QueryLinksInput is the input for linkace_query_links.
type QueryLinksInput struct {
	Query       string `json:"query" jsonschema:"Omnibox-style input selecting the links to query"`
	Expression  string `json:"expression" jsonschema:"jq expression run against each link's full API record"`
	Deduplicate bool   `json:"deduplicate,omitempty" jsonschema:"Remove duplicate values (default: false)"`
	MaxLinks    int    `json:"max_links,omitempty" jsonschema:"Max links to query (default: 50, max: 500)"`
	MaxResults  int    `json:"max_results,omitempty" jsonschema:"Max values to return (default: 1000)"`
}

// QueryLinksOutput is the output of linkace_query_links.
type QueryLinksOutput struct {
	LinksMatched int      `json:"links_matched"`
	LinksQueried int      `json:"links_queried"`
	RawCount     int      `json:"raw_count"`
	Values       []any    `json:"values,omitempty"`
	MatchedIDs   []int    `json:"matched_ids,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	Truncated    bool     `json:"truncated,omitempty"`
}

// ToolQueryLinks runs a jq expression over the links matching a query.
func ToolQueryLinks(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryLinksInput) (*sdkmcp.CallToolResult, QueryLinksOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryLinksInput) (*sdkmcp.CallToolResult, QueryLinksOutput, error) {
		if input.Expression == "" {
			return nil, QueryLinksOutput{}, ErrInvalidInput("expression is required")
		}
		if len(omnibox.ParseTerms(input.Query)) == 0 {
			return nil, QueryLinksOutput{}, ErrInvalidInput("query is required")
		}
		if _, err := d.Query.Compile(input.Expression); err != nil {
			return nil, QueryLinksOutput{}, ErrInvalidInput(err.Error())
		}
		if !d.Service.Configured() {
			return nil, QueryLinksOutput{}, errNotConfigured()
		}

		maxLinks := input.MaxLinks
		if maxLinks <= 0 {
			maxLinks = DefaultQueryLinks
		}
		maxLinks = min(maxLinks, MaxQueryLinksLimit)
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = DefaultMaxResults
		}

		links, err := d.Aggregator.Links(ctx, input.Query)
		if err != nil {
			return nil, QueryLinksOutput{}, WrapLinkAceError(err)
		}
		out := QueryLinksOutput{LinksMatched: len(links)}
		if len(links) > maxLinks {
			links = links[:maxLinks]
			out.Truncated = true
		}
		out.LinksQueried = len(links)

		result, err := d.Query.Links(links, input.Expression, query.Options{
			Deduplicate: input.Deduplicate,
			MaxResults:  maxResults,
		})
		if err != nil {
			return nil, QueryLinksOutput{}, ErrInvalidInput(err.Error())
		}
		out.RawCount = result.RawCount
		out.Values = result.Values
		out.MatchedIDs = result.MatchedIDs
		out.Errors = result.Errors
		return nil, out, nil
	}
}
