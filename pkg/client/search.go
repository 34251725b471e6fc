package client

import (
	"context"
	"fmt"
	"net/url"
)

// API paths. These must match the LinkAce v2 routes exactly.
const (
	PathSearchLinks = "/api/v2/search/links"
	PathSearchTags  = "/api/v2/search/tags"
	PathSearchLists = "/api/v2/search/lists"
	PathLinks       = "/api/v2/links"
	PathTags        = "/api/v2/tags"
	PathLists       = "/api/v2/lists"
)

// QueryParams builds the query string used by the search endpoints.
func QueryParams(query string) url.Values {
	return url.Values{"query": []string{query}}
}

// SearchLinks returns links matching the query.
func (c *Client) SearchLinks(ctx context.Context, query string) ([]Link, error) {
	var page linkPage
	if err := c.get(ctx, PathSearchLinks, QueryParams(query), &page); err != nil {
		return nil, fmt.Errorf("searching links for %q: %w", query, err)
	}
	return page.Data, nil
}

// SearchTags returns tags matching the query.
func (c *Client) SearchTags(ctx context.Context, query string) (Matches, error) {
	var matches Matches
	if err := c.get(ctx, PathSearchTags, QueryParams(query), &matches); err != nil {
		return nil, fmt.Errorf("searching tags for %q: %w", query, err)
	}
	return matches, nil
}

// SearchLists returns lists matching the query.
func (c *Client) SearchLists(ctx context.Context, query string) (Matches, error) {
	var matches Matches
	if err := c.get(ctx, PathSearchLists, QueryParams(query), &matches); err != nil {
		return nil, fmt.Errorf("searching lists for %q: %w", query, err)
	}
	return matches, nil
}
