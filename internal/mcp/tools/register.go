package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "linkace_check_url",
		Description: "Check whether a URL is already bookmarked in LinkAce. A single trailing slash is ignored. Returns status (present, absent, not_applicable), link_id when present, and the badge the browser extension would show. Browser-internal pages (chrome://, about:, ...) are not_applicable and are never looked up.",
	}, ToolCheckURL(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "linkace_search",
		Description: "Search LinkAce the way the address bar does. Whitespace-separated terms are ANDed: plain words search links, #name restricts to the first tag matching name, @name to the first list matching name. Results keep the ranking of the first term. Returns links, omnibox suggestions, and the parsed terms.",
	}, ToolSearch(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "linkace_get_link",
		Description: "Get one LinkAce link by id, including its full API record (tags, lists, description, visibility and so on).",
	}, ToolGetLink(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "linkace_query_links",
		Description: "Run a jq expression over the full API record of every link matching an address-bar style query. Example: query \"#golang\", expression \"{title, tags: [.tags[]?.name]}\". Per-link runtime errors are reported in errors without failing the call.",
	}, ToolQueryLinks(d))
}
