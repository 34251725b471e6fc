// Package client provides a Go SDK for the LinkAce v2 REST API.
//
// LinkAce is a self-hosted bookmark archive. This SDK covers the endpoints a
// browser companion needs: link, tag and list search, the links under a tag
// or list, and link CRUD.
//
// # Quick Start
//
//	c := client.New(
//	    client.WithBaseURL("https://links.example.com"),
//	    client.WithToken(token),
//	)
//	links, err := c.SearchLinks(ctx, "https://go.dev")
//
// A client can be created without credentials and configured later; until
// then every call fails with ErrUnconfigured without touching the network:
//
//	c := client.New()
//	c.Configured() // false
//	c.Configure(apiURL, token)
//
// # Search Results
//
// Link searches return the "data" array of the paginated envelope. Tag and
// list searches return an object keyed by id, decoded into Matches in the
// order the keys appear in the response. LinkAce does not document a ranking
// for that object, so Matches.First is an arbitrary match, not a best match.
//
// # Errors
//
// Non-2xx responses are returned as *APIError. A ResponseValidator installed
// with WithValidator can reject malformed bodies before they are decoded.
package client
