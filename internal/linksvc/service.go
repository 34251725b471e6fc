// Package linksvc routes LinkAce lookups through the response cache.
package linksvc

import (
	"context"

	"github.com/BrainAxe/linkace-extension-modern/internal/cache"
	"github.com/BrainAxe/linkace-extension-modern/pkg/client"
)

// Backend is the part of the LinkAce client the service depends on.
// *client.Client implements it.
type Backend interface {
	Configured() bool
	Configure(baseURL, token string)
	SearchLinks(ctx context.Context, query string) ([]client.Link, error)
	SearchTags(ctx context.Context, query string) (client.Matches, error)
	SearchLists(ctx context.Context, query string) (client.Matches, error)
	GetTagLinks(ctx context.Context, id int) ([]client.Link, error)
	GetListLinks(ctx context.Context, id int) ([]client.Link, error)
	GetLink(ctx context.Context, id int) (*client.Link, error)
}

var _ Backend = (*client.Client)(nil)

// Service is the cached link search service shared by the tab resolver and
// the omnibox aggregator.
type Service struct {
	backend Backend
	cache   *cache.ResponseCache
}

// New creates a Service.
func New(backend Backend, c *cache.ResponseCache) *Service {
	return &Service{backend: backend, cache: c}
}

// Configured reports whether the backend has an API location and token.
func (s *Service) Configured() bool {
	return s.backend.Configured()
}

// Reconfigure points the backend at a new instance and drops cached
// responses from the previous one.
func (s *Service) Reconfigure(baseURL, token string) {
	s.backend.Configure(baseURL, token)
	s.cache.Purge()
}

// SearchLinks returns links matching query.
func (s *Service) SearchLinks(ctx context.Context, query string) ([]client.Link, error) {
	key := cache.RequestKey(client.PathSearchLinks, client.QueryParams(query))
	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]client.Link, error) {
		return s.backend.SearchLinks(ctx, query)
	})
}

// SearchTags returns tags matching query.
func (s *Service) SearchTags(ctx context.Context, query string) (client.Matches, error) {
	key := cache.RequestKey(client.PathSearchTags, client.QueryParams(query))
	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (client.Matches, error) {
		return s.backend.SearchTags(ctx, query)
	})
}

// SearchLists returns lists matching query.
func (s *Service) SearchLists(ctx context.Context, query string) (client.Matches, error) {
	key := cache.RequestKey(client.PathSearchLists, client.QueryParams(query))
	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (client.Matches, error) {
		return s.backend.SearchLists(ctx, query)
	})
}

// TagLinks returns the links carrying a tag.
func (s *Service) TagLinks(ctx context.Context, tagID int) ([]client.Link, error) {
	key := cache.RequestKey(client.TagLinksPath(tagID), nil)
	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]client.Link, error) {
		return s.backend.GetTagLinks(ctx, tagID)
	})
}

// ListLinks returns the links in a list.
func (s *Service) ListLinks(ctx context.Context, listID int) ([]client.Link, error) {
	key := cache.RequestKey(client.ListLinksPath(listID), nil)
	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]client.Link, error) {
		return s.backend.GetListLinks(ctx, listID)
	})
}

// GetLink returns one link.
func (s *Service) GetLink(ctx context.Context, id int) (*client.Link, error) {
	key := cache.RequestKey(client.LinkPath(id), nil)
	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*client.Link, error) {
		return s.backend.GetLink(ctx, id)
	})
}
