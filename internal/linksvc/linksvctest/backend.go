// Package linksvctest provides an in-memory linksvc.Backend for tests.
package linksvctest

import (
	"context"
	"fmt"
	"sync"

	"github.com/BrainAxe/linkace-extension-modern/pkg/client"
)

// Backend is a scripted LinkAce backend. Zero value is unconfigured and
// returns empty results; set fields before use.
type Backend struct {
	mu sync.Mutex

	BaseURL string
	Token   string

	Links     map[string][]client.Link
	Tags      map[string]client.Matches
	Lists     map[string]client.Matches
	TagLinks  map[int][]client.Link
	ListLinks map[int][]client.Link
	ByID      map[int]client.Link

	// Err, when set, is returned by every call.
	Err error
	// Hook, when set, runs at the start of every call.
	Hook func(ctx context.Context, op string) error

	calls []string
}

// NewConfigured returns a backend that reports itself configured.
func NewConfigured() *Backend {
	return &Backend{BaseURL: "https://links.test", Token: "token"}
}

// Calls returns the operations invoked so far, in order.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *Backend) record(ctx context.Context, op string) error {
	b.mu.Lock()
	b.calls = append(b.calls, op)
	hook, err := b.Hook, b.Err
	configured := b.BaseURL != "" && b.Token != ""
	b.mu.Unlock()

	if !configured {
		return client.ErrUnconfigured
	}
	if hook != nil {
		if err := hook(ctx, op); err != nil {
			return err
		}
	}
	return err
}

func (b *Backend) Configured() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.BaseURL != "" && b.Token != ""
}

func (b *Backend) Configure(baseURL, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.BaseURL, b.Token = baseURL, token
}

func (b *Backend) SearchLinks(ctx context.Context, query string) ([]client.Link, error) {
	if err := b.record(ctx, "searchLinks:"+query); err != nil {
		return nil, err
	}
	return b.Links[query], nil
}

func (b *Backend) SearchTags(ctx context.Context, query string) (client.Matches, error) {
	if err := b.record(ctx, "searchTags:"+query); err != nil {
		return nil, err
	}
	return b.Tags[query], nil
}

func (b *Backend) SearchLists(ctx context.Context, query string) (client.Matches, error) {
	if err := b.record(ctx, "searchLists:"+query); err != nil {
		return nil, err
	}
	return b.Lists[query], nil
}

func (b *Backend) GetTagLinks(ctx context.Context, id int) ([]client.Link, error) {
	if err := b.record(ctx, fmt.Sprintf("tagLinks:%d", id)); err != nil {
		return nil, err
	}
	return b.TagLinks[id], nil
}

func (b *Backend) GetListLinks(ctx context.Context, id int) ([]client.Link, error) {
	if err := b.record(ctx, fmt.Sprintf("listLinks:%d", id)); err != nil {
		return nil, err
	}
	return b.ListLinks[id], nil
}

func (b *Backend) GetLink(ctx context.Context, id int) (*client.Link, error) {
	if err := b.record(ctx, fmt.Sprintf("getLink:%d", id)); err != nil {
		return nil, err
	}
	link, ok := b.ByID[id]
	if !ok {
		return nil, &client.APIError{StatusCode: 404, Message: "No query results for model"}
	}
	return &link, nil
}

// Links builds link records with the given ids.
func Links(ids ...int) []client.Link {
	out := make([]client.Link, 0, len(ids))
	for _, id := range ids {
		out = append(out, client.Link{
			ID:    id,
			URL:   fmt.Sprintf("https://example.com/%d", id),
			Title: fmt.Sprintf("Link %d", id),
		})
	}
	return out
}
