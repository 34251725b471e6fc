// Package omnibox resolves free-text address bar input into bookmark
// suggestions. Every term is looked up concurrently and the results are
// intersected.
package omnibox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/BrainAxe/linkace-extension-modern/pkg/client"
)

// LinkSource is the cached lookup surface the aggregator needs.
type LinkSource interface {
	Configured() bool
	SearchLinks(ctx context.Context, query string) ([]client.Link, error)
	SearchTags(ctx context.Context, query string) (client.Matches, error)
	SearchLists(ctx context.Context, query string) (client.Matches, error)
	TagLinks(ctx context.Context, tagID int) ([]client.Link, error)
	ListLinks(ctx context.Context, listID int) ([]client.Link, error)
}

// Navigator opens an accepted suggestion.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// SuggestFunc receives the suggestions for the latest input.
type SuggestFunc func(ctx context.Context, suggestions []Suggestion)

// Aggregator turns input text into suggestions.
type Aggregator struct {
	links    LinkSource
	nav      Navigator
	limit    int
	debounce *Debouncer
}

// Option configures an Aggregator.
type Option func(*aggregatorOptions)

type aggregatorOptions struct {
	limit    int
	debounce time.Duration
}

// WithLimit caps the number of suggestions. Defaults to DefaultLimit.
func WithLimit(n int) Option {
	return func(o *aggregatorOptions) {
		o.limit = n
	}
}

// WithDebounce sets the input settling window. Defaults to DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(o *aggregatorOptions) {
		o.debounce = d
	}
}

// New creates an Aggregator. nav may be nil when Entered is never called.
func New(links LinkSource, nav Navigator, opts ...Option) *Aggregator {
	o := aggregatorOptions{limit: DefaultLimit, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	return &Aggregator{
		links:    links,
		nav:      nav,
		limit:    o.limit,
		debounce: NewDebouncer(o.debounce),
	}
}

// Input schedules a resolution of text. Only the last input of a burst is
// resolved, and its result is delivered only if no newer input arrived
// while it was in flight. Failures are logged and delivered as no
// suggestions.
func (a *Aggregator) Input(ctx context.Context, text string, sink SuggestFunc) {
	a.debounce.Trigger(func(seq uint64) {
		if ctx.Err() != nil {
			return
		}
		suggestions, err := a.Resolve(ctx, text)
		if err != nil {
			slog.Warn("omnibox resolution failed",
				slog.String("input", text),
				slog.String("error", err.Error()),
			)
			suggestions = []Suggestion{}
		}
		if !a.debounce.Latest(seq) {
			slog.Debug("discarding stale suggestions", slog.Uint64("seq", seq))
			return
		}
		sink(ctx, suggestions)
	})
}

// Stop cancels any pending input resolution.
func (a *Aggregator) Stop() {
	a.debounce.Stop()
}

// Entered navigates to the accepted suggestion content.
func (a *Aggregator) Entered(ctx context.Context, text string) error {
	if a.nav == nil {
		return fmt.Errorf("navigating to %q: no navigator", text)
	}
	if err := a.nav.Navigate(ctx, text); err != nil {
		return fmt.Errorf("navigating to %q: %w", text, err)
	}
	return nil
}

// Resolve returns the suggestions for text.
func (a *Aggregator) Resolve(ctx context.Context, text string) ([]Suggestion, error) {
	links, err := a.Links(ctx, text)
	if err != nil {
		return nil, err
	}
	return Suggestions(links, a.limit), nil
}

// Links returns the links matching every term of text, ordered as the
// first term's results. Empty input or an unconfigured source yields no
// links and no lookups.
func (a *Aggregator) Links(ctx context.Context, text string) ([]client.Link, error) {
	terms := ParseTerms(text)
	if len(terms) == 0 || !a.links.Configured() {
		return []client.Link{}, nil
	}

	results := make([][]client.Link, len(terms))
	g, gctx := errgroup.WithContext(ctx)
	for i, term := range terms {
		g.Go(func() error {
			links, err := a.resolveTerm(gctx, term)
			if err != nil {
				return fmt.Errorf("resolving term %q: %w", term.String(), err)
			}
			results[i] = links
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Intersect(results), nil
}

func (a *Aggregator) resolveTerm(ctx context.Context, term Term) ([]client.Link, error) {
	switch term.Kind {
	case TermTag:
		return a.collectionLinks(ctx, term.Value, a.links.SearchTags, a.links.TagLinks)
	case TermList:
		return a.collectionLinks(ctx, term.Value, a.links.SearchLists, a.links.ListLinks)
	default:
		return a.links.SearchLinks(ctx, term.Value)
	}
}

// collectionLinks looks up a tag or list by name and returns the links of
// the first match, which is the one with the lowest id.
func (a *Aggregator) collectionLinks(
	ctx context.Context,
	name string,
	search func(context.Context, string) (client.Matches, error),
	links func(context.Context, int) ([]client.Link, error),
) ([]client.Link, error) {
	matches, err := search(ctx, name)
	if err != nil {
		return nil, err
	}
	first, ok := matches.First()
	if !ok {
		return []client.Link{}, nil
	}
	return links(ctx, first.ID)
}

// Intersect keeps the links of the first set whose ids appear in every
// other set, in the first set's order. Duplicates in the first set are
// kept once.
func Intersect(sets [][]client.Link) []client.Link {
	if len(sets) == 0 {
		return []client.Link{}
	}

	var common *roaring.Bitmap
	for _, set := range sets[1:] {
		bm := idBitmap(set)
		if common == nil {
			common = bm
		} else {
			common.And(bm)
		}
		if common.IsEmpty() {
			return []client.Link{}
		}
	}

	out := make([]client.Link, 0, len(sets[0]))
	seen := roaring.New()
	for _, l := range sets[0] {
		id, ok := bitmapID(l.ID)
		if !ok || !seen.CheckedAdd(id) {
			continue
		}
		if common != nil && !common.Contains(id) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func idBitmap(links []client.Link) *roaring.Bitmap {
	bm := roaring.New()
	for _, l := range links {
		if id, ok := bitmapID(l.ID); ok {
			bm.Add(id)
		}
	}
	return bm
}

// bitmapID maps a link id into the bitmap domain. LinkAce ids are
// positive; anything else cannot be intersected.
func bitmapID(id int) (uint32, bool) {
	if id <= 0 || uint64(id) > uint64(^uint32(0)) {
		return 0, false
	}
	return uint32(id), true
}
