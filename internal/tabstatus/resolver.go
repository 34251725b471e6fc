package tabstatus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BrainAxe/linkace-extension-modern/pkg/client"
)

// DefaultSettleDelay is how long an activated tab is left alone before it is
// checked, so an in-flight navigation can land first.
const DefaultSettleDelay = 100 * time.Millisecond

// Tab is the part of a browser tab the resolver reads.
type Tab struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

// Tabs looks up browser tabs.
type Tabs interface {
	Tab(ctx context.Context, tabID int) (Tab, error)
	ActiveTab(ctx context.Context) (Tab, bool, error)
}

// BadgeSink receives badge updates.
type BadgeSink interface {
	SetBadge(ctx context.Context, tabID int, badge Badge) error
}

// StatusStore receives the persisted per-tab status.
type StatusStore interface {
	SetPersistedStatus(ctx context.Context, key string, value int) error
}

// LinkSearcher is the lookup the resolver needs.
type LinkSearcher interface {
	Configured() bool
	SearchLinks(ctx context.Context, query string) ([]client.Link, error)
}

// Resolver classifies tabs and publishes the result.
type Resolver struct {
	links  LinkSearcher
	tabs   Tabs
	badges BadgeSink
	store  StatusStore
	settle time.Duration

	mu          sync.Mutex
	generations map[int]uint64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSettleDelay overrides DefaultSettleDelay.
func WithSettleDelay(d time.Duration) Option {
	return func(r *Resolver) {
		r.settle = d
	}
}

// NewResolver creates a Resolver.
func NewResolver(links LinkSearcher, tabs Tabs, badges BadgeSink, store StatusStore, opts ...Option) *Resolver {
	r := &Resolver{
		links:       links,
		tabs:        tabs,
		badges:      badges,
		store:       store,
		settle:      DefaultSettleDelay,
		generations: make(map[int]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnUpdated handles a tab update; only a finished load triggers a check.
func (r *Resolver) OnUpdated(ctx context.Context, tabID int, complete bool) {
	if !complete {
		return
	}
	r.Resolve(ctx, tabID)
}

// OnActivated waits for the settle delay and then checks a newly activated
// tab. It blocks; nothing happens if ctx is done before the delay elapses.
func (r *Resolver) OnActivated(ctx context.Context, tabID int) {
	timer := time.NewTimer(r.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	r.Resolve(ctx, tabID)
}

// OnRemoved forgets a closed tab.
func (r *Resolver) OnRemoved(tabID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.generations, tabID)
}

// CheckActive resolves the currently active tab, if there is one.
func (r *Resolver) CheckActive(ctx context.Context) {
	tab, ok, err := r.tabs.ActiveTab(ctx)
	if err != nil {
		slog.Warn("failed to query active tab", slog.String("error", err.Error()))
		return
	}
	if !ok {
		return
	}
	r.Resolve(ctx, tab.ID)
}

// Resolve determines the status of a tab, updates its badge and persisted
// status, and returns the status. Failures are reported through the status
// and never returned.
//
// A resolution that has been overtaken by a newer one for the same tab
// still returns its status but does not publish it.
func (r *Resolver) Resolve(ctx context.Context, tabID int) Status {
	if !r.links.Configured() {
		slog.Debug("skipping tab check, API not configured", slog.Int("tab_id", tabID))
		return Status{Kind: KindUnconfigured}
	}

	gen := r.begin(tabID)
	r.setBadge(ctx, tabID, BadgeLoading)

	var status Status
	tab, err := r.tabs.Tab(ctx, tabID)
	if err != nil {
		status = Status{Kind: KindError, Err: err}
	} else {
		status = r.Classify(ctx, tab.URL)
	}

	if status.Kind == KindError {
		slog.Warn("tab status check failed",
			slog.Int("tab_id", tabID),
			slog.String("error", status.Err.Error()),
		)
	}

	if ctx.Err() != nil {
		slog.Debug("abandoning cancelled tab status check", slog.Int("tab_id", tabID))
		return status
	}
	if !r.current(tabID, gen) {
		slog.Debug("discarding superseded tab status",
			slog.Int("tab_id", tabID),
			slog.String("status", status.String()),
		)
		return status
	}
	r.publish(ctx, tabID, status)
	return status
}

// Classify looks up a URL without touching any sink.
func (r *Resolver) Classify(ctx context.Context, rawURL string) Status {
	if !r.links.Configured() {
		return Status{Kind: KindUnconfigured}
	}
	if !Applicable(rawURL) {
		return Status{Kind: KindNotApplicable}
	}

	links, err := r.links.SearchLinks(ctx, NormalizeURL(rawURL))
	if err != nil {
		return Status{Kind: KindError, Err: err}
	}
	if len(links) == 0 {
		return Status{Kind: KindAbsent}
	}
	return Status{Kind: KindPresent, LinkID: links[0].ID}
}

func (r *Resolver) begin(tabID int) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations[tabID]++
	return r.generations[tabID]
}

func (r *Resolver) current(tabID int, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[tabID] == gen
}

func (r *Resolver) publish(ctx context.Context, tabID int, status Status) {
	r.setBadge(ctx, tabID, status.Badge())
	value, ok := status.Persisted()
	if !ok {
		return
	}
	if err := r.store.SetPersistedStatus(ctx, StatusKey(tabID), value); err != nil {
		slog.Warn("failed to persist tab status",
			slog.Int("tab_id", tabID),
			slog.String("error", err.Error()),
		)
	}
}

func (r *Resolver) setBadge(ctx context.Context, tabID int, badge Badge) {
	if err := r.badges.SetBadge(ctx, tabID, badge); err != nil {
		slog.Warn("failed to set badge",
			slog.Int("tab_id", tabID),
			slog.String("badge", badge.Text),
			slog.String("error", err.Error()),
		)
	}
}
