package tabstatus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrainAxe/linkace-extension-modern/internal/cache"
	"github.com/BrainAxe/linkace-extension-modern/internal/linksvc"
	"github.com/BrainAxe/linkace-extension-modern/internal/linksvc/linksvctest"
	"github.com/BrainAxe/linkace-extension-modern/pkg/client"
)

type fakeTabs struct {
	mu     sync.Mutex
	urls   map[int]string
	active int
	err    error
}

func (f *fakeTabs) Tab(_ context.Context, tabID int) (Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Tab{}, f.err
	}
	u, ok := f.urls[tabID]
	if !ok {
		return Tab{}, fmt.Errorf("no tab with id %d", tabID)
	}
	return Tab{ID: tabID, URL: u}, nil
}

func (f *fakeTabs) ActiveTab(_ context.Context) (Tab, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.urls[f.active]
	return Tab{ID: f.active, URL: u}, ok, nil
}

func (f *fakeTabs) set(tabID int, u string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls[tabID] = u
}

type badgeCall struct {
	TabID int
	Badge Badge
}

type recorder struct {
	mu     sync.Mutex
	badges []badgeCall
	stored map[string]int
	writes int
}

func newRecorder() *recorder {
	return &recorder{stored: make(map[string]int)}
}

func (r *recorder) SetBadge(_ context.Context, tabID int, b Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.badges = append(r.badges, badgeCall{TabID: tabID, Badge: b})
	return nil
}

func (r *recorder) SetPersistedStatus(_ context.Context, key string, value int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored[key] = value
	r.writes++
	return nil
}

func (r *recorder) badgeTexts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.badges))
	for _, b := range r.badges {
		out = append(out, b.Badge.Text)
	}
	return out
}

func (r *recorder) lastBadge() Badge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.badges) == 0 {
		return Badge{}
	}
	return r.badges[len(r.badges)-1].Badge
}

func (r *recorder) value(key string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.stored[key]
	return v, ok
}

type fixture struct {
	backend  *linksvctest.Backend
	tabs     *fakeTabs
	rec      *recorder
	resolver *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := linksvctest.NewConfigured()
	c, err := cache.New(64)
	require.NoError(t, err)
	tabs := &fakeTabs{urls: map[int]string{}}
	rec := newRecorder()
	return &fixture{
		backend:  b,
		tabs:     tabs,
		rec:      rec,
		resolver: NewResolver(linksvc.New(b, c), tabs, rec, rec, WithSettleDelay(5*time.Millisecond)),
	}
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	inputs := []string{
		"https://example.com/",
		"https://example.com",
		"https://example.com/path/",
		"https://example.com//",
		"https://",
		"/",
		"",
	}
	for _, in := range inputs {
		once := NormalizeURL(in)
		assert.Equal(t, once, NormalizeURL(once), "input %q", in)
	}
	assert.Equal(t, "https://example.com", NormalizeURL("https://example.com/"))
	assert.Equal(t, "https://example.com/a", NormalizeURL("https://example.com/a"))
	assert.Equal(t, "https://example.com//", NormalizeURL("https://example.com//"))
}

func TestApplicable(t *testing.T) {
	assert.False(t, Applicable(""))
	assert.False(t, Applicable("chrome://settings"))
	assert.False(t, Applicable("chrome-extension://abc/popup.html"))
	assert.False(t, Applicable("about:blank"))
	assert.True(t, Applicable("https://example.com"))
	assert.True(t, Applicable("http://chrome.example.com"))
}

func TestResolve_Present(t *testing.T) {
	f := newFixture(t)
	f.backend.Links = map[string][]client.Link{
		"https://example.com": {{ID: 42, URL: "https://example.com"}, {ID: 43, URL: "https://example.com"}},
	}
	f.tabs.set(1, "https://example.com/")

	status := f.resolver.Resolve(context.Background(), 1)

	assert.Equal(t, Status{Kind: KindPresent, LinkID: 42}, status)
	assert.Equal(t, []string{"o", "✓"}, f.rec.badgeTexts())
	assert.Equal(t, BadgePresent, f.rec.lastBadge())
	v, ok := f.rec.value(StatusKey(1))
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, []string{"searchLinks:https://example.com"}, f.backend.Calls())
}

func TestResolve_Absent(t *testing.T) {
	f := newFixture(t)
	f.tabs.set(2, "https://unknown.test/page")

	status := f.resolver.Resolve(context.Background(), 2)

	assert.Equal(t, KindAbsent, status.Kind)
	assert.Equal(t, []string{"o", ""}, f.rec.badgeTexts())
	v, ok := f.rec.value(StatusKey(2))
	require.True(t, ok)
	assert.Equal(t, SentinelAbsent, v)
}

func TestResolve_Timeout(t *testing.T) {
	f := newFixture(t)
	f.backend.Hook = func(context.Context, string) error {
		return fmt.Errorf("executing request: %w", context.DeadlineExceeded)
	}
	f.tabs.set(3, "https://slow.test")

	status := f.resolver.Resolve(context.Background(), 3)

	assert.Equal(t, KindError, status.Kind)
	assert.ErrorIs(t, status.Err, context.DeadlineExceeded)
	assert.Equal(t, BadgeError, f.rec.lastBadge())
	v, ok := f.rec.value(StatusKey(3))
	require.True(t, ok)
	assert.Equal(t, SentinelError, v)
}

func TestResolve_TabLookupFailure(t *testing.T) {
	f := newFixture(t)
	f.tabs.err = errors.New("tab gone")

	status := f.resolver.Resolve(context.Background(), 9)

	assert.Equal(t, KindError, status.Kind)
	v, _ := f.rec.value(StatusKey(9))
	assert.Equal(t, SentinelError, v)
	assert.Empty(t, f.backend.Calls())
}

func TestResolve_NotApplicable(t *testing.T) {
	for _, u := range []string{"", "chrome://newtab/", "chrome-extension://id/options.html"} {
		f := newFixture(t)
		f.tabs.set(4, u)

		status := f.resolver.Resolve(context.Background(), 4)

		assert.Equal(t, KindNotApplicable, status.Kind, "url %q", u)
		assert.Equal(t, []string{"o", ""}, f.rec.badgeTexts())
		_, stored := f.rec.value(StatusKey(4))
		assert.False(t, stored)
		assert.Empty(t, f.backend.Calls())
	}
}

func TestResolve_Unconfigured(t *testing.T) {
	f := newFixture(t)
	f.backend.Configure("", "")
	f.tabs.set(5, "https://example.com")

	status := f.resolver.Resolve(context.Background(), 5)

	assert.Equal(t, KindUnconfigured, status.Kind)
	assert.Empty(t, f.rec.badgeTexts())
	assert.Equal(t, 0, f.rec.writes)
	assert.Empty(t, f.backend.Calls())
}

func TestResolve_UsesCache(t *testing.T) {
	f := newFixture(t)
	f.backend.Links = map[string][]client.Link{"https://example.com": {{ID: 7}}}
	f.tabs.set(1, "https://example.com/")
	f.tabs.set(2, "https://example.com")

	f.resolver.Resolve(context.Background(), 1)
	f.resolver.Resolve(context.Background(), 2)

	assert.Len(t, f.backend.Calls(), 1)
}

func TestResolve_SupersededResultIsDiscarded(t *testing.T) {
	f := newFixture(t)
	f.backend.Links = map[string][]client.Link{
		"https://old.test": {{ID: 1}},
	}
	release := make(chan struct{})
	f.backend.Hook = func(_ context.Context, op string) error {
		if op == "searchLinks:https://old.test" {
			<-release
		}
		return nil
	}
	f.tabs.set(1, "https://old.test")

	done := make(chan Status)
	go func() {
		done <- f.resolver.Resolve(context.Background(), 1)
	}()
	require.Eventually(t, func() bool {
		return len(f.backend.Calls()) == 1
	}, time.Second, time.Millisecond)

	// The tab navigates elsewhere while the first lookup is in flight.
	f.tabs.set(1, "https://new.test")
	newer := f.resolver.Resolve(context.Background(), 1)
	assert.Equal(t, KindAbsent, newer.Kind)

	close(release)
	older := <-done
	assert.Equal(t, Status{Kind: KindPresent, LinkID: 1}, older)

	v, _ := f.rec.value(StatusKey(1))
	assert.Equal(t, SentinelAbsent, v)
	assert.Equal(t, BadgeClear, f.rec.lastBadge())
}

func TestOnUpdated_OnlyWhenComplete(t *testing.T) {
	f := newFixture(t)
	f.tabs.set(1, "https://example.com")

	f.resolver.OnUpdated(context.Background(), 1, false)
	assert.Empty(t, f.rec.badgeTexts())

	f.resolver.OnUpdated(context.Background(), 1, true)
	assert.Equal(t, []string{"o", ""}, f.rec.badgeTexts())
}

func TestOnActivated_AfterSettleDelay(t *testing.T) {
	f := newFixture(t)
	f.backend.Links = map[string][]client.Link{"https://example.com": {{ID: 3}}}
	f.tabs.set(6, "https://example.com")

	f.resolver.OnActivated(context.Background(), 6)

	require.Eventually(t, func() bool {
		v, ok := f.rec.value(StatusKey(6))
		return ok && v == 3
	}, time.Second, 2*time.Millisecond)
}

func TestOnActivated_CancelledBeforeSettle(t *testing.T) {
	f := newFixture(t)
	f.tabs.set(6, "https://example.com")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.resolver.OnActivated(ctx, 6)

	assert.Empty(t, f.rec.badgeTexts())
	assert.Empty(t, f.backend.Calls())
}

func TestResolve_CancelledDuringLookupPublishesNothing(t *testing.T) {
	f := newFixture(t)
	f.tabs.set(1, "https://example.com")
	ctx, cancel := context.WithCancel(context.Background())
	f.backend.Hook = func(context.Context, string) error {
		cancel()
		return context.Canceled
	}

	status := f.resolver.Resolve(ctx, 1)

	assert.Equal(t, KindError, status.Kind)
	assert.Equal(t, []string{"o"}, f.rec.badgeTexts())
	_, stored := f.rec.value(StatusKey(1))
	assert.False(t, stored)
}

func TestCheckActive(t *testing.T) {
	f := newFixture(t)
	f.tabs.set(8, "https://example.com")
	f.tabs.active = 8

	f.resolver.CheckActive(context.Background())

	v, ok := f.rec.value(StatusKey(8))
	require.True(t, ok)
	assert.Equal(t, SentinelAbsent, v)
}

func TestStatus_BadgeAndPersisted(t *testing.T) {
	cases := []struct {
		status    Status
		badge     Badge
		value     int
		persisted bool
	}{
		{Status{Kind: KindLoading}, BadgeLoading, 0, false},
		{Status{Kind: KindPresent, LinkID: 5}, BadgePresent, 5, true},
		{Status{Kind: KindAbsent}, BadgeClear, SentinelAbsent, true},
		{Status{Kind: KindError}, BadgeError, SentinelError, true},
		{Status{Kind: KindNotApplicable}, BadgeClear, 0, false},
		{Status{Kind: KindUnconfigured}, BadgeClear, 0, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.badge, tc.status.Badge(), tc.status.String())
		v, ok := tc.status.Persisted()
		assert.Equal(t, tc.persisted, ok, tc.status.String())
		assert.Equal(t, tc.value, v, tc.status.String())
	}
}
